package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// HTTPSender delivers messages through a JSON email API with a bearer key
type HTTPSender struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ notification.Sender = (*HTTPSender)(nil)

type sendRequest struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// NewHTTPSender creates a sender posting to <base_url>/v1/messages
func NewHTTPSender(cfg config.EmailConfig, logger *zap.Logger) (*HTTPSender, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("email: base url is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("email: invalid base url: %w", err)
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("email: from address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPSender{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/v1/messages",
		apiKey:     cfg.APIKey,
		from:       fromHeader(cfg.FromName, cfg.FromAddress),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Send posts one message. 4xx answers other than 408 and 429 come back
// as *notification.PermanentError.
func (s *HTTPSender) Send(ctx context.Context, msg *notification.Message) error {
	body, err := json.Marshal(sendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
		Headers: map[string]string{"X-Message-ID": msg.ID.String()},
	})
	if err != nil {
		return fmt.Errorf("email: failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.ID.String())
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: send %s: %w", msg.ID, err)
	}
	defer resp.Body.Close()
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 300 {
		s.logger.Debug("Email accepted by provider",
			zap.String("message_id", msg.ID.String()),
			zap.Int("status", resp.StatusCode))
		return nil
	}

	sendErr := fmt.Errorf("email provider returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	if notification.IsPermanentStatus(resp.StatusCode) {
		return &notification.PermanentError{StatusCode: resp.StatusCode, Err: sendErr}
	}
	return sendErr
}

func fromHeader(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

// LogSender writes messages to the log instead of delivering them
type LogSender struct {
	logger *zap.Logger
}

var _ notification.Sender = (*LogSender)(nil)

// NewLogSender creates a development sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and always succeeds
func (s *LogSender) Send(ctx context.Context, msg *notification.Message) error {
	s.logger.Info("Email (log sender)",
		zap.String("message_id", msg.ID.String()),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
		zap.Int("text_bytes", len(msg.TextBody)))
	return nil
}

// NewSender picks the sender configured by email.provider
func NewSender(cfg config.EmailConfig, logger *zap.Logger) (notification.Sender, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogSender(logger), nil
	case "http":
		return NewHTTPSender(cfg, logger)
	default:
		return nil, fmt.Errorf("email: unknown provider %q", cfg.Provider)
	}
}
