package shipping

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// maxResponseSize caps what is read from the gateway (1MB)
const maxResponseSize = 1 << 20

// HTTPProvider implements shipping.Provider against the shipping gateway REST API
type HTTPProvider struct {
	baseURL        string
	apiKey         string
	webhookSecret  []byte
	defaultCarrier string
	defaultService string
	httpClient     *http.Client
	logger         *zap.Logger
}

var _ shipping.Provider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider client from configuration
func NewHTTPProvider(cfg config.ShippingConfig, logger *zap.Logger) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("shipping: base url is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("shipping: invalid base url: %w", err)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("shipping: webhook secret is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPProvider{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		webhookSecret:  []byte(cfg.WebhookSecret),
		defaultCarrier: cfg.DefaultCarrier,
		defaultService: cfg.DefaultService,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}, nil
}

// CreateShipment buys a label for the parcel
func (p *HTTPProvider) CreateShipment(ctx context.Context, parcel shipping.Parcel) (*shipping.Label, error) {
	carrier := firstNonEmpty(parcel.Carrier, p.defaultCarrier)
	service := firstNonEmpty(parcel.Service, p.defaultService)
	if carrier == "" {
		return nil, shared.ErrInvalidInput.Withf("carrier is required")
	}

	body, err := json.Marshal(createShipmentRequest{
		Reference: parcel.Reference,
		Carrier:   carrier,
		Service:   service,
		To:        parcel.Recipient,
		Email:     parcel.Email,
		Parcels:   max(parcel.Items, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("shipping: failed to marshal request: %w", err)
	}

	var resp shipmentResponse
	if err := p.do(ctx, http.MethodPost, "/v1/shipments", body, &resp); err != nil {
		p.logger.Error("Failed to create shipment",
			zap.String("reference", parcel.Reference),
			zap.String("carrier", carrier),
			zap.Error(err))
		return nil, err
	}
	if resp.TrackingNumber == "" {
		return nil, shared.ErrExternalService.Withf("shipping gateway returned no tracking number")
	}

	p.logger.Info("Shipment label created",
		zap.String("reference", parcel.Reference),
		zap.String("tracking_number", resp.TrackingNumber),
		zap.String("carrier", resp.Carrier))

	return &shipping.Label{
		ProviderShipmentID: resp.ID,
		TrackingNumber:     resp.TrackingNumber,
		Carrier:            firstNonEmpty(resp.Carrier, carrier),
		Service:            firstNonEmpty(resp.Service, service),
		LabelURL:           resp.LabelURL,
		Status:             resp.Status,
	}, nil
}

// Track polls the latest carrier status of a tracking number
func (p *HTTPProvider) Track(ctx context.Context, carrier, trackingNumber string) (*shipping.TrackingUpdate, error) {
	if trackingNumber == "" {
		return nil, shared.ErrInvalidInput.Withf("tracking number is required")
	}
	path := fmt.Sprintf("/v1/trackers/%s/%s", url.PathEscape(carrier), url.PathEscape(trackingNumber))

	var resp trackingPayload
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return toUpdate(resp, trackingNumber, carrier), nil
}

// ParseWebhook checks the hex HMAC-SHA256 of the raw body and decodes it
func (p *HTTPProvider) ParseWebhook(payload []byte, signature string) (*shipping.TrackingUpdate, error) {
	if !p.verify(payload, signature) {
		return nil, shipping.ErrInvalidSignature
	}

	var body trackingPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, shared.ErrInvalidInput.Withf("malformed shipping webhook: %v", err)
	}
	if body.ID == "" || body.TrackingNumber == "" || body.Carrier == "" {
		return nil, shared.ErrInvalidInput.Withf("shipping webhook requires id, carrier and tracking_number")
	}
	return toUpdate(body, body.TrackingNumber, body.Carrier), nil
}

// Sign returns the signature the gateway puts in X-Shipping-Signature
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *HTTPProvider) verify(payload []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, p.webhookSecret)
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("shipping: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return shared.ErrExternalService.Wrap(fmt.Errorf("shipping: %s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("shipping: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := http.StatusText(resp.StatusCode)
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return shared.ErrNotFound.Withf("shipping gateway: %s", msg)
		case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
			return shared.ErrInvalidInput.Withf("shipping gateway: %s", msg)
		default:
			return shared.ErrExternalService.Withf("shipping gateway: HTTP %d: %s", resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("shipping: failed to parse response: %w", err)
	}
	return nil
}

func toUpdate(t trackingPayload, trackingNumber, carrier string) *shipping.TrackingUpdate {
	return &shipping.TrackingUpdate{
		EventID:        t.ID,
		TrackingNumber: firstNonEmpty(t.TrackingNumber, trackingNumber),
		Carrier:        strings.ToLower(firstNonEmpty(t.Carrier, carrier)),
		Status:         t.Status,
		Detail:         t.Detail,
		OccurredAt:     t.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
