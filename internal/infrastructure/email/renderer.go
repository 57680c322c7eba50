package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const layoutFile = "templates/layout.html.tmpl"

type compiled struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// TemplateRenderer renders the embedded order emails. Every template is
// parsed once at construction so a broken template fails at startup.
type TemplateRenderer struct {
	lang      language.Tag
	printer   *message.Printer
	templates map[string]compiled
}

var _ notification.Renderer = (*TemplateRenderer)(nil)

// RendererOption configures the renderer
type RendererOption func(*TemplateRenderer)

// WithLanguage sets the language used for number formatting and title casing
func WithLanguage(tag language.Tag) RendererOption {
	return func(r *TemplateRenderer) {
		r.lang = tag
	}
}

// NewTemplateRenderer parses all embedded templates
func NewTemplateRenderer(opts ...RendererOption) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		lang:      language.English,
		templates: make(map[string]compiled),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.printer = message.NewPrinter(r.lang)

	funcs := r.funcMap()
	names := []string{
		notification.TemplateOrderConfirmation,
		notification.TemplateOrderShipped,
		notification.TemplateOrderDelivered,
		notification.TemplateOrderCancelled,
		notification.TemplateOrderRefunded,
	}
	for _, name := range names {
		c, err := compile(name, funcs)
		if err != nil {
			return nil, err
		}
		r.templates[name] = c
	}
	return r, nil
}

func compile(name string, funcs map[string]any) (compiled, error) {
	subjectSrc, err := fs.ReadFile(templateFS, "templates/"+name+".subject.tmpl")
	if err != nil {
		return compiled{}, fmt.Errorf("email: template %s: %w", name, err)
	}
	subject, err := texttemplate.New(name + ".subject").Funcs(funcs).Parse(string(subjectSrc))
	if err != nil {
		return compiled{}, fmt.Errorf("email: parse %s subject: %w", name, err)
	}

	html, err := htmltemplate.New(name+".html.tmpl").Funcs(funcs).
		ParseFS(templateFS, "templates/"+name+".html.tmpl", layoutFile)
	if err != nil {
		return compiled{}, fmt.Errorf("email: parse %s html: %w", name, err)
	}

	text, err := texttemplate.New(name+".txt.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/"+name+".txt.tmpl")
	if err != nil {
		return compiled{}, fmt.Errorf("email: parse %s text: %w", name, err)
	}
	return compiled{subject: subject, html: html, text: text}, nil
}

// Render executes the named template
func (r *TemplateRenderer) Render(name string, data any) (notification.Rendered, error) {
	c, ok := r.templates[name]
	if !ok {
		return notification.Rendered{}, shared.ErrNotFound.Withf("email template %q not found", name)
	}

	var subject, html, text bytes.Buffer
	if err := c.subject.Execute(&subject, data); err != nil {
		return notification.Rendered{}, fmt.Errorf("email: render %s subject: %w", name, err)
	}
	if err := c.html.Execute(&html, data); err != nil {
		return notification.Rendered{}, fmt.Errorf("email: render %s html: %w", name, err)
	}
	if err := c.text.Execute(&text, data); err != nil {
		return notification.Rendered{}, fmt.Errorf("email: render %s text: %w", name, err)
	}

	return notification.Rendered{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (r *TemplateRenderer) funcMap() map[string]any {
	return map[string]any{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
		"formatInt":   func(n int) string { return r.printer.Sprintf("%d", n) },
		"statusText":  r.statusText,
		"itemCount":   func(o *order.Order) int { return o.ItemCount() },
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// formatMoney formats an amount with the currency's minor unit precision
// Example: 1234.5 USD -> "$1,234.50"
func formatMoney(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(currency)
	places := -shared.FromMinorUnits(1, currency).Exponent()

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	parts := strings.SplitN(amount.StringFixed(places), ".", 2)
	intPart := parts[0]
	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteRune(',')
		}
		grouped.WriteRune(c)
	}
	number := grouped.String()
	if len(parts) == 2 {
		number += "." + parts[1]
	}

	if sym, ok := currencySymbols[currency]; ok {
		return sign + sym + number
	}
	return sign + number + " " + currency
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

// statusText turns OUT_FOR_DELIVERY into "Out For Delivery"
func (r *TemplateRenderer) statusText(status fmt.Stringer) string {
	return cases.Title(r.lang).String(strings.ToLower(strings.ReplaceAll(status.String(), "_", " ")))
}
