package shipping

import (
	"context"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// ErrInvalidSignature is returned for webhooks that fail HMAC verification
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// Parcel is what the provider needs to buy a label
type Parcel struct {
	Reference string
	Carrier   string
	Service   string
	Recipient shared.Address
	Email     string
	Items     int
}

// Label is a purchased shipping label
type Label struct {
	ProviderShipmentID string
	TrackingNumber     string
	Carrier            string
	Service            string
	LabelURL           string
	Status             string
}

// TrackingUpdate is a carrier status report, from a webhook or a poll
type TrackingUpdate struct {
	EventID        string
	TrackingNumber string
	Carrier        string
	Status         string
	Detail         string
	OccurredAt     time.Time
}

// Provider is the port to the external shipping gateway
type Provider interface {
	CreateShipment(ctx context.Context, parcel Parcel) (*Label, error)
	Track(ctx context.Context, carrier, trackingNumber string) (*TrackingUpdate, error)
	// ParseWebhook verifies the signature and decodes the update
	ParseWebhook(payload []byte, signature string) (*TrackingUpdate, error)
}
