package shipping

import (
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// wire types of the shipping gateway REST API

type createShipmentRequest struct {
	Reference string         `json:"reference"`
	Carrier   string         `json:"carrier"`
	Service   string         `json:"service"`
	To        shared.Address `json:"to"`
	Email     string         `json:"email,omitempty"`
	Parcels   int            `json:"parcels"`
}

type shipmentResponse struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	Service        string `json:"service"`
	LabelURL       string `json:"label_url"`
	Status         string `json:"status"`
}

// trackingPayload is both the tracker poll response and the webhook body
type trackingPayload struct {
	ID             string    `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Status         string    `json:"status"`
	Detail         string    `json:"status_detail"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
