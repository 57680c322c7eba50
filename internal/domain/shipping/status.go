package shipping

import (
	"strings"

	"github.com/storefront/backend/internal/domain/order"
)

// Status is the tracking status of a shipment
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusLabelCreated   Status = "LABEL_CREATED"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusFailed         Status = "FAILED"
	StatusReturned       Status = "RETURNED"
	StatusCancelled      Status = "CANCELLED"
)

var providerStatuses = map[string]Status{
	"PRE_TRANSIT":      StatusLabelCreated,
	"LABEL_CREATED":    StatusLabelCreated,
	"TRANSIT":          StatusInTransit,
	"IN_TRANSIT":       StatusInTransit,
	"OUT_FOR_DELIVERY": StatusOutForDelivery,
	"DELIVERED":        StatusDelivered,
	"RETURNED":         StatusReturned,
	"RETURN_TO_SENDER": StatusReturned,
	"FAILURE":          StatusFailed,
	"EXCEPTION":        StatusFailed,
	"CANCELLED":        StatusCancelled,
}

// MapProviderStatus converts a carrier status string. ok is false for
// statuses the store does not track.
func MapProviderStatus(raw string) (Status, bool) {
	s, ok := providerStatuses[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

var ranks = map[Status]int{
	StatusPending:        0,
	StatusLabelCreated:   1,
	StatusInTransit:      2,
	StatusFailed:         2,
	StatusOutForDelivery: 3,
	StatusDelivered:      4,
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	if _, ok := ranks[s]; ok {
		return true
	}
	return s.IsTerminal()
}

// IsTerminal reports whether the shipment accepts no further updates
func (s Status) IsTerminal() bool {
	return s == StatusReturned || s == StatusCancelled
}

// CanAdvanceTo reports whether an update to target moves the shipment forward.
// Terminal targets are reachable from any live status; otherwise rank must not drop.
func (s Status) CanAdvanceTo(target Status) bool {
	if s == target || s.IsTerminal() || !target.IsValid() {
		return false
	}
	if target.IsTerminal() {
		return true
	}
	return ranks[target] >= ranks[s]
}

// OrderStatus returns the order status a shipment status implies, if any
func (s Status) OrderStatus() (order.Status, bool) {
	switch s {
	case StatusLabelCreated:
		return order.StatusProcessing, true
	case StatusInTransit, StatusOutForDelivery:
		return order.StatusShipped, true
	case StatusDelivered:
		return order.StatusDelivered, true
	}
	return "", false
}

func (s Status) String() string {
	return string(s)
}
