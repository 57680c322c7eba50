package payment

import "github.com/storefront/backend/internal/domain/shared"

var (
	// ErrInvalidSignature is returned for webhooks that fail verification
	ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
	// ErrGatewayUnavailable wraps transport and 5xx failures of the payment provider
	ErrGatewayUnavailable = shared.NewDomainError("GATEWAY_ERROR", "Payment gateway request failed")
)
