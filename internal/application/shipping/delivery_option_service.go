package shipping

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
)

// DeliveryOptionService manages the shipping methods offered at checkout
type DeliveryOptionService struct {
	repo     shipping.DeliveryOptionRepository
	logger   *zap.Logger
	currency string
}

// NewDeliveryOptionService creates a new DeliveryOptionService
func NewDeliveryOptionService(repo shipping.DeliveryOptionRepository, logger *zap.Logger) *DeliveryOptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeliveryOptionService{repo: repo, logger: logger}
}

// SetCurrency rounds fees to the store currency's minor unit
func (s *DeliveryOptionService) SetCurrency(currency string) {
	s.currency = currency
}

// Create creates a new delivery option
func (s *DeliveryOptionService) Create(ctx context.Context, req CreateDeliveryOptionRequest) (*DeliveryOptionResponse, error) {
	opt, err := shipping.NewDeliveryOption(req.Name, req.Carrier, req.Service, shared.RoundToCurrency(req.Price, s.currency), req.EstimatedDays)
	if err != nil {
		return nil, err
	}
	opt.SortOrder = req.SortOrder
	if req.Active != nil {
		opt.SetActive(*req.Active)
	}
	if err := s.repo.Save(ctx, opt); err != nil {
		return nil, err
	}

	s.logger.Info("Delivery option created",
		zap.String("delivery_option_id", opt.ID.String()),
		zap.String("name", opt.Name))
	response := ToDeliveryOptionResponse(opt)
	return &response, nil
}

// GetByID retrieves a delivery option by ID
func (s *DeliveryOptionService) GetByID(ctx context.Context, id uuid.UUID) (*DeliveryOptionResponse, error) {
	opt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDeliveryOptionResponse(opt)
	return &response, nil
}

// List returns all delivery options, or only active ones for the storefront
func (s *DeliveryOptionService) List(ctx context.Context, activeOnly bool) ([]DeliveryOptionResponse, error) {
	opts, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]DeliveryOptionResponse, len(opts))
	for i := range opts {
		out[i] = ToDeliveryOptionResponse(&opts[i])
	}
	return out, nil
}

// Update applies the provided fields to a delivery option
func (s *DeliveryOptionService) Update(ctx context.Context, id uuid.UUID, req UpdateDeliveryOptionRequest) (*DeliveryOptionResponse, error) {
	opt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, carrier, service := opt.Name, opt.Carrier, opt.Service
	price, days := opt.Price, opt.EstimatedDays
	if req.Name != nil {
		name = *req.Name
	}
	if req.Carrier != nil {
		carrier = *req.Carrier
	}
	if req.Service != nil {
		service = *req.Service
	}
	if req.Price != nil {
		price = *req.Price
	}
	if req.EstimatedDays != nil {
		days = *req.EstimatedDays
	}
	if err := opt.Update(name, carrier, service, shared.RoundToCurrency(price, s.currency), days); err != nil {
		return nil, err
	}
	if req.SortOrder != nil {
		opt.SortOrder = *req.SortOrder
	}
	if req.Active != nil {
		opt.SetActive(*req.Active)
	}

	if err := s.repo.Save(ctx, opt); err != nil {
		return nil, err
	}
	response := ToDeliveryOptionResponse(opt)
	return &response, nil
}

// Delete removes a delivery option. Orders that used it keep their fee.
func (s *DeliveryOptionService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Delivery option deleted", zap.String("delivery_option_id", id.String()))
	return nil
}
