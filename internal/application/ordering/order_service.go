package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderService drives the checkout of an order
type OrderService struct {
	orders  ordering.OrderRepository
	prices  ordering.VariantPriceProvider
	txScope common.TransactionScope
	logger  *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders ordering.OrderRepository,
	prices ordering.VariantPriceProvider,
	txScope common.TransactionScope,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:  orders,
		prices:  prices,
		txScope: txScope,
		logger:  logger,
	}
}

// Create starts a cart
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	order, err := ordering.NewOrder(req.StoreID, req.Email, req.Currency, time.Now())
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		return common.SaveOrder(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("store_id", order.StoreID.String()),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetByID retrieves an order
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetByNumber retrieves an order by its public number
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*OrderResponse, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// List returns order summaries
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderListItemResponse], error) {
	f := ordering.OrderFilter{Filter: shared.DefaultFilter(), StoreID: filter.StoreID}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.State != "" {
		state := ordering.OrderState(filter.State)
		if !state.IsValid() {
			return nil, shared.ErrInvalidInput.WithMessage("Unknown order state %s", filter.State)
		}
		f.State = &state
	}

	orders, total, err := s.orders.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrderListItemResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, ToOrderListItemResponse(o))
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// AddItem adds a variant to a cart at its current price
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req AddItemRequest) (*OrderResponse, error) {
	variant, err := s.prices.Variant(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, orderID, "item added", func(o *ordering.Order) error {
		_, err := o.AddVariant(variant, req.Quantity, time.Now())
		return err
	})
}

// RemoveItem removes a line item from a cart
func (s *OrderService) RemoveItem(ctx context.Context, orderID, lineItemID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "item removed", func(o *ordering.Order) error {
		return o.RemoveLineItem(lineItemID, time.Now())
	})
}

// SetEmail changes the contact email
func (s *OrderService) SetEmail(ctx context.Context, orderID uuid.UUID, req SetEmailRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "email changed", func(o *ordering.Order) error {
		return o.SetEmail(req.Email)
	})
}

// SetAddresses sets the ship and bill addresses
func (s *OrderService) SetAddresses(ctx context.Context, orderID uuid.UUID, req AddressesRequest) (*OrderResponse, error) {
	ship, err := req.ShipAddress.ToAddress()
	if err != nil {
		return nil, err
	}
	bill, err := req.BillAddress.ToAddress()
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, orderID, "addresses set", func(o *ordering.Order) error {
		return o.SetAddresses(ship, bill)
	})
}

// SetShippingMethod selects the shipping method
func (s *OrderService) SetShippingMethod(ctx context.Context, orderID uuid.UUID, req ShippingMethodRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "shipping method set", func(o *ordering.Order) error {
		return o.SetShippingMethod(req.ShippingMethodID, req.CostCents)
	})
}

// ApplyAdjustments replaces the adjustments of an order
func (s *OrderService) ApplyAdjustments(ctx context.Context, orderID uuid.UUID, req AdjustmentsRequest) (*OrderResponse, error) {
	adjs := make([]ordering.Adjustment, 0, len(req.Adjustments))
	for _, a := range req.Adjustments {
		adjs = append(adjs, ordering.NewAdjustment(a.Label, a.AmountCents, a.Source))
	}
	return s.mutate(ctx, orderID, "adjustments applied", func(o *ordering.Order) error {
		return o.ApplyAdjustments(adjs)
	})
}

// RecordPayment records a payment. Payments without a state start pending.
func (s *OrderService) RecordPayment(ctx context.Context, orderID uuid.UUID, req RecordPaymentRequest) (*OrderResponse, error) {
	state := ordering.PaymentStatePending
	if req.State != "" {
		state = ordering.PaymentState(req.State)
	}
	return s.mutate(ctx, orderID, "payment recorded", func(o *ordering.Order) error {
		_, err := o.RecordPayment(req.AmountCents, state, req.Reference, time.Now())
		return err
	})
}

// CapturePayment completes a pending payment
func (s *OrderService) CapturePayment(ctx context.Context, orderID, paymentID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "payment captured", func(o *ordering.Order) error {
		return o.CapturePayment(paymentID)
	})
}

// FailPayment marks a pending payment as failed
func (s *OrderService) FailPayment(ctx context.Context, orderID, paymentID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "payment failed", func(o *ordering.Order) error {
		return o.FailPayment(paymentID)
	})
}

// Next advances the checkout by one step
func (s *OrderService) Next(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, "advanced", func(o *ordering.Order) error {
		return o.Next(time.Now())
	})
}

// Cancel cancels an order and gives back the stock its units held.
// Canceling a canceled order changes nothing.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	var order *ordering.Order
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		commitments := order.Commitments()
		if err := order.Cancel(req.Reason, time.Now()); err != nil {
			return err
		}

		items := common.NewStockItemSet(repos)
		if err := items.ReleaseCommitments(ctx, commitments); err != nil {
			return err
		}
		if err := items.Save(ctx); err != nil {
			return err
		}
		return common.SaveOrder(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order canceled",
		zap.String("order_id", order.ID.String()),
		zap.String("number", order.Number),
		zap.String("reason", order.CancelReason),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) mutate(ctx context.Context, orderID uuid.UUID, action string, fn func(o *ordering.Order) error) (*OrderResponse, error) {
	var order *ordering.Order
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(order); err != nil {
			return err
		}
		return common.SaveOrder(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("order "+action,
		zap.String("order_id", order.ID.String()),
		zap.String("state", order.State.String()),
		zap.Int64("total", order.Total),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}
