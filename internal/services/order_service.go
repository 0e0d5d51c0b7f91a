package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
	"vendora/internal/notify"
	"vendora/internal/repos"
)

// OrderService applies status transitions and cancellation. Status moves are
// strictly linear; cancellation is a separate operation, not a status.
type OrderService struct {
	DB     *sqlx.DB
	Orders *repos.OrderRepo
	Stores *repos.StoreRepo
	Prods  *repos.ProductRepo
	Wallet *repos.WalletRepo
	Users  *repos.UserRepo
	Notify notify.Dispatcher
}

func NewOrderService(db *sqlx.DB, orders *repos.OrderRepo, stores *repos.StoreRepo,
	prods *repos.ProductRepo, wallet *repos.WalletRepo, users *repos.UserRepo,
	dispatcher notify.Dispatcher) *OrderService {
	return &OrderService{DB: db, Orders: orders, Stores: stores, Prods: prods,
		Wallet: wallet, Users: users, Notify: dispatcher}
}

func (s *OrderService) Get(orderID string, actor domain.Actor) (domain.Order, []repos.OrderItemDetail, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, nil, domain.ErrNotFound
		}
		return domain.Order{}, nil, err
	}
	if err := s.authorizeRead(&o, actor); err != nil {
		return domain.Order{}, nil, err
	}
	items, err := s.Orders.ItemsDetailed(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, items, nil
}

func (s *OrderService) ListForUser(userID string) ([]repos.OrderSummary, error) {
	return s.Orders.ListByUser(userID)
}

// ListForStore returns a store's orders for its owning seller or an admin.
func (s *OrderService) ListForStore(storeID string, actor domain.Actor) ([]repos.OrderSummary, error) {
	st, err := s.Stores.Get(storeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && st.OwnerUserID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return s.Orders.ListByStore(st.ID)
}

// UpdateStatus moves an order to the immediate next state. Only the admin or
// the seller owning the order's store may act. Each success appends exactly
// one timeline entry and persists status + timeline together.
func (s *OrderService) UpdateStatus(orderID string, actor domain.Actor, next domain.OrderStatus) (domain.Order, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	if err := s.authorizeSeller(&o, actor); err != nil {
		return domain.Order{}, err
	}
	if o.Cancelled() {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: next.String()}
	}
	if !domain.ValidOrderStatus(next) || !domain.CanTransitionOrder(domain.OrderStatus(o.Status), next) {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: next.String()}
	}

	now := time.Now()
	prev := o.Status
	o.Status = next.String()
	o.StatusTimeline = domain.AppendTimeline(o.StatusTimeline, o.Status, now)

	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()
	matched, err := s.Orders.UpdateStatusTx(tx, o.ID, o.Status, o.StatusTimeline, prev)
	if err != nil {
		return domain.Order{}, err
	}
	if !matched {
		// A concurrent writer moved the order first; re-check against the
		// status that actually landed.
		_ = tx.Rollback()
		cur, err := s.Orders.Get(o.ID)
		if err != nil {
			return domain.Order{}, err
		}
		return domain.Order{}, &domain.InvalidTransitionError{From: cur.Status, To: next.String()}
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}

	s.notifyBuyer(&o, notify.KindOrderStatusChanged, map[string]any{
		"order_id": o.ID, "status": o.Status,
	})
	return o, nil
}

// Cancel restocks every line and credits the buyer's wallet for the full
// order total, all in one transaction. Allowed only while the order is
// ORDER_PLACED or PROCESSING and not already cancelled; the buyer or an
// admin may cancel.
func (s *OrderService) Cancel(orderID string, actor domain.Actor) (domain.Order, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	if !actor.IsAdmin() && actor.UserID != o.UserID {
		return domain.Order{}, domain.ErrForbidden
	}
	status := domain.OrderStatus(o.Status)
	if o.Cancelled() || (status != domain.OrderPlaced && status != domain.OrderProcessing) {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: "CANCELLED"}
	}

	items, err := s.Orders.Items(o.ID)
	if err != nil {
		return domain.Order{}, err
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// The cancellation flag goes first: its conditional write is what keeps
	// two concurrent cancels from restocking and crediting twice.
	at := time.Now().UTC().Format(time.RFC3339)
	matched, err := s.Orders.MarkCancelledTx(tx, o.ID, at)
	if err != nil {
		return domain.Order{}, err
	}
	if !matched {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: "CANCELLED"}
	}
	for _, it := range items {
		if err := s.Prods.RestockTx(tx, it.ProductID, it.Qty); err != nil {
			return domain.Order{}, fmt.Errorf("restock %s: %w", it.ProductID, err)
		}
	}
	if o.Total > 0 {
		reason := fmt.Sprintf("refund for cancelled order %s", o.ID)
		if err := s.Wallet.CreditTx(tx, o.UserID, o.Total, reason); err != nil {
			return domain.Order{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	o.CancelledAt = at

	s.notifyBuyer(&o, notify.KindOrderCancelled, map[string]any{
		"order_id": o.ID, "refunded": o.Total,
	})
	return o, nil
}

func (s *OrderService) authorizeRead(o *domain.Order, actor domain.Actor) error {
	if actor.IsAdmin() || actor.UserID == o.UserID {
		return nil
	}
	if actor.Role == domain.RoleSeller {
		owns, err := s.Stores.Owns(actor.UserID, o.StoreID)
		if err != nil {
			return err
		}
		if owns {
			return nil
		}
	}
	// Not found rather than forbidden, so order ids are not probeable.
	return domain.ErrNotFound
}

func (s *OrderService) authorizeSeller(o *domain.Order, actor domain.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleSeller {
		owns, err := s.Stores.Owns(actor.UserID, o.StoreID)
		if err != nil {
			return err
		}
		if owns {
			return nil
		}
	}
	return domain.ErrForbidden
}

func (s *OrderService) notifyBuyer(o *domain.Order, kind string, payload map[string]any) {
	if s.Notify == nil {
		return
	}
	u, err := s.Users.ByID(o.UserID)
	if err != nil {
		return
	}
	_ = s.Notify.Dispatch(u.Email, kind, payload)
}
