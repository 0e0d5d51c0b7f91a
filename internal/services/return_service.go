package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
	"vendora/internal/notify"
	"vendora/internal/repos"
)

// Return window measured from the first DELIVERED timeline entry.
const returnWindow = 7 * 24 * time.Hour

type ReturnService struct {
	DB      *sqlx.DB
	Returns *repos.ReturnRepo
	Orders  *repos.OrderRepo
	Stores  *repos.StoreRepo
	Wallet  *repos.WalletRepo
	Users   *repos.UserRepo
	Notify  notify.Dispatcher
}

func NewReturnService(db *sqlx.DB, returns *repos.ReturnRepo, orders *repos.OrderRepo,
	stores *repos.StoreRepo, wallet *repos.WalletRepo, users *repos.UserRepo,
	dispatcher notify.Dispatcher) *ReturnService {
	return &ReturnService{DB: db, Returns: returns, Orders: orders, Stores: stores,
		Wallet: wallet, Users: users, Notify: dispatcher}
}

// Request creates a return for one delivered line item. The uniqueness of
// (user, order, product) is a database constraint, not just this check path.
func (s *ReturnService) Request(userID, orderID, productID, reason, description string) (domain.Return, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Return{}, domain.ErrNotFound
		}
		return domain.Return{}, err
	}
	if o.UserID != userID {
		return domain.Return{}, domain.ErrNotFound
	}
	if o.Cancelled() || o.Status != domain.OrderDelivered.String() {
		return domain.Return{}, fmt.Errorf("order %s is not delivered: %w", orderID, domain.ErrForbidden)
	}

	items, err := s.Orders.Items(orderID)
	if err != nil {
		return domain.Return{}, err
	}
	found := false
	for _, it := range items {
		if it.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return domain.Return{}, domain.ErrNotFound
	}

	deliveredAt, ok := domain.TimelineAt(o.StatusTimeline, domain.OrderDelivered.String())
	if !ok {
		// Timeline lacks the DELIVERED entry; fall back to the last update.
		deliveredAt = parseDBTime(o.UpdatedAt)
	}
	if time.Since(deliveredAt) > returnWindow {
		return domain.Return{}, domain.ErrReturnWindowExpired
	}

	now := time.Now()
	ret := domain.Return{
		ID:             uuid.NewString(),
		UserID:         userID,
		OrderID:        orderID,
		ProductID:      productID,
		StoreID:        o.StoreID,
		Reason:         reason,
		Description:    description,
		Status:         domain.ReturnRequested.String(),
		StatusTimeline: domain.NewTimeline(domain.ReturnRequested.String(), now),
	}
	if err := s.Returns.Create(&ret); err != nil {
		return domain.Return{}, err
	}

	s.notifyBuyer(userID, notify.KindReturnStatusChanged, map[string]any{
		"return_id": ret.ID, "status": ret.Status,
	})
	return ret, nil
}

// UpdateStatus sets a new return status. A same-status update is accepted
// but changes nothing; that no-op is what makes a double REFUNDED harmless.
// When the status becomes REFUNDED for the first time, the refund amount is
// computed from the order's matching line items and the buyer's wallet is
// credited in the same transaction as the status write.
func (s *ReturnService) UpdateStatus(returnID string, actor domain.Actor, next domain.ReturnStatus, adminNote string) (domain.Return, error) {
	ret, err := s.Returns.Get(returnID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Return{}, domain.ErrNotFound
		}
		return domain.Return{}, err
	}
	if err := s.authorizeSeller(ret.StoreID, actor); err != nil {
		return domain.Return{}, err
	}
	if !domain.ValidReturnStatus(next) {
		return domain.Return{}, &domain.InvalidTransitionError{From: ret.Status, To: next.String()}
	}

	prev := domain.ReturnStatus(ret.Status)
	if prev == next {
		if adminNote != "" && adminNote != ret.AdminNote {
			ret.AdminNote = adminNote
			tx, err := s.DB.Beginx()
			if err != nil {
				return domain.Return{}, err
			}
			defer func() { _ = tx.Rollback() }()
			if _, err := s.Returns.UpdateStatusTx(tx, &ret, prev.String()); err != nil {
				return domain.Return{}, err
			}
			if err := tx.Commit(); err != nil {
				return domain.Return{}, err
			}
		}
		return ret, nil
	}
	if !domain.CanTransitionReturn(prev, next) {
		return domain.Return{}, &domain.InvalidTransitionError{From: ret.Status, To: next.String()}
	}

	now := time.Now()
	ret.Status = next.String()
	ret.StatusTimeline = domain.AppendTimeline(ret.StatusTimeline, ret.Status, now)
	if adminNote != "" {
		ret.AdminNote = adminNote
	}

	refund := 0.0
	if next == domain.ReturnRefunded && prev != domain.ReturnRefunded {
		refund, err = s.refundAmount(ret.OrderID, ret.ProductID)
		if err != nil {
			return domain.Return{}, err
		}
		ret.RefundAmount = refund
		ret.RefundedAt = now.UTC().Format(time.RFC3339)
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.Return{}, err
	}
	defer func() { _ = tx.Rollback() }()
	matched, err := s.Returns.UpdateStatusTx(tx, &ret, prev.String())
	if err != nil {
		return domain.Return{}, err
	}
	if !matched {
		// A concurrent writer moved this return between our read and the
		// write. The credit must not happen on a stale observation.
		_ = tx.Rollback()
		cur, err := s.Returns.Get(returnID)
		if err != nil {
			return domain.Return{}, err
		}
		if cur.Status == next.String() {
			return cur, nil
		}
		return domain.Return{}, &domain.InvalidTransitionError{From: cur.Status, To: next.String()}
	}
	if refund > 0 {
		reason := fmt.Sprintf("refund for return %s", ret.ID)
		if err := s.Wallet.CreditTx(tx, ret.UserID, refund, reason); err != nil {
			return domain.Return{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Return{}, err
	}

	s.notifyBuyer(ret.UserID, notify.KindReturnStatusChanged, map[string]any{
		"return_id": ret.ID, "status": ret.Status,
	})
	return ret, nil
}

// SchedulePickup sets pickup details independently of any status change. A
// new or changed pickup date triggers its own notification kind.
func (s *ReturnService) SchedulePickup(returnID string, actor domain.Actor, date, window, address, note string) (domain.Return, error) {
	ret, err := s.Returns.Get(returnID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Return{}, domain.ErrNotFound
		}
		return domain.Return{}, err
	}
	if err := s.authorizeSeller(ret.StoreID, actor); err != nil {
		return domain.Return{}, err
	}

	dateChanged := date != "" && date != ret.PickupDate
	if date != "" {
		ret.PickupDate = date
	}
	if window != "" {
		ret.PickupWindow = window
	}
	if address != "" {
		ret.PickupAddress = address
	}
	if note != "" {
		ret.PickupNote = note
	}
	if err := s.Returns.UpdatePickup(&ret); err != nil {
		return domain.Return{}, err
	}

	if dateChanged {
		s.notifyBuyer(ret.UserID, notify.KindPickupScheduled, map[string]any{
			"return_id": ret.ID, "pickup_date": ret.PickupDate, "pickup_window": ret.PickupWindow,
		})
	}
	return ret, nil
}

func (s *ReturnService) Get(returnID string, actor domain.Actor) (domain.Return, error) {
	ret, err := s.Returns.Get(returnID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Return{}, domain.ErrNotFound
		}
		return domain.Return{}, err
	}
	if actor.IsAdmin() || actor.UserID == ret.UserID {
		return ret, nil
	}
	if actor.Role == domain.RoleSeller {
		owns, err := s.Stores.Owns(actor.UserID, ret.StoreID)
		if err != nil {
			return domain.Return{}, err
		}
		if owns {
			return ret, nil
		}
	}
	return domain.Return{}, domain.ErrNotFound
}

// refundAmount sums price x qty over the order's line items matching the
// returned product, using the prices captured at purchase time.
func (s *ReturnService) refundAmount(orderID, productID string) (float64, error) {
	items, err := s.Orders.Items(orderID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, it := range items {
		if it.ProductID == productID {
			total += it.Price * float64(it.Qty)
		}
	}
	return total, nil
}

func (s *ReturnService) authorizeSeller(storeID string, actor domain.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleSeller {
		owns, err := s.Stores.Owns(actor.UserID, storeID)
		if err != nil {
			return err
		}
		if owns {
			return nil
		}
	}
	return domain.ErrForbidden
}

func (s *ReturnService) notifyBuyer(userID, kind string, payload map[string]any) {
	if s.Notify == nil {
		return
	}
	u, err := s.Users.ByID(userID)
	if err != nil {
		return
	}
	_ = s.Notify.Dispatch(u.Email, kind, payload)
}

// parseDBTime accepts both RFC-3339 and SQLite's CURRENT_TIMESTAMP format.
func parseDBTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
