package repos

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/domain"
)

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

func (r *CouponRepo) ByCode(code string) (domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Get(&c, `
		SELECT code, percent, active, expires_at
		FROM coupons WHERE code = ?
	`, code)
	return c, err
}
