package domain

const (
	RoleUser   = "USER"
	RoleSeller = "SELLER"
	RoleAdmin  = "ADMIN"
)

type User struct {
	ID            string  `db:"id"`
	Email         string  `db:"email"`
	Name          string  `db:"name"`
	Hash          string  `db:"password_hash"`
	Role          string  `db:"role"`
	WalletBalance float64 `db:"wallet_balance"`
}

// Actor is the resolved identity behind a request.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
