package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"vendora/internal/domain"
	"vendora/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

// dummyHash keeps the bcrypt compare on the unknown-email path, so a login
// miss costs the same as a password mismatch.
var dummyHash = []byte("$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW")

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService {
	return &AuthService{Users: users}
}

// Login verifies the credentials and binds the session id to the account.
func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(strings.TrimSpace(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

// CurrentUser resolves a session cookie to its account, if any.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// ActorOf maps an authenticated user onto the identity the domain services
// authorize against. A nil user yields the empty actor, which every
// authorization path rejects.
func ActorOf(u *domain.User) domain.Actor {
	if u == nil {
		return domain.Actor{}
	}
	return domain.Actor{UserID: u.ID, Role: u.Role}
}
