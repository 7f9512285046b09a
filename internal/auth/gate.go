// Package auth classifies callers and decides what they may do with a booking.
package auth

import (
	"context"
	"strings"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
)

// Session is the read-only view the session layer exposes per request.
type Session struct {
	Role   domain.Role
	UserID string
}

type Kind int

const (
	KindUnauthenticated Kind = iota
	KindUser
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindAdmin:
		return "admin"
	case KindUser:
		return "user"
	default:
		return "unauthenticated"
	}
}

// Principal is the classified caller: Admin, User(id) or Unauthenticated.
type Principal struct {
	Kind   Kind
	UserID string
}

var Anonymous = Principal{Kind: KindUnauthenticated}

func Admin(userID string) Principal { return Principal{Kind: KindAdmin, UserID: userID} }

func User(userID string) Principal { return Principal{Kind: KindUser, UserID: userID} }

// Classify maps a session to a principal. A user session without an id is
// treated as unauthenticated.
func Classify(s Session) Principal {
	role := domain.Role(strings.ToLower(strings.TrimSpace(string(s.Role))))
	userID := strings.TrimSpace(s.UserID)
	switch role {
	case domain.RoleAdmin:
		return Admin(userID)
	case domain.RoleUser:
		if userID == "" {
			return Anonymous
		}
		return User(userID)
	default:
		return Anonymous
	}
}

func (p Principal) IsAdmin() bool { return p.Kind == KindAdmin }

func (p Principal) Authenticated() bool { return p.Kind != KindUnauthenticated }

// Role is the role the cancellation policy keys on.
func (p Principal) Role() domain.Role {
	switch p.Kind {
	case KindAdmin:
		return domain.RoleAdmin
	case KindUser:
		return domain.RoleUser
	default:
		return domain.RoleGuest
	}
}

// RequireAuthenticated rejects guests.
func (p Principal) RequireAuthenticated() error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (p Principal) RequireAdmin() error {
	if err := p.RequireAuthenticated(); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// CanAccess reports whether the caller may act on a resource owned by ownerID.
func (p Principal) CanAccess(ownerID string) bool {
	switch p.Kind {
	case KindAdmin:
		return true
	case KindUser:
		return p.UserID == ownerID
	default:
		return false
	}
}

// Authorize is CanAccess with the error taxonomy applied.
func (p Principal) Authorize(ownerID string) error {
	if err := p.RequireAuthenticated(); err != nil {
		return err
	}
	if !p.CanAccess(ownerID) {
		return domain.ErrForbidden
	}
	return nil
}

// ResolveOwner picks the booking owner: session identity first, the
// caller-supplied owner second. Admin sessions carry no booking identity of
// their own and must name the owner.
func (p Principal) ResolveOwner(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	switch p.Kind {
	case KindUser:
		return p.UserID, nil
	case KindAdmin:
		if requested == "" {
			return "", domain.ErrUnauthenticated
		}
		return requested, nil
	default:
		return "", domain.ErrUnauthenticated
	}
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
