package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/dukerupert/campusshop/internal/telemetry"
	"github.com/google/uuid"
)

const defaultDisplayName = "Người dùng"

// IdentityOptions configures the identity service.
type IdentityOptions struct {
	// AdminEmail is granted the admin role when its account is created.
	AdminEmail string

	// Verifier checks Firebase ID tokens. Nil disables Firebase sign-in.
	Verifier auth.TokenVerifier

	Metrics *telemetry.BusinessMetrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// Identity manages accounts, sign-in sessions and address books.
type Identity struct {
	users    repository.UserRepository
	sessions *SessionStore
	opts     IdentityOptions
}

// NewIdentity creates the identity service.
func NewIdentity(users repository.UserRepository, sessions *SessionStore, opts IdentityOptions) *Identity {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.AdminEmail = strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	return &Identity{users: users, sessions: sessions, opts: opts}
}

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account and signs it in.
func (s *Identity) Register(ctx context.Context, reg Registration) (*domain.User, Session, error) {
	const op = "identity.register"

	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	if err := validateStruct(op, reg, "Please check your sign-up details."); err != nil {
		return nil, Session{}, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, Session{}, &domain.ValidationError{
				Op:      op,
				Message: "Please check your sign-up details.",
				Fields:  map[string]string{"password": err.Error()},
			}
		}
		return nil, Session{}, domain.Internal(err, op, "Could not create your account")
	}

	id := uuid.NewString()
	user := &domain.User{
		ID:           id,
		Name:         reg.Name,
		Email:        reg.Email,
		Role:         s.roleFor(reg.Email),
		Avatar:       avatarURL(id),
		PasswordHash: hash,
		CreatedAt:    s.opts.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, Session{}, err
	}
	s.opts.Metrics.RecordSignup("password")

	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, Session{}, domain.Internal(err, op, "Could not sign you in")
	}
	return user, sess, nil
}

// Login checks an email and password and opens a session.
func (s *Identity) Login(ctx context.Context, email, password string) (*domain.User, Session, error) {
	const op = "identity.login"

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.opts.Metrics.RecordLogin("password", false)
			return nil, Session{}, domain.ErrInvalidCredentials
		}
		return nil, Session{}, err
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		s.opts.Metrics.RecordLogin("password", false)
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, Session{}, domain.ErrInvalidCredentials
		}
		return nil, Session{}, domain.Internal(err, op, "Could not sign you in")
	}

	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, Session{}, domain.Internal(err, op, "Could not sign you in")
	}
	s.opts.Metrics.RecordLogin("password", true)
	return user, sess, nil
}

// LoginWithFirebase verifies a Firebase ID token and signs in the matching
// profile, creating it on first sign-in.
func (s *Identity) LoginWithFirebase(ctx context.Context, idToken string) (*domain.User, Session, error) {
	const op = "identity.login_firebase"

	if s.opts.Verifier == nil {
		return nil, Session{}, ErrFirebaseDisabled
	}

	claims, err := s.opts.Verifier.Verify(ctx, idToken)
	if err != nil {
		s.opts.Metrics.RecordLogin("firebase", false)
		s.opts.Logger.WarnContext(ctx, "firebase token rejected", "error", err)
		return nil, Session{}, ErrInvalidIDToken
	}

	user, err := s.findOrCreateFirebaseUser(ctx, claims)
	if err != nil {
		return nil, Session{}, err
	}

	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, Session{}, domain.Internal(err, op, "Could not sign you in")
	}
	s.opts.Metrics.RecordLogin("firebase", true)
	return user, sess, nil
}

func (s *Identity) findOrCreateFirebaseUser(ctx context.Context, claims *auth.Identity) (*domain.User, error) {
	user, err := s.users.Get(ctx, claims.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email != "" {
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = defaultDisplayName
	}
	avatar := claims.Picture
	if avatar == "" {
		avatar = avatarURL(claims.UID)
	}

	user = &domain.User{
		ID:        claims.UID,
		Name:      name,
		Email:     email,
		Role:      s.roleFor(email),
		Avatar:    avatar,
		CreatedAt: s.opts.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.opts.Metrics.RecordSignup("firebase")
	return user, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Identity) Logout(token string) {
	s.sessions.Delete(token)
}

// Current resolves a session token to its user.
func (s *Identity) Current(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	sess, ok := s.sessions.Get(token)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}

	user, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.sessions.Delete(token)
			return nil, domain.ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}

// AddressInput is the address book form.
type AddressInput struct {
	FullName  string `json:"fullName" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city"`
	IsDefault bool   `json:"isDefault"`
}

// SaveAddress adds an address with a fresh id. The first address, or one
// flagged default, becomes the default.
func (s *Identity) SaveAddress(ctx context.Context, userID string, addr domain.Address) (*domain.User, error) {
	const op = "identity.save_address"

	in := AddressInput{
		FullName:  strings.TrimSpace(addr.FullName),
		Phone:     strings.TrimSpace(addr.Phone),
		Address:   strings.TrimSpace(addr.Address),
		City:      strings.TrimSpace(addr.City),
		IsDefault: addr.IsDefault,
	}
	if err := validateStruct(op, in, "Please fill in all required address information."); err != nil {
		return nil, err
	}

	return s.users.Modify(ctx, userID, func(user *domain.User) error {
		makeDefault := in.IsDefault || len(user.SavedAddresses) == 0
		if makeDefault {
			for i := range user.SavedAddresses {
				user.SavedAddresses[i].IsDefault = false
			}
		}
		user.SavedAddresses = append(user.SavedAddresses, domain.Address{
			ID:        uuid.NewString(),
			FullName:  in.FullName,
			Phone:     in.Phone,
			Address:   in.Address,
			City:      in.City,
			IsDefault: makeDefault,
		})
		return nil
	})
}

// DeleteAddress removes an address. Removing the default promotes the first
// remaining address.
func (s *Identity) DeleteAddress(ctx context.Context, userID, addressID string) (*domain.User, error) {
	return s.users.Modify(ctx, userID, func(user *domain.User) error {
		idx := slices.IndexFunc(user.SavedAddresses, func(a domain.Address) bool { return a.ID == addressID })
		if idx < 0 {
			return domain.ErrAddressNotFound
		}

		wasDefault := user.SavedAddresses[idx].IsDefault
		user.SavedAddresses = slices.Delete(user.SavedAddresses, idx, idx+1)
		if wasDefault && len(user.SavedAddresses) > 0 {
			user.SavedAddresses[0].IsDefault = true
		}
		return nil
	})
}

// SetDefaultAddress marks one address as the default.
func (s *Identity) SetDefaultAddress(ctx context.Context, userID, addressID string) (*domain.User, error) {
	return s.users.Modify(ctx, userID, func(user *domain.User) error {
		if _, ok := user.FindAddress(addressID); !ok {
			return domain.ErrAddressNotFound
		}
		for i := range user.SavedAddresses {
			user.SavedAddresses[i].IsDefault = user.SavedAddresses[i].ID == addressID
		}
		return nil
	})
}

func (s *Identity) roleFor(email string) domain.Role {
	if s.opts.AdminEmail != "" && email == s.opts.AdminEmail {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func avatarURL(seed string) string {
	return "https://i.pravatar.cc/150?u=" + url.QueryEscape(seed)
}
