package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/config"
	"github.com/nsit-tools/attendance-dashboard/internal/store"
	"github.com/nsit-tools/attendance-dashboard/internal/view"
)

// Common visitor errors.
var (
	ErrVisitorUnknown = errors.New("visitor unknown or expired")
	ErrTokenInvalid   = errors.New("invalid visitor token")
)

// Claims identifies a visitor. The JWT ID is the store key.
type Claims struct {
	jwt.RegisteredClaims
}

// VisitorService issues visitor tokens and loads/saves their view state.
type VisitorService struct {
	cfg   *config.Config
	store store.Store
	log   zerolog.Logger
}

// NewVisitorService creates a new VisitorService.
func NewVisitorService(cfg *config.Config, st store.Store, log zerolog.Logger) *VisitorService {
	return &VisitorService{
		cfg:   cfg,
		store: st,
		log:   log.With().Str("component", "visitor_service").Logger(),
	}
}

// Start creates a LoggedOut state for a new visitor and returns its token.
func (s *VisitorService) Start(ctx context.Context) (string, time.Time, error) {
	id := uuid.New().String()
	now := time.Now()
	expires := now.Add(s.cfg.SessionTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	if err := s.store.Put(ctx, id, view.Initial()); err != nil {
		return "", time.Time{}, fmt.Errorf("store visitor: %w", err)
	}

	s.log.Debug().Str("visitor", id).Msg("visitor started")
	return signed, expires, nil
}

// ValidateToken parses and validates a visitor JWT, returning the claims.
func (s *VisitorService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Load returns the visitor's current state.
func (s *VisitorService) Load(ctx context.Context, visitorID string) (view.State, error) {
	st, err := s.store.Get(ctx, visitorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return view.State{}, ErrVisitorUnknown
		}
		return view.State{}, err
	}
	return st, nil
}

// Save persists the visitor's state and refreshes its TTL.
func (s *VisitorService) Save(ctx context.Context, visitorID string, st view.State) error {
	return s.store.Put(ctx, visitorID, st)
}

// Committer returns a view.CommitFunc bound to the visitor.
func (s *VisitorService) Committer(visitorID string) view.CommitFunc {
	return func(ctx context.Context, st view.State) error {
		return s.Save(ctx, visitorID, st)
	}
}

// End discards the visitor's state. A LoggedOut state is written back so
// the token stays usable for another login.
func (s *VisitorService) End(ctx context.Context, visitorID string) error {
	if err := s.store.Delete(ctx, visitorID); err != nil {
		return fmt.Errorf("delete visitor: %w", err)
	}
	return s.store.Put(ctx, visitorID, view.Initial())
}
