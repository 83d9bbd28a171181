package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ieeesou/config"
	"ieeesou/pkg/logger"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNotConfigured      = errors.New("authentication is not configured")
)

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// SessionEvent is published whenever an administrator signs in or out.
type SessionEvent struct {
	UserID string
	Kind   EventKind
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and checks admin session tokens. It is the process-wide
// session authority; consumers subscribe to its events instead of polling.
type Service struct {
	secret []byte
	ttl    time.Duration
	email  string
	hash   []byte
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
	subs    map[int]func(SessionEvent)
	next    int
}

func NewService(cfg config.Auth) *Service {
	if cfg.JWTSecret == "" {
		logger.Sugar.Warn("JWT_SECRET is not set; admin sign-in is disabled")
	}
	return &Service{
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.TokenTTL,
		email:   strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		hash:    []byte(cfg.AdminPasswordHash),
		now:     time.Now,
		revoked: make(map[string]time.Time),
		subs:    make(map[int]func(SessionEvent)),
	}
}

// TTL is how long issued tokens stay valid.
func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) SignIn(email, password string) (string, error) {
	if len(s.secret) == 0 || s.email == "" || len(s.hash) == 0 {
		return "", ErrNotConfigured
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != s.email {
		// Compare anyway so a wrong email costs as much as a wrong password.
		_ = bcrypt.CompareHashAndPassword(s.hash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	logger.Sugar.Infof("Admin %s signed in", email)
	s.publish(SessionEvent{UserID: email, Kind: SignedIn})
	return token, nil
}

func (s *Service) Verify(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNotConfigured
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("%w: signed out", ErrInvalidToken)
	}
	return claims, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *Service) SignOut(tokenString string) error {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return err
	}

	s.mu.Lock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()

	logger.Sugar.Infof("Admin %s signed out", claims.Subject)
	s.publish(SessionEvent{UserID: claims.Subject, Kind: SignedOut})
	return nil
}

// Subscribe registers fn for session events until cancel is called.
func (s *Service) Subscribe(fn func(SessionEvent)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) publish(ev SessionEvent) {
	s.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
