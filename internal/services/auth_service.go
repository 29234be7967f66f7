package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gostore/internal/cache"
	"gostore/internal/models"
	"gostore/internal/repositories"
)

// AuthService handles registration, login, logout and token resolution.
// Sessions live in the Store: the signed token is treated as opaque and the
// cache lookup is authoritative, so logout invalidates a token immediately
// regardless of its embedded expiry.
type AuthService struct {
	users     repositories.UserRepository
	sessions  cache.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, sessions cache.Store, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user with a hashed password, the default access
// level and an empty cart, and returns the new user's ID.
func (s *AuthService) Register(email, username, password string) (string, error) {
	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return "", tagged(ErrConflict, "Email already in use")
	}

	existing, err = s.users.GetByUsername(username)
	if err != nil {
		return "", fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return "", tagged(ErrConflict, "Username already in use")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:       email,
		Username:    username,
		Password:    string(hashedPassword),
		AccessLevel: 1,
	}
	if err := s.users.Create(user); err != nil {
		return "", fmt.Errorf("failed to register user: %w", err)
	}
	return user.ID, nil
}

// Login verifies the credentials and returns the session token alongside the
// user. If the user already holds an unexpired session, its token is
// returned as-is instead of minting a second one, keeping at most one active
// session per user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", nil, tagged(ErrNotFound, "User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, tagged(ErrUnauthorized, "Invalid password")
	}

	// The snapshot must never carry the hash, even though serialization
	// already excludes it. Work on a copy so the repository-owned record
	// stays untouched.
	snapshot := *user
	snapshot.Password = ""
	// A fresh user has no cart rows yet; clients expect an array, not null.
	if snapshot.Cart == nil {
		snapshot.Cart = []models.CartItem{}
	}

	token, err := s.sessions.GetToken(ctx, snapshot.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to check existing session: %w", err)
	}
	if token != "" {
		return token, &snapshot, nil
	}

	token, err = s.mintToken(snapshot.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to mint token: %w", err)
	}
	if err := s.sessions.Put(ctx, token, &snapshot, s.tokenTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}
	return token, &snapshot, nil
}

// Resolve maps a bearer token to the user snapshot it was issued for. A
// missing token, an unknown or expired token, and a cache outage all resolve
// to an authentication failure: failing closed is safer than failing open.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, tagged(ErrUnauthenticated, "Unauthenticated")
	}

	user, err := s.sessions.GetUser(ctx, token)
	if err != nil {
		logrus.WithError(err).Warn("session lookup failed, treating as unauthenticated")
		return nil, tagged(ErrUnauthorized, "Invalid authentication token")
	}
	if user == nil {
		return nil, tagged(ErrUnauthorized, "Invalid authentication token")
	}
	return user, nil
}

// Logout invalidates the session for the given token and user. Logging out
// an already-absent session is not an error.
func (s *AuthService) Logout(ctx context.Context, token, userID string) error {
	if err := s.sessions.Delete(ctx, token, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SessionExists reports whether any part of a session survives in the cache.
func (s *AuthService) SessionExists(ctx context.Context, token, userID string) (bool, error) {
	return s.sessions.Exists(ctx, token, userID)
}

func (s *AuthService) mintToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	return token.SignedString(s.jwtSecret)
}
