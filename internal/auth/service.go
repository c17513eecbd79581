package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quizzle/internal/metrics"
	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// DeleteProfile removes the user and their quiz results atomically.
	DeleteProfile(ctx context.Context, id string) error
}

// SessionStore maps an opaque session id to a user id with a TTL.
type SessionStore interface {
	SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// AttemptCanceller stops a user's live quiz attempts on profile reset so
// none of them records a result afterwards.
type AttemptCanceller interface {
	AbandonUserAttempts(ctx context.Context, userID string) error
}

type Service struct {
	users      UserStore
	sessions   SessionStore
	attempts   AttemptCanceller
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(users UserStore, sessions SessionStore, attempts AttemptCanceller, jwtSecret string, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		attempts:   attempts,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

type CreateProfileInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	Role      string `json:"role"`
	Password  string `json:"password"`
}

// CreateProfile registers a user and opens a session for them.
func (s *Service) CreateProfile(ctx context.Context, in CreateProfileInput) (*models.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, "", fmt.Errorf("name is required: %w", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", fmt.Errorf("invalid email %q: %w", in.Email, apperrors.ErrValidation)
	}

	// Instructors are promoted in the database, never self-registered.
	switch in.Role {
	case "", models.RoleStudent:
	case models.RoleInstructor:
		return nil, "", fmt.Errorf("role %q cannot be self-assigned: %w", in.Role, apperrors.ErrValidation)
	default:
		return nil, "", fmt.Errorf("unknown role %q: %w", in.Role, apperrors.ErrValidation)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("email %s: %w", email, apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", err
	}

	now := s.now()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		AvatarURL: in.AvatarURL,
		Role:      models.RoleStudent,
		CreatedAt: now,
		LastLogin: &now,
	}
	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", err
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	log.Printf("Created profile %s for %s", user.ID, user.Email)

	token, err := s.newSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login opens a session for an existing profile. The password is only
// checked for profiles that were created with one.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, "", err
	}

	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, "", fmt.Errorf("invalid password: %w", apperrors.ErrUnauthorized)
		}
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Printf("Error updating last login for user %s: %v", user.ID, err)
	} else {
		user.LastLogin = &now
	}

	token, err := s.newSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return user, token, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("session expired: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if userID != claims.UserID {
		return nil, fmt.Errorf("session user mismatch: %w", apperrors.ErrUnauthorized)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("profile removed: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

// Logout drops the session behind token. The token stops working at once.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, claims.SessionID)
}

// ResetProfile stops the user's live attempts, then deletes the user with
// their results and drops the session.
func (s *Service) ResetProfile(ctx context.Context, user *models.User, token string) error {
	if s.attempts != nil {
		if err := s.attempts.AbandonUserAttempts(ctx, user.ID); err != nil {
			return err
		}
	}
	if err := s.users.DeleteProfile(ctx, user.ID); err != nil {
		return err
	}
	log.Printf("Reset profile %s (%s)", user.ID, user.Email)

	if err := s.Logout(ctx, token); err != nil {
		log.Printf("Error dropping session of removed user %s: %v", user.ID, err)
	}
	return nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"user_id"`
	jwt.StandardClaims
}

func (s *Service) newSession(ctx context.Context, user *models.User) (string, error) {
	sid := uuid.New().String()
	if err := s.sessions.SetSession(ctx, sid, user.ID, s.sessionTTL); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID: sid,
		UserID:    user.ID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  s.now().Unix(),
			ExpiresAt: s.now().Add(s.sessionTTL).Unix(),
		},
	})
	return token.SignedString(s.jwtSecret)
}

func (s *Service) parseToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}
	if claims.SessionID == "" || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims: %w", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
