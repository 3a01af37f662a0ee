package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("token invalid or expired")
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Service issues and verifies opaque bearer tokens backed by the
// users schema.
type Service struct {
	db       *pgxpool.Pool
	log      *slog.Logger
	tokenTTL time.Duration
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, tokenTTL time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	return &Service{db: db, log: logger, tokenTTL: tokenTTL}
}

func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()
	cmd, err := s.db.Exec(ctx, `
		INSERT INTO users.profiles (id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, userID, email, string(hash))
	if err != nil {
		return Session{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Session{}, ErrEmailTaken
	}
	s.log.Info("account created", "user_id", userID)
	return s.issueToken(ctx, User{ID: userID, Email: email})
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	var (
		user User
		hash string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash FROM users.profiles WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &hash)
	if err == pgx.ErrNoRows {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueToken(ctx, user)
}

// VerifyToken resolves a bearer token to its user. Expired tokens are
// reaped lazily on first use.
func (s *Service) VerifyToken(ctx context.Context, token string) (User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return User{}, ErrTokenInvalid
	}
	var (
		user      User
		expiresAt time.Time
	)
	err := s.db.QueryRow(ctx, `
		SELECT p.id, p.email, t.expires_at
		FROM users.tokens t
		JOIN users.profiles p ON p.id = t.user_id
		WHERE t.token = $1
	`, token).Scan(&user.ID, &user.Email, &expiresAt)
	if err == pgx.ErrNoRows {
		return User{}, ErrTokenInvalid
	}
	if err != nil {
		return User{}, err
	}
	if time.Now().After(expiresAt) {
		_, _ = s.db.Exec(ctx, `DELETE FROM users.tokens WHERE token = $1`, token)
		return User{}, ErrTokenInvalid
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users.tokens WHERE token = $1`, strings.TrimSpace(token))
	return err
}

func (s *Service) issueToken(ctx context.Context, user User) (Session, error) {
	session := Session{
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.tokenTTL),
		User:      user,
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO users.tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, session.Token, user.ID, session.ExpiresAt)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") || len(email) < 3 {
		return fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidCredentials)
	}
	return nil
}
