package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

const TokenKey = "adminToken"

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNoToken            = errors.New("login response did not contain an access token")
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (clients.Token, error)
}

// Session holds one browser's admin bearer token. It satisfies
// clients.TokenSource so the authenticated clients can read and clear it.
type Session struct {
	kv     storage.Store
	auth   Authenticator
	logger *zap.Logger
}

func NewSession(kv storage.Store, auth Authenticator, logger *zap.Logger) *Session {
	return &Session{kv: kv, auth: auth, logger: logging.OrNop(logger)}
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	tok, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return ErrNoToken
	}
	if err := s.kv.Set(ctx, TokenKey, []byte(tok.AccessToken)); err != nil {
		return fmt.Errorf("save admin token: %w", err)
	}
	s.logger.Info("admin logged in", zap.String("username", username))
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	return s.kv.Remove(ctx, TokenKey)
}

// Token returns "" without error when nobody is logged in.
func (s *Session) Token(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, TokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load admin token: %w", err)
	}
	return string(raw), nil
}

func (s *Session) Clear(ctx context.Context) error {
	return s.Logout(ctx)
}

func (s *Session) LoggedIn(ctx context.Context) bool {
	tok, err := s.Token(ctx)
	return err == nil && tok != ""
}
