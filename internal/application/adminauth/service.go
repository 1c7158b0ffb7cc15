package adminauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/devjohxylon/waitlist-api/internal/domain"
	"github.com/devjohxylon/waitlist-api/internal/pkg/id"
	"github.com/devjohxylon/waitlist-api/internal/pkg/validate"
)

const (
	keyScheme    = "wk_"
	prefixLength = 8
	secretLength = 32

	keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Service interface {
	// Authorize checks a presented raw key. The returned key is nil when the
	// key is unknown, revoked or fails the hash comparison.
	Authorize(ctx context.Context, presented string) (*domain.AdminKey, error)
	CreateKey(ctx context.Context, req domain.CreateAdminKeyRequest) (*domain.AdminKey, string, error)
	GetKey(ctx context.Context, keyID string) (*domain.AdminKey, error)
	ListKeys(ctx context.Context) ([]domain.AdminKey, error)
	RevokeKey(ctx context.Context, keyID string) error
	Login(ctx context.Context, presented string) (string, time.Time, error)
}

type keyStore interface {
	Put(ctx context.Context, k *domain.AdminKey) error
	Get(ctx context.Context, keyID string) (*domain.AdminKey, error)
	GetByPrefix(ctx context.Context, prefix string) ([]domain.AdminKey, error)
	List(ctx context.Context) ([]domain.AdminKey, error)
	TouchLastUsed(ctx context.Context, keyID string, at time.Time) error
	Revoke(ctx context.Context, keyID string) error
}

type tokenSigner interface {
	Sign(keyID, keyName string) (string, time.Time, error)
}

type service struct {
	repo   keyStore
	signer tokenSigner
}

type ServiceDeps struct {
	Repo   keyStore
	Signer tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.Repo, signer: deps.Signer}
}

// CreateKey mints a new admin key. The raw key is returned exactly once;
// only its bcrypt hash and lookup prefix are stored.
func (s *service) CreateKey(ctx context.Context, req domain.CreateAdminKeyRequest) (*domain.AdminKey, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	prefix, err := randomKeyString(prefixLength)
	if err != nil {
		return nil, "", err
	}
	secret, err := randomKeyString(secretLength)
	if err != nil {
		return nil, "", err
	}
	raw := keyScheme + prefix + secret

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	key := &domain.AdminKey{
		KeyID:     id.New(),
		Name:      strings.TrimSpace(req.Name),
		KeyPrefix: prefix,
		KeyHash:   string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, key); err != nil {
		return nil, "", backendErr("put key", err)
	}
	return key, raw, nil
}

// backendErr wraps datastore failures as ErrUnavailable while letting typed
// domain sentinels pass through to the handler's error mapping.
func backendErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUnavailable)
}

func (s *service) Authorize(ctx context.Context, presented string) (*domain.AdminKey, error) {
	prefix, ok := splitPresented(presented)
	if !ok {
		return nil, nil
	}

	candidates, err := s.repo.GetByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, backendErr("get by prefix", err)
	}

	for i := range candidates {
		k := &candidates[i]
		if k.Revoked {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(k.KeyHash), []byte(presented)) != nil {
			continue
		}
		now := time.Now().UTC()
		if err := s.repo.TouchLastUsed(ctx, k.KeyID, now); err != nil {
			// Bookkeeping only; the key already authenticated.
			slog.Warn("touch last_used failed", "key_id", k.KeyID, "err", err)
		}
		k.LastUsedAt = &now
		return k, nil
	}
	return nil, nil
}

func (s *service) GetKey(ctx context.Context, keyID string) (*domain.AdminKey, error) {
	k, err := s.repo.Get(ctx, keyID)
	if err != nil {
		return nil, backendErr("get key", err)
	}
	return k, nil
}

func (s *service) ListKeys(ctx context.Context) ([]domain.AdminKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, backendErr("list keys", err)
	}
	return keys, nil
}

func (s *service) RevokeKey(ctx context.Context, keyID string) error {
	if err := s.repo.Revoke(ctx, keyID); err != nil {
		return backendErr("revoke key", err)
	}
	return nil
}

// Login exchanges a valid admin key for a short-lived bearer token.
func (s *service) Login(ctx context.Context, presented string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, fmt.Errorf("token signing not configured: %w", domain.ErrUnavailable)
	}
	key, err := s.Authorize(ctx, presented)
	if err != nil {
		return "", time.Time{}, err
	}
	if key == nil {
		return "", time.Time{}, domain.ErrUnauthorized
	}
	return s.signer.Sign(key.KeyID, key.Name)
}

// splitPresented extracts the lookup prefix from a raw key, rejecting
// anything that cannot possibly be a key before touching the store.
func splitPresented(presented string) (string, bool) {
	if !strings.HasPrefix(presented, keyScheme) {
		return "", false
	}
	rest := presented[len(keyScheme):]
	if len(rest) < prefixLength+secretLength {
		return "", false
	}
	return rest[:prefixLength], true
}

func randomKeyString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = keyAlphabet[idx.Int64()]
	}
	return string(out), nil
}
