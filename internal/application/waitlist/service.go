package waitlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/devjohxylon/waitlist-api/internal/domain"
	"github.com/devjohxylon/waitlist-api/internal/pkg/id"
	"github.com/devjohxylon/waitlist-api/internal/pkg/referral"
)

// maxCodeAttempts bounds the allocate-check-attach loop. Both existence-check
// collisions and lost attach races consume attempts; with an 8-character code
// space this should essentially never be reached.
const maxCodeAttempts = 5

const maxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type Service interface {
	Join(ctx context.Context, req domain.JoinRequest, sourceID string) (*domain.JoinResult, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*domain.WaitlistStats, error)
	List(ctx context.Context, limit int, cursor, status string) ([]domain.WaitlistEntry, string, error)
	FindByCode(ctx context.Context, code string) (*domain.WaitlistEntry, error)
	UpdateStatus(ctx context.Context, entryID string, req domain.UpdateEntryRequest) (*domain.WaitlistEntry, error)
	Delete(ctx context.Context, entryID string) error
	BulkAction(ctx context.Context, req domain.BulkActionRequest) (int, error)
	ExportCSV(ctx context.Context) (string, error)
	DownloadExport(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteExport(ctx context.Context, key string) error
}

type entryStore interface {
	Insert(ctx context.Context, e *domain.WaitlistEntry) error
	GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error)
	GetByID(ctx context.Context, entryID string) (*domain.WaitlistEntry, error)
	GetByCode(ctx context.Context, code string) (*domain.WaitlistEntry, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	AttachCode(ctx context.Context, email, code, referredBy string) error
	UpdateStatus(ctx context.Context, email, status string) error
	Delete(ctx context.Context, e *domain.WaitlistEntry) error
	QueryPage(ctx context.Context, limit int32, cursor, status string) ([]domain.WaitlistEntry, string, error)
	ListAll(ctx context.Context) ([]domain.WaitlistEntry, error)
	Count(ctx context.Context) (int, error)
}

type admissionGate interface {
	Allow(sourceID string) bool
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type exportStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    entryStore
	gate    admissionGate
	mailer  mailer
	exports exportStore
}

type ServiceDeps struct {
	Repo    entryStore
	Gate    admissionGate
	Mailer  mailer
	Exports exportStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.Repo,
		gate:    deps.Gate,
		mailer:  deps.Mailer,
		exports: deps.Exports,
	}
}

// Join runs the full signup pipeline: admission check, idempotent
// registration, referral code allocation, code attach. Stages fail fast with
// typed outcomes; nothing is retried across stages.
func (s *service) Join(ctx context.Context, req domain.JoinRequest, sourceID string) (*domain.JoinResult, error) {
	if !s.gate.Allow(sourceID) {
		return nil, fmt.Errorf("too many signup attempts: %w", domain.ErrRateLimited)
	}

	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &domain.WaitlistEntry{
		EntryID:   id.New(),
		Email:     email,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("insert entry: %v: %w", err, domain.ErrUnavailable)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	code, err := s.allocateCode(ctx, email, strings.TrimSpace(req.ReferredBy))
	if err != nil {
		// The entry now exists without a code. Accepted as a recoverable
		// inconsistency: it shows up code-less in the admin list and a later
		// signup with the same email reports EMAIL_EXISTS as usual.
		return nil, err
	}
	entry.ReferralCode = code

	if s.mailer != nil {
		// Fire-and-forget: a failed welcome email never fails the signup.
		go func(to, code string) {
			if err := s.mailer.SendEmail(to, welcomeSubject, welcomeBody(code)); err != nil {
				slog.Warn("welcome email failed", "err", err)
			}
		}(email, code)
	}

	return &domain.JoinResult{EntryID: entry.EntryID, ReferralCode: code}, nil
}

// allocateCode generates candidate codes until one attaches cleanly or the
// attempt budget runs out. The existence check is optimistic; the conditional
// write inside AttachCode is the authoritative uniqueness constraint, so a
// lost race costs one attempt instead of corrupting data.
func (s *service) allocateCode(ctx context.Context, email, referredBy string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := referral.NewCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("code existence check: %v: %w", err, domain.ErrUnavailable)
		}
		if exists {
			continue
		}
		switch err := s.repo.AttachCode(ctx, email, code, referredBy); {
		case err == nil:
			return code, nil
		case errors.Is(err, domain.ErrCodeTaken):
			continue
		default:
			return "", fmt.Errorf("attach code: %v: %w", err, domain.ErrUnavailable)
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", maxCodeAttempts, domain.ErrCodeExhausted)
}

// NormalizeEmail trims and lower-cases a raw email and validates its shape.
// Rejections happen before any datastore access.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("email is required: %w", domain.ErrInvalidEmail)
	}
	if len(email) > maxEmailLength {
		return "", fmt.Errorf("email too long: %w", domain.ErrInvalidEmail)
	}
	if strings.Contains(email, "..") || !emailPattern.MatchString(email) {
		return "", fmt.Errorf("malformed email: %w", domain.ErrInvalidEmail)
	}
	return email, nil
}

// backendErr wraps datastore failures as ErrUnavailable while letting typed
// domain sentinels pass through to the handler's error mapping.
func backendErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUnavailable)
}

func (s *service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, backendErr("count entries", err)
	}
	return n, nil
}

func (s *service) Stats(ctx context.Context) (*domain.WaitlistStats, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, backendErr("list entries", err)
	}
	stats := &domain.WaitlistStats{Total: len(entries), ByStatus: map[string]int{}}
	for i := range entries {
		status := entries[i].Status
		if status == "" {
			status = domain.StatusPending
		}
		stats.ByStatus[status]++
	}
	return stats, nil
}

func (s *service) List(ctx context.Context, limit int, cursor, status string) ([]domain.WaitlistEntry, string, error) {
	if limit < 1 {
		limit = 50
	}
	if status != "" && !domain.ValidStatus(status) {
		return nil, "", fmt.Errorf("invalid status filter: %w", domain.ErrBadRequest)
	}
	entries, next, err := s.repo.QueryPage(ctx, int32(limit), cursor, status)
	if err != nil {
		return nil, "", backendErr("query page", err)
	}
	return entries, next, nil
}

// FindByCode resolves the entry owning a referral code.
func (s *service) FindByCode(ctx context.Context, code string) (*domain.WaitlistEntry, error) {
	e, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, backendErr("get by code", err)
	}
	return e, nil
}

func (s *service) UpdateStatus(ctx context.Context, entryID string, req domain.UpdateEntryRequest) (*domain.WaitlistEntry, error) {
	if !domain.ValidStatus(req.Status) {
		return nil, fmt.Errorf("invalid status: %w", domain.ErrBadRequest)
	}
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, backendErr("get entry", err)
	}
	if err := s.repo.UpdateStatus(ctx, e.Email, req.Status); err != nil {
		return nil, backendErr("update status", err)
	}
	updated, err := s.repo.GetByEmail(ctx, e.Email)
	if err != nil {
		return nil, backendErr("get entry", err)
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, entryID string) error {
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return backendErr("get entry", err)
	}
	if err := s.repo.Delete(ctx, e); err != nil {
		return backendErr("delete entry", err)
	}
	return nil
}

// BulkAction applies approve/reject/delete to each id independently and
// returns the number of entries affected. Unknown ids are skipped, not
// errors, so a stale admin view doesn't abort the batch.
func (s *service) BulkAction(ctx context.Context, req domain.BulkActionRequest) (int, error) {
	status := ""
	switch req.Action {
	case "approve":
		status = domain.StatusApproved
	case "reject":
		status = domain.StatusRejected
	case "delete":
	default:
		return 0, fmt.Errorf("invalid action %q: %w", req.Action, domain.ErrBadRequest)
	}

	affected := 0
	for _, entryID := range req.IDs {
		e, err := s.repo.GetByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return affected, backendErr("get entry", err)
		}
		if status != "" {
			err = s.repo.UpdateStatus(ctx, e.Email, status)
		} else {
			err = s.repo.Delete(ctx, e)
		}
		if err != nil {
			return affected, backendErr("apply action", err)
		}
		affected++
	}
	return affected, nil
}

// ExportCSV snapshots the full waitlist to a CSV object in the export store
// and returns its key.
func (s *service) ExportCSV(ctx context.Context) (string, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return "", backendErr("list entries", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"email", "referral_code", "referred_by", "status", "created_at"})
	for i := range entries {
		e := &entries[i]
		_ = w.Write([]string{e.Email, e.ReferralCode, e.ReferredBy, e.Status, e.CreatedAt.UTC().Format(time.RFC3339)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/waitlist-%s.csv", id.New())
	if _, err := s.exports.Upload(ctx, key, &buf, "text/csv"); err != nil {
		return "", backendErr("upload export", err)
	}
	return key, nil
}

func (s *service) DownloadExport(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.exports.Download(ctx, key)
	if err != nil {
		return nil, backendErr("download export", err)
	}
	return rc, nil
}

func (s *service) DeleteExport(ctx context.Context, key string) error {
	if err := s.exports.Delete(ctx, key); err != nil {
		return backendErr("delete export", err)
	}
	return nil
}
