package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/devjohxylon/waitlist-api/internal/domain"
	"github.com/devjohxylon/waitlist-api/internal/pkg/validate"
)

// sendConcurrency caps parallel SMTP conversations so a large batch doesn't
// exhaust connections on the relay.
const sendConcurrency = 4

type Service interface {
	Send(ctx context.Context, req domain.BulkSendRequest) (*domain.DispatchResult, error)
}

type entryStore interface {
	GetByID(ctx context.Context, entryID string) (*domain.WaitlistEntry, error)
	ListAll(ctx context.Context) ([]domain.WaitlistEntry, error)
	ListByStatus(ctx context.Context, status string) ([]domain.WaitlistEntry, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type alertPublisher interface {
	PublishAlert(ctx context.Context, subject, message string) error
}

type service struct {
	repo   entryStore
	mailer mailer
	alerts alertPublisher
}

type ServiceDeps struct {
	Repo   entryStore
	Mailer mailer
	Alerts alertPublisher
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.Repo, mailer: deps.Mailer, alerts: deps.Alerts}
}

// Send delivers the announcement to every resolved recipient. Individual
// delivery failures are counted, never propagated: one bad address must not
// abort the rest of the batch.
func (s *service) Send(ctx context.Context, req domain.BulkSendRequest) (*domain.DispatchResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	recipients, err := s.resolveRecipients(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return &domain.DispatchResult{}, nil
	}

	body := announcementBody(req.Title, req.Content, req.Highlights)

	var succeeded, failed atomic.Int64
	var mu sync.Mutex
	var failedRecipients []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sendConcurrency)
	for _, e := range recipients {
		if gctx.Err() != nil {
			break
		}
		email := e.Email
		g.Go(func() error {
			if err := s.mailer.SendEmail(email, req.Title, body); err != nil {
				slog.Warn("bulk send failed", "recipient", email, "err", err)
				failed.Add(1)
				mu.Lock()
				failedRecipients = append(failedRecipients, email)
				mu.Unlock()
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := &domain.DispatchResult{
		Succeeded:        int(succeeded.Load()),
		Failed:           int(failed.Load()),
		FailedRecipients: failedRecipients,
	}

	if s.alerts != nil && res.Failed > 0 {
		summary := fmt.Sprintf("bulk send %q: %d delivered, %d failed", req.Title, res.Succeeded, res.Failed)
		if err := s.alerts.PublishAlert(ctx, "waitlist bulk send had failures", summary); err != nil {
			slog.Warn("dispatch alert publish failed", "err", err)
		}
	}

	return res, nil
}

// resolveRecipients picks the target set: explicit ids win over a status
// filter, and an empty request means everyone.
func (s *service) resolveRecipients(ctx context.Context, req domain.BulkSendRequest) ([]domain.WaitlistEntry, error) {
	switch {
	case len(req.IDs) > 0:
		out := make([]domain.WaitlistEntry, 0, len(req.IDs))
		seen := make(map[string]struct{}, len(req.IDs))
		for _, entryID := range req.IDs {
			e, err := s.repo.GetByID(ctx, entryID)
			if errors.Is(err, domain.ErrNotFound) {
				// Stale ids are dropped silently, same as a missing row in
				// the bulk admin actions.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("resolving recipient %s: %v: %w", entryID, err, domain.ErrUnavailable)
			}
			if _, dup := seen[e.Email]; dup {
				continue
			}
			seen[e.Email] = struct{}{}
			out = append(out, *e)
		}
		return out, nil
	case req.Status != "":
		return s.repo.ListByStatus(ctx, req.Status)
	default:
		return s.repo.ListAll(ctx)
	}
}
