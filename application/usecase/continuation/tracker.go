package continuation

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/application/usecase/notification"
	"github.com/Subrata270/studio-sub001/application/usecase/workflow"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	lifecycle "github.com/Subrata270/studio-sub001/domain/workflow"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

const (
	actionScan           = "scan"
	actionRecordDecision = "recordContinuation"
	scanPageSize         = 100
)

// Lifecycle is the part of the workflow engine the tracker delegates to
type Lifecycle interface {
	ActivatePending(ctx context.Context, id string) (*entity.Subscription, error)
	Expire(ctx context.Context, id string) (*entity.Subscription, error)
}

type Config struct {
	// DefaultDecision fills past months nobody decided on
	DefaultDecision entity.ContinuationDecision
}

// Tracker owns the continuation ledger and expiry alerts of active
// subscriptions.
type Tracker struct {
	repo       outbound.SubscriptionRepository
	guard      *workflow.Guard
	lifecycle  Lifecycle
	dispatcher *notification.Dispatcher
	logger     logger.Logger
	cfg        Config
	now        func() time.Time
}

func NewTracker(
	repo outbound.SubscriptionRepository,
	guard *workflow.Guard,
	lc Lifecycle,
	dispatcher *notification.Dispatcher,
	log logger.Logger,
	cfg Config,
) *Tracker {
	if cfg.DefaultDecision != entity.ContinuationPending {
		cfg.DefaultDecision = entity.ContinuationContinued
	}
	return &Tracker{
		repo:       repo,
		guard:      guard,
		lifecycle:  lc,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "continuation_tracker"}),
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ inbound.ContinuationUseCase = (*Tracker)(nil)

// SetClock replaces the tracker clock
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// RunExpiryScan activates paid subscriptions, fills ledgers, sends expiry
// warnings and expires what has run out. Running it twice in a row changes
// nothing the second time. Per-subscription failures are collected in the
// report; only a failure to list subscriptions aborts the scan.
func (t *Tracker) RunExpiryScan(ctx context.Context) (*inbound.ScanReport, error) {
	started := t.now()
	report := &inbound.ScanReport{StartedAt: started, Failures: []inbound.ScanFailure{}}

	paid, err := t.listByStatus(ctx, entity.StatusPaymentCompleted)
	if err != nil {
		return nil, err
	}
	for _, s := range paid {
		if _, err := t.lifecycle.ActivatePending(ctx, s.ID); err != nil {
			t.fail(ctx, report, s.ID, err)
			continue
		}
		report.Activated++
	}

	active, err := t.listByStatus(ctx, entity.StatusActive)
	if err != nil {
		return nil, err
	}
	for _, s := range active {
		report.Scanned++
		t.scanOne(ctx, s.ID, report)
	}

	report.FinishedAt = t.now()
	logger.LogPerformance(ctx, t.logger, "expiry_scan", report.FinishedAt.Sub(started), map[string]interface{}{
		"scanned":        report.Scanned,
		"ledger_updated": report.LedgerUpdated,
		"alerted":        report.Alerted,
		"expired":        report.Expired,
		"activated":      report.Activated,
		"failures":       len(report.Failures),
	})
	return report, nil
}

func (t *Tracker) scanOne(ctx context.Context, id string, report *inbound.ScanReport) {
	subject := apperr.Subject{SubscriptionID: id, Action: actionScan, ActorID: entity.SystemActor().ID}
	now := t.now()
	var ledgerChanged, alerted, expired bool

	_, err := t.guard.Update(ctx, subject, func(s *entity.Subscription) ([]*entity.Notification, error) {
		ledgerChanged, alerted, expired = false, false, false
		if s.Status != entity.StatusActive {
			return nil, outbound.ErrNoChange
		}

		ledgerChanged = FillLedger(s, now, t.cfg.DefaultDecision)
		expired = s.ExpiryDate != nil && !now.Before(*s.ExpiryDate)

		var notes []*entity.Notification
		if !expired && dueForAlert(s, now) {
			stamp := now
			s.LastAlertTriggered = &stamp
			notes = t.dispatcher.Compose(s.ID, entity.NotificationExpiryWarning,
				notification.ExpiryWarningMessage(s, daysUntil(*s.ExpiryDate, now)), s.RequestedBy, s.HodID)
			alerted = true
		}

		if !ledgerChanged && !alerted {
			return nil, outbound.ErrNoChange
		}
		s.UpdatedAt = now
		return notes, nil
	})
	if err != nil {
		t.fail(ctx, report, id, err)
		return
	}
	if ledgerChanged {
		report.LedgerUpdated++
	}
	if alerted {
		report.Alerted++
	}

	if expired {
		if _, err := t.lifecycle.Expire(ctx, id); err != nil {
			t.fail(ctx, report, id, err)
			return
		}
		report.Expired++
	}
}

// RecordDecision sets one month of the ledger explicitly
func (t *Tracker) RecordDecision(ctx context.Context, actor entity.Actor, id string, req inbound.ContinuationDecisionRequest) (*entity.Subscription, error) {
	subject := apperr.Subject{SubscriptionID: id, Action: actionRecordDecision, ActorID: actor.ID}

	decision := entity.ContinuationDecision(strings.ToLower(strings.TrimSpace(req.Decision)))
	if decision != entity.ContinuationContinued && decision != entity.ContinuationDeclined {
		return nil, apperr.Validation("decision", "must be continued or declined")
	}
	month, err := time.Parse(entity.MonthKeyLayout, strings.TrimSpace(req.Month))
	if err != nil {
		return nil, apperr.Validation("month", "must be formatted YYYY-MM")
	}
	key := entity.MonthKey(month)

	sub, err := t.guard.Update(ctx, subject, func(s *entity.Subscription) ([]*entity.Notification, error) {
		if !lifecycle.CanRecordContinuation(actor, s) {
			return nil, apperr.Unauthorized(subject, "only the requester, the department head or an admin may decide continuation")
		}
		if s.Status != entity.StatusActive {
			return nil, apperr.InvalidTransition(subject, string(s.Status))
		}
		if s.ActivatedAt != nil && key < entity.MonthKey(*s.ActivatedAt) {
			return nil, apperr.Validation("month", "is before activation")
		}
		if s.ExpiryDate != nil && key > entity.MonthKey(*s.ExpiryDate) {
			return nil, apperr.Validation("month", "is after expiry")
		}
		if s.Continuation == nil {
			s.Continuation = make(map[string]entity.ContinuationDecision)
		}
		s.Continuation[key] = decision
		s.UpdatedAt = t.now()

		if decision != entity.ContinuationDeclined {
			return nil, nil
		}
		return t.dispatcher.Compose(s.ID, entity.NotificationContinuationDeclined,
			notification.ContinuationDeclinedMessage(s, key), s.HodID), nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info(ctx, "Continuation decision recorded", map[string]interface{}{
		"subscription_id": id,
		"month":           key,
		"decision":        string(decision),
		"actor_id":        actor.ID,
	})
	return sub, nil
}

func (t *Tracker) listByStatus(ctx context.Context, status entity.Status) ([]*entity.Subscription, error) {
	var all []*entity.Subscription
	for offset := 0; ; offset += scanPageSize {
		var (
			page  []*entity.Subscription
			total int
		)
		filter := entity.SubscriptionFilter{Status: &status, Limit: scanPageSize, Offset: offset}
		err := t.guard.Run(ctx, "query subscriptions", func(ctx context.Context) error {
			var err error
			page, total, err = t.repo.Query(ctx, filter)
			return err
		})
		if err != nil {
			t.logger.Error(ctx, "Expiry scan could not list subscriptions", err, map[string]interface{}{"status": string(status)})
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || offset+len(page) >= total {
			return all, nil
		}
	}
}

func (t *Tracker) fail(ctx context.Context, report *inbound.ScanReport, id string, err error) {
	t.logger.Error(ctx, "Expiry scan failed for subscription", err, map[string]interface{}{"subscription_id": id})
	report.Failures = append(report.Failures, inbound.ScanFailure{SubscriptionID: id, Error: err.Error()})
}

// FillLedger adds missing months from the activation month through the
// current month, never past the expiry month. Past months get def, the
// current month gets pending. Existing entries are never overwritten.
func FillLedger(s *entity.Subscription, now time.Time, def entity.ContinuationDecision) bool {
	start := s.ActivatedAt
	if start == nil {
		start = s.PaymentDate
	}
	if start == nil {
		return false
	}
	current := entity.MonthKey(now)
	last := current
	if s.ExpiryDate != nil && entity.MonthKey(*s.ExpiryDate) < last {
		last = entity.MonthKey(*s.ExpiryDate)
	}

	changed := false
	y, m, _ := start.UTC().Date()
	for cursor := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC); entity.MonthKey(cursor) <= last; cursor = cursor.AddDate(0, 1, 0) {
		key := entity.MonthKey(cursor)
		if _, ok := s.Continuation[key]; ok {
			continue
		}
		if s.Continuation == nil {
			s.Continuation = make(map[string]entity.ContinuationDecision)
		}
		if key == current {
			s.Continuation[key] = entity.ContinuationPending
		} else {
			s.Continuation[key] = def
		}
		changed = true
	}
	return changed
}

func dueForAlert(s *entity.Subscription, now time.Time) bool {
	if s.ExpiryDate == nil {
		return false
	}
	window := time.Duration(s.EffectiveAlertDays()) * 24 * time.Hour
	if s.ExpiryDate.Sub(now) > window {
		return false
	}
	return s.LastAlertTriggered == nil || !sameDay(*s.LastAlertTriggered, now)
}

func daysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
