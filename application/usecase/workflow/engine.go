package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/application/usecase/currency"
	"github.com/Subrata270/studio-sub001/application/usecase/notification"
	"github.com/Subrata270/studio-sub001/application/usecase/routing"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	lifecycle "github.com/Subrata270/studio-sub001/domain/workflow"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

type EngineConfig struct {
	AlertDaysDefault int
}

// Engine is the only writer of subscription status, approval and finance
// fields.
type Engine struct {
	repo       outbound.SubscriptionRepository
	deleted    outbound.DeletedSubscriptionRepository
	guard      *Guard
	router     *routing.Router
	normalizer *currency.Normalizer
	dispatcher *notification.Dispatcher
	logger     logger.Logger
	cfg        EngineConfig
	now        func() time.Time
}

func NewEngine(
	repo outbound.SubscriptionRepository,
	deleted outbound.DeletedSubscriptionRepository,
	guard *Guard,
	router *routing.Router,
	normalizer *currency.Normalizer,
	dispatcher *notification.Dispatcher,
	log logger.Logger,
	cfg EngineConfig,
) *Engine {
	if cfg.AlertDaysDefault <= 0 {
		cfg.AlertDaysDefault = entity.DefaultAlertDays
	}
	return &Engine{
		repo:       repo,
		deleted:    deleted,
		guard:      guard,
		router:     router,
		normalizer: normalizer,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "workflow_engine"}),
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ inbound.SubscriptionUseCase = (*Engine)(nil)

// effect validates the payload and writes action specific fields
type effect func(sub *entity.Subscription, now time.Time) error

// composer builds the notifications committed with the transition
type composer func(sub *entity.Subscription) []*entity.Notification

// transition applies action to subscription id on behalf of actor. The order
// of checks is fixed: authorization, then state, then payload.
func (e *Engine) transition(ctx context.Context, actor entity.Actor, id string, action lifecycle.Action, apply effect, compose composer) (*entity.Subscription, error) {
	subject := apperr.Subject{SubscriptionID: id, Action: string(action), ActorID: actor.ID}
	var from, to entity.Status

	sub, err := e.guard.Update(ctx, subject, func(s *entity.Subscription) ([]*entity.Notification, error) {
		from = s.Status
		if !lifecycle.Authorize(actor, action, s) {
			return nil, apperr.Unauthorized(subject, "actor may not perform this action on this subscription")
		}
		next, ok := lifecycle.Next(s.Status, action)
		if !ok {
			return nil, apperr.InvalidTransition(subject, string(s.Status))
		}
		now := e.now()
		if apply != nil {
			if err := apply(s, now); err != nil {
				return nil, err
			}
		}
		s.Status = next
		s.UpdatedAt = now
		s.AppendHistory(string(action), actor, from, next, now)
		to = next
		if compose == nil {
			return nil, nil
		}
		return compose(s), nil
	})

	logger.LogTransition(ctx, e.logger, id, string(action), actor.ID, string(from), string(to), err)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (e *Engine) Approve(ctx context.Context, actor entity.Actor, id string, req inbound.ApproveRequest) (*entity.Subscription, error) {
	pool, err := e.financePool(ctx, actor, id, lifecycle.ActionApprove, entity.SubroleAPA)
	if err != nil {
		return nil, err
	}
	note := strings.TrimSpace(req.Note)

	return e.transition(ctx, actor, id, lifecycle.ActionApprove,
		func(s *entity.Subscription, now time.Time) error {
			approver := actor.ID
			s.ApprovedBy = &approver
			s.ApprovedAt = &now
			if note != "" {
				s.ApprovalNote = &note
			}
			return nil
		},
		func(s *entity.Subscription) []*entity.Notification {
			out := e.dispatcher.Compose(s.ID, entity.NotificationApproved, notification.ApprovedMessage(s), s.RequestedBy)
			return append(out, e.dispatcher.Compose(s.ID, entity.NotificationVerificationRequired, notification.ReadyForFinanceMessage(s), pool...)...)
		},
	)
}

func (e *Engine) Decline(ctx context.Context, actor entity.Actor, id string, req inbound.DeclineRequest) (*entity.Subscription, error) {
	reason := strings.TrimSpace(req.Reason)

	return e.transition(ctx, actor, id, lifecycle.ActionDecline,
		func(s *entity.Subscription, now time.Time) error {
			if reason == "" {
				return apperr.Validation("reason", "a decline reason is required")
			}
			decliner := actor.ID
			s.DeclinedBy = &decliner
			s.DeclinedAt = &now
			s.DeclineReason = &reason
			return nil
		},
		func(s *entity.Subscription) []*entity.Notification {
			return e.dispatcher.Compose(s.ID, entity.NotificationDeclined, notification.DeclinedMessage(s, reason), s.RequestedBy)
		},
	)
}

func (e *Engine) ForwardToAM(ctx context.Context, actor entity.Actor, id string, req inbound.ForwardToAMRequest) (*entity.Subscription, error) {
	pool, err := e.financePool(ctx, actor, id, lifecycle.ActionForwardToAM, entity.SubroleAM)
	if err != nil {
		return nil, err
	}

	return e.transition(ctx, actor, id, lifecycle.ActionForwardToAM,
		func(s *entity.Subscription, now time.Time) error {
			if req.PlannedAmount <= 0 {
				return apperr.Validation("planned_amount", "must be positive")
			}
			code := currency.NormalizeCode(req.PlannedCurrency)
			if code == "" {
				return apperr.Validation("planned_currency", "is required")
			}
			paymentType := strings.TrimSpace(req.RecommendedPaymentType)
			if paymentType == "" {
				return apperr.Validation("recommended_payment_type", "is required")
			}
			planned := req.PlannedDate.UTC()
			if req.PlannedDate.IsZero() {
				planned = now
			}
			finance(s).VerificationLog = append(finance(s).VerificationLog, entity.VerificationEntry{
				PlannedAmount:          req.PlannedAmount,
				PlannedCurrency:        code,
				PlannedDate:            planned,
				RecommendedPaymentType: paymentType,
				Notes:                  strings.TrimSpace(req.Notes),
				RecordedBy:             actor.ID,
				RecordedAt:             now,
			})
			return nil
		},
		func(s *entity.Subscription) []*entity.Notification {
			return e.dispatcher.Compose(s.ID, entity.NotificationVerificationRequired, notification.VerificationRequiredMessage(s), pool...)
		},
	)
}

func (e *Engine) Verify(ctx context.Context, actor entity.Actor, id string, req inbound.VerifyRequest) (*entity.Subscription, error) {
	pool, err := e.financePool(ctx, actor, id, lifecycle.ActionVerify, entity.SubroleAPA)
	if err != nil {
		return nil, err
	}

	return e.transition(ctx, actor, id, lifecycle.ActionVerify,
		func(s *entity.Subscription, now time.Time) error {
			finance(s).AMLog = append(finance(s).AMLog, entity.AMLogEntry{
				Remarks:    strings.TrimSpace(req.Remarks),
				VerifiedBy: actor.ID,
				VerifiedAt: now,
			})
			return nil
		},
		func(s *entity.Subscription) []*entity.Notification {
			return e.dispatcher.Compose(s.ID, entity.NotificationPaymentRequired, notification.PaymentRequiredMessage(s), pool...)
		},
	)
}

// ExecutePayment records the payment and activates the subscription right
// away. The term runs from the payment date but never starts before the
// request date. If activation fails the payment stands and the next expiry
// scan activates the record.
func (e *Engine) ExecutePayment(ctx context.Context, actor entity.Actor, id string, req inbound.ExecutePaymentRequest) (*entity.Subscription, error) {
	paid, err := e.transition(ctx, actor, id, lifecycle.ActionExecutePayment,
		func(s *entity.Subscription, now time.Time) error {
			txID := strings.TrimSpace(req.TransactionID)
			if txID == "" {
				return apperr.Validation("transaction_id", "is required")
			}
			receipt := strings.TrimSpace(req.ReceiptReference)
			if receipt == "" {
				return apperr.Validation("receipt_reference", "is required")
			}
			if req.AmountPaid <= 0 {
				return apperr.Validation("amount_paid", "must be positive")
			}
			paymentDate := now
			if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
				paymentDate = req.PaymentDate.UTC()
			}
			finance(s).Execution = &entity.ExecutionEntry{
				TransactionID:    txID,
				AmountPaid:       req.AmountPaid,
				ReceiptReference: receipt,
				PaymentDate:      paymentDate,
				ExecutedBy:       actor.ID,
				ExecutedAt:       now,
			}
			start := paymentDate
			if s.RequestDate.After(start) {
				start = s.RequestDate
			}
			expiry := entity.AddMonths(start, s.DurationMonths)
			s.PaymentDate = &paymentDate
			s.ExpiryDate = &expiry
			return nil
		},
		func(s *entity.Subscription) []*entity.Notification {
			return e.dispatcher.Compose(s.ID, entity.NotificationPaymentCompleted, notification.PaymentCompletedMessage(s), s.RequestedBy)
		},
	)
	if err != nil {
		return nil, err
	}

	active, err := e.ActivatePending(ctx, id)
	if errors.Is(err, apperr.ErrInvalidTransition) {
		// a concurrent scan activated it first
		current, findErr := e.guard.Find(ctx, apperr.Subject{SubscriptionID: id, Action: string(lifecycle.ActionActivate)})
		if findErr == nil {
			return current, nil
		}
		err = findErr
	}
	if err != nil {
		e.logger.Error(ctx, "Activation after payment failed, leaving it to the expiry scan", err, map[string]interface{}{
			"subscription_id": id,
		})
		return paid, nil
	}
	return active, nil
}

// ActivatePending moves a paid subscription to Active
func (e *Engine) ActivatePending(ctx context.Context, id string) (*entity.Subscription, error) {
	return e.transition(ctx, entity.SystemActor(), id, lifecycle.ActionActivate,
		func(s *entity.Subscription, now time.Time) error {
			s.ActivatedAt = &now
			return nil
		},
		nil,
	)
}

// Expire ends an active subscription whose expiry date has passed
func (e *Engine) Expire(ctx context.Context, id string) (*entity.Subscription, error) {
	return e.transition(ctx, entity.SystemActor(), id, lifecycle.ActionExpire,
		func(s *entity.Subscription, now time.Time) error {
			if s.ExpiryDate == nil || now.Before(*s.ExpiryDate) {
				return apperr.Validation("expiry_date", "has not passed yet")
			}
			return nil
		},
		func(s *entity.Subscription) []*entity.Notification {
			return e.dispatcher.Compose(s.ID, entity.NotificationExpired, notification.ExpiredMessage(s), s.RequestedBy, s.HodID)
		},
	)
}

// financePool loads the recipients of the handoff notification. When the
// lookup fails, a caller who may not act on the subscription still gets
// Unauthorized.
func (e *Engine) financePool(ctx context.Context, actor entity.Actor, id string, action lifecycle.Action, subrole entity.Subrole) ([]string, error) {
	var pool []string
	err := e.guard.Run(ctx, "find finance pool", func(ctx context.Context) error {
		ids, err := e.router.FinancePool(ctx, subrole)
		pool = ids
		return err
	})
	if err == nil {
		return pool, nil
	}

	subject := apperr.Subject{SubscriptionID: id, Action: string(action), ActorID: actor.ID}
	sub, findErr := e.guard.Find(ctx, subject)
	if findErr != nil {
		if errors.Is(findErr, apperr.ErrNotFound) {
			return nil, findErr
		}
		return nil, err
	}
	if !lifecycle.Authorize(actor, action, sub) {
		return nil, apperr.Unauthorized(subject, "actor may not perform this action on this subscription")
	}
	return nil, err
}

func finance(s *entity.Subscription) *entity.FinanceRecord {
	if s.Finance == nil {
		s.Finance = &entity.FinanceRecord{}
	}
	return s.Finance
}
