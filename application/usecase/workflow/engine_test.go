package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/port/outbound"
	"github.com/Subrata270/studio-sub001/application/usecase/currency"
	"github.com/Subrata270/studio-sub001/application/usecase/notification"
	"github.com/Subrata270/studio-sub001/application/usecase/routing"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	"github.com/Subrata270/studio-sub001/infrastructure/adapter/memory"
	"github.com/Subrata270/studio-sub001/infrastructure/service/logger"
)

var (
	pocActor   = entity.Actor{ID: "poc-1", Role: entity.RolePOC, Department: "Engineering"}
	hodActor   = entity.Actor{ID: "hod-1", Role: entity.RoleHOD, Department: "Engineering"}
	apaActor   = entity.Actor{ID: "apa-1", Role: entity.RoleFinance, Subrole: entity.SubroleAPA}
	amActor    = entity.Actor{ID: "am-1", Role: entity.RoleFinance, Subrole: entity.SubroleAM}
	adminActor = entity.Actor{ID: "admin-1", Role: entity.RoleAdmin}
)

type harness struct {
	store     *memory.Store
	directory *switchableDirectory
	engine    *Engine
}

// switchableDirectory fails role lookups while down is set
type switchableDirectory struct {
	outbound.UserRepository
	down atomic.Bool
}

func (d *switchableDirectory) FindByRole(ctx context.Context, role entity.Role, subrole entity.Subrole) ([]*entity.User, error) {
	if d.down.Load() {
		return nil, errors.New("directory unavailable")
	}
	return d.UserRepository.FindByRole(ctx, role, subrole)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewNopLogger()

	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []*entity.User{
		{ID: "hod-1", Name: "Hana", Email: "hana@corp.test", Role: entity.RoleHOD, Department: "Engineering", CreatedAt: base},
		{ID: "hod-late", Name: "Hugo", Email: "hugo@corp.test", Role: entity.RoleHOD, Department: "engineering", CreatedAt: base.Add(time.Hour)},
		{ID: "poc-1", Name: "Pia", Email: "pia@corp.test", Role: entity.RolePOC, Department: "Engineering", CreatedAt: base},
		{ID: "apa-1", Name: "Ana", Email: "ana@corp.test", Role: entity.RoleFinance, Subrole: entity.SubroleAPA, CreatedAt: base},
		{ID: "apa-2", Name: "Abe", Email: "abe@corp.test", Role: entity.RoleFinance, Subrole: entity.SubroleAPA, CreatedAt: base},
		{ID: "am-1", Name: "Amy", Email: "amy@corp.test", Role: entity.RoleFinance, Subrole: entity.SubroleAM, CreatedAt: base},
		{ID: "admin-1", Name: "Ada", Email: "ada@corp.test", Role: entity.RoleAdmin, CreatedAt: base},
	}
	for _, u := range seed {
		require.NoError(t, store.Users().Create(context.Background(), u))
	}

	directory := &switchableDirectory{UserRepository: store.Users()}
	guard := NewGuard(store.Subscriptions(), memory.NewKeyedLocker(), Options{
		MaxRetries:        3,
		Backoff:           time.Millisecond,
		RepositoryTimeout: time.Second,
	}, log)
	engine := NewEngine(
		store.Subscriptions(),
		store.Deleted(),
		guard,
		routing.NewRouter(directory, log),
		currency.NewNormalizer(currency.NewStaticRateProvider(map[string]float64{"USD": 83}), "INR"),
		notification.NewDispatcher(store.Notifications(), log),
		log,
		EngineConfig{},
	)
	return &harness{store: store, directory: directory, engine: engine}
}

func validRequest() inbound.CreateSubscriptionRequest {
	return inbound.CreateSubscriptionRequest{
		ToolName:       "Figma",
		VendorName:     "Figma Inc",
		Department:     "Engineering",
		Purpose:        "Design reviews",
		DurationMonths: 6,
		Amount:         100,
		Currency:       "USD",
	}
}

func (h *harness) create(t *testing.T) *entity.Subscription {
	t.Helper()
	sub, err := h.engine.Create(context.Background(), pocActor, validRequest())
	require.NoError(t, err)
	return sub
}

func (h *harness) notificationsFor(t *testing.T, userID string) []*entity.Notification {
	t.Helper()
	items, err := h.store.Notifications().ListByUser(context.Background(), userID, false, 0, 0)
	require.NoError(t, err)
	return items
}

func TestCreate_NormalizesAndRoutes(t *testing.T) {
	h := newHarness(t)

	sub := h.create(t)

	assert.Equal(t, entity.StatusPending, sub.Status)
	assert.Equal(t, 8300.0, sub.Cost)
	assert.Equal(t, "USD", sub.OriginalCurrency)
	assert.Equal(t, 100.0, sub.OriginalAmount)
	assert.Equal(t, "hod-1", sub.HodID, "earliest created head wins")
	assert.Equal(t, entity.DefaultAlertDays, sub.AlertDays)
	assert.Empty(t, sub.History)

	notes := h.notificationsFor(t, "hod-1")
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationApprovalRequired, notes[0].Kind)
	assert.Equal(t, sub.ID, notes[0].SubscriptionID)
}

func TestCreate_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := validRequest()
	req.Currency = "GBP"
	_, err := h.engine.Create(ctx, pocActor, req)
	assert.ErrorIs(t, err, apperr.ErrUnknownCurrency)

	req = validRequest()
	req.Department = "Marketing"
	_, err = h.engine.Create(ctx, pocActor, req)
	assert.ErrorIs(t, err, apperr.ErrNoApproverFound)

	req = validRequest()
	req.DurationMonths = 0
	_, err = h.engine.Create(ctx, pocActor, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = h.engine.Create(ctx, apaActor, validRequest())
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	list, err := h.engine.List(ctx, adminActor, inbound.ListSubscriptionsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Subscriptions, "failed creations store nothing")
}

func TestFullLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.engine.SetClock(func() time.Time { return time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC) })
	sub := h.create(t)

	approved, err := h.engine.Approve(ctx, hodActor, sub.ID, inbound.ApproveRequest{Note: "Q4 budget"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovalNote)
	assert.Equal(t, "Q4 budget", *approved.ApprovalNote)
	assert.Equal(t, "hod-1", *approved.ApprovedBy)

	forwarded, err := h.engine.ForwardToAM(ctx, apaActor, sub.ID, inbound.ForwardToAMRequest{
		PlannedAmount:          500,
		PlannedCurrency:        "usd",
		PlannedDate:            time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		RecommendedPaymentType: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusForwardedToAM, forwarded.Status)
	require.Len(t, forwarded.Finance.VerificationLog, 1)
	assert.Equal(t, "USD", forwarded.Finance.VerificationLog[0].PlannedCurrency)

	verified, err := h.engine.Verify(ctx, amActor, sub.ID, inbound.VerifyRequest{Remarks: "vendor checked"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusVerifiedByAM, verified.Status)
	require.Len(t, verified.Finance.AMLog, 1)

	paymentDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	active, err := h.engine.ExecutePayment(ctx, apaActor, sub.ID, inbound.ExecutePaymentRequest{
		TransactionID:    "TX-001",
		AmountPaid:       500,
		ReceiptReference: "RCPT-9",
		PaymentDate:      &paymentDate,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, active.Status)
	require.NotNil(t, active.ExpiryDate)
	assert.True(t, active.ExpiryDate.Equal(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
	assert.NotNil(t, active.ActivatedAt)
	assert.Equal(t, 8300.0, active.Cost, "cost is fixed at request time")
	assert.Equal(t, "TX-001", active.Finance.Execution.TransactionID)

	var path []entity.Status
	for _, fact := range active.History {
		path = append(path, fact.To)
	}
	assert.Equal(t, []entity.Status{
		entity.StatusApproved,
		entity.StatusForwardedToAM,
		entity.StatusVerifiedByAM,
		entity.StatusPaymentCompleted,
		entity.StatusActive,
	}, path)
	assert.Equal(t, entity.RoleSystem, active.History[4].ActorRole)

	assert.Len(t, h.notificationsFor(t, "apa-1"), 2, "approval handoff and payment request")
	assert.Len(t, h.notificationsFor(t, "apa-2"), 2)
	assert.Len(t, h.notificationsFor(t, "am-1"), 1)
	assert.Len(t, h.notificationsFor(t, "poc-1"), 2, "approved and payment completed")
}

func TestDecline_EmptyReasonLeavesPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)

	_, err := h.engine.Decline(ctx, hodActor, sub.ID, inbound.DeclineRequest{Reason: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	stored, err := h.engine.Get(ctx, adminActor, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)
	assert.Empty(t, stored.History)
	assert.Empty(t, h.notificationsFor(t, "poc-1"))
}

func TestDecline_RecordsReason(t *testing.T) {
	h := newHarness(t)
	sub := h.create(t)

	declined, err := h.engine.Decline(context.Background(), hodActor, sub.ID, inbound.DeclineRequest{Reason: "Not in budget"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeclined, declined.Status)
	assert.Equal(t, "Not in budget", *declined.DeclineReason)

	_, err = h.engine.Approve(context.Background(), hodActor, sub.ID, inbound.ApproveRequest{})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "declined is terminal")
}

func TestAuthorizationPrecedesStateCheck(t *testing.T) {
	h := newHarness(t)
	sub := h.create(t)

	_, err := h.engine.Verify(context.Background(), apaActor, sub.ID, inbound.VerifyRequest{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = h.engine.Verify(context.Background(), amActor, sub.ID, inbound.VerifyRequest{})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestApprove_OnlyAssignedHOD(t *testing.T) {
	h := newHarness(t)
	sub := h.create(t)
	other := entity.Actor{ID: "hod-late", Role: entity.RoleHOD, Department: "Engineering"}

	_, err := h.engine.Approve(context.Background(), other, sub.ID, inbound.ApproveRequest{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	var appErr *apperr.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, sub.ID)
	assert.Contains(t, appErr.Details, "hod-late")
	assert.Contains(t, appErr.Details, "approve")
}

func TestConcurrentApprove_ExactlyOneWins(t *testing.T) {
	h := newHarness(t)
	sub := h.create(t)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.engine.Approve(context.Background(), hodActor, sub.ID, inbound.ApproveRequest{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.ErrInvalidTransition.Is(err) || apperr.ErrTransitionFailed.Is(err), "unexpected error %v", err)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := h.engine.Get(context.Background(), adminActor, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, stored.Status)
	assert.Len(t, stored.History, 1)
	assert.Len(t, h.notificationsFor(t, "poc-1"), 1)
}

func TestExecutePayment_RequiresFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)
	_, err := h.engine.Approve(ctx, hodActor, sub.ID, inbound.ApproveRequest{})
	require.NoError(t, err)
	_, err = h.engine.ForwardToAM(ctx, apaActor, sub.ID, inbound.ForwardToAMRequest{PlannedAmount: 1, PlannedCurrency: "INR", RecommendedPaymentType: "wire"})
	require.NoError(t, err)
	_, err = h.engine.Verify(ctx, amActor, sub.ID, inbound.VerifyRequest{})
	require.NoError(t, err)

	_, err = h.engine.ExecutePayment(ctx, apaActor, sub.ID, inbound.ExecutePaymentRequest{AmountPaid: 10, ReceiptReference: "R"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	stored, err := h.engine.Get(ctx, adminActor, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusVerifiedByAM, stored.Status)
	assert.Nil(t, stored.ExpiryDate)
}

// toPaymentStage walks sub through approval, forwarding and verification
func (h *harness) toPaymentStage(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.engine.Approve(ctx, hodActor, id, inbound.ApproveRequest{})
	require.NoError(t, err)
	_, err = h.engine.ForwardToAM(ctx, apaActor, id, inbound.ForwardToAMRequest{PlannedAmount: 1, PlannedCurrency: "INR", RecommendedPaymentType: "wire"})
	require.NoError(t, err)
	_, err = h.engine.Verify(ctx, amActor, id, inbound.VerifyRequest{})
	require.NoError(t, err)
}

func TestExecutePayment_BackdatedPaymentStartsTermAtRequestDate(t *testing.T) {
	h := newHarness(t)
	sub := h.create(t)
	h.toPaymentStage(t, sub.ID)

	backdated := sub.RequestDate.AddDate(-2, 0, 0)
	active, err := h.engine.ExecutePayment(context.Background(), apaActor, sub.ID, inbound.ExecutePaymentRequest{
		TransactionID:    "TX-OLD",
		AmountPaid:       100,
		ReceiptReference: "RCPT-OLD",
		PaymentDate:      &backdated,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, active.Status)

	require.NotNil(t, active.PaymentDate)
	assert.True(t, active.PaymentDate.Equal(backdated), "the recorded payment date is kept")
	require.NotNil(t, active.ExpiryDate)
	assert.False(t, active.ExpiryDate.Before(sub.RequestDate))
	assert.True(t, active.ExpiryDate.Equal(entity.AddMonths(sub.RequestDate, sub.DurationMonths)))
}

func TestExecutePayment_ActivatedConcurrentlyStillSucceeds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)
	h.toPaymentStage(t, sub.ID)

	// the scan activates the record between the payment commit and the
	// engine's own activation
	var scanErr error
	h.engine.guard.OnCommit(func(ctx context.Context, notes []*entity.Notification) {
		for _, n := range notes {
			if n.Kind == entity.NotificationPaymentCompleted {
				_, scanErr = h.engine.ActivatePending(ctx, n.SubscriptionID)
				return
			}
		}
	})

	active, err := h.engine.ExecutePayment(ctx, apaActor, sub.ID, inbound.ExecutePaymentRequest{
		TransactionID:    "TX-RACE",
		AmountPaid:       100,
		ReceiptReference: "RCPT-RACE",
	})
	require.NoError(t, scanErr)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, active.Status)
	assert.NotNil(t, active.ActivatedAt)

	activations := 0
	for _, fact := range active.History {
		if fact.To == entity.StatusActive {
			activations++
		}
	}
	assert.Equal(t, 1, activations)
}

func TestFinancePoolFailure_KeepsAuthorizationFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)
	stranger := entity.Actor{ID: "hod-late", Role: entity.RoleHOD, Department: "Engineering"}

	h.directory.down.Store(true)

	_, err := h.engine.Approve(ctx, stranger, sub.ID, inbound.ApproveRequest{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = h.engine.Verify(ctx, apaActor, sub.ID, inbound.VerifyRequest{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = h.engine.Approve(ctx, hodActor, "missing", inbound.ApproveRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.engine.Approve(ctx, hodActor, sub.ID, inbound.ApproveRequest{})
	assert.ErrorIs(t, err, apperr.ErrInternal)
	assert.NotErrorIs(t, err, apperr.ErrUnauthorized)

	h.directory.down.Store(false)
	approved, err := h.engine.Approve(ctx, hodActor, sub.ID, inbound.ApproveRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, approved.Status)
}

func TestRenew(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)

	_, err := h.engine.Renew(ctx, pocActor, sub.ID, inbound.RenewRequest{})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = h.store.Subscriptions().Update(ctx, sub.ID, func(s *entity.Subscription) ([]*entity.Notification, error) {
		s.Status = entity.StatusExpired
		return nil, nil
	})
	require.NoError(t, err)

	_, err = h.engine.Renew(ctx, apaActor, sub.ID, inbound.RenewRequest{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	months := 12
	renewed, err := h.engine.Renew(ctx, hodActor, sub.ID, inbound.RenewRequest{DurationMonths: &months})
	require.NoError(t, err)
	assert.NotEqual(t, sub.ID, renewed.ID)
	assert.Equal(t, entity.StatusPending, renewed.Status)
	assert.Equal(t, 12, renewed.DurationMonths)
	assert.Equal(t, "poc-1", renewed.RequestedBy)
	require.NotNil(t, renewed.RenewedFrom)
	assert.Equal(t, sub.ID, *renewed.RenewedFrom)

	old, err := h.engine.Get(ctx, adminActor, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusExpired, old.Status)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)

	err := h.engine.Delete(ctx, pocActor, sub.ID, inbound.DeleteSubscriptionRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = h.engine.Delete(ctx, hodActor, sub.ID, inbound.DeleteSubscriptionRequest{Justification: "dup"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, h.engine.Delete(ctx, pocActor, sub.ID, inbound.DeleteSubscriptionRequest{Justification: "duplicate request"}))

	_, err = h.engine.Get(ctx, adminActor, sub.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	deleted, err := h.engine.ListDeleted(ctx, adminActor, 1, 10)
	require.NoError(t, err)
	require.Len(t, deleted.Deleted, 1)
	assert.Equal(t, sub.ID, deleted.Deleted[0].Snapshot.ID)
	assert.Equal(t, "duplicate request", deleted.Deleted[0].Justification)

	_, err = h.engine.ListDeleted(ctx, pocActor, 1, 10)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDelete_RequesterCannotDeleteAfterApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)
	_, err := h.engine.Approve(ctx, hodActor, sub.ID, inbound.ApproveRequest{})
	require.NoError(t, err)

	err = h.engine.Delete(ctx, pocActor, sub.ID, inbound.DeleteSubscriptionRequest{Justification: "changed my mind"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, h.engine.Delete(ctx, adminActor, sub.ID, inbound.DeleteSubscriptionRequest{Justification: "vendor closed"}))
}

func TestList_ScopesByRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.create(t)
	_, err := h.engine.Create(ctx, hodActor, validRequest())
	require.NoError(t, err)

	mine, err := h.engine.List(ctx, pocActor, inbound.ListSubscriptionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Pagination.Total)

	all, err := h.engine.List(ctx, apaActor, inbound.ListSubscriptionsRequest{Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Pagination.Total)

	_, err = h.engine.List(ctx, adminActor, inbound.ListSubscriptionsRequest{Status: "pending"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGet_HiddenFromStrangers(t *testing.T) {
	h := newHarness(t)
	sub := h.create(t)
	stranger := entity.Actor{ID: "poc-9", Role: entity.RolePOC, Department: "Engineering"}

	_, err := h.engine.Get(context.Background(), stranger, sub.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = h.engine.Get(context.Background(), stranger, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestExpire_SendsNotifications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sub := h.create(t)

	past := time.Now().UTC().Add(-time.Hour)
	_, err := h.store.Subscriptions().Update(ctx, sub.ID, func(s *entity.Subscription) ([]*entity.Notification, error) {
		s.Status = entity.StatusActive
		s.ExpiryDate = &past
		return nil, nil
	})
	require.NoError(t, err)

	_, err = h.engine.Expire(ctx, sub.ID)
	require.NoError(t, err)

	assert.Len(t, h.notificationsFor(t, "poc-1"), 1)
	assert.Len(t, h.notificationsFor(t, "hod-1"), 2, "approval request and expiry")
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (p *recordingPublisher) Publish(n *entity.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func (p *recordingPublisher) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, n := range p.sent {
		out = append(out, n.UserID)
	}
	return out
}

func TestPublishesOnlyCommittedNotifications(t *testing.T) {
	h := newHarness(t)
	pub := &recordingPublisher{}
	h.engine.dispatcher.SetPublisher(pub)
	h.engine.guard.OnCommit(h.engine.dispatcher.Published)

	sub := h.create(t)
	assert.Equal(t, []string{"hod-1"}, pub.recipients())

	_, err := h.engine.Approve(context.Background(), entity.Actor{ID: "hod-late", Role: entity.RoleHOD}, sub.ID, inbound.ApproveRequest{})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Len(t, pub.recipients(), 1)

	_, err = h.engine.Approve(context.Background(), hodActor, sub.ID, inbound.ApproveRequest{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"hod-1", "poc-1", "apa-1", "apa-2"}, pub.recipients())
}
