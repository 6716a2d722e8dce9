package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Subrata270/studio-sub001/application/port/inbound"
	"github.com/Subrata270/studio-sub001/application/usecase/notification"
	"github.com/Subrata270/studio-sub001/domain/entity"
	apperr "github.com/Subrata270/studio-sub001/domain/error"
	lifecycle "github.com/Subrata270/studio-sub001/domain/workflow"
)

const (
	actionCreate = "create"
	actionRenew  = "renew"
	actionDelete = "delete"
	actionView   = "view"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Create submits a new request in Pending and routes it to the department head
func (e *Engine) Create(ctx context.Context, actor entity.Actor, req inbound.CreateSubscriptionRequest) (*entity.Subscription, error) {
	subject := apperr.Subject{Action: actionCreate, ActorID: actor.ID}
	if !lifecycle.CanCreate(actor) {
		return nil, apperr.Unauthorized(subject, "role may not submit requests")
	}
	if strings.TrimSpace(req.Department) == "" {
		req.Department = actor.Department
	}
	return e.open(ctx, actor.ID, req, nil)
}

// Renew opens a new Pending request from an expired one. The expired record
// is left as it is.
func (e *Engine) Renew(ctx context.Context, actor entity.Actor, id string, req inbound.RenewRequest) (*entity.Subscription, error) {
	subject := apperr.Subject{SubscriptionID: id, Action: actionRenew, ActorID: actor.ID}
	old, err := e.guard.Find(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanRenew(actor, old) {
		return nil, apperr.Unauthorized(subject, "only the requester, the department head or an admin may renew")
	}
	if old.Status != entity.StatusExpired {
		return nil, apperr.InvalidTransition(subject, string(old.Status))
	}

	next := inbound.CreateSubscriptionRequest{
		ToolName:       old.ToolName,
		VendorName:     old.VendorName,
		Department:     old.Department,
		Purpose:        old.Purpose,
		DurationMonths: old.DurationMonths,
		Amount:         old.OriginalAmount,
		Currency:       old.OriginalCurrency,
		AlertDays:      old.AlertDays,
	}
	if req.DurationMonths != nil {
		next.DurationMonths = *req.DurationMonths
	}
	if req.Amount != nil {
		next.Amount = *req.Amount
	}
	if req.Currency != nil {
		next.Currency = *req.Currency
	}
	if req.Purpose != nil {
		next.Purpose = *req.Purpose
	}

	renewed, err := e.open(ctx, old.RequestedBy, next, &old.ID)
	if err != nil {
		return nil, err
	}
	e.logger.Info(ctx, "Subscription renewed", map[string]interface{}{
		"subscription_id": renewed.ID,
		"renewed_from":    old.ID,
		"actor_id":        actor.ID,
	})
	return renewed, nil
}

func (e *Engine) open(ctx context.Context, requestedBy string, req inbound.CreateSubscriptionRequest, renewedFrom *string) (*entity.Subscription, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	normalized, err := e.normalizer.Normalize(ctx, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}

	var hodID string
	err = e.guard.Run(ctx, "resolve department head", func(ctx context.Context) error {
		id, err := e.router.ResolveHOD(ctx, req.Department)
		hodID = id
		return err
	})
	if err != nil {
		return nil, err
	}

	alertDays := req.AlertDays
	if alertDays <= 0 {
		alertDays = e.cfg.AlertDaysDefault
	}
	now := e.now()
	sub := &entity.Subscription{
		ID:               uuid.NewString(),
		ToolName:         strings.TrimSpace(req.ToolName),
		VendorName:       strings.TrimSpace(req.VendorName),
		Department:       strings.TrimSpace(req.Department),
		Purpose:          strings.TrimSpace(req.Purpose),
		DurationMonths:   req.DurationMonths,
		Cost:             normalized.Cost,
		OriginalCurrency: normalized.OriginalCurrency,
		OriginalAmount:   normalized.OriginalAmount,
		RequestedBy:      requestedBy,
		RequestDate:      now,
		Status:           entity.StatusPending,
		HodID:            hodID,
		AlertDays:        alertDays,
		RenewedFrom:      renewedFrom,
		History:          []entity.AuditFact{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	notes := e.dispatcher.Compose(sub.ID, entity.NotificationApprovalRequired, notification.ApprovalRequiredMessage(sub), hodID)

	err = e.guard.Run(ctx, "create subscription", func(ctx context.Context) error {
		return e.repo.Create(ctx, sub, notes)
	})
	if err != nil {
		e.logger.Error(ctx, "Failed to create subscription", err, map[string]interface{}{"requested_by": requestedBy})
		return nil, err
	}
	e.dispatcher.Published(ctx, notes)

	e.logger.Info(ctx, "Subscription requested", map[string]interface{}{
		"subscription_id": sub.ID,
		"requested_by":    requestedBy,
		"hod_id":          hodID,
		"cost":            sub.Cost,
		"currency":        sub.OriginalCurrency,
	})
	return sub, nil
}

func validateCreate(req inbound.CreateSubscriptionRequest) error {
	required := []struct {
		field string
		value string
	}{
		{"tool_name", req.ToolName},
		{"vendor_name", req.VendorName},
		{"department", req.Department},
		{"purpose", req.Purpose},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field, "is required")
		}
	}
	if req.DurationMonths < 1 {
		return apperr.Validation("duration_months", "must be at least 1")
	}
	if req.Amount <= 0 {
		return apperr.Validation("amount", "must be positive")
	}
	if req.AlertDays < 0 {
		return apperr.Validation("alert_days", "must not be negative")
	}
	return nil
}

// Delete archives and removes a subscription in one repository unit
func (e *Engine) Delete(ctx context.Context, actor entity.Actor, id string, req inbound.DeleteSubscriptionRequest) error {
	subject := apperr.Subject{SubscriptionID: id, Action: actionDelete, ActorID: actor.ID}
	justification := strings.TrimSpace(req.Justification)

	err := e.guard.Do(ctx, subject, func(ctx context.Context) error {
		sub, err := e.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !lifecycle.CanDelete(actor, sub) {
			return apperr.Unauthorized(subject, "only an admin, or the requester while pending, may delete")
		}
		if justification == "" {
			return apperr.Validation("justification", "is required")
		}
		archive := &entity.DeletedSubscription{
			ID:            uuid.NewString(),
			Snapshot:      sub,
			DeletedBy:     actor.ID,
			Justification: justification,
			DeletedAt:     e.now(),
		}
		return e.repo.SoftDelete(ctx, id, sub.Version, archive)
	})
	if err != nil {
		return err
	}

	e.logger.Info(ctx, "Subscription deleted", map[string]interface{}{
		"subscription_id": id,
		"actor_id":        actor.ID,
	})
	return nil
}

func (e *Engine) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Subscription, error) {
	subject := apperr.Subject{SubscriptionID: id, Action: actionView, ActorID: actor.ID}
	sub, err := e.guard.Find(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(actor, sub) {
		return nil, apperr.Unauthorized(subject, "not visible to this actor")
	}
	return sub, nil
}

// List applies role scoping on top of the caller's filters
func (e *Engine) List(ctx context.Context, actor entity.Actor, req inbound.ListSubscriptionsRequest) (*inbound.ListSubscriptionsResponse, error) {
	page, limit := pageBounds(req.Page, req.Limit)
	filter := entity.SubscriptionFilter{Limit: limit, Offset: (page - 1) * limit}

	if req.Status != "" {
		status := entity.Status(req.Status)
		if !status.Valid() {
			return nil, apperr.Validation("status", "unknown status "+req.Status)
		}
		filter.Status = &status
	}
	if req.Department != "" {
		filter.Department = &req.Department
	}
	if req.RequestedBy != "" {
		filter.RequestedBy = &req.RequestedBy
	}
	if req.HodID != "" {
		filter.HodID = &req.HodID
	}

	switch actor.Role {
	case entity.RoleAdmin, entity.RoleFinance:
	case entity.RoleHOD:
		if req.RequestedBy != actor.ID {
			dept := actor.Department
			filter.Department = &dept
		}
	case entity.RolePOC:
		self := actor.ID
		filter.RequestedBy = &self
	default:
		return nil, apperr.Unauthorized(apperr.Subject{Action: "list", ActorID: actor.ID}, "role may not list subscriptions")
	}

	var (
		items []*entity.Subscription
		total int
	)
	err := e.guard.Run(ctx, "query subscriptions", func(ctx context.Context) error {
		var err error
		items, total, err = e.repo.Query(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.Subscription{}
	}
	return &inbound.ListSubscriptionsResponse{
		Subscriptions: items,
		Pagination:    inbound.PaginationInfo{Page: page, Limit: limit, Total: total},
	}, nil
}

func (e *Engine) ListDeleted(ctx context.Context, actor entity.Actor, page, limit int) (*inbound.ListDeletedResponse, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, apperr.Unauthorized(apperr.Subject{Action: "list_deleted", ActorID: actor.ID}, "admin only")
	}
	page, limit = pageBounds(page, limit)

	var (
		items []*entity.DeletedSubscription
		total int
	)
	err := e.guard.Run(ctx, "list deleted subscriptions", func(ctx context.Context) error {
		var err error
		items, total, err = e.deleted.FindAll(ctx, (page-1)*limit, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.DeletedSubscription{}
	}
	return &inbound.ListDeletedResponse{
		Deleted:    items,
		Pagination: inbound.PaginationInfo{Page: page, Limit: limit, Total: total},
	}, nil
}

// SetClock replaces the engine clock
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func pageBounds(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
