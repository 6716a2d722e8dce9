package inbound

import (
	"context"
	"time"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

type CreateSubscriptionRequest struct {
	ToolName       string  `json:"tool_name"`
	VendorName     string  `json:"vendor_name"`
	Department     string  `json:"department"`
	Purpose        string  `json:"purpose"`
	DurationMonths int     `json:"duration_months"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	AlertDays      int     `json:"alert_days,omitempty"`
}

type ApproveRequest struct {
	Note string `json:"note,omitempty"`
}

type DeclineRequest struct {
	Reason string `json:"reason"`
}

type ForwardToAMRequest struct {
	PlannedAmount          float64   `json:"planned_amount"`
	PlannedCurrency        string    `json:"planned_currency"`
	PlannedDate            time.Time `json:"planned_date"`
	RecommendedPaymentType string    `json:"recommended_payment_type"`
	Notes                  string    `json:"notes,omitempty"`
}

type VerifyRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

type ExecutePaymentRequest struct {
	TransactionID    string     `json:"transaction_id"`
	AmountPaid       float64    `json:"amount_paid"`
	ReceiptReference string     `json:"receipt_reference"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
}

// RenewRequest overrides fields of the expired subscription; nil keeps the old value
type RenewRequest struct {
	DurationMonths *int     `json:"duration_months,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	Currency       *string  `json:"currency,omitempty"`
	Purpose        *string  `json:"purpose,omitempty"`
}

type DeleteSubscriptionRequest struct {
	Justification string `json:"justification"`
}

type ListSubscriptionsRequest struct {
	Status      string `json:"status,omitempty"`
	Department  string `json:"department,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
	HodID       string `json:"hod_id,omitempty"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
}

type PaginationInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type ListSubscriptionsResponse struct {
	Subscriptions []*entity.Subscription `json:"subscriptions"`
	Pagination    PaginationInfo         `json:"pagination"`
}

type ListDeletedResponse struct {
	Deleted    []*entity.DeletedSubscription `json:"deleted"`
	Pagination PaginationInfo                `json:"pagination"`
}

type SubscriptionUseCase interface {
	Create(ctx context.Context, actor entity.Actor, req CreateSubscriptionRequest) (*entity.Subscription, error)
	Get(ctx context.Context, actor entity.Actor, id string) (*entity.Subscription, error)
	List(ctx context.Context, actor entity.Actor, req ListSubscriptionsRequest) (*ListSubscriptionsResponse, error)

	Approve(ctx context.Context, actor entity.Actor, id string, req ApproveRequest) (*entity.Subscription, error)
	Decline(ctx context.Context, actor entity.Actor, id string, req DeclineRequest) (*entity.Subscription, error)
	ForwardToAM(ctx context.Context, actor entity.Actor, id string, req ForwardToAMRequest) (*entity.Subscription, error)
	Verify(ctx context.Context, actor entity.Actor, id string, req VerifyRequest) (*entity.Subscription, error)
	ExecutePayment(ctx context.Context, actor entity.Actor, id string, req ExecutePaymentRequest) (*entity.Subscription, error)

	Renew(ctx context.Context, actor entity.Actor, id string, req RenewRequest) (*entity.Subscription, error)
	Delete(ctx context.Context, actor entity.Actor, id string, req DeleteSubscriptionRequest) error
	ListDeleted(ctx context.Context, actor entity.Actor, page, limit int) (*ListDeletedResponse, error)
}
