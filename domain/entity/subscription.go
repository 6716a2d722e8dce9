package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a subscription. Wire values are exact.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusApproved         Status = "Approved"
	StatusDeclined         Status = "Declined"
	StatusForwardedToAM    Status = "ForwardedToAM"
	StatusVerifiedByAM     Status = "VerifiedByAM"
	StatusPaymentCompleted Status = "PaymentCompleted"
	StatusActive           Status = "Active"
	StatusExpired          Status = "Expired"
)

// AllStatuses lists every legal status in lifecycle order
var AllStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusDeclined,
	StatusForwardedToAM,
	StatusVerifiedByAM,
	StatusPaymentCompleted,
	StatusActive,
	StatusExpired,
}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal statuses accept no further transition
func (s Status) Terminal() bool {
	return s == StatusDeclined || s == StatusExpired
}

// UnmarshalJSON rejects values outside the closed set
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := Status(raw)
	if !st.Valid() {
		return fmt.Errorf("invalid status %q", raw)
	}
	*s = st
	return nil
}

// ContinuationDecision is one month's entry in the continuation ledger
type ContinuationDecision string

const (
	ContinuationPending   ContinuationDecision = "pending"
	ContinuationContinued ContinuationDecision = "continued"
	ContinuationDeclined  ContinuationDecision = "declined"
)

func (d ContinuationDecision) Valid() bool {
	return d == ContinuationPending || d == ContinuationContinued || d == ContinuationDeclined
}

// MonthKeyLayout formats continuation ledger keys ("YYYY-MM")
const MonthKeyLayout = "2006-01"

// DefaultAlertDays is the expiry warning window when none is set
const DefaultAlertDays = 30

// MonthKey returns the ledger key for t
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// VerificationEntry is written by accounts payable when forwarding to the account manager
type VerificationEntry struct {
	PlannedAmount          float64   `json:"planned_amount"`
	PlannedCurrency        string    `json:"planned_currency"`
	PlannedDate            time.Time `json:"planned_date"`
	RecommendedPaymentType string    `json:"recommended_payment_type"`
	Notes                  string    `json:"notes,omitempty"`
	RecordedBy             string    `json:"recorded_by"`
	RecordedAt             time.Time `json:"recorded_at"`
}

// AMLogEntry is written by the account manager on verification
type AMLogEntry struct {
	Remarks    string    `json:"remarks,omitempty"`
	VerifiedBy string    `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
}

// ExecutionEntry is written by accounts payable when the payment is made
type ExecutionEntry struct {
	TransactionID    string    `json:"transaction_id"`
	AmountPaid       float64   `json:"amount_paid"`
	ReceiptReference string    `json:"receipt_reference"`
	PaymentDate      time.Time `json:"payment_date"`
	ExecutedBy       string    `json:"executed_by"`
	ExecutedAt       time.Time `json:"executed_at"`
}

// FinanceRecord groups the append-only finance logs
type FinanceRecord struct {
	VerificationLog []VerificationEntry `json:"verification_log,omitempty"`
	AMLog           []AMLogEntry        `json:"am_log,omitempty"`
	Execution       *ExecutionEntry     `json:"apa_execution,omitempty"`
}

// AuditFact records one successful transition
type AuditFact struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorRole Role      `json:"actor_role"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	At        time.Time `json:"at"`
}

// Subscription is a tool subscription request and its lifecycle state
type Subscription struct {
	ID               string    `json:"id"`
	ToolName         string    `json:"tool_name"`
	VendorName       string    `json:"vendor_name"`
	Department       string    `json:"department"`
	Purpose          string    `json:"purpose"`
	DurationMonths   int       `json:"duration_months"`
	Cost             float64   `json:"cost"`
	OriginalCurrency string    `json:"original_currency"`
	OriginalAmount   float64   `json:"original_amount"`
	RequestedBy      string    `json:"requested_by"`
	RequestDate      time.Time `json:"request_date"`
	Status           Status    `json:"status"`
	HodID            string    `json:"hod_id,omitempty"`

	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`

	ApprovedBy   *string    `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovalNote *string    `json:"approval_note,omitempty"`

	DeclinedBy    *string    `json:"declined_by,omitempty"`
	DeclinedAt    *time.Time `json:"declined_at,omitempty"`
	DeclineReason *string    `json:"decline_reason,omitempty"`

	Finance *FinanceRecord `json:"finance,omitempty"`

	Continuation       map[string]ContinuationDecision `json:"continuation,omitempty"`
	AlertDays          int                             `json:"alert_days"`
	LastAlertTriggered *time.Time                      `json:"last_alert_triggered,omitempty"`

	RenewedFrom *string     `json:"renewed_from,omitempty"`
	History     []AuditFact `json:"history"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveAlertDays applies the default window
func (s *Subscription) EffectiveAlertDays() int {
	if s.AlertDays <= 0 {
		return DefaultAlertDays
	}
	return s.AlertDays
}

// Clone returns a deep copy. Mutators always work on a clone so a failed
// update leaves the stored record untouched.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.ExpiryDate = cloneTime(s.ExpiryDate)
	c.PaymentDate = cloneTime(s.PaymentDate)
	c.ActivatedAt = cloneTime(s.ActivatedAt)
	c.ApprovedBy = cloneString(s.ApprovedBy)
	c.ApprovedAt = cloneTime(s.ApprovedAt)
	c.ApprovalNote = cloneString(s.ApprovalNote)
	c.DeclinedBy = cloneString(s.DeclinedBy)
	c.DeclinedAt = cloneTime(s.DeclinedAt)
	c.DeclineReason = cloneString(s.DeclineReason)
	c.LastAlertTriggered = cloneTime(s.LastAlertTriggered)
	c.RenewedFrom = cloneString(s.RenewedFrom)
	if s.Finance != nil {
		f := FinanceRecord{
			VerificationLog: append([]VerificationEntry(nil), s.Finance.VerificationLog...),
			AMLog:           append([]AMLogEntry(nil), s.Finance.AMLog...),
		}
		if s.Finance.Execution != nil {
			e := *s.Finance.Execution
			f.Execution = &e
		}
		c.Finance = &f
	}
	if s.Continuation != nil {
		c.Continuation = make(map[string]ContinuationDecision, len(s.Continuation))
		for k, v := range s.Continuation {
			c.Continuation[k] = v
		}
	}
	c.History = append([]AuditFact(nil), s.History...)
	return &c
}

// AppendHistory records a transition audit fact
func (s *Subscription) AppendHistory(action string, actor Actor, from, to Status, at time.Time) {
	s.History = append(s.History, AuditFact{
		Action:    action,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		From:      from,
		To:        to,
		At:        at,
	})
}

// AddMonths adds n calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// SubscriptionFilter represents filters for listing subscriptions
type SubscriptionFilter struct {
	Status      *Status `json:"status,omitempty"`
	Department  *string `json:"department,omitempty"`
	RequestedBy *string `json:"requested_by,omitempty"`
	HodID       *string `json:"hod_id,omitempty"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
}

// Matches applies the filter in memory
func (f SubscriptionFilter) Matches(s *Subscription) bool {
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.Department != nil && !SameDepartment(s.Department, *f.Department) {
		return false
	}
	if f.RequestedBy != nil && s.RequestedBy != *f.RequestedBy {
		return false
	}
	if f.HodID != nil && s.HodID != *f.HodID {
		return false
	}
	return true
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
