package entity

import (
	"time"
)

// NotificationKind classifies a notification for filtering and display
type NotificationKind string

const (
	NotificationApprovalRequired     NotificationKind = "approval_required"
	NotificationApproved             NotificationKind = "approved"
	NotificationDeclined             NotificationKind = "declined"
	NotificationVerificationRequired NotificationKind = "verification_required"
	NotificationPaymentRequired      NotificationKind = "payment_required"
	NotificationPaymentCompleted     NotificationKind = "payment_completed"
	NotificationExpired              NotificationKind = "expired"
	NotificationExpiryWarning        NotificationKind = "expiry_warning"
	NotificationContinuationDeclined NotificationKind = "continuation_declined"
	NotificationGeneral              NotificationKind = "general"
)

// Notification is an in-app message for one user. Only IsRead ever changes.
type Notification struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	SubscriptionID string           `json:"subscription_id,omitempty"`
	Kind           NotificationKind `json:"kind"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"is_read"`
	CreatedAt      time.Time        `json:"created_at"`
}

// DeletedSubscription archives a removed subscription
type DeletedSubscription struct {
	ID            string        `json:"id"`
	Snapshot      *Subscription `json:"snapshot"`
	DeletedBy     string        `json:"deleted_by"`
	Justification string        `json:"justification"`
	DeletedAt     time.Time     `json:"deleted_at"`
}
