package notification

import (
	"fmt"

	"github.com/Subrata270/studio-sub001/domain/entity"
)

func ApprovalRequiredMessage(s *entity.Subscription) string {
	return fmt.Sprintf("New subscription request for %s (%s) needs your approval.", s.ToolName, s.Department)
}

func ApprovedMessage(s *entity.Subscription) string {
	return fmt.Sprintf("Your request for %s was approved.", s.ToolName)
}

func ReadyForFinanceMessage(s *entity.Subscription) string {
	return fmt.Sprintf("Subscription %s for %s was approved and awaits finance verification.", s.ToolName, s.Department)
}

func DeclinedMessage(s *entity.Subscription, reason string) string {
	return fmt.Sprintf("Your request for %s was declined: %s", s.ToolName, reason)
}

func VerificationRequiredMessage(s *entity.Subscription) string {
	return fmt.Sprintf("Payment for %s was forwarded for your verification.", s.ToolName)
}

func PaymentRequiredMessage(s *entity.Subscription) string {
	return fmt.Sprintf("Payment for %s was verified and is ready to execute.", s.ToolName)
}

func PaymentCompletedMessage(s *entity.Subscription) string {
	return fmt.Sprintf("Payment for %s is complete. The subscription is being activated.", s.ToolName)
}

func ExpiredMessage(s *entity.Subscription) string {
	return fmt.Sprintf("Subscription %s has expired.", s.ToolName)
}

func ExpiryWarningMessage(s *entity.Subscription, daysLeft int) string {
	return fmt.Sprintf("Subscription %s expires in %d day(s).", s.ToolName, daysLeft)
}

func ContinuationDeclinedMessage(s *entity.Subscription, month string) string {
	return fmt.Sprintf("Continuation of %s was declined for %s.", s.ToolName, month)
}
