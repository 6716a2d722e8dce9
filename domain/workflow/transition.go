package workflow

import (
	"github.com/Subrata270/studio-sub001/domain/entity"
)

// Action names a lifecycle step
type Action string

const (
	ActionApprove        Action = "approve"
	ActionDecline        Action = "decline"
	ActionForwardToAM    Action = "forwardToAM"
	ActionVerify         Action = "verify"
	ActionExecutePayment Action = "executePayment"
	ActionActivate       Action = "activate"
	ActionExpire         Action = "expire"
)

type edge struct {
	from   entity.Status
	action Action
}

// transitions is the complete set of legal moves. Anything missing is an
// invalid transition, including every move out of Declined or Expired.
var transitions = map[edge]entity.Status{
	{entity.StatusPending, ActionApprove}:             entity.StatusApproved,
	{entity.StatusPending, ActionDecline}:             entity.StatusDeclined,
	{entity.StatusApproved, ActionForwardToAM}:        entity.StatusForwardedToAM,
	{entity.StatusForwardedToAM, ActionVerify}:        entity.StatusVerifiedByAM,
	{entity.StatusVerifiedByAM, ActionExecutePayment}: entity.StatusPaymentCompleted,
	{entity.StatusPaymentCompleted, ActionActivate}:   entity.StatusActive,
	{entity.StatusActive, ActionExpire}:               entity.StatusExpired,
}

// Next returns the target status for action taken from from
func Next(from entity.Status, action Action) (entity.Status, bool) {
	to, ok := transitions[edge{from, action}]
	return to, ok
}

// Actions lists every known action
func Actions() []Action {
	return []Action{
		ActionApprove,
		ActionDecline,
		ActionForwardToAM,
		ActionVerify,
		ActionExecutePayment,
		ActionActivate,
		ActionExpire,
	}
}

// AvailableActions returns the actions the actor may take on sub right now
func AvailableActions(actor entity.Actor, sub *entity.Subscription) []Action {
	var out []Action
	for _, a := range Actions() {
		if _, ok := Next(sub.Status, a); ok && Authorize(actor, a, sub) {
			out = append(out, a)
		}
	}
	return out
}

func (a Action) Valid() bool {
	for _, known := range Actions() {
		if a == known {
			return true
		}
	}
	return false
}
