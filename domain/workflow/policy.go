package workflow

import (
	"github.com/Subrata270/studio-sub001/domain/entity"
)

// Authorize decides whether actor may perform action on sub. It looks only
// at identity, never at the current status, so the engine can report an
// authorization failure before a state failure.
func Authorize(actor entity.Actor, action Action, sub *entity.Subscription) bool {
	if sub == nil || actor.ID == "" {
		return false
	}
	switch action {
	case ActionApprove, ActionDecline:
		return actor.Role == entity.RoleHOD && sub.HodID != "" && actor.ID == sub.HodID
	case ActionForwardToAM, ActionExecutePayment:
		return actor.IsFinance(entity.SubroleAPA)
	case ActionVerify:
		return actor.IsFinance(entity.SubroleAM)
	case ActionActivate, ActionExpire:
		return actor.Role == entity.RoleSystem
	}
	return false
}

// CanRenew reports whether actor may open a renewal of sub
func CanRenew(actor entity.Actor, sub *entity.Subscription) bool {
	if sub == nil || actor.ID == "" {
		return false
	}
	return actor.Role == entity.RoleAdmin || actor.ID == sub.RequestedBy || actor.ID == sub.HodID
}

// CanDelete reports whether actor may remove sub. Requesters may only
// withdraw requests nobody has acted on yet.
func CanDelete(actor entity.Actor, sub *entity.Subscription) bool {
	if sub == nil || actor.ID == "" {
		return false
	}
	if actor.Role == entity.RoleAdmin {
		return true
	}
	return actor.ID == sub.RequestedBy && sub.Status == entity.StatusPending
}

// CanRecordContinuation reports whether actor may set a month decision on sub
func CanRecordContinuation(actor entity.Actor, sub *entity.Subscription) bool {
	return CanRenew(actor, sub)
}

// CanView reports whether actor may read sub
func CanView(actor entity.Actor, sub *entity.Subscription) bool {
	if sub == nil || actor.ID == "" {
		return false
	}
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleFinance, entity.RoleSystem:
		return true
	case entity.RoleHOD:
		return actor.ID == sub.HodID || actor.ID == sub.RequestedBy || entity.SameDepartment(actor.Department, sub.Department)
	}
	return actor.ID == sub.RequestedBy
}

// CanCreate reports whether the role may submit subscription requests
func CanCreate(actor entity.Actor) bool {
	switch actor.Role {
	case entity.RolePOC, entity.RoleHOD, entity.RoleAdmin:
		return actor.ID != ""
	}
	return false
}
