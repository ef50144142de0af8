// Package lifecycle implements the job state machine: which lifecycle
// actions are legal from which status, and which roles may trigger them.
// The package is pure; applying a resolved transition atomically against
// the store is the data layer's concern.
package lifecycle

import (
	"fmt"

	"github.com/dtapi/booking-engine/internal/domain/auth"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// Action is a lifecycle action requested against a job.
type Action string

const (
	// ActionPublish moves a created job into the open offer round.
	ActionPublish Action = "publish"
	// ActionAssign records the winning translator of an accept race.
	ActionAssign Action = "assign"
	// ActionStart begins the interpreting session.
	ActionStart Action = "start"
	// ActionCancel cancels an assigned or running job.
	ActionCancel Action = "cancel"
	// ActionWithdraw withdraws a job that has not started.
	ActionWithdraw Action = "withdraw"
	// ActionEnd completes a running session.
	ActionEnd Action = "end"
	// ActionNotCarriedOut records that the customer never called in.
	ActionNotCarriedOut Action = "not_carried_out"
	// ActionReopen returns a job to pending for a fresh offer round.
	ActionReopen Action = "reopen"
	// ActionExpire closes a pending job whose acceptance deadline passed.
	ActionExpire Action = "expire"
)

// TransitionError reports a lifecycle action that is not legal from the
// job's current status.
type TransitionError struct {
	From   model.JobStatus
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a job in status %q", e.Action, e.From)
}

// RoleError reports a lifecycle action requested by a role that may not
// trigger it.
type RoleError struct {
	Action Action
	Role   auth.Role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("role %q may not %s a job", e.Role, e.Action)
}

// rule describes one action: the statuses it may fire from, the status it
// lands in, and the roles allowed to request it. A nil role set marks a
// system-internal action that no external actor may request directly.
type rule struct {
	from  []model.JobStatus
	to    model.JobStatus
	roles []auth.Role
}

var anyActor = []auth.Role{auth.RoleCustomer, auth.RoleTranslator, auth.RoleAdmin, auth.RoleSuperAdmin}

var transitions = map[Action]rule{
	ActionPublish: {
		from: []model.JobStatus{model.JobStatusCreated},
		to:   model.JobStatusPending,
	},
	ActionAssign: {
		from: []model.JobStatus{model.JobStatusPending},
		to:   model.JobStatusAssigned,
	},
	ActionStart: {
		from:  []model.JobStatus{model.JobStatusAssigned},
		to:    model.JobStatusStarted,
		roles: []auth.Role{auth.RoleTranslator, auth.RoleAdmin, auth.RoleSuperAdmin},
	},
	ActionCancel: {
		from:  []model.JobStatus{model.JobStatusAssigned, model.JobStatusStarted},
		to:    model.JobStatusCancelled,
		roles: anyActor,
	},
	ActionWithdraw: {
		from:  []model.JobStatus{model.JobStatusCreated, model.JobStatusPending, model.JobStatusAssigned},
		to:    model.JobStatusWithdrawn,
		roles: []auth.Role{auth.RoleCustomer, auth.RoleAdmin, auth.RoleSuperAdmin},
	},
	ActionEnd: {
		from:  []model.JobStatus{model.JobStatusStarted},
		to:    model.JobStatusCompleted,
		roles: []auth.Role{auth.RoleTranslator, auth.RoleAdmin, auth.RoleSuperAdmin},
	},
	ActionNotCarriedOut: {
		from:  []model.JobStatus{model.JobStatusAssigned, model.JobStatusStarted},
		to:    model.JobStatusNotCarriedOut,
		roles: []auth.Role{auth.RoleTranslator, auth.RoleAdmin, auth.RoleSuperAdmin},
	},
	ActionReopen: {
		// Reopen is the one action that can resurrect a closed job; only a
		// completed session is final.
		from: []model.JobStatus{
			model.JobStatusCreated, model.JobStatusPending, model.JobStatusAssigned,
			model.JobStatusStarted, model.JobStatusCancelled, model.JobStatusWithdrawn,
			model.JobStatusNotCarriedOut, model.JobStatusExpired,
		},
		to:    model.JobStatusPending,
		roles: []auth.Role{auth.RoleAdmin, auth.RoleSuperAdmin},
	},
	ActionExpire: {
		from: []model.JobStatus{model.JobStatusPending},
		to:   model.JobStatusExpired,
	},
}

// From returns the statuses the action may legally fire from.
func From(action Action) []model.JobStatus {
	r, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]model.JobStatus, len(r.from))
	copy(out, r.from)
	return out
}

// Target returns the status the action lands in, or false for an unknown
// action.
func Target(action Action) (model.JobStatus, bool) {
	r, ok := transitions[action]
	if !ok {
		return "", false
	}
	return r.to, true
}

// Resolve validates an actor-requested transition and returns the next
// status. It rejects unknown actions and system-internal actions, stale or
// illegal source statuses, and roles outside the action's allowed set.
func Resolve(current model.JobStatus, action Action, role auth.Role) (model.JobStatus, error) {
	r, ok := transitions[action]
	if !ok || r.roles == nil {
		return "", &TransitionError{From: current, Action: action}
	}

	if !roleAllowed(r.roles, role) {
		return "", &RoleError{Action: action, Role: role}
	}

	if !statusAllowed(r.from, current) {
		return "", &TransitionError{From: current, Action: action}
	}

	return r.to, nil
}

// ResolveSystem validates an engine-internal transition (publish, assign,
// expire) and returns the next status.
func ResolveSystem(current model.JobStatus, action Action) (model.JobStatus, error) {
	r, ok := transitions[action]
	if !ok {
		return "", &TransitionError{From: current, Action: action}
	}

	if !statusAllowed(r.from, current) {
		return "", &TransitionError{From: current, Action: action}
	}

	return r.to, nil
}

func statusAllowed(from []model.JobStatus, current model.JobStatus) bool {
	for _, s := range from {
		if s == current {
			return true
		}
	}
	return false
}

func roleAllowed(roles []auth.Role, role auth.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
