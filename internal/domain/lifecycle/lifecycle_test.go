package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtapi/booking-engine/internal/domain/auth"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		current model.JobStatus
		action  Action
		role    auth.Role
		want    model.JobStatus
		wantErr error
	}{
		{
			name:    "translator starts assigned job",
			current: model.JobStatusAssigned,
			action:  ActionStart,
			role:    auth.RoleTranslator,
			want:    model.JobStatusStarted,
		},
		{
			name:    "admin starts assigned job",
			current: model.JobStatusAssigned,
			action:  ActionStart,
			role:    auth.RoleAdmin,
			want:    model.JobStatusStarted,
		},
		{
			name:    "customer may not start",
			current: model.JobStatusAssigned,
			action:  ActionStart,
			role:    auth.RoleCustomer,
			wantErr: &RoleError{},
		},
		{
			name:    "start from pending is illegal",
			current: model.JobStatusPending,
			action:  ActionStart,
			role:    auth.RoleTranslator,
			wantErr: &TransitionError{},
		},
		{
			name:    "end started job",
			current: model.JobStatusStarted,
			action:  ActionEnd,
			role:    auth.RoleTranslator,
			want:    model.JobStatusCompleted,
		},
		{
			name:    "end completed job is illegal",
			current: model.JobStatusCompleted,
			action:  ActionEnd,
			role:    auth.RoleTranslator,
			wantErr: &TransitionError{},
		},
		{
			name:    "customer cancels started job",
			current: model.JobStatusStarted,
			action:  ActionCancel,
			role:    auth.RoleCustomer,
			want:    model.JobStatusCancelled,
		},
		{
			name:    "customer withdraws pending job",
			current: model.JobStatusPending,
			action:  ActionWithdraw,
			role:    auth.RoleCustomer,
			want:    model.JobStatusWithdrawn,
		},
		{
			name:    "translator may not withdraw",
			current: model.JobStatusPending,
			action:  ActionWithdraw,
			role:    auth.RoleTranslator,
			wantErr: &RoleError{},
		},
		{
			name:    "not carried out from assigned",
			current: model.JobStatusAssigned,
			action:  ActionNotCarriedOut,
			role:    auth.RoleAdmin,
			want:    model.JobStatusNotCarriedOut,
		},
		{
			name:    "admin reopens cancelled job",
			current: model.JobStatusCancelled,
			action:  ActionReopen,
			role:    auth.RoleAdmin,
			want:    model.JobStatusPending,
		},
		{
			name:    "superadmin reopens expired job",
			current: model.JobStatusExpired,
			action:  ActionReopen,
			role:    auth.RoleSuperAdmin,
			want:    model.JobStatusPending,
		},
		{
			name:    "completed job cannot be reopened",
			current: model.JobStatusCompleted,
			action:  ActionReopen,
			role:    auth.RoleAdmin,
			wantErr: &TransitionError{},
		},
		{
			name:    "translator may not reopen",
			current: model.JobStatusCancelled,
			action:  ActionReopen,
			role:    auth.RoleTranslator,
			wantErr: &RoleError{},
		},
		{
			name:    "system actions are not actor-requestable",
			current: model.JobStatusPending,
			action:  ActionAssign,
			role:    auth.RoleAdmin,
			wantErr: &TransitionError{},
		},
		{
			name:    "unknown action",
			current: model.JobStatusPending,
			action:  Action("teleport"),
			role:    auth.RoleAdmin,
			wantErr: &TransitionError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Resolve(tt.current, tt.action, tt.role)
			if tt.wantErr != nil {
				require.Error(t, err)
				switch tt.wantErr.(type) {
				case *TransitionError:
					var te *TransitionError
					assert.True(t, errors.As(err, &te), "expected TransitionError, got %T", err)
				case *RoleError:
					var re *RoleError
					assert.True(t, errors.As(err, &re), "expected RoleError, got %T", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestResolveSystem(t *testing.T) {
	t.Run("publish", func(t *testing.T) {
		next, err := ResolveSystem(model.JobStatusCreated, ActionPublish)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, next)
	})

	t.Run("assign", func(t *testing.T) {
		next, err := ResolveSystem(model.JobStatusPending, ActionAssign)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusAssigned, next)
	})

	t.Run("expire", func(t *testing.T) {
		next, err := ResolveSystem(model.JobStatusPending, ActionExpire)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusExpired, next)
	})

	t.Run("assign from assigned is stale", func(t *testing.T) {
		_, err := ResolveSystem(model.JobStatusAssigned, ActionAssign)
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, model.JobStatusAssigned, te.From)
	})
}

func TestFromAndTarget(t *testing.T) {
	from := From(ActionCancel)
	assert.ElementsMatch(t, []model.JobStatus{model.JobStatusAssigned, model.JobStatusStarted}, from)

	target, ok := Target(ActionCancel)
	require.True(t, ok)
	assert.Equal(t, model.JobStatusCancelled, target)

	_, ok = Target(Action("bogus"))
	assert.False(t, ok)
}

func TestEveryActionTargetsValidStatus(t *testing.T) {
	for action, r := range transitions {
		assert.True(t, r.to.Valid(), "action %s targets invalid status %q", action, r.to)
		require.NotEmpty(t, r.from, "action %s has no source statuses", action)
		for _, s := range r.from {
			assert.True(t, s.Valid(), "action %s fires from invalid status %q", action, s)
		}
	}
}
