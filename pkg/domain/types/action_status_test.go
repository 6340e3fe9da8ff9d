package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

func TestActionStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status types.ActionStatus
		want   bool
	}{
		{
			name:   "valid pending approval",
			status: types.ActionStatusPendingApproval,
			want:   true,
		},
		{
			name:   "valid approved",
			status: types.ActionStatusApproved,
			want:   true,
		},
		{
			name:   "valid rejected",
			status: types.ActionStatusRejected,
			want:   true,
		},
		{
			name:   "valid executed",
			status: types.ActionStatusExecuted,
			want:   true,
		},
		{
			name:   "valid failed",
			status: types.ActionStatusFailed,
			want:   true,
		},
		{
			name:   "valid reversed",
			status: types.ActionStatusReversed,
			want:   true,
		},
		{
			name:   "invalid status",
			status: types.ActionStatus("invalid"),
			want:   false,
		},
		{
			name:   "empty status",
			status: types.ActionStatus(""),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				gt.B(t, tt.status.IsValid()).True()
			} else {
				gt.B(t, tt.status.IsValid()).False()
			}
		})
	}
}

func TestActionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status types.ActionStatus
		want   bool
	}{
		{types.ActionStatusPendingApproval, false},
		{types.ActionStatusApproved, false},
		{types.ActionStatusRejected, true},
		{types.ActionStatusExecuted, true},
		{types.ActionStatusFailed, true},
		{types.ActionStatusReversed, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			gt.Value(t, tt.status.IsTerminal()).Equal(tt.want)
		})
	}
}

func TestParseActionStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.ActionStatus
		wantErr bool
	}{
		{
			name:  "valid pending approval",
			input: "pending_approval",
			want:  types.ActionStatusPendingApproval,
		},
		{
			name:  "valid executed",
			input: "executed",
			want:  types.ActionStatusExecuted,
		},
		{
			name:    "invalid input",
			input:   "EXECUTED",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseActionStatus(tt.input)
			if tt.wantErr {
				gt.Value(t, err).NotNil()
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestAllActionStatuses(t *testing.T) {
	statuses := types.AllActionStatuses()
	gt.Array(t, statuses).Length(6)
	for _, s := range statuses {
		gt.B(t, s.IsValid()).True()
	}
}
