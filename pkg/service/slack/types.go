package slack

import (
	"context"

	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Slack interaction action IDs for Block Kit buttons
const (
	ActionIDApprove = "warden_approve"
	ActionIDReject  = "warden_reject"

	approvalBlockID = "warden_approval_buttons"
)

// ApprovalRequest is what gets rendered into an approval message
type ApprovalRequest struct {
	LogID          types.ActionLogID
	UserID         types.UserID
	ActionTypeName string
	TargetType     string
	TargetID       string
	Level          types.AuthorityLevel
	DetailURL      string
}

// Service posts engine notifications to Slack. All posting is best-effort
// from the engine's point of view: a Slack failure never fails a proposal.
type Service interface {
	// PostApprovalRequest posts a pending-approval message with
	// Approve/Reject buttons and returns the message timestamp.
	PostApprovalRequest(ctx context.Context, channelID string, req *ApprovalRequest) (string, error)

	// PostMessage posts a plain informational message and returns the
	// message timestamp.
	PostMessage(ctx context.Context, channelID, text string) (string, error)

	// UpdateApprovalResult replaces an approval message's buttons with the
	// resolution text once the entry left pending_approval.
	UpdateApprovalResult(ctx context.Context, channelID, ts string, req *ApprovalRequest, result string) error
}
