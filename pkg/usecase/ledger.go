package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/service/slack"
	"github.com/secmon-lab/warden/pkg/utils/async"
	"github.com/secmon-lab/warden/pkg/utils/errutil"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Metadata keys the ledger writes when a Slack approval message exists
const (
	metaSlackChannel   = "slack_channel"
	metaSlackMessageTS = "slack_message_ts"
)

// LedgerUseCase owns the audit ledger state machine. Every transition is a
// single-row conditional update: the status precondition is checked against
// the stored value at transition time, so a stale caller gets a "not in
// required status" error and the row stays untouched.
type LedgerUseCase struct {
	repo      interfaces.Repository
	registry  *model.ActionTypeRegistry
	authority *AuthorityUseCase

	slackService slack.Service
	slackChannel string
	baseURL      string
	now          func() time.Time
}

type ledgerOption func(*LedgerUseCase)

func withLedgerSlack(svc slack.Service, channelID string) ledgerOption {
	return func(uc *LedgerUseCase) {
		uc.slackService = svc
		uc.slackChannel = channelID
	}
}

func withLedgerBaseURL(baseURL string) ledgerOption {
	return func(uc *LedgerUseCase) {
		uc.baseURL = baseURL
	}
}

func withLedgerClock(now func() time.Time) ledgerOption {
	return func(uc *LedgerUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func NewLedgerUseCase(repo interfaces.Repository, registry *model.ActionTypeRegistry, authority *AuthorityUseCase, opts ...ledgerOption) *LedgerUseCase {
	uc := &LedgerUseCase{
		repo:      repo,
		registry:  registry,
		authority: authority,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ProposeActionInput describes a proposed action from a collaborator
type ProposeActionInput struct {
	UserID       types.UserID
	ActionTypeID types.ActionTypeID
	TargetType   string
	TargetID     string
	Metadata     map[string]any
}

// ProposalDecision is the engine's answer to a proposal: the effective
// authority and the ledger entry created for it. When the level requires
// approval the entry is pending; otherwise authority is granted at creation
// and the collaborator executes, then reports the outcome.
type ProposalDecision struct {
	Authority *model.EffectiveAuthority `json:"authority"`
	Entry     *model.ActionLog          `json:"entry"`
}

// ProposeAction evaluates a proposed action against the current policy and
// records it in the ledger. Exactly one entry is created per proposal.
func (uc *LedgerUseCase) ProposeAction(ctx context.Context, input ProposeActionInput) (*ProposalDecision, error) {
	authority, err := uc.authority.GetEffectiveAuthorityLevel(ctx, input.UserID, input.ActionTypeID)
	if err != nil {
		return nil, err
	}

	entry := &model.ActionLog{
		UserID:       input.UserID,
		ActionTypeID: input.ActionTypeID,
		TargetType:   input.TargetType,
		TargetID:     input.TargetID,
		Metadata:     input.Metadata,
		Status:       types.ActionStatusPendingApproval,
	}

	if !authority.Level.RequiresApproval() {
		// Authority is granted by policy at creation time: the entry is
		// born approved and ApprovedAt records when the grant happened.
		now := uc.now()
		entry.Status = types.ActionStatusApproved
		entry.ApprovedAt = &now
		entry.MergeMetadata(map[string]any{
			model.MetaAutoGranted:  true,
			model.MetaGrantedLevel: string(authority.Level),
		})
	}

	if err := entry.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid proposed action")
	}

	created, err := uc.repo.ActionLog().Create(ctx, entry)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ledger entry",
			goerr.V(UserIDKey, input.UserID), goerr.V(ActionTypeIDKey, input.ActionTypeID))
	}

	uc.notifyProposal(ctx, created, authority)

	return &ProposalDecision{Authority: authority, Entry: created}, nil
}

// ApproveAction moves a pending entry to approved, recording ApprovedAt and
// merging the supplied metadata additively.
func (uc *LedgerUseCase) ApproveAction(ctx context.Context, id types.ActionLogID, metadata map[string]any) (*model.ActionLog, error) {
	updated, err := uc.repo.ActionLog().Transition(ctx, id,
		[]types.ActionStatus{types.ActionStatusPendingApproval},
		func(e *model.ActionLog) error {
			now := uc.now()
			e.Status = types.ActionStatusApproved
			e.ApprovedAt = &now
			e.MergeMetadata(metadata)
			return nil
		})
	if err != nil {
		return nil, uc.transitionError(err, id, "approve")
	}

	uc.notifyResolution(ctx, updated, ":white_check_mark: Approved")

	return updated, nil
}

// RejectAction moves a pending entry to rejected, recording RejectedAt and
// an optional reason.
func (uc *LedgerUseCase) RejectAction(ctx context.Context, id types.ActionLogID, reason string) (*model.ActionLog, error) {
	updated, err := uc.repo.ActionLog().Transition(ctx, id,
		[]types.ActionStatus{types.ActionStatusPendingApproval},
		func(e *model.ActionLog) error {
			now := uc.now()
			e.Status = types.ActionStatusRejected
			e.RejectedAt = &now
			if reason != "" {
				e.MergeMetadata(map[string]any{model.MetaRejectionReason: reason})
			}
			return nil
		})
	if err != nil {
		return nil, uc.transitionError(err, id, "reject")
	}

	uc.notifyResolution(ctx, updated, ":no_entry_sign: Rejected")

	return updated, nil
}

// MarkActionExecuted records a successful execution outcome on an approved
// entry, setting ExecutedAt exactly once.
func (uc *LedgerUseCase) MarkActionExecuted(ctx context.Context, id types.ActionLogID, outcome map[string]any) (*model.ActionLog, error) {
	updated, err := uc.repo.ActionLog().Transition(ctx, id,
		[]types.ActionStatus{types.ActionStatusApproved},
		func(e *model.ActionLog) error {
			now := uc.now()
			e.Status = types.ActionStatusExecuted
			e.ExecutedAt = &now
			e.MergeMetadata(outcome)
			return nil
		})
	if err != nil {
		return nil, uc.transitionError(err, id, "mark executed")
	}

	return updated, nil
}

// MarkActionFailed records an execution failure. It is callable from any
// non-terminal status: an auto-granted entry can fail without ever having
// been through a human approval.
func (uc *LedgerUseCase) MarkActionFailed(ctx context.Context, id types.ActionLogID, reason string) (*model.ActionLog, error) {
	updated, err := uc.repo.ActionLog().Transition(ctx, id,
		[]types.ActionStatus{types.ActionStatusPendingApproval, types.ActionStatusApproved},
		func(e *model.ActionLog) error {
			e.Status = types.ActionStatusFailed
			if reason != "" {
				e.MergeMetadata(map[string]any{model.MetaFailureReason: reason})
			}
			return nil
		})
	if err != nil {
		return nil, uc.transitionError(err, id, "mark failed")
	}

	return updated, nil
}

// MarkActionReversed voids an executed entry for audit and calibration
// purposes. It records who initiated the reversal and why; it does not
// claim the external effect was rolled back — real-world undo belongs to
// the action's executor. ExecutedAt is preserved.
func (uc *LedgerUseCase) MarkActionReversed(ctx context.Context, id types.ActionLogID, initiator types.ReversalInitiator, reason string) (*model.ActionLog, error) {
	if !initiator.IsValid() {
		return nil, goerr.Wrap(ErrInvalidReversalInit, "reversal initiator must be user or system",
			goerr.V("initiator", initiator))
	}

	updated, err := uc.repo.ActionLog().Transition(ctx, id,
		[]types.ActionStatus{types.ActionStatusExecuted},
		func(e *model.ActionLog) error {
			e.Status = types.ActionStatusReversed
			meta := map[string]any{model.MetaReversalInitiator: string(initiator)}
			if reason != "" {
				meta[model.MetaReversalReason] = reason
			}
			e.MergeMetadata(meta)
			return nil
		})
	if err != nil {
		return nil, uc.transitionError(err, id, "mark reversed")
	}

	return updated, nil
}

// GetAction retrieves a single ledger entry
func (uc *LedgerUseCase) GetAction(ctx context.Context, id types.ActionLogID) (*model.ActionLog, error) {
	entry, err := uc.repo.ActionLog().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrActionNotFound, "no such ledger entry", goerr.V(ActionLogIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get ledger entry", goerr.V(ActionLogIDKey, id))
	}
	return entry, nil
}

// ListPendingApprovals returns a user's approval inbox, newest first
func (uc *LedgerUseCase) ListPendingApprovals(ctx context.Context, userID types.UserID) ([]*model.ActionLog, error) {
	entries, err := uc.repo.ActionLog().ListByStatus(ctx, userID, types.ActionStatusPendingApproval, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending approvals", goerr.V(UserIDKey, userID))
	}
	return entries, nil
}

// BatchApproveActions approves each entry independently and reports
// succeeded/failed counts. A failure on one ID never blocks the others.
func (uc *LedgerUseCase) BatchApproveActions(ctx context.Context, ids []types.ActionLogID, metadata map[string]any) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		if _, err := uc.ApproveAction(ctx, id, metadata); err != nil {
			logging.From(ctx).Warn("batch approve item failed",
				"action_log_id", id, "error", err.Error())
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	return result
}

// BatchRejectActions rejects each entry independently and reports
// succeeded/failed counts.
func (uc *LedgerUseCase) BatchRejectActions(ctx context.Context, ids []types.ActionLogID, reason string) *model.BatchResult {
	result := &model.BatchResult{}

	for _, id := range ids {
		if _, err := uc.RejectAction(ctx, id, reason); err != nil {
			logging.From(ctx).Warn("batch reject item failed",
				"action_log_id", id, "error", err.Error())
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	return result
}

// HandleSlackInteraction maps an approval button click to the matching
// ledger transition. A click on an entry someone else already resolved is
// reported as not-transitionable; the caller should tell the user to
// refresh, not crash.
func (uc *LedgerUseCase) HandleSlackInteraction(ctx context.Context, id types.ActionLogID, slackUserID, actionID string) error {
	switch actionID {
	case slack.ActionIDApprove:
		_, err := uc.ApproveAction(ctx, id, map[string]any{
			"approved_via":      "slack",
			"approver_slack_id": slackUserID,
		})
		return err

	case slack.ActionIDReject:
		_, err := uc.RejectAction(ctx, id, fmt.Sprintf("rejected via Slack by %s", slackUserID))
		return err

	default:
		return goerr.New("unknown slack action", goerr.V("action_id", actionID))
	}
}

func (uc *LedgerUseCase) transitionError(err error, id types.ActionLogID, op string) error {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return goerr.Wrap(ErrActionNotFound, "no such ledger entry",
			goerr.V(ActionLogIDKey, id), goerr.V("op", op))
	case errors.Is(err, interfaces.ErrPreconditionFailed):
		return goerr.Wrap(ErrActionNotTransitionable, "entry is not in a status this transition accepts",
			goerr.V(ActionLogIDKey, id), goerr.V("op", op))
	default:
		return goerr.Wrap(err, "ledger transition failed",
			goerr.V(ActionLogIDKey, id), goerr.V("op", op))
	}
}

// notifyProposal posts the Slack message for a freshly created entry.
// Posting is best-effort and detached: a Slack outage never fails or slows
// the proposal.
func (uc *LedgerUseCase) notifyProposal(ctx context.Context, entry *model.ActionLog, authority *model.EffectiveAuthority) {
	if uc.slackService == nil || uc.slackChannel == "" {
		return
	}

	actionType, ok := uc.registry.Get(entry.ActionTypeID)
	if !ok {
		return
	}

	req := uc.approvalRequest(entry, actionType)
	req.Level = authority.Level

	switch {
	case entry.Status == types.ActionStatusPendingApproval:
		async.Dispatch(ctx, func(ctx context.Context) error {
			ts, err := uc.slackService.PostApprovalRequest(ctx, uc.slackChannel, req)
			if err != nil {
				return err
			}
			// Remember where the message lives so the resolution can
			// update it. The entry may already have been resolved by the
			// time this write runs; that is fine, the precondition error
			// is only informational here.
			_, err = uc.repo.ActionLog().Transition(ctx, entry.ID,
				[]types.ActionStatus{types.ActionStatusPendingApproval},
				func(e *model.ActionLog) error {
					e.MergeMetadata(map[string]any{
						metaSlackChannel:   uc.slackChannel,
						metaSlackMessageTS: ts,
					})
					return nil
				})
			if err != nil && !errors.Is(err, interfaces.ErrPreconditionFailed) {
				return errutil.Handle(ctx, err, "failed to record slack message ts")
			}
			return nil
		})

	case authority.Level == types.AuthorityLevelNotify:
		async.Dispatch(ctx, func(ctx context.Context) error {
			text := fmt.Sprintf(":bell: %s executed automatically (%s `%s`)",
				actionType.Name, entry.TargetType, entry.TargetID)
			_, err := uc.slackService.PostMessage(ctx, uc.slackChannel, text)
			return err
		})
	}
}

// notifyResolution updates the approval message, if any, with the outcome
func (uc *LedgerUseCase) notifyResolution(ctx context.Context, entry *model.ActionLog, result string) {
	if uc.slackService == nil {
		return
	}

	channel, _ := entry.Metadata[metaSlackChannel].(string)
	ts, _ := entry.Metadata[metaSlackMessageTS].(string)
	if channel == "" || ts == "" {
		return
	}

	actionType, ok := uc.registry.Get(entry.ActionTypeID)
	if !ok {
		return
	}

	req := uc.approvalRequest(entry, actionType)
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.slackService.UpdateApprovalResult(ctx, channel, ts, req, result)
	})
}

func (uc *LedgerUseCase) approvalRequest(entry *model.ActionLog, actionType *model.ActionType) *slack.ApprovalRequest {
	detailURL := ""
	if uc.baseURL != "" {
		detailURL = fmt.Sprintf("%s/actions/%s", uc.baseURL, entry.ID)
	}

	return &slack.ApprovalRequest{
		LogID:          entry.ID,
		UserID:         entry.UserID,
		ActionTypeName: actionType.Name,
		TargetType:     entry.TargetType,
		TargetID:       entry.TargetID,
		DetailURL:      detailURL,
	}
}
