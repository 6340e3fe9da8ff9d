package slack

import (
	"fmt"

	"github.com/slack-go/slack"
)

func fallbackText(req *ApprovalRequest) string {
	return fmt.Sprintf("Approval requested: %s (%s/%s)", req.ActionTypeName, req.TargetType, req.TargetID)
}

func headerSection(req *ApprovalRequest) *slack.SectionBlock {
	text := fmt.Sprintf(":inbox_tray: *%s* is waiting for approval\n*Target:* %s `%s`",
		req.ActionTypeName, req.TargetType, req.TargetID)
	if req.DetailURL != "" {
		text += fmt.Sprintf("\n<%s|View details>", req.DetailURL)
	}

	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
		nil, nil,
	)
}

func buildApprovalBlocks(req *ApprovalRequest) []slack.Block {
	approveBtn := slack.NewButtonBlockElement(ActionIDApprove, string(req.LogID),
		slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false))
	approveBtn.Style = slack.StylePrimary

	rejectBtn := slack.NewButtonBlockElement(ActionIDReject, string(req.LogID),
		slack.NewTextBlockObject(slack.PlainTextType, "Reject", false, false))
	rejectBtn.Style = slack.StyleDanger

	return []slack.Block{
		headerSection(req),
		slack.NewActionBlock(approvalBlockID, approveBtn, rejectBtn),
	}
}

func buildResolvedBlocks(req *ApprovalRequest, result string) []slack.Block {
	return []slack.Block{
		headerSection(req),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, result, false, false),
		),
	}
}
