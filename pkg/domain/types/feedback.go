package types

import "fmt"

// FeedbackLabel is a user-supplied correctness judgment on a closed ledger
// entry. It is the raw material for autonomy calibration.
type FeedbackLabel string

const (
	// FeedbackCorrect means the engine's decision was right
	FeedbackCorrect FeedbackLabel = "correct"
	// FeedbackShouldAsk means the action executed automatically but the user
	// would have preferred to be asked
	FeedbackShouldAsk FeedbackLabel = "should_ask"
	// FeedbackShouldAuto means the user was asked but would have preferred
	// automatic execution
	FeedbackShouldAuto FeedbackLabel = "should_auto"
	// FeedbackWrong means the action itself was wrong
	FeedbackWrong FeedbackLabel = "wrong"
)

// AllFeedbackLabels returns all valid feedback labels
func AllFeedbackLabels() []FeedbackLabel {
	return []FeedbackLabel{
		FeedbackCorrect,
		FeedbackShouldAsk,
		FeedbackShouldAuto,
		FeedbackWrong,
	}
}

// IsValid checks if the feedback label is valid
func (f FeedbackLabel) IsValid() bool {
	switch f {
	case FeedbackCorrect, FeedbackShouldAsk, FeedbackShouldAuto, FeedbackWrong:
		return true
	default:
		return false
	}
}

// String returns the string representation of the feedback label
func (f FeedbackLabel) String() string {
	return string(f)
}

// ParseFeedbackLabel parses a string into a FeedbackLabel
func ParseFeedbackLabel(s string) (FeedbackLabel, error) {
	label := FeedbackLabel(s)
	if !label.IsValid() {
		return "", fmt.Errorf("invalid feedback label: %s", s)
	}
	return label, nil
}

// ReversalInitiator identifies who asked for an executed action to be
// treated as voided.
type ReversalInitiator string

const (
	ReversalByUser   ReversalInitiator = "user"
	ReversalBySystem ReversalInitiator = "system"
)

// IsValid checks if the reversal initiator is valid
func (r ReversalInitiator) IsValid() bool {
	return r == ReversalByUser || r == ReversalBySystem
}

// String returns the string representation of the reversal initiator
func (r ReversalInitiator) String() string {
	return string(r)
}
