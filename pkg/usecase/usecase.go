package usecase

import (
	"time"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/service/slack"
)

// UseCases bundles the engine's use cases over one repository and one
// action type registry.
type UseCases struct {
	repo     interfaces.Repository
	registry *model.ActionTypeRegistry

	slackService slack.Service
	slackChannel string
	baseURL      string
	now          func() time.Time

	Authority *AuthorityUseCase
	Ledger    *LedgerUseCase
	Feedback  *FeedbackUseCase
}

type Option func(*UseCases)

// WithSlackService enables approval notifications to the given channel
func WithSlackService(svc slack.Service, channelID string) Option {
	return func(uc *UseCases) {
		uc.slackService = svc
		uc.slackChannel = channelID
	}
}

// WithBaseURL sets the base URL used to build detail links in notifications
func WithBaseURL(baseURL string) Option {
	return func(uc *UseCases) {
		uc.baseURL = baseURL
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, registry *model.ActionTypeRegistry, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Authority = NewAuthorityUseCase(repo, registry)
	uc.Ledger = NewLedgerUseCase(repo, registry, uc.Authority,
		withLedgerSlack(uc.slackService, uc.slackChannel),
		withLedgerBaseURL(uc.baseURL),
		withLedgerClock(uc.now),
	)
	uc.Feedback = NewFeedbackUseCase(repo)

	return uc
}

// Registry returns the action type registry the use cases resolve against
func (uc *UseCases) Registry() *model.ActionTypeRegistry {
	return uc.registry
}
