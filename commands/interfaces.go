package commands

import (
	"context"

	"github.com/justmike1/alpaca/github"
	alpacaslack "github.com/justmike1/alpaca/slack"
	slacklib "github.com/slack-go/slack"
)

type SlackClient interface {
	FetchThreadReplies(ctx context.Context, channelID, threadTS string) []slacklib.Message
	PostReply(ctx context.Context, reply alpacaslack.Reply) error
}

type Completer interface {
	Complete(ctx context.Context, messages []github.Message, opts github.CompleteOptions) (*github.Message, error)
}

// DeploymentActions runs deployment PR operations. Implementations report
// failures in the returned text rather than as errors.
type DeploymentActions interface {
	FetchDeploymentPR(ctx context.Context) string
	CreateDeploymentPR(ctx context.Context) string
	MergeDeploymentPR(ctx context.Context, number string) string
}

// PromptProvider abstracts access to the loaded prompts.
type PromptProvider interface {
	Get(key string) string
	MustGet(key string) string
}
