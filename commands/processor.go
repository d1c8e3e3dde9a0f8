package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/justmike1/alpaca/config"
	"github.com/justmike1/alpaca/github"
	"github.com/justmike1/alpaca/metrics"
	"github.com/justmike1/alpaca/prompts"
	alpacaslack "github.com/justmike1/alpaca/slack"
)

// ErrEmptyReply is returned when the final completion has no text to relay.
var ErrEmptyReply = errors.New("completion returned no text to relay")

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// EnableActions advertises the deployment actions to the model.
	EnableActions bool
	// ThreadTarget is config.ReplyInThread or config.ReplyToEvent.
	ThreadTarget string
}

// Processor answers a single app mention: it asks the completion API for a
// reply, runs at most one requested deployment action, and relays the final
// text back to Slack.
type Processor struct {
	slackClient SlackClient
	completer   Completer
	actions     DeploymentActions
	prompts     PromptProvider
	opts        ProcessorOptions
}

func NewProcessor(slackClient SlackClient, completer Completer, actions DeploymentActions, prompts PromptProvider, opts ProcessorOptions) *Processor {
	return &Processor{
		slackClient: slackClient,
		completer:   completer,
		actions:     actions,
		prompts:     prompts,
		opts:        opts,
	}
}

// Process handles one mention. raw is the event exactly as Slack sent it and
// is what the model sees; ev is its decoded form.
func (p *Processor) Process(ctx context.Context, raw json.RawMessage, ev *alpacaslack.Mention) error {
	logger := log.WithFields(log.Fields{"channel": ev.Channel, "ts": ev.TS, "thread_ts": ev.ThreadTS})

	conversation, err := p.buildConversation(ctx, raw, ev)
	if err != nil {
		return err
	}

	var opts github.CompleteOptions
	if p.opts.EnableActions {
		opts.Functions = ActionDescriptors()
	}

	reply, err := p.completer.Complete(ctx, conversation, opts)
	if err != nil {
		return fmt.Errorf("first completion failed: %w", err)
	}

	if reply.IsFunctionCall() {
		inv, err := ParseInvocation(reply.FunctionCall)
		if err != nil {
			return fmt.Errorf("invalid function call from model: %w", err)
		}

		logger.WithField("action", inv.Kind.String()).Info("running requested action")
		metrics.ActionsDispatched.WithLabelValues(inv.Kind.String()).Inc()
		result := inv.Run(ctx, p.actions)

		conversation = append(conversation,
			github.Message{Role: github.RoleAssistant, FunctionCall: reply.FunctionCall},
			github.Message{Role: github.RoleFunction, Name: inv.Kind.String(), Content: result},
		)

		reply, err = p.completer.Complete(ctx, conversation, github.CompleteOptions{
			Functions:            opts.Functions,
			SuppressFunctionCall: true,
		})
		if err != nil {
			return fmt.Errorf("second completion failed: %w", err)
		}
	}

	if strings.TrimSpace(reply.Content) == "" {
		return fmt.Errorf("%w (function_call=%t)", ErrEmptyReply, reply.IsFunctionCall())
	}

	out := alpacaslack.Reply{
		Channel:  ev.Channel,
		Text:     reply.Content,
		ThreadTS: p.replyThreadTS(ev),
	}
	if err := p.slackClient.PostReply(ctx, out); err != nil {
		return err
	}

	logger.Info("reply relayed")
	return nil
}

func (p *Processor) buildConversation(ctx context.Context, raw json.RawMessage, ev *alpacaslack.Mention) ([]github.Message, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s", p.prompts.MustGet(prompts.MentionPreamble), raw)

	if ev.ThreadTS != "" {
		replies := p.slackClient.FetchThreadReplies(ctx, ev.Channel, ev.ThreadTS)
		thread, err := json.Marshal(replies)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal thread replies: %w", err)
		}
		fmt.Fprintf(&sb, "\n%s\n%s", p.prompts.MustGet(prompts.ThreadPreamble), thread)
	}

	return []github.Message{
		{Role: github.RoleSystem, Content: p.prompts.MustGet(prompts.Persona)},
		{Role: github.RoleUser, Content: sb.String()},
	}, nil
}

func (p *Processor) replyThreadTS(ev *alpacaslack.Mention) string {
	if p.opts.ThreadTarget == config.ReplyToEvent {
		return ev.TS
	}
	return ev.ThreadTS
}
