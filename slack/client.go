package slack

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

type Client struct {
	api        *slack.Client
	webhookURL string
}

// NewClient builds a client that reads threads with userToken and posts
// replies through the incoming webhook at webhookURL.
func NewClient(userToken, webhookURL string, opts ...slack.Option) *Client {
	return &Client{api: slack.New(userToken, opts...), webhookURL: webhookURL}
}

// FetchThreadReplies returns the messages of the thread rooted at threadTS.
// Failures are logged and reported as an empty thread.
func (c *Client) FetchThreadReplies(ctx context.Context, channelID, threadTS string) []slack.Message {
	msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"channel":   channelID,
			"thread_ts": threadTS,
		}).WithError(err).Error("error fetching thread replies")
		return []slack.Message{}
	}
	return msgs
}

// Reply is a message relayed through the incoming webhook. An empty ThreadTS
// posts at channel level.
type Reply struct {
	Channel  string
	Text     string
	ThreadTS string
}

func (c *Client) PostReply(ctx context.Context, reply Reply) error {
	err := slack.PostWebhookContext(ctx, c.webhookURL, &slack.WebhookMessage{
		Channel:         reply.Channel,
		Text:            reply.Text,
		ThreadTimestamp: reply.ThreadTS,
	})
	if err != nil {
		return fmt.Errorf("failed to post webhook reply: %w", err)
	}
	return nil
}
