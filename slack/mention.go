package slack

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/slack-go/slack/slackevents"
)

// ErrNotAppMention is returned for events whose type is not app_mention.
var ErrNotAppMention = errors.New("not an app_mention event")

// Mention holds the routing fields of an app_mention event. Every other
// field stays in the raw payload.
type Mention struct {
	Channel  string
	User     string
	TS       string
	ThreadTS string
}

// ParseMention accepts any JSON object whose type is app_mention. The routing
// fields are read leniently: numbers are kept as their literal text and other
// shapes are treated as absent.
func ParseMention(raw json.RawMessage) (*Mention, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	if head.Type != string(slackevents.AppMention) {
		return nil, ErrNotAppMention
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return &Mention{
		Channel:  textField(fields["channel"]),
		User:     textField(fields["user"]),
		TS:       textField(fields["ts"]),
		ThreadTS: textField(fields["thread_ts"]),
	}, nil
}

func textField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
