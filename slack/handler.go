package slack

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/justmike1/alpaca/metrics"
)

const (
	mentionAccepted = "Message processing started"
	mentionRejected = "This function only accepts app mention events."
)

// MentionProcessor handles an accepted mention. raw is the event object as
// received.
type MentionProcessor func(ctx context.Context, raw json.RawMessage, ev *Mention) error

// Scheduler starts a run without waiting for it.
type Scheduler interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
}

type Handler struct {
	scheduler Scheduler
	process   MentionProcessor
}

func NewHandler(scheduler Scheduler, process MentionProcessor) *Handler {
	return &Handler{
		scheduler: scheduler,
		process:   process,
	}
}

type mentionBody struct {
	Event json.RawMessage `json:"event"`
}

// ServeHTTP acknowledges app_mention events immediately and processes them in
// the background. Anything else is rejected with 400.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ev, ok := decodeMention(r)
	if !ok {
		metrics.MentionsReceived.WithLabelValues("rejected").Inc()
		http.Error(w, mentionRejected, http.StatusBadRequest)
		return
	}
	metrics.MentionsReceived.WithLabelValues("accepted").Inc()

	log.WithFields(log.Fields{
		"channel":   ev.Channel,
		"user":      ev.User,
		"ts":        ev.TS,
		"thread_ts": ev.ThreadTS,
	}).Info("app mention received")

	h.scheduler.Go(r.Context(), "mention", func(ctx context.Context) error {
		return h.process(ctx, raw, ev)
	})

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(mentionAccepted))
}

func decodeMention(r *http.Request) (json.RawMessage, *Mention, bool) {
	var body mentionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.WithError(err).Warn("failed to decode mention body")
		return nil, nil, false
	}
	if len(body.Event) == 0 {
		return nil, nil, false
	}

	ev, err := ParseMention(body.Event)
	if err != nil {
		log.WithError(err).Info("ignoring event")
		return nil, nil, false
	}
	return body.Event, ev, true
}
