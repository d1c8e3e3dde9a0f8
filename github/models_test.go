package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionServer(t *testing.T, status int, response string, captured *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	conversation := []Message{
		{Role: RoleSystem, Content: "You are Al."},
		{Role: RoleUser, Content: "hi"},
	}

	t.Run("plain text reply", func(t *testing.T) {
		var got chatRequest
		srv := newCompletionServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"hello <@U1>"}}]}`, &got)
		client := NewModelsClient(srv.URL, "sk-test", "gpt-3.5-turbo", 1)

		reply, err := client.Complete(ctx, conversation, CompleteOptions{})
		require.NoError(t, err)
		assert.False(t, reply.IsFunctionCall())
		assert.Equal(t, "hello <@U1>", reply.Content)

		want := chatRequest{Model: "gpt-3.5-turbo", Messages: conversation, Temperature: 1}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("request mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("function call reply", func(t *testing.T) {
		var got chatRequest
		srv := newCompletionServer(t, http.StatusOK,
			`{"choices":[{"message":{"role":"assistant","content":null,"function_call":{"name":"mergeDeploymentPR","arguments":"{\"pullNumber\":\"42\"}"}}}]}`, &got)
		client := NewModelsClient(srv.URL, "sk-test", "gpt-3.5-turbo", 0.5)

		functions := []Function{{
			Name:        "mergeDeploymentPR",
			Description: "merge",
			Parameters: Parameters{
				Type:       "object",
				Properties: map[string]Property{"pullNumber": {Type: "string"}},
				Required:   []string{"pullNumber"},
			},
		}}
		reply, err := client.Complete(ctx, conversation, CompleteOptions{Functions: functions})
		require.NoError(t, err)
		require.True(t, reply.IsFunctionCall())
		assert.Equal(t, "mergeDeploymentPR", reply.FunctionCall.Name)
		assert.JSONEq(t, `{"pullNumber":"42"}`, reply.FunctionCall.Arguments)

		assert.Equal(t, functions, got.Functions)
		assert.Empty(t, got.FunctionCall)
		assert.Equal(t, 0.5, got.Temperature)
	})

	t.Run("suppressed function call", func(t *testing.T) {
		var got chatRequest
		srv := newCompletionServer(t, http.StatusOK, `{"choices":[{"message":{"content":"done"}}]}`, &got)
		client := NewModelsClient(srv.URL, "sk-test", "gpt-3.5-turbo", 1)

		_, err := client.Complete(ctx, conversation, CompleteOptions{SuppressFunctionCall: true})
		require.NoError(t, err)
		assert.Equal(t, "none", got.FunctionCall)
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := newCompletionServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, nil)
		client := NewModelsClient(srv.URL, "sk-test", "gpt-3.5-turbo", 1)

		_, err := client.Complete(ctx, conversation, CompleteOptions{})
		assert.ErrorContains(t, err, "429")
	})

	t.Run("api error object", func(t *testing.T) {
		srv := newCompletionServer(t, http.StatusOK, `{"error":{"message":"bad model"}}`, nil)
		client := NewModelsClient(srv.URL, "sk-test", "gpt-3.5-turbo", 1)

		_, err := client.Complete(ctx, conversation, CompleteOptions{})
		assert.ErrorContains(t, err, "bad model")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := newCompletionServer(t, http.StatusOK, `{"choices":[]}`, nil)
		client := NewModelsClient(srv.URL, "sk-test", "gpt-3.5-turbo", 1)

		_, err := client.Complete(ctx, conversation, CompleteOptions{})
		assert.ErrorContains(t, err, "no choices")
	})
}
