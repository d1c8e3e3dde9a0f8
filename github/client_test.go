package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTarget = DeploymentTarget{
	Owner:      "cuyana",
	Repo:       "site",
	HeadBranch: "staging",
	BaseBranch: "main",
	Title:      "Deploy staging to main",
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient("ghp-test", testTarget)
	u, err := url.Parse(baseURL + "/")
	require.NoError(t, err)
	c.api.BaseURL = u
	return c
}

// closedServerURL returns the address of a server that no longer accepts
// connections.
func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func TestFetchDeploymentPR(t *testing.T) {
	ctx := context.Background()

	t.Run("open PR found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/repos/cuyana/site/pulls", r.URL.Path)
			assert.Equal(t, "cuyana:staging", r.URL.Query().Get("head"))
			assert.Equal(t, "main", r.URL.Query().Get("base"))
			assert.Equal(t, "open", r.URL.Query().Get("state"))
			assert.Equal(t, "Bearer ghp-test", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[{"number":7,"html_url":"https://github.com/cuyana/site/pull/7"}]`))
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).FetchDeploymentPR(ctx)
		assert.Equal(t, "PR #7: https://github.com/cuyana/site/pull/7", got)
	})

	t.Run("none open", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		assert.Equal(t, NoDeploymentPR, newTestClient(t, srv.URL).FetchDeploymentPR(ctx))
	})

	t.Run("transport failure", func(t *testing.T) {
		assert.Equal(t, FetchDeploymentFailed, newTestClient(t, closedServerURL()).FetchDeploymentPR(ctx))
	})
}

func TestCreateDeploymentPR(t *testing.T) {
	ctx := context.Background()

	t.Run("created", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/repos/cuyana/site/pulls", r.URL.Path)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Deploy staging to main", body["title"])
			assert.Equal(t, "staging", body["head"])
			assert.Equal(t, "main", body["base"])

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number":8,"html_url":"https://github.com/cuyana/site/pull/8"}`))
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).CreateDeploymentPR(ctx)
		assert.Equal(t, "PR #8: https://github.com/cuyana/site/pull/8", got)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"A pull request already exists"}`))
		}))
		defer srv.Close()

		assert.Equal(t, CreateDeploymentFailed, newTestClient(t, srv.URL).CreateDeploymentPR(ctx))
	})

	t.Run("transport failure", func(t *testing.T) {
		assert.Equal(t, CreateDeploymentFailed, newTestClient(t, closedServerURL()).CreateDeploymentPR(ctx))
	})
}

func TestMergeDeploymentPR(t *testing.T) {
	ctx := context.Background()

	t.Run("merged", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/repos/cuyana/site/pulls/42/merge", r.URL.Path)
			_, _ = w.Write([]byte(`{"sha":"abc123","merged":true,"message":"Pull Request successfully merged"}`))
		}))
		defer srv.Close()

		got := newTestClient(t, srv.URL).MergeDeploymentPR(ctx, "42")
		assert.JSONEq(t, `{"sha":"abc123","merged":true,"message":"Pull Request successfully merged"}`, got)
	})

	t.Run("not a number", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for an invalid number")
		}))
		defer srv.Close()

		assert.Equal(t, MergeDeploymentFailed, newTestClient(t, srv.URL).MergeDeploymentPR(ctx, "forty-two"))
	})

	t.Run("transport failure", func(t *testing.T) {
		assert.Equal(t, MergeDeploymentFailed, newTestClient(t, closedServerURL()).MergeDeploymentPR(ctx, "42"))
	})
}
