package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	gh "github.com/google/go-github/v60/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Results handed back to the model when a deployment PR operation fails or
// finds nothing. The model only ever sees these strings, never an error.
const (
	NoDeploymentPR         = "No open deployment PR found"
	FetchDeploymentFailed  = "Failed to fetch deployment PR"
	CreateDeploymentFailed = "Failed to create deployment PR"
	MergeDeploymentFailed  = "Failed to merge deployment PR"
)

// DeploymentTarget names the repository and branches a deployment PR moves
// between.
type DeploymentTarget struct {
	Owner      string
	Repo       string
	HeadBranch string
	BaseBranch string
	Title      string
}

type Client struct {
	api    *gh.Client
	target DeploymentTarget
}

func NewClient(token string, target DeploymentTarget) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &Client{api: gh.NewClient(httpClient), target: target}
}

// FetchDeploymentPR returns the open PR from the head branch into the base
// branch as "PR #<n>: <url>", or NoDeploymentPR.
func (c *Client) FetchDeploymentPR(ctx context.Context) string {
	t := c.target
	prs, _, err := c.api.PullRequests.List(ctx, t.Owner, t.Repo, &gh.PullRequestListOptions{
		State: "open",
		Head:  t.Owner + ":" + t.HeadBranch,
		Base:  t.BaseBranch,
	})
	if err != nil {
		c.logger().WithError(err).Error("failed to list deployment PRs")
		return FetchDeploymentFailed
	}
	c.logger().WithField("count", len(prs)).Info("listed deployment PRs")

	if len(prs) == 0 {
		return NoDeploymentPR
	}
	return formatPR(prs[0])
}

// CreateDeploymentPR opens a PR from the head branch into the base branch.
func (c *Client) CreateDeploymentPR(ctx context.Context) string {
	t := c.target
	created, _, err := c.api.PullRequests.Create(ctx, t.Owner, t.Repo, &gh.NewPullRequest{
		Title: gh.String(t.Title),
		Head:  gh.String(t.HeadBranch),
		Base:  gh.String(t.BaseBranch),
	})
	if err != nil {
		c.logger().WithError(err).Error("failed to create deployment PR")
		return CreateDeploymentFailed
	}
	c.logger().WithField("number", created.GetNumber()).Info("created deployment PR")

	return formatPR(created)
}

// MergeDeploymentPR merges the PR with the given number and returns the
// merge result as JSON.
func (c *Client) MergeDeploymentPR(ctx context.Context, number string) string {
	n, err := strconv.Atoi(number)
	if err != nil {
		c.logger().WithError(err).WithField("number", number).Error("invalid deployment PR number")
		return MergeDeploymentFailed
	}

	t := c.target
	result, _, err := c.api.PullRequests.Merge(ctx, t.Owner, t.Repo, n, "", nil)
	if err != nil {
		c.logger().WithError(err).WithField("number", n).Error("failed to merge deployment PR")
		return MergeDeploymentFailed
	}

	raw, err := json.Marshal(result)
	if err != nil {
		c.logger().WithError(err).Error("failed to marshal merge result")
		return MergeDeploymentFailed
	}
	c.logger().WithField("result", string(raw)).Info("merged deployment PR")

	return string(raw)
}

func (c *Client) logger() *log.Entry {
	return log.WithField("repo", c.target.Owner+"/"+c.target.Repo)
}

func formatPR(pr *gh.PullRequest) string {
	return fmt.Sprintf("PR #%d: %s", pr.GetNumber(), pr.GetHTMLURL())
}
