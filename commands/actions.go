package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/justmike1/alpaca/github"
)

// ErrUnknownAction is returned when the model asks for a function that was
// never advertised.
var ErrUnknownAction = errors.New("unknown action")

// ActionKind enumerates the deployment actions the model may request.
type ActionKind int

const (
	FetchDeploymentPR ActionKind = iota + 1
	CreateDeploymentPR
	MergeDeploymentPR
)

func (k ActionKind) String() string {
	switch k {
	case FetchDeploymentPR:
		return "fetchDeploymentPR"
	case CreateDeploymentPR:
		return "createDeploymentPR"
	case MergeDeploymentPR:
		return "mergeDeploymentPR"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

var actionKinds = []ActionKind{FetchDeploymentPR, CreateDeploymentPR, MergeDeploymentPR}

func parseActionKind(name string) (ActionKind, error) {
	for _, k := range actionKinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

var actionDescriptors = []github.Function{
	{
		Name:        FetchDeploymentPR.String(),
		Description: "Fetch the open deployment pull request from staging to main, if there is one.",
		Parameters:  github.Parameters{Type: "object", Properties: map[string]github.Property{}},
	},
	{
		Name:        CreateDeploymentPR.String(),
		Description: "Create a deployment pull request from staging to main.",
		Parameters:  github.Parameters{Type: "object", Properties: map[string]github.Property{}},
	},
	{
		Name:        MergeDeploymentPR.String(),
		Description: "Merge the deployment pull request with the given number.",
		Parameters: github.Parameters{
			Type: "object",
			Properties: map[string]github.Property{
				"pullNumber": {Type: "string", Description: "The number of the pull request to merge."},
			},
			Required: []string{"pullNumber"},
		},
	},
}

// ActionDescriptors returns the functions advertised to the model.
func ActionDescriptors() []github.Function {
	out := make([]github.Function, len(actionDescriptors))
	copy(out, actionDescriptors)
	return out
}

// MergeArgs are the arguments of MergeDeploymentPR.
type MergeArgs struct {
	PullNumber pullNumber `json:"pullNumber"`
}

// pullNumber accepts both "42" and 42, models emit either.
type pullNumber string

func (p *pullNumber) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = pullNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pullNumber must be a string or number: %w", err)
	}
	*p = pullNumber(n.String())
	return nil
}

// Invocation is a parsed function call. Merge is set only for
// MergeDeploymentPR.
type Invocation struct {
	Kind  ActionKind
	Merge *MergeArgs
}

// ParseInvocation validates the model's function call against the known
// actions and decodes its arguments.
func ParseInvocation(call *github.FunctionCall) (Invocation, error) {
	kind, err := parseActionKind(call.Name)
	if err != nil {
		return Invocation{}, err
	}

	inv := Invocation{Kind: kind}
	if kind == MergeDeploymentPR {
		var args MergeArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return Invocation{}, fmt.Errorf("failed to parse %s arguments: %w", kind, err)
		}
		if args.PullNumber == "" {
			return Invocation{}, fmt.Errorf("%s requires pullNumber", kind)
		}
		inv.Merge = &args
	}
	return inv, nil
}

// Run executes the invocation against the adapters and returns the text
// handed back to the model.
func (inv Invocation) Run(ctx context.Context, actions DeploymentActions) string {
	switch inv.Kind {
	case FetchDeploymentPR:
		return actions.FetchDeploymentPR(ctx)
	case CreateDeploymentPR:
		return actions.CreateDeploymentPR(ctx)
	case MergeDeploymentPR:
		return actions.MergeDeploymentPR(ctx, string(inv.Merge.PullNumber))
	default:
		panic(fmt.Sprintf("unhandled action kind %s", inv.Kind))
	}
}
