package agent

import (
	"context"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/tool"
)

// AsTool exposes a as a tool named after its id. The tool takes a single
// "input" string, runs one turn of a on a fresh history holding only that
// input, and returns the turn's final text. The delegate keeps its own
// capability set and execution context. An empty description falls back to
// a.Description().
func AsTool(a Agent, description string) tool.Tool {
	if description == "" {
		description = a.Description()
	}
	return tool.New(a.ID(), description, tool.DelegateParameters(), tool.DelegatingAgent{
		AgentID: a.ID(),
		Act: func(ctx context.Context, input string) (string, error) {
			turn, err := a.Act(ctx, []core.Message{core.NewUserMessage(input)})
			if err != nil {
				return "", err
			}
			return turn.Text(), nil
		},
	})
}
