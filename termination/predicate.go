package termination

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hupe1980/agentgroup/core"
	"github.com/hupe1980/agentgroup/model"
)

// Predicate inspects one message and reports whether it ends the session.
type Predicate interface {
	Match(ctx context.Context, msg core.Message) (bool, error)
}

// PredicateFunc adapts a function to a Predicate.
type PredicateFunc func(ctx context.Context, msg core.Message) (bool, error)

// Match calls f.
func (f PredicateFunc) Match(ctx context.Context, msg core.Message) (bool, error) { return f(ctx, msg) }

// ContainsToken matches messages whose content contains token, ignoring
// case. This is a plain substring check: "disapprove" contains "approve".
func ContainsToken(token string) Predicate {
	needle := strings.ToLower(token)
	return PredicateFunc(func(_ context.Context, msg core.Message) (bool, error) {
		return strings.Contains(strings.ToLower(msg.Content), needle), nil
	})
}

// Verdict matches messages carrying a JSON object whose "verdict" field
// equals one of accepted (case-insensitive). The object may be embedded in
// surrounding prose. With no accepted values, "approved" is used.
func Verdict(accepted ...string) Predicate {
	if len(accepted) == 0 {
		accepted = []string{"approved"}
	}
	return PredicateFunc(func(_ context.Context, msg core.Message) (bool, error) {
		v, ok := parseVerdict(msg.Content)
		if !ok {
			return false, nil
		}
		for _, a := range accepted {
			if strings.EqualFold(v, a) {
				return true, nil
			}
		}
		return false, nil
	})
}

func parseVerdict(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}

	var payload struct {
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return "", false
	}
	return strings.TrimSpace(payload.Verdict), payload.Verdict != ""
}

const classifierInstructions = `You decide whether a reviewer approved the work.
Answer with exactly one word: yes or no.`

// Classifier asks a model whether msg signals approval. Any answer starting
// with "yes" counts as approval.
func Classifier(m model.Model) Predicate {
	return PredicateFunc(func(ctx context.Context, msg core.Message) (bool, error) {
		resp, err := model.Collect(ctx, m, model.Request{
			Instructions: classifierInstructions,
			Messages:     []core.Message{core.NewUserMessage(msg.Content)},
		}, nil)
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(resp.Content))
		return strings.HasPrefix(answer, "yes"), nil
	})
}
