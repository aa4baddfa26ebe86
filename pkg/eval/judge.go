package eval

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/toolflowhq/toolflow/pkg/errorsx"
	"github.com/toolflowhq/toolflow/pkg/llm"
	"github.com/toolflowhq/toolflow/pkg/resilience"
)

const judgeSystem = "You judge answers to a question. Reply with only the " +
	"letter of the best answer, nothing else."

// Verdict records which candidate a judge picked for one question.
type Verdict struct {
	Question string `json:"question"`
	Winner   string `json:"winner"`
	Raw      string `json:"raw,omitempty"`
}

// Judge asks a model to pick the best of several candidate answers.
// Candidates are shuffled and presented under neutral labels so the
// judge cannot favor a position or a model name.
type Judge struct {
	client  llm.ModelClient
	modelID string
	rng     *rand.Rand
	retry   resilience.RetryPolicy
}

func NewJudge(client llm.ModelClient, modelID string, seed int64) *Judge {
	return &Judge{
		client:  client,
		modelID: modelID,
		rng:     rand.New(rand.NewSource(seed)),
		retry:   resilience.NewRetryPolicy(1, 200*time.Millisecond),
	}
}

func (j *Judge) Pick(ctx context.Context, question string, candidates []Candidate) (Verdict, error) {
	usable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Err == nil && strings.TrimSpace(c.Text) != "" {
			usable = append(usable, c)
		}
	}
	if len(usable) < 2 {
		return Verdict{}, fmt.Errorf("need at least 2 usable candidates, got %d", len(usable))
	}

	order := j.rng.Perm(len(usable))

	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\nAnswers:\n", question)
	for label, idx := range order {
		fmt.Fprintf(&b, "\n%c)\n%s\n", 'A'+label, usable[idx].Text)
	}
	fmt.Fprintf(&b, "\nWhich answer is best? Reply with the letter only.")

	var resp llm.Response
	err := j.retry.Do(func() error {
		var cerr error
		resp, cerr = j.client.Converse(ctx, llm.Request{
			ModelID:   j.modelID,
			System:    judgeSystem,
			Messages:  []llm.Message{llm.TextMessage(llm.RoleUser, b.String())},
			MaxTokens: 8,
		})
		return cerr
	})
	if err != nil {
		return Verdict{}, errorsx.Wrap(fmt.Errorf("judge converse: %w", err), errorsx.ReasonJudgeVerdict)
	}

	raw := strings.TrimSpace(resp.Message.Text())
	label := parseLabel(raw, len(usable))
	if label < 0 {
		return Verdict{}, errorsx.Wrap(fmt.Errorf("unparseable verdict %q", raw), errorsx.ReasonJudgeVerdict)
	}
	return Verdict{
		Question: question,
		Winner:   usable[order[label]].Model,
		Raw:      raw,
	}, nil
}

func parseLabel(raw string, n int) int {
	for _, r := range strings.ToUpper(raw) {
		if r >= 'A' && int(r-'A') < n {
			return int(r - 'A')
		}
	}
	return -1
}

// PickRates aggregates verdicts into a per-model share of wins.
func PickRates(verdicts []Verdict) map[string]float64 {
	if len(verdicts) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, v := range verdicts {
		counts[v.Winner]++
	}
	out := make(map[string]float64, len(counts))
	for model, n := range counts {
		out[model] = float64(n) / float64(len(verdicts))
	}
	return out
}
