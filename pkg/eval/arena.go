// Package eval compares answers from multiple model clients and lets a
// judge model pick the best one.
package eval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/toolflowhq/toolflow/pkg/llm"
)

// Contender is one model taking part in a comparison.
type Contender struct {
	Name    string
	ModelID string
	Client  llm.ModelClient
}

// Candidate is one contender's answer to a prompt.
type Candidate struct {
	Model     string
	Text      string
	LatencyMS int64
	Usage     llm.Usage
	Err       error
}

// Arena collects answers to the same prompt from every contender, at
// most Concurrency requests in flight at once.
type Arena struct {
	contenders  []Contender
	concurrency int
	system      string
	maxTokens   int
}

type ArenaOptions struct {
	Concurrency int
	System      string
	MaxTokens   int
}

func NewArena(contenders []Contender, opts ArenaOptions) (*Arena, error) {
	if len(contenders) < 2 {
		return nil, fmt.Errorf("arena needs at least 2 contenders, got %d", len(contenders))
	}
	for _, c := range contenders {
		if c.Client == nil {
			return nil, fmt.Errorf("contender %s has no client", c.Name)
		}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Arena{
		contenders:  contenders,
		concurrency: concurrency,
		system:      opts.System,
		maxTokens:   opts.MaxTokens,
	}, nil
}

// Collect asks every contender the same question. The returned slice is
// in contender order; per-model failures are recorded on the candidate
// rather than failing the whole batch.
func (a *Arena) Collect(ctx context.Context, prompt string) []Candidate {
	out := make([]Candidate, len(a.contenders))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, c := range a.contenders {
		wg.Add(1)
		go func(i int, c Contender) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			started := time.Now()
			resp, err := c.Client.Converse(ctx, llm.Request{
				ModelID:   c.ModelID,
				System:    a.system,
				Messages:  []llm.Message{llm.TextMessage(llm.RoleUser, prompt)},
				MaxTokens: a.maxTokens,
			})
			cand := Candidate{
				Model:     c.Name,
				LatencyMS: time.Since(started).Milliseconds(),
			}
			if err != nil {
				cand.Err = err
			} else {
				cand.Text = resp.Message.Text()
				cand.Usage = resp.Usage
			}
			out[i] = cand
		}(i, c)
	}
	wg.Wait()
	return out
}
