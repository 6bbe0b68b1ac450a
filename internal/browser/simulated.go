package browser

import (
	"context"
	"log"
	"sync"

	"github.com/jordan/outreach-agent/internal/types"
)

// SimulatedExecutor logs actions instead of performing them, for dry runs
// and tests. It records everything it was asked to do.
type SimulatedExecutor struct {
	mu       sync.Mutex
	feedHTML string
	Executed []types.Action
}

// NewSimulatedExecutor builds a dry-run executor that serves the given HTML
// for feed fetches.
func NewSimulatedExecutor(feedHTML string) *SimulatedExecutor {
	return &SimulatedExecutor{feedHTML: feedHTML}
}

// Execute records the action and reports success.
func (s *SimulatedExecutor) Execute(_ context.Context, action types.Action) (types.ActionResult, error) {
	s.mu.Lock()
	s.Executed = append(s.Executed, action)
	s.mu.Unlock()
	log.Printf("[DRY-RUN] %s -> %s", action.Kind, action.TargetRef)
	return types.ActionResult{Success: true}, nil
}

// FetchFeed returns the canned feed HTML.
func (s *SimulatedExecutor) FetchFeed(context.Context) (string, error) {
	return s.feedHTML, nil
}

// Close is a no-op.
func (s *SimulatedExecutor) Close() error { return nil }
