package approval

import (
	"context"
	"sync"

	"github.com/ppiankov/actiongate/internal/model"
)

// Scripted answers prompts from a fixed list of decisions, then blocks.
// Used for dry runs and tests.
type Scripted struct {
	mu        sync.Mutex
	decisions []model.UserDecision
	prompts   []Prompt
}

// ScriptedRequester returns a Requester that replays decisions in order.
func ScriptedRequester(decisions ...model.UserDecision) *Scripted {
	return &Scripted{decisions: decisions}
}

// Request records p and returns the next scripted decision.
func (s *Scripted) Request(_ context.Context, p Prompt) (model.UserDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, p)
	if len(s.decisions) == 0 {
		return model.DecisionBlocked, nil
	}
	d := s.decisions[0]
	s.decisions = s.decisions[1:]
	return d, nil
}

// Prompts returns the prompts seen so far.
func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}
