package approval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/actiongate/internal/model"
)

// ErrNotPending is returned when resolving an unknown or already resolved request.
var ErrNotPending = errors.New("approval request not pending")

// DefaultQueueTimeout bounds how long a queued prompt waits for a decision.
const DefaultQueueTimeout = 5 * time.Minute

// ErrInvalidAnswer is returned by ParseAnswer for anything but a final choice.
var ErrInvalidAnswer = errors.New("invalid answer")

var answers = map[string]model.UserDecision{
	"y":                               model.DecisionApproved,
	"yes":                             model.DecisionApproved,
	string(model.DecisionApproved):    model.DecisionApproved,
	"a":                               model.DecisionApprovedAll,
	"all":                             model.DecisionApprovedAll,
	string(model.DecisionApprovedAll): model.DecisionApprovedAll,
	"n":                               model.DecisionBlocked,
	"no":                              model.DecisionBlocked,
	string(model.DecisionBlocked):     model.DecisionBlocked,
	"q":                               model.DecisionTaskAborted,
	"quit":                            model.DecisionTaskAborted,
	string(model.DecisionTaskAborted): model.DecisionTaskAborted,
}

var answerText = map[model.UserDecision]string{
	model.DecisionApproved:    "Allowed",
	model.DecisionApprovedAll: "Allowed, identical actions will not ask again",
	model.DecisionBlocked:     "Blocked",
	model.DecisionTaskAborted: "Task aborted",
}

// ParseAnswer maps a human answer (y/n/a/q, their long forms or the decision
// tag itself) onto a decision.
func ParseAnswer(s string) (model.UserDecision, error) {
	if d, ok := answers[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
}

// Pending is a queued prompt awaiting a remote decision.
type Pending struct {
	ID        string    `json:"id"`
	Prompt    Prompt    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type waiter struct {
	info     Pending
	decision chan model.UserDecision
}

// Queue is a Requester whose prompts are answered asynchronously through
// Resolve, e.g. by a gRPC or MCP client. Unanswered prompts time out and
// block the action.
type Queue struct {
	mu      sync.Mutex
	pending map[string]*waiter
	timeout time.Duration
	notify  func(Pending)
}

// NewQueue creates a queue. timeout <= 0 uses DefaultQueueTimeout.
func NewQueue(timeout time.Duration) *Queue {
	if timeout <= 0 {
		timeout = DefaultQueueTimeout
	}
	return &Queue{pending: make(map[string]*waiter), timeout: timeout}
}

// OnPending registers a hook called (outside the lock) for every new prompt.
func (q *Queue) OnPending(fn func(Pending)) {
	q.mu.Lock()
	q.notify = fn
	q.mu.Unlock()
}

// Request enqueues p and waits for Resolve, the timeout or cancellation.
func (q *Queue) Request(ctx context.Context, p Prompt) (model.UserDecision, error) {
	now := time.Now().UTC()
	w := &waiter{
		info: Pending{
			ID:        uuid.NewString(),
			Prompt:    p,
			CreatedAt: now,
			ExpiresAt: now.Add(q.timeout),
		},
		decision: make(chan model.UserDecision, 1),
	}

	q.mu.Lock()
	q.pending[w.info.ID] = w
	notify := q.notify
	q.mu.Unlock()
	defer q.drop(w.info.ID)

	if notify != nil {
		notify(w.info)
	}

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case d := <-w.decision:
		return d, nil
	case <-timer.C:
		return model.DecisionTimeout, nil
	case <-ctx.Done():
		return model.DecisionInterrupted, ctx.Err()
	}
}

// Resolve answers the pending request id.
func (q *Queue) Resolve(id string, d model.UserDecision) error {
	q.mu.Lock()
	w, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	w.decision <- d
	return nil
}

// Pending lists waiting requests, oldest first.
func (q *Queue) Pending() []Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Pending, 0, len(q.pending))
	for _, w := range q.pending {
		out = append(out, w.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (q *Queue) drop(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
