package consequence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/saga-engine/pkg/player"
)

// Executed is the structured result of one fired consequence.
type Executed struct {
	ConsequenceID string         `json:"consequence_id"`
	Type          Type           `json:"type"`
	Message       string         `json:"message"`
	StatChanges   map[string]int `json:"stat_changes,omitempty"`
	ItemsAdded    []string       `json:"items_added,omitempty"`
	ItemsRemoved  []string       `json:"items_removed,omitempty"`
	NewLocation   string         `json:"new_location,omitempty"`
	QuestID       string         `json:"quest_id,omitempty"`
}

// Scheduler owns the lifecycle of pending consequences for all players.
// State lives in the injected Repository; the scheduler itself only holds
// the schedule-order counter.
type Scheduler struct {
	repo   Repository
	logger *slog.Logger
	seq    atomic.Uint64
	now    func() time.Time
}

// NewScheduler creates a scheduler over the given repository.
func NewScheduler(repo Repository, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Schedule registers a consequence and returns its fresh, never-reused id.
// Well-typed input cannot fail validation; the only error source is the
// repository. A zero maxExecutions defaults to 1.
func (s *Scheduler) Schedule(ctx context.Context, playerID string, triggerType TriggerType, trigger Trigger, cType Type, payload map[string]any, priority int) (string, error) {
	return s.ScheduleRepeating(ctx, playerID, triggerType, trigger, cType, payload, priority, 1)
}

// ScheduleRepeating is Schedule with an explicit execution quota, for
// consequences that legitimately fire on multiple future turns.
func (s *Scheduler) ScheduleRepeating(ctx context.Context, playerID string, triggerType TriggerType, trigger Trigger, cType Type, payload map[string]any, priority int, maxExecutions int) (string, error) {
	if maxExecutions < 1 {
		maxExecutions = 1
	}
	c := &Consequence{
		ID:            uuid.NewString(),
		PlayerID:      playerID,
		TriggerType:   triggerType,
		Trigger:       trigger,
		Type:          cType,
		Payload:       payload,
		Priority:      priority,
		MaxExecutions: maxExecutions,
		Seq:           s.seq.Add(1),
		CreatedAt:     s.now(),
	}
	if err := s.repo.Add(ctx, c); err != nil {
		return "", fmt.Errorf("failed to store consequence: %w", err)
	}
	s.logger.Debug("Consequence scheduled",
		"consequence_id", c.ID,
		"player_id", playerID,
		"trigger_type", triggerType,
		"type", cType,
		"priority", priority)
	return c.ID, nil
}

// CheckAndExecute evaluates every pending consequence for the player in
// priority-descending order (ties broken by schedule order) and executes
// those whose predicate holds. Exhausted consequences are pruned; the rest
// stay pending and may fire again on later turns. The player snapshot is
// mutated in place by the type-specific handlers.
func (s *Scheduler) CheckAndExecute(ctx context.Context, p *player.Player, ec Context) ([]Executed, error) {
	if ec.Now.IsZero() {
		ec.Now = s.now()
	}

	pending, err := s.repo.ListPending(ctx, p.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending consequences: %w", err)
	}

	// ListPending returns schedule order; a stable sort by priority keeps
	// first-scheduled-first-evaluated among equal priorities.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority > pending[j].Priority
	})

	var fired []Executed
	for _, c := range pending {
		if c.Exhausted() || !c.holds(p, ec) {
			continue
		}

		result := execute(c, p)
		fired = append(fired, result)

		c.ExecutionCount++
		if c.Exhausted() {
			if _, err := s.repo.Remove(ctx, c.PlayerID, c.ID); err != nil {
				return fired, fmt.Errorf("failed to prune consequence %s: %w", c.ID, err)
			}
		} else {
			if err := s.repo.Update(ctx, c); err != nil {
				return fired, fmt.Errorf("failed to update consequence %s: %w", c.ID, err)
			}
		}

		s.logger.Debug("Consequence fired",
			"consequence_id", c.ID,
			"player_id", c.PlayerID,
			"type", c.Type,
			"execution_count", c.ExecutionCount,
			"max_executions", c.MaxExecutions)
	}

	return fired, nil
}

// Cancel removes a pending consequence. Returns false when it is not
// found, which is not an error: cancellation is idempotent.
func (s *Scheduler) Cancel(ctx context.Context, playerID, consequenceID string) (bool, error) {
	removed, err := s.repo.Remove(ctx, playerID, consequenceID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel consequence: %w", err)
	}
	return removed, nil
}

// Pending returns a read-only snapshot of a player's pending consequences
// in schedule order, for UIs and tests.
func (s *Scheduler) Pending(ctx context.Context, playerID string) ([]*Consequence, error) {
	return s.repo.ListPending(ctx, playerID)
}
