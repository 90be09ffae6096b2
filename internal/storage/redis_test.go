package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/consequence"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStore(mr.Addr(), t.TempDir(), logger)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisStore_SaveAndLoadPlayer(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	p := player.New("Maren", "ironhold")
	p.Stats["strength"] = 14
	p.Inventory = []string{"lantern", "rope"}

	if err := store.SavePlayer(ctx, p); err != nil {
		t.Fatalf("Failed to save player: %v", err)
	}

	loaded, err := store.LoadPlayer(ctx, p.ID.String())
	if err != nil {
		t.Fatalf("Failed to load player: %v", err)
	}
	if loaded.Name != "Maren" {
		t.Errorf("Expected name 'Maren', got %v", loaded.Name)
	}
	if loaded.CurrentLocation != "ironhold" {
		t.Errorf("Expected location 'ironhold', got %v", loaded.CurrentLocation)
	}
	if loaded.Stats["strength"] != 14 {
		t.Errorf("Expected strength 14, got %d", loaded.Stats["strength"])
	}
	if len(loaded.Inventory) != 2 {
		t.Errorf("Expected 2 inventory items, got %d", len(loaded.Inventory))
	}
}

func TestRedisStore_LoadMissingPlayer(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadPlayer(context.Background(), "nonexistent")
	if err == nil {
		t.Fatal("Expected error for missing player")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore_ProgressionRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	prog := quest.NewProgression("emberfall")
	prog.Status = quest.StatusActive
	prog.CurrentTurn = 7
	prog.CurrentAct = quest.ActPursuit
	prog.ChoicesMade = []quest.ChoiceRecord{{Turn: 5, ChoiceIndex: 1, Impact: quest.ImpactCritical}}

	if err := store.SaveProgression(ctx, "p1", prog); err != nil {
		t.Fatalf("Failed to save progression: %v", err)
	}

	loaded, err := store.LoadProgression(ctx, "p1", "emberfall")
	if err != nil {
		t.Fatalf("Failed to load progression: %v", err)
	}
	if loaded.CurrentTurn != 7 {
		t.Errorf("Expected turn 7, got %d", loaded.CurrentTurn)
	}
	if len(loaded.ChoicesMade) != 1 || loaded.ChoicesMade[0].Impact != quest.ImpactCritical {
		t.Errorf("Choice log not preserved: %+v", loaded.ChoicesMade)
	}
}

func TestRedisStore_EncounterLifecycle(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	// No active encounter reads as nil, nil.
	enc, err := store.LoadEncounter(ctx, "p1")
	if err != nil {
		t.Fatalf("Unexpected error for missing encounter: %v", err)
	}
	if enc != nil {
		t.Fatal("Expected nil encounter before save")
	}

	created := combat.CreateEncounter([]combat.Enemy{
		{Name: "bandit", Health: 20, MaxHealth: 20, AttackPower: 5, Morale: 50},
	}, nil, 90, 100)
	if err := store.SaveEncounter(ctx, "p1", created); err != nil {
		t.Fatalf("Failed to save encounter: %v", err)
	}

	loaded, err := store.LoadEncounter(ctx, "p1")
	if err != nil {
		t.Fatalf("Failed to load encounter: %v", err)
	}
	if loaded == nil || loaded.ID != created.ID {
		t.Fatalf("Expected encounter %v, got %+v", created.ID, loaded)
	}
	if loaded.PlayerHealth != 90 {
		t.Errorf("Expected player health 90, got %d", loaded.PlayerHealth)
	}

	if err := store.DeleteEncounter(ctx, "p1"); err != nil {
		t.Fatalf("Failed to delete encounter: %v", err)
	}
	loaded, err = store.LoadEncounter(ctx, "p1")
	if err != nil || loaded != nil {
		t.Errorf("Expected nil encounter after delete, got %+v (err %v)", loaded, err)
	}
}

func TestRedisStore_EventLog(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	if err := store.AppendEvent(ctx, "p1", 1, "quest started"); err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}
	if err := store.AppendEvent(ctx, "p1", 2, "combat triggered"); err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}

	events, err := store.ListEvents(ctx, "p1")
	if err != nil {
		t.Fatalf("Failed to list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Description != "quest started" || events[1].Turn != 2 {
		t.Errorf("Events out of order: %+v", events)
	}
}

func TestRedisStore_ConsequenceRepository(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	// c1 was scheduled before a process restart, so it carries a higher
	// Seq than c2 but an earlier CreatedAt.
	first := &consequence.Consequence{
		ID:            "c1",
		PlayerID:      "p1",
		TriggerType:   consequence.TriggerTurnBased,
		Trigger:       consequence.Trigger{Turn: 3},
		Type:          consequence.TypeNarrative,
		MaxExecutions: 1,
		Seq:           5,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	second := &consequence.Consequence{
		ID:            "c2",
		PlayerID:      "p1",
		TriggerType:   consequence.TriggerLocationBased,
		Trigger:       consequence.Trigger{Location: "frostmere"},
		Type:          consequence.TypeStatChange,
		MaxExecutions: 3,
		Seq:           1,
		CreatedAt:     time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
	}

	if err := store.Add(ctx, second); err != nil {
		t.Fatalf("Failed to add consequence: %v", err)
	}
	if err := store.Add(ctx, first); err != nil {
		t.Fatalf("Failed to add consequence: %v", err)
	}

	pending, err := store.ListPending(ctx, "p1")
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending, got %d", len(pending))
	}
	// Schedule order by CreatedAt regardless of insertion order or Seq.
	if pending[0].ID != "c1" || pending[1].ID != "c2" {
		t.Errorf("Pending out of schedule order: %s, %s", pending[0].ID, pending[1].ID)
	}

	// An exhausted consequence is filtered from pending reads.
	first.ExecutionCount = 1
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Failed to update consequence: %v", err)
	}
	pending, err = store.ListPending(ctx, "p1")
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "c2" {
		t.Errorf("Expected only c2 pending, got %+v", pending)
	}

	removed, err := store.Remove(ctx, "p1", "c2")
	if err != nil || !removed {
		t.Fatalf("Expected removal, got removed=%v err=%v", removed, err)
	}
	removed, err = store.Remove(ctx, "p1", "c2")
	if err != nil || removed {
		t.Errorf("Expected idempotent removal, got removed=%v err=%v", removed, err)
	}
}

func TestRedisStore_QuestDefinitions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	dataDir := t.TempDir()
	questsDir := filepath.Join(dataDir, "quests")
	if err := os.MkdirAll(questsDir, 0o755); err != nil {
		t.Fatalf("Failed to create quests dir: %v", err)
	}

	questJSON := `{
		"title": "The Emberfall Road",
		"total_turns": 40,
		"possible_endings": ["exile", "coronation"],
		"milestones": [
			{"turn_number": 1, "title": "The Burned Gate", "choice_texts": ["Search", "Follow"]}
		]
	}`
	if err := os.WriteFile(filepath.Join(questsDir, "emberfall.json"), []byte(questJSON), 0o644); err != nil {
		t.Fatalf("Failed to write quest file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := NewRedisStore(mr.Addr(), dataDir, logger)
	t.Cleanup(func() { _ = store.Close() })

	def, err := store.GetQuest("emberfall")
	if err != nil {
		t.Fatalf("Failed to get quest: %v", err)
	}
	if def.ID != "emberfall" {
		t.Errorf("Expected ID from filename, got %v", def.ID)
	}
	if def.TotalTurns != 40 {
		t.Errorf("Expected 40 total turns, got %d", def.TotalTurns)
	}

	quests, err := store.ListQuests()
	if err != nil {
		t.Fatalf("Failed to list quests: %v", err)
	}
	if len(quests) != 1 {
		t.Errorf("Expected 1 quest, got %d", len(quests))
	}

	if _, err := store.GetQuest("missing"); err == nil {
		t.Error("Expected error for missing quest")
	}
}
