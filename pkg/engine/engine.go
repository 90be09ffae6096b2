package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/consequence"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// Store is the persistence surface the engine consumes. LoadEncounter
// returns (nil, nil) when the player has no active encounter; every other
// load treats a missing record as an error.
type Store interface {
	LoadPlayer(ctx context.Context, id string) (*player.Player, error)
	SavePlayer(ctx context.Context, p *player.Player) error
	LoadProgression(ctx context.Context, playerID, questID string) (*quest.Progression, error)
	SaveProgression(ctx context.Context, playerID string, prog *quest.Progression) error
	LoadEncounter(ctx context.Context, playerID string) (*combat.Encounter, error)
	SaveEncounter(ctx context.Context, playerID string, enc *combat.Encounter) error
	DeleteEncounter(ctx context.Context, playerID string) error
	AppendEvent(ctx context.Context, playerID string, turn int, description string) error
}

// QuestLibrary resolves immutable quest definitions by id.
type QuestLibrary interface {
	GetQuest(id string) (*quest.Definition, error)
	ListQuests() ([]*quest.Definition, error)
}

// Narrator generates prose for a turn. It may fail or time out; the
// engine always substitutes a deterministic fallback line instead of
// surfacing narrator errors to the player.
type Narrator interface {
	Generate(ctx context.Context, promptContext map[string]any, temperature float64, maxLength int) (string, error)
}

// Broadcaster publishes session lifecycle events for observers.
// Publishing is best-effort; failures are logged, never fatal to a turn.
type Broadcaster interface {
	Publish(ctx context.Context, event string, playerID string, payload any) error
}

// Event names published on the broadcaster.
const (
	EventTurnCompleted  = "turn.completed"
	EventCombatStarted  = "combat.started"
	EventQuestCompleted = "quest.completed"
)

// Config tunes engine behavior. Zero values select defaults.
type Config struct {
	// CombatInterval triggers an encounter every Nth quest turn.
	CombatInterval int

	// NarrateTimeout bounds each narrator call.
	NarrateTimeout time.Duration

	Temperature        float64
	MaxNarrativeLength int

	// Encounters builds the enemies and features for a triggered
	// encounter. Nil selects the built-in act-scaled factory.
	Encounters EncounterFactory
}

const (
	defaultNarrateTimeout = 15 * time.Second
	defaultTemperature    = 0.7
	defaultMaxNarrative   = 600
)

// Engine composes the quest state machine, the consequence scheduler, and
// the combat state machine behind a single turn-processing entrypoint.
// A turn is atomic from the caller's perspective: all mutation happens on
// clones and is persisted at the end, so a failed save leaves no partial
// state visible to later reads.
type Engine struct {
	store     Store
	quests    QuestLibrary
	narrator  Narrator
	scheduler *consequence.Scheduler
	resolver  *combat.Resolver
	events    Broadcaster
	cfg       Config
	logger    *slog.Logger
}

// New creates an engine over the given collaborators.
func New(store Store, quests QuestLibrary, narrator Narrator, scheduler *consequence.Scheduler, dice combat.Dice, cfg Config, logger *slog.Logger) *Engine {
	if cfg.CombatInterval == 0 {
		cfg.CombatInterval = quest.DefaultCombatInterval
	}
	if cfg.NarrateTimeout == 0 {
		cfg.NarrateTimeout = defaultNarrateTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxNarrativeLength == 0 {
		cfg.MaxNarrativeLength = defaultMaxNarrative
	}
	if cfg.Encounters == nil {
		cfg.Encounters = ActScaledEncounter
	}
	return &Engine{
		store:     store,
		quests:    quests,
		narrator:  narrator,
		scheduler: scheduler,
		resolver:  combat.NewResolver(dice),
		cfg:       cfg,
		logger:    logger,
	}
}

// SetEvents attaches a lifecycle event broadcaster.
func (e *Engine) SetEvents(b Broadcaster) {
	e.events = b
}

// StartQuest begins a quest for the player: a fresh Active progression at
// turn 1, the quest recorded in the player's active set, and the opening
// narrative with its first offered choices.
func (e *Engine) StartQuest(ctx context.Context, playerID, questID string) (*TurnResult, error) {
	p, err := e.store.LoadPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", playerID, err)
	}
	def, err := e.quests.GetQuest(questID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest %s: %w", questID, err)
	}

	prog := quest.NewProgression(def.ID)
	opening := prog.Start(def)

	work := p.Clone()
	work.StartQuest(def.ID)
	work.TurnNumber = prog.CurrentTurn

	result := &TurnResult{
		TurnNumber: prog.CurrentTurn,
		CurrentAct: string(prog.CurrentAct),
	}
	switch {
	case opening != nil:
		result.NarrativeText = opening.Description
		result.Choices = opening.ChoiceTexts
	case def.OpeningPrompt != "":
		result.NarrativeText = def.OpeningPrompt
		result.Choices = defaultChoices
	default:
		result.NarrativeText = e.narrate(ctx, promptContext(work, prog, ""), fallbackNarrative(work, prog))
		result.Choices = defaultChoices
	}

	if err := e.store.SaveProgression(ctx, playerID, prog); err != nil {
		return result, fmt.Errorf("failed to save progression: %w", err)
	}
	if err := e.store.SavePlayer(ctx, work); err != nil {
		return result, fmt.Errorf("failed to save player: %w", err)
	}
	e.appendEvent(ctx, playerID, prog.CurrentTurn, "quest started: "+def.Title)

	e.logger.Info("Quest started",
		"player_id", playerID,
		"quest_id", def.ID,
		"total_turns", def.TotalTurns)
	return result, nil
}

// ProcessTurn handles one player action. An active encounter routes to the
// combat state machine; otherwise the quest progression advances. Either
// path ends with consequence evaluation against the updated player
// snapshot and a single persistence pass. On a persistence error the
// in-memory result is still returned alongside the error so the caller can
// decide whether to retry the save.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	p, err := e.store.LoadPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", req.PlayerID, err)
	}
	enc, err := e.store.LoadEncounter(ctx, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load encounter: %w", err)
	}
	if enc != nil {
		return e.processCombatTurn(ctx, p, enc, req)
	}
	return e.processQuestTurn(ctx, p, req)
}

func (e *Engine) processQuestTurn(ctx context.Context, p *player.Player, req TurnRequest) (*TurnResult, error) {
	prog, err := e.store.LoadProgression(ctx, req.PlayerID, req.QuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progression: %w", err)
	}
	def, err := e.quests.GetQuest(prog.QuestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest %s: %w", prog.QuestID, err)
	}

	work := p.Clone()
	wp := prog.Clone()

	outcome, err := wp.ProcessTurn(def, req.ChoiceIndex, e.cfg.CombatInterval)
	if err != nil {
		return nil, err
	}
	work.TurnNumber = wp.CurrentTurn

	result := &TurnResult{
		TurnNumber: outcome.Turn,
		CurrentAct: string(outcome.Act),
	}

	var lines []string
	if outcome.Milestone != nil {
		lines = append(lines, outcome.Milestone.Description)
		result.Choices = outcome.Milestone.ChoiceTexts
	} else {
		lines = append(lines, e.narrate(ctx, promptContext(work, wp, req.ChoiceText), fallbackNarrative(work, wp)))
		result.Choices = defaultChoices
	}

	if outcome.Completed {
		work.CompleteQuest(def.ID)
		result.QuestCompleted = true
		result.Ending = outcome.Ending
		result.Choices = nil
		lines = append(lines, fmt.Sprintf("The saga concludes: %s.", outcome.Ending))
	}

	var newEnc *combat.Encounter
	if outcome.CombatTriggered && !outcome.Completed {
		enemies, features := e.cfg.Encounters(work, outcome.Act)
		health, maxHealth := e.combatSheet(work)
		newEnc = combat.CreateEncounter(enemies, features, health, maxHealth)
		result.CombatInitiated = true
		result.CombatState = newEnc
		result.Choices = actionChoices(newEnc)
		lines = append(lines, "Steel glints in the half-light; this will not be settled with words.")
	}

	fired, schedErr := e.scheduler.CheckAndExecute(ctx, work, consequence.Context{LastChoice: req.ChoiceText})
	result.Consequences = fired
	for _, f := range fired {
		if f.Message != "" {
			lines = append(lines, f.Message)
		}
	}
	result.NarrativeText = strings.Join(lines, " ")
	if schedErr != nil {
		return result, fmt.Errorf("failed to evaluate consequences: %w", schedErr)
	}

	if err := e.store.SaveProgression(ctx, req.PlayerID, wp); err != nil {
		return result, fmt.Errorf("failed to save progression: %w", err)
	}
	if newEnc != nil {
		if err := e.store.SaveEncounter(ctx, req.PlayerID, newEnc); err != nil {
			return result, fmt.Errorf("failed to save encounter: %w", err)
		}
	}
	if err := e.store.SavePlayer(ctx, work); err != nil {
		return result, fmt.Errorf("failed to save player: %w", err)
	}
	e.appendEvent(ctx, req.PlayerID, outcome.Turn, turnSummary(outcome))

	e.publish(ctx, EventTurnCompleted, req.PlayerID, result)
	if result.CombatInitiated {
		e.publish(ctx, EventCombatStarted, req.PlayerID, newEnc)
	}
	if result.QuestCompleted {
		e.publish(ctx, EventQuestCompleted, req.PlayerID, map[string]any{
			"quest_id": def.ID,
			"ending":   outcome.Ending,
		})
	}
	return result, nil
}

func (e *Engine) processCombatTurn(ctx context.Context, p *player.Player, enc *combat.Encounter, req TurnRequest) (*TurnResult, error) {
	work := p.Clone()
	we := enc.Clone()

	lastChoice := req.ChoiceText
	if lastChoice == "" {
		lastChoice = string(req.Action)
	}

	var lines []string
	text, success, attempted := e.resolver.ExecuteAction(we, req.Action, req.TargetIndex, req.FeatureIndex, work.Stats)
	lines = append(lines, text)

	// A non-attempted action is bad input, not a combat round: the
	// enemies do not get a turn and nothing is persisted. Return the
	// explanatory text so the player can pick again.
	if !attempted {
		return &TurnResult{
			NarrativeText:   text,
			Choices:         actionChoices(we),
			TurnNumber:      work.TurnNumber,
			CombatState:     we,
			ActionAttempted: false,
		}, nil
	}

	over, outcome := we.IsOver()
	if !over {
		lines = append(lines, e.resolver.ProcessEnemyRound(we))
		over, outcome = we.IsOver()
	}

	result := &TurnResult{
		TurnNumber:      work.TurnNumber,
		CombatState:     we,
		ActionAttempted: true,
		ActionSucceeded: success,
	}
	if prog, err := e.store.LoadProgression(ctx, req.PlayerID, req.QuestID); err == nil {
		result.CurrentAct = string(prog.CurrentAct)
	} else {
		e.logger.Warn("Failed to load progression for combat turn",
			"player_id", req.PlayerID,
			"quest_id", req.QuestID,
			"error", err)
	}

	if over {
		result.CombatOutcome = outcome
		work.Health = we.PlayerHealth
		work.EncountersCompleted++
		lines = append(lines, outcomeLine(outcome))
	} else {
		result.Choices = actionChoices(we)
	}

	fired, schedErr := e.scheduler.CheckAndExecute(ctx, work, consequence.Context{LastChoice: lastChoice})
	result.Consequences = fired
	for _, f := range fired {
		if f.Message != "" {
			lines = append(lines, f.Message)
		}
	}
	result.NarrativeText = strings.Join(lines, " ")
	if schedErr != nil {
		return result, fmt.Errorf("failed to evaluate consequences: %w", schedErr)
	}

	if over {
		if err := e.store.DeleteEncounter(ctx, req.PlayerID); err != nil {
			return result, fmt.Errorf("failed to clear encounter: %w", err)
		}
	} else {
		if err := e.store.SaveEncounter(ctx, req.PlayerID, we); err != nil {
			return result, fmt.Errorf("failed to save encounter: %w", err)
		}
	}
	if err := e.store.SavePlayer(ctx, work); err != nil {
		return result, fmt.Errorf("failed to save player: %w", err)
	}
	e.appendEvent(ctx, req.PlayerID, work.TurnNumber, combatSummary(req.Action, over, outcome))

	e.publish(ctx, EventTurnCompleted, req.PlayerID, result)
	return result, nil
}

// narrate calls the narrator with a bounded timeout. Any error or empty
// response falls back to the deterministic templated line.
func (e *Engine) narrate(ctx context.Context, promptContext map[string]any, fallback string) string {
	if e.narrator == nil {
		return fallback
	}
	nctx, cancel := context.WithTimeout(ctx, e.cfg.NarrateTimeout)
	defer cancel()

	text, err := e.narrator.Generate(nctx, promptContext, e.cfg.Temperature, e.cfg.MaxNarrativeLength)
	if err != nil {
		e.logger.Warn("Narrator failed, using fallback", "error", err)
		return fallback
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("Narrator returned empty text, using fallback")
		return fallback
	}
	return text
}

// appendEvent writes to the audit log. Audit failures are logged and do
// not fail the turn.
func (e *Engine) appendEvent(ctx context.Context, playerID string, turn int, description string) {
	if err := e.store.AppendEvent(ctx, playerID, turn, description); err != nil {
		e.logger.Warn("Failed to append audit event",
			"player_id", playerID,
			"turn", turn,
			"error", err)
	}
}

func (e *Engine) publish(ctx context.Context, event, playerID string, payload any) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, event, playerID, payload); err != nil {
		e.logger.Warn("Failed to publish event", "event", event, "player_id", playerID, "error", err)
	}
}

func actionChoices(enc *combat.Encounter) []string {
	actions := enc.AvailableActions()
	choices := make([]string, len(actions))
	for i, a := range actions {
		choices[i] = string(a)
	}
	return choices
}

func turnSummary(outcome *quest.TurnOutcome) string {
	switch {
	case outcome.Completed:
		return "quest completed: " + outcome.Ending
	case outcome.Milestone != nil:
		return "reached milestone: " + outcome.Milestone.Title
	case outcome.CombatTriggered:
		return "combat triggered"
	default:
		return "turn advanced"
	}
}

func combatSummary(action combat.Action, over bool, outcome combat.Outcome) string {
	if over {
		return "combat ended: " + string(outcome)
	}
	return "combat round: " + string(action)
}

func outcomeLine(outcome combat.Outcome) string {
	switch outcome {
	case combat.OutcomeVictory:
		return "The last of them falls. The field is yours."
	case combat.OutcomeDefeat:
		return "Darkness takes you."
	case combat.OutcomeEscape:
		return "The fight is behind you, for now."
	case combat.OutcomeNegotiated:
		return "Words carried the day where steel would have failed."
	default:
		return ""
	}
}
