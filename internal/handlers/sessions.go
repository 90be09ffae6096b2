package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/saga-engine/internal/storage"
	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/consequence"
	"github.com/jwebster45206/saga-engine/pkg/engine"
	"github.com/jwebster45206/saga-engine/pkg/player"
	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// TurnEngine is the slice of the engine the session handler needs.
type TurnEngine interface {
	StartQuest(ctx context.Context, playerID, questID string) (*engine.TurnResult, error)
	ProcessTurn(ctx context.Context, req engine.TurnRequest) (*engine.TurnResult, error)
}

// SessionLocker serializes turn processing per player. A second turn for
// a player whose previous turn is still in flight is rejected with 409.
type SessionLocker interface {
	Acquire(ctx context.Context, playerID string) (bool, error)
	Release(ctx context.Context, playerID string)
}

// ConsequenceSource lists a player's pending scheduled consequences.
type ConsequenceSource interface {
	Pending(ctx context.Context, playerID string) ([]*consequence.Consequence, error)
}

// CreateSessionRequest starts a new session: a fresh player dropped into
// the opening turn of a quest.
type CreateSessionRequest struct {
	PlayerName string         `json:"player_name"`
	Pronouns   string         `json:"pronouns,omitempty"`
	Location   string         `json:"location,omitempty"`
	QuestID    string         `json:"quest_id"`
	Stats      map[string]int `json:"stats,omitempty"`
}

type SessionResponse struct {
	Player    *player.Player     `json:"player"`
	Encounter *combat.Encounter  `json:"encounter,omitempty"`
	Result    *engine.TurnResult `json:"result,omitempty"`
	Events    []storage.Event    `json:"events,omitempty"`
}

// SessionHandler handles session lifecycle and turn submission under
// /v1/sessions.
type SessionHandler struct {
	store    storage.Store
	engine   TurnEngine
	locker   SessionLocker
	pending  ConsequenceSource
	basePath string
	logger   *slog.Logger
}

func NewSessionHandler(store storage.Store, eng TurnEngine, locker SessionLocker, pending ConsequenceSource, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		store:    store,
		engine:   eng,
		locker:   locker,
		pending:  pending,
		basePath: "/v1/sessions",
		logger:   logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, h.basePath)
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.createSession(w, r)
		return
	}

	parts := strings.Split(path, "/")
	playerID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.getSession(w, r, playerID)
		case http.MethodDelete:
			h.deleteSession(w, r, playerID)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
		}
	case len(parts) == 2 && parts[1] == "turn":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.processTurn(w, r, playerID)
	case len(parts) == 2 && parts[1] == "consequences":
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.listConsequences(w, r, playerID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found.")
	}
}

func (h *SessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "player_name is required.")
		return
	}
	if req.QuestID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "quest_id is required.")
		return
	}
	if _, err := h.store.GetQuest(req.QuestID); err != nil {
		writeError(w, h.logger, http.StatusNotFound, "Quest not found.")
		return
	}

	p := player.New(req.PlayerName, req.Location)
	p.Pronouns = req.Pronouns
	for name, value := range req.Stats {
		p.Stats[name] = value
	}

	if err := h.store.SavePlayer(r.Context(), p); err != nil {
		h.logger.Error("Failed to save new player", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session.")
		return
	}

	result, err := h.engine.StartQuest(r.Context(), p.ID.String(), req.QuestID)
	if err != nil {
		h.logger.Error("Failed to start quest", "error", err, "player_id", p.ID.String(), "quest_id", req.QuestID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to start quest.")
		return
	}

	// Re-read so the response reflects the persisted post-start state.
	saved, err := h.store.LoadPlayer(r.Context(), p.ID.String())
	if err != nil {
		saved = p
	}

	h.logger.Info("Session created",
		"player_id", p.ID.String(),
		"player_name", p.Name,
		"quest_id", req.QuestID)
	writeJSON(w, h.logger, http.StatusCreated, SessionResponse{
		Player: saved,
		Result: result,
	})
}

func (h *SessionHandler) getSession(w http.ResponseWriter, r *http.Request, playerID uuid.UUID) {
	p, err := h.store.LoadPlayer(r.Context(), playerID.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		h.logger.Error("Failed to load player", "error", err, "player_id", playerID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session.")
		return
	}

	enc, err := h.store.LoadEncounter(r.Context(), playerID.String())
	if err != nil {
		h.logger.Error("Failed to load encounter", "error", err, "player_id", playerID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session.")
		return
	}

	events, err := h.store.ListEvents(r.Context(), playerID.String())
	if err != nil {
		h.logger.Warn("Failed to list session events", "error", err, "player_id", playerID.String())
	}

	writeJSON(w, h.logger, http.StatusOK, SessionResponse{
		Player:    p,
		Encounter: enc,
		Events:    events,
	})
}

func (h *SessionHandler) deleteSession(w http.ResponseWriter, r *http.Request, playerID uuid.UUID) {
	if _, err := h.store.LoadPlayer(r.Context(), playerID.String()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		h.logger.Error("Failed to load player", "error", err, "player_id", playerID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session.")
		return
	}

	if err := h.store.DeletePlayer(r.Context(), playerID.String()); err != nil {
		h.logger.Error("Failed to delete player", "error", err, "player_id", playerID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session.")
		return
	}

	h.logger.Info("Session deleted", "player_id", playerID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) processTurn(w http.ResponseWriter, r *http.Request, playerID uuid.UUID) {
	var req engine.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}
	req.PlayerID = playerID.String()

	acquired, err := h.locker.Acquire(r.Context(), req.PlayerID)
	if err != nil {
		h.logger.Error("Failed to acquire session lock", "error", err, "player_id", req.PlayerID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn.")
		return
	}
	if !acquired {
		writeError(w, h.logger, http.StatusConflict, "A turn is already being processed for this session.")
		return
	}
	defer h.locker.Release(r.Context(), req.PlayerID)

	result, err := h.engine.ProcessTurn(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Session or quest progression not found.")
		case errors.Is(err, quest.ErrNotActive):
			writeError(w, h.logger, http.StatusBadRequest, "No active quest for this session.")
		default:
			h.logger.Error("Failed to process turn", "error", err, "player_id", req.PlayerID)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn.")
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *SessionHandler) listConsequences(w http.ResponseWriter, r *http.Request, playerID uuid.UUID) {
	pending, err := h.pending.Pending(r.Context(), playerID.String())
	if err != nil {
		h.logger.Error("Failed to list pending consequences", "error", err, "player_id", playerID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list consequences.")
		return
	}
	if pending == nil {
		pending = []*consequence.Consequence{}
	}
	writeJSON(w, h.logger, http.StatusOK, pending)
}
