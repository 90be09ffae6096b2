package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/saga-engine/internal/storage"
)

// QuestSummary is the list-view shape of a quest definition.
type QuestSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TotalTurns  int    `json:"total_turns"`
}

// QuestsHandler serves read-only quest definitions under /v1/quests.
type QuestsHandler struct {
	store  storage.Store
	logger *slog.Logger
}

func NewQuestsHandler(store storage.Store, logger *slog.Logger) *QuestsHandler {
	return &QuestsHandler{
		store:  store,
		logger: logger,
	}
}

func (h *QuestsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/quests"), "/")
	if id == "" {
		h.listQuests(w)
		return
	}
	h.getQuest(w, id)
}

func (h *QuestsHandler) listQuests(w http.ResponseWriter) {
	defs, err := h.store.ListQuests()
	if err != nil {
		h.logger.Error("Failed to list quests", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list quests.")
		return
	}

	summaries := make([]QuestSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, QuestSummary{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			TotalTurns:  def.TotalTurns,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, summaries)
}

func (h *QuestsHandler) getQuest(w http.ResponseWriter, id string) {
	def, err := h.store.GetQuest(id)
	if err != nil {
		h.logger.Debug("Quest not found", "quest_id", id, "error", err)
		writeError(w, h.logger, http.StatusNotFound, "Quest not found.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, def)
}
