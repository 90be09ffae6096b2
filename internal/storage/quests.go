package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/saga-engine/pkg/quest"
)

// Quest definition operations (filesystem-backed)

func (r *RedisStore) GetQuest(id string) (*quest.Definition, error) {
	path := filepath.Join(r.dataDir, "quests", id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("quest %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read quest file %s: %w", path, err)
	}

	var def quest.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse quest JSON from %s: %w", path, err)
	}
	def.ID = id // Filename overrides any ID in the JSON

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quest definition %s: %w", id, err)
	}
	return &def, nil
}

func (r *RedisStore) ListQuests() ([]*quest.Definition, error) {
	questsDir := filepath.Join(r.dataDir, "quests")

	entries, err := os.ReadDir(questsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*quest.Definition{}, nil
		}
		return nil, fmt.Errorf("failed to read quests directory: %w", err)
	}

	var quests []*quest.Definition
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		def, err := r.GetQuest(id)
		if err != nil {
			r.logger.Warn("Skipping unreadable quest file", "file", entry.Name(), "error", err)
			continue
		}
		quests = append(quests, def)
	}
	return quests, nil
}
