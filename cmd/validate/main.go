package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/saga-engine/pkg/quest"
)

var fileNamePattern = regexp.MustCompile(`^[a-z0-9_]+\.json$`)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <quest.json> [quest.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		v := &QuestValidator{}
		if err := v.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range v.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		fmt.Printf("%s is valid\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type QuestValidator struct {
	warnings []string
}

func (v *QuestValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !fileNamePattern.MatchString(baseName) {
		return fmt.Errorf("file name %q must be lowercase snake_case with a .json extension", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var def quest.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	// The loader derives the quest id from the file name.
	id := strings.TrimSuffix(baseName, ".json")
	if def.ID != "" && def.ID != id {
		v.warnf("id %q does not match file name %q and will be overridden on load", def.ID, id)
	}
	def.ID = id

	if err := def.Validate(); err != nil {
		return err
	}

	v.checkMilestones(&def)
	return nil
}

func (v *QuestValidator) checkMilestones(def *quest.Definition) {
	seen := make(map[int]bool)
	for _, m := range def.Milestones {
		if seen[m.TurnNumber] {
			v.warnf("multiple milestones at turn %d; only the first is reachable", m.TurnNumber)
		}
		seen[m.TurnNumber] = true

		for idx := range m.ChoiceImpacts {
			if idx < 0 || idx >= len(m.ChoiceTexts) {
				v.warnf("milestone %q: choice impact index %d has no matching choice text", m.Title, idx)
			}
		}
		if m.NarrativeWeight < 0 || m.NarrativeWeight > 5 {
			v.warnf("milestone %q: narrative_weight %d is outside 0..5", m.Title, m.NarrativeWeight)
		}
	}

	if def.MilestoneAt(1) == nil && def.OpeningPrompt == "" {
		v.warnf("no turn-1 milestone and no opening_prompt; sessions will open on generated prose")
	}
}

func (v *QuestValidator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}
