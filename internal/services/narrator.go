package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Narrator generates prose for a turn from a structured prompt context.
// Implementations may fail or time out; callers substitute deterministic
// fallback text rather than surfacing narrator errors to the player.
type Narrator interface {
	Generate(ctx context.Context, promptContext map[string]any, temperature float64, maxLength int) (string, error)
}

// buildPrompt flattens the prompt context into the system prompt handed to
// an LLM backend. Keys are emitted in sorted order so the prompt is stable
// for a given context.
func buildPrompt(promptContext map[string]any) string {
	sb := strings.Builder{}
	sb.WriteString("You are the narrator of a turn-based saga. ")
	sb.WriteString("Respond with two to four sentences of second-person narration. ")
	sb.WriteString("Never break character and never mention game mechanics.\n")

	keys := make([]string, 0, len(promptContext))
	for k := range promptContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%s: %v\n", k, promptContext[k]))
	}
	return sb.String()
}
