package newsletter

import (
	"fmt"
	"strings"
	"time"
)

const SystemInstruction = `You write a short newsletter from recent news.

- First, use extract_live_news (or extract_top_stories for current headlines) to get news for the requested date range.
- Always include the source URL of every story you use.
- Retain each article's title.
- Make the title a clickable markdown link to the source URL.
- Then provide thoughtful and engaging details of each article's content.
- Answer in markdown. Do not invent articles the tools did not return.`

// DefaultInstruction is used when the caller gives no instruction.
const DefaultInstruction = "Write a newsletter about Artificial Intelligence and Data Science news from the past week."

// BuildPrompt prefixes the caller's instruction with today's date so relative
// ranges like "last week" resolve to concrete tool arguments.
func BuildPrompt(instruction string, now time.Time) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Today is %s (UTC).\n\n", now.UTC().Format("2006-01-02")))
	sb.WriteString(instruction)
	return sb.String()
}
