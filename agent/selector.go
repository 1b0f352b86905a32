package agent

import (
	"strings"

	"github.com/hupe1980/tutormesh/core"
)

// NoVideosMessage is returned for video questions without tool output.
const NoVideosMessage = "Sorry, couldn't find any relevant videos."

// DefaultVideoKeywords mark a question as asking for videos.
var DefaultVideoKeywords = []string{"video", "youtube", "tutorial", "watch", "channel"}

// Selector picks the text returned to the caller.
type Selector struct {
	keywords []string
}

// NewSelector creates a Selector; no keywords means DefaultVideoKeywords.
func NewSelector(keywords ...string) *Selector {
	if len(keywords) == 0 {
		keywords = DefaultVideoKeywords
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}

	return &Selector{keywords: lowered}
}

// HasVideoIntent reports whether question contains any keyword, case-insensitively.
func (s *Selector) HasVideoIntent(question string) bool {
	q := strings.ToLower(question)
	for _, k := range s.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// Select returns the tool output for video questions (or NoVideosMessage when
// it is missing or empty) and fused otherwise.
func (s *Selector) Select(state *core.State, fused string) string {
	if !s.HasVideoIntent(state.Question()) {
		return fused
	}

	if out, ok := state.ToolOutput(); ok && out != "" {
		return out
	}

	return NoVideosMessage
}
