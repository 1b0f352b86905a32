package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/tutormesh/core"
)

// Fixed replies of the tool-invoking responder.
const (
	NoAnswerMessage     = "Sorry, I couldn't find an answer."
	VideoListHeader     = "Here are some useful videos you can watch:\n"
	NoVideoTutorialsMsg = "I couldn't find any good video tutorials, but you can try searching YouTube or ask me another question!"
)

// RenderAnswer turns the final assistant message of a tool loop into text.
// Rules, first match wins:
//  1. no final message: NoAnswerMessage
//  2. link records with at least one record carrying non-empty string title
//     and url: a markdown link list
//  3. non-blank plain text: returned verbatim
//  4. otherwise: NoVideoTutorialsMsg
func RenderAnswer(final *core.Content) string {
	if final == nil {
		return NoAnswerMessage
	}

	switch p := core.PayloadOf(*final).(type) {
	case core.LinkRecords:
		if lines := linkLines(p); len(lines) > 0 {
			return VideoListHeader + strings.Join(lines, "\n")
		}
	case core.PlainText:
		if strings.TrimSpace(string(p)) != "" {
			return string(p)
		}
	}

	return NoVideoTutorialsMsg
}

func linkLines(records core.LinkRecords) []string {
	var lines []string
	for _, r := range records {
		title, ok := r.StringField("title")
		if !ok || strings.TrimSpace(title) == "" {
			continue
		}
		url, ok := r.StringField("url")
		if !ok || strings.TrimSpace(url) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s)", title, url))
	}
	return lines
}
