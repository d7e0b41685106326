package assistant

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// SuggestedTask is a structured task-creation request parsed out of the
// model's reply.
type SuggestedTask struct {
	Title    string `json:"title"`
	Status   string `json:"status"` // todo, inProgress, done
	Priority string `json:"priority"`
	Tag      string `json:"tag"`
}

var (
	taskBlockRe  = regexp.MustCompile(`(?s)<TASKS>\s*(.*?)</TASKS>`)
	bracketIDRe  = regexp.MustCompile(`\[[A-Za-z0-9_-]+\]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ExtractTaskBlock scans the raw model reply for a <TASKS>...</TASKS> block.
// A well-formed block yields its newTasks list; a malformed one is treated as
// "no suggestions". Either way the block is stripped from the visible text so
// it never leaks to the UI.
func ExtractTaskBlock(rawReply string) (visibleText string, suggested []SuggestedTask) {
	suggested = []SuggestedTask{}

	match := taskBlockRe.FindStringSubmatch(rawReply)
	if match == nil {
		return rawReply, suggested
	}

	var payload struct {
		NewTasks []SuggestedTask `json:"newTasks"`
	}
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		// Upstream formatting slips must never corrupt the visible reply.
		slog.Debug("assistant: malformed task block", "error", err)
	} else if payload.NewTasks != nil {
		suggested = payload.NewTasks
	}

	visibleText = strings.TrimSpace(strings.Replace(rawReply, match[0], "", 1))
	return visibleText, suggested
}

// RedactIDs removes bracketed internal identifiers like [DEV-201] that the
// model may have leaked despite instructions, then normalizes whitespace.
func RedactIDs(text string) string {
	out := bracketIDRe.ReplaceAllString(text, "")
	out = multiSpaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// splitSentences splits whitespace-normalized text on boundaries immediately
// following '.', '!' or '?' followed by whitespace. A trailing run without
// terminal punctuation is returned as a final segment.
func splitSentences(cleaned string) []string {
	var sentences []string
	start := 0
	runes := []rune(cleaned)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if runes[i+1] == ' ' {
				sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// ClampReply truncates text to at most maxSentences sentences and roughly
// maxChars characters. If even the first sentence blows the character budget
// it is included anyway, so output is never empty for a non-empty input.
func ClampReply(text string, maxSentences, maxChars int) string {
	if text == "" {
		return ""
	}

	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	sentences := splitSentences(cleaned)
	if len(sentences) == 0 {
		return cleaned
	}

	var result []string
	totalChars := 0
	for _, s := range sentences {
		if len(result) >= maxSentences {
			break
		}
		extra := len(s)
		if len(result) > 0 {
			extra++ // joining space
		}
		if totalChars+extra > maxChars {
			if len(result) == 0 {
				result = append(result, s)
			}
			break
		}
		result = append(result, s)
		totalChars += extra
	}

	if len(result) == 0 {
		return cleaned
	}
	return strings.Join(result, " ")
}
