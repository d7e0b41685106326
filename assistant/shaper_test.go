package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTaskBlock_RoundTrip(t *testing.T) {
	raw := "Sure!\n<TASKS>{\"newTasks\":[{\"title\":\"Write tests\",\"status\":\"todo\",\"priority\":\"Low Priority\",\"tag\":\"QA\"}]}</TASKS>"

	visible, suggested := ExtractTaskBlock(raw)

	assert.Equal(t, "Sure!", visible)
	require.Len(t, suggested, 1)
	assert.Equal(t, SuggestedTask{
		Title:    "Write tests",
		Status:   "todo",
		Priority: "Low Priority",
		Tag:      "QA",
	}, suggested[0])
	assert.NotContains(t, visible, "<TASKS>")
	assert.NotContains(t, visible, "</TASKS>")
}

func TestExtractTaskBlock_MalformedJSON(t *testing.T) {
	visible, suggested := ExtractTaskBlock("Here you go.\n<TASKS>not json</TASKS>")

	assert.Equal(t, "Here you go.", visible)
	assert.Empty(t, suggested)
}

func TestExtractTaskBlock_NoBlock(t *testing.T) {
	visible, suggested := ExtractTaskBlock("Just a plain reply.")

	assert.Equal(t, "Just a plain reply.", visible)
	assert.NotNil(t, suggested)
	assert.Empty(t, suggested)
}

func TestExtractTaskBlock_MissingNewTasksList(t *testing.T) {
	visible, suggested := ExtractTaskBlock("Done.\n<TASKS>{\"somethingElse\":true}</TASKS>")

	assert.Equal(t, "Done.", visible)
	assert.Empty(t, suggested)
}

func TestExtractTaskBlock_MultilineJSON(t *testing.T) {
	raw := "On it.\n<TASKS>\n{\n  \"newTasks\": [\n    {\"title\": \"Plan sprint\", \"status\": \"inProgress\", \"priority\": \"High Priority\", \"tag\": \"Planning\"}\n  ]\n}\n</TASKS>"

	visible, suggested := ExtractTaskBlock(raw)

	assert.Equal(t, "On it.", visible)
	require.Len(t, suggested, 1)
	assert.Equal(t, "Plan sprint", suggested[0].Title)
}

func TestRedactIDs(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"leaked id", "Please finish [DEV-201] today", "Please finish today"},
		{"multiple ids", "[API-89] then [DEV-201] next", "then next"},
		{"no ids", "Nothing to redact here.", "Nothing to redact here."},
		{"collapses whitespace", "too   many    spaces", "too many spaces"},
		{"trims", "  padded  ", "padded"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RedactIDs(tc.in))
		})
	}
}

func TestClampReply_SentenceLimit(t *testing.T) {
	assert.Equal(t, "A. B. C.", ClampReply("A. B. C. D.", 3, 125))
}

func TestClampReply_ForcedFirstSentence(t *testing.T) {
	long := strings.Repeat("X", 200) + "."

	// A single sentence over the character budget is included anyway so the
	// output is never empty.
	assert.Equal(t, long, ClampReply(long, 3, 125))
}

func TestClampReply_CharBudget(t *testing.T) {
	first := strings.Repeat("a", 60) + "."
	second := strings.Repeat("b", 80) + "."

	// The second sentence would push the total over 125 chars, so only the
	// first is kept.
	assert.Equal(t, first, ClampReply(first+" "+second, 3, 125))
}

func TestClampReply_NoTerminalPunctuation(t *testing.T) {
	text := "a reply with no punctuation at all"
	assert.Equal(t, text, ClampReply(text, 3, 125))
}

func TestClampReply_NormalizesWhitespace(t *testing.T) {
	assert.Equal(t, "One. Two.", ClampReply("One.\n\n  Two.", 3, 125))
}

func TestClampReply_Empty(t *testing.T) {
	assert.Equal(t, "", ClampReply("", 3, 125))
}

func TestClampReply_ExclamationAndQuestion(t *testing.T) {
	assert.Equal(t, "Really! Sure? Yes.", ClampReply("Really! Sure? Yes. No.", 3, 125))
}
