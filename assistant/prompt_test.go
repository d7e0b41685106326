package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanprogram2/obel/assistant/llm"
)

func TestIsCasualGreeting(t *testing.T) {
	testCases := []struct {
		message string
		want    bool
	}{
		{"hey", true},
		{"Hi!", true},
		{"hello there", true},
		{"yo", true},
		{"sup", true},
		{"what's up", true},
		{"whats up", true},
		{"HEY", true},
		{"  hey  ", true},
		{"hey 👋👋👋👋👋", true}, // emoji count as one character each, not four bytes
		{"hey, can you help me plan my week in detail", false}, // over 20 chars
		{"highlight my tasks", false},                          // "hi" must match at a word boundary
		{"help me", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, IsCasualGreeting(tc.message))
		})
	}
}

func TestWantsDetail(t *testing.T) {
	assert.True(t, WantsDetail("walk me through my board"))
	assert.True(t, WantsDetail("give me the FULL PLAN"))
	assert.True(t, WantsDetail("explain step-by-step"))
	assert.True(t, WantsDetail("break it down for me"))
	assert.False(t, WantsDetail("what should I do next?"))
	assert.False(t, WantsDetail("hey"))
}

func TestBuildMessages_Shape(t *testing.T) {
	messages := BuildMessages("BOARD", "DELETED", nil, "what next?")

	require.Len(t, messages, 3)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.RoleSystem, messages[1].Role)
	assert.Equal(t, llm.RoleUser, messages[2].Role)

	// Persona message carries the hard rules and the structured-output contract.
	assert.Contains(t, messages[0].Content, "BoBo")
	assert.Contains(t, messages[0].Content, "<TASKS>")
	assert.Contains(t, messages[0].Content, "Never mention task IDs")

	// Context message carries both summaries verbatim.
	assert.Contains(t, messages[1].Content, "Current Kanban board:\nBOARD")
	assert.Contains(t, messages[1].Content, "DELETED")

	// User message carries the raw text verbatim.
	assert.Contains(t, messages[2].Content, "what next?")
}

func TestBuildMessages_WithRecall(t *testing.T) {
	messages := BuildMessages("BOARD", "DELETED", []string{"likes morning deep work"}, "plan my day")

	require.Len(t, messages, 3)
	assert.Contains(t, messages[1].Content, "likes morning deep work")
}

func TestBuildMessages_NoRecallSectionWhenEmpty(t *testing.T) {
	messages := BuildMessages("BOARD", "DELETED", nil, "plan my day")

	assert.NotContains(t, messages[1].Content, "Related things")
}
