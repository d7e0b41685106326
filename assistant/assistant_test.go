package assistant

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanprogram2/obel/assistant/llm"
)

// fakeLLM replays a canned reply and records the messages it was sent.
type fakeLLM struct {
	reply    string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func TestChat_GreetingFastPath(t *testing.T) {
	model := &fakeLLM{reply: "should not be called"}
	a := New(model)

	resp, err := a.Chat(context.Background(), &ChatRequest{Message: "hey"})

	require.NoError(t, err)
	assert.Equal(t, GreetingReply, resp.Reply)
	assert.Empty(t, resp.SuggestedTasks)
	assert.Nil(t, model.messages, "greeting must not reach the model")
}

func TestChat_ValidationFailure(t *testing.T) {
	a := New(&fakeLLM{})

	_, err := a.Chat(context.Background(), &ChatRequest{Message: "plan my day"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = a.Chat(context.Background(), &ChatRequest{Tasks: BoardSnapshot{}})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestChat_UpstreamFailureIsTerminal(t *testing.T) {
	upstream := errors.New("connection refused")
	a := New(&fakeLLM{err: upstream})

	_, err := a.Chat(context.Background(), &ChatRequest{
		Message: "plan my day",
		Tasks:   BoardSnapshot{},
	})

	assert.ErrorIs(t, err, upstream)
}

func TestChat_FullTurn(t *testing.T) {
	model := &fakeLLM{
		reply: "Start with the auth work [DEV-201] today.\n<TASKS>{\"newTasks\":[{\"title\":\"Review PR\",\"status\":\"todo\",\"priority\":\"Medium Priority\",\"tag\":\"Backend\"}]}</TASKS>",
	}
	a := New(model)

	resp, err := a.Chat(context.Background(), &ChatRequest{
		UserID:  "u1",
		Message: "what should I work on?",
		Tasks: BoardSnapshot{
			"todo": {{ID: "DEV-201", Title: "Refactor auth", Priority: "High Priority", Tag: "Backend"}},
		},
	})

	require.NoError(t, err)

	// The leaked id is redacted and the task block stripped.
	assert.Equal(t, "Start with the auth work today.", resp.Reply)
	require.Len(t, resp.SuggestedTasks, 1)
	assert.Equal(t, "Review PR", resp.SuggestedTasks[0].Title)

	// The model saw the three-message shape with the board summary injected.
	require.Len(t, model.messages, 3)
	assert.Contains(t, model.messages[1].Content, "[DEV-201] (High Priority) Refactor auth")
}

func TestChat_ClampAppliedByDefault(t *testing.T) {
	model := &fakeLLM{reply: "One. Two. Three. Four. Five."}
	a := New(model)

	resp, err := a.Chat(context.Background(), &ChatRequest{
		Message: "what should I do next today",
		Tasks:   BoardSnapshot{},
	})

	require.NoError(t, err)
	assert.Equal(t, "One. Two. Three.", resp.Reply)
}

func TestChat_ClampSkippedWhenDetailRequested(t *testing.T) {
	model := &fakeLLM{reply: "One. Two. Three. Four. Five."}
	a := New(model)

	resp, err := a.Chat(context.Background(), &ChatRequest{
		Message: "walk me through my whole plan in detail please",
		Tasks:   BoardSnapshot{},
	})

	require.NoError(t, err)
	assert.Equal(t, "One. Two. Three. Four. Five.", resp.Reply)
}

func TestChat_DefaultUserID(t *testing.T) {
	store := NewInMemoryStore()
	a := New(&fakeLLM{reply: "Ok."}, WithMemoryStore(store))

	_, err := a.Chat(context.Background(), &ChatRequest{
		Message: "what should I work on?",
		Tasks:   BoardSnapshot{"todo": {{ID: "T1"}}},
	})

	require.NoError(t, err)
	_, ok := store.Get(DefaultUserID)
	assert.True(t, ok)
}

func TestChat_DeletionVisibleOnNextTurn(t *testing.T) {
	model := &fakeLLM{reply: "Ok."}
	a := New(model)

	ctx := context.Background()
	_, err := a.Chat(ctx, &ChatRequest{
		UserID:  "u1",
		Message: "here is my board",
		Tasks:   BoardSnapshot{"todo": {{ID: "T1", Title: "old task"}}},
	})
	require.NoError(t, err)

	_, err = a.Chat(ctx, &ChatRequest{
		UserID:  "u1",
		Message: "I deleted that task",
		Tasks:   BoardSnapshot{"todo": {}},
	})
	require.NoError(t, err)

	assert.Contains(t, model.messages[1].Content, "Recently deleted task IDs: T1")
}
