// Package assistant implements the Obel workspace AI assistant: per-user task
// memory, prompt assembly, and reply shaping around a single chat-completion
// call.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/assistant/llm"
	"github.com/jonathanprogram2/obel/assistant/recall"
)

// DefaultUserID is used when the caller does not identify the user.
const DefaultUserID = "demo-user"

const (
	clampMaxSentences = 3
	clampMaxChars     = 125
	recallTopK        = 3
)

// ErrMissingFields is returned when a non-greeting request lacks its message
// or board snapshot. It is terminal for the request; no memory update or
// model call happens.
var ErrMissingFields = errors.New("missing required fields: message, tasks")

// ChatRequest is a single assistant turn as supplied by the hosting handler.
type ChatRequest struct {
	UserID  string        `json:"userId"`
	Message string        `json:"message"`
	Tasks   BoardSnapshot `json:"tasks"`
}

// ChatResponse is what the end user receives: a shaped reply and any
// structured task-creation suggestions the model produced.
type ChatResponse struct {
	Reply          string          `json:"reply"`
	SuggestedTasks []SuggestedTask `json:"suggestedTasks"`
}

// Assistant wires the tracker, the model endpoint, and the reply shaper into
// a single request chain.
type Assistant struct {
	tracker *Tracker
	llm     llm.Service
	memory  *recall.Store // optional; nil disables recall
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithMemoryStore overrides the default in-process memory store.
func WithMemoryStore(store MemoryStore) Option {
	return func(a *Assistant) {
		a.tracker = NewTracker(store)
	}
}

// WithRecall enables vector-memory recall for context enrichment.
func WithRecall(store *recall.Store) Option {
	return func(a *Assistant) {
		a.memory = store
	}
}

// New creates an Assistant talking to the given model service.
func New(llmService llm.Service, opts ...Option) *Assistant {
	a := &Assistant{
		tracker: NewTracker(NewInMemoryStore()),
		llm:     llmService,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tracker exposes the task memory tracker, mainly for tests and diagnostics.
func (a *Assistant) Tracker() *Tracker {
	return a.tracker
}

// Chat runs one assistant turn: greeting fast path, validation, memory
// update, model call, then reply shaping. Validation and upstream failures
// are terminal and surface as errors; malformed structured output in the
// model reply is recovered silently.
func (a *Assistant) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	rawMessage := strings.TrimSpace(req.Message)

	if IsCasualGreeting(rawMessage) {
		return &ChatResponse{
			Reply:          GreetingReply,
			SuggestedTasks: []SuggestedTask{},
		}, nil
	}

	if rawMessage == "" || req.Tasks == nil {
		return nil, ErrMissingFields
	}

	boardSummary, deletedSummary := a.tracker.UpdateTaskMemory(userID, req.Tasks)

	// Recall is best-effort enrichment; failures never fail the turn.
	var recalled []string
	if a.memory != nil {
		var err error
		recalled, err = a.memory.Recall(ctx, userID, rawMessage, recallTopK)
		if err != nil {
			slog.Warn("assistant: memory recall failed", "user", userID, "error", err)
			recalled = nil
		}
	}

	messages := BuildMessages(boardSummary, deletedSummary, recalled, rawMessage)

	replyText, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return nil, errors.Wrap(err, "model call failed")
	}

	if a.memory != nil {
		if err := a.memory.Remember(ctx, userID, rawMessage); err != nil {
			slog.Debug("assistant: memory store failed", "user", userID, "error", err)
		}
	}

	visibleText, suggested := ExtractTaskBlock(strings.TrimSpace(replyText))
	reply := RedactIDs(visibleText)
	if !WantsDetail(rawMessage) {
		reply = ClampReply(reply, clampMaxSentences, clampMaxChars)
	}

	return &ChatResponse{
		Reply:          reply,
		SuggestedTasks: suggested,
	}, nil
}
