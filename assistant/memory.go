package assistant

import (
	"sort"
	"strings"
	"sync"
)

// Canonical board columns. The summary renderer buckets tasks into exactly
// these three; tasks flattened from any other column name still count for
// deletion tracking but are omitted from the rendered board.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inProgress"
	StatusDone       = "done"
)

// maxDeletedTaskIDs bounds the per-user deletion history. Oldest entries are
// evicted first so the prompt always shows the most recent deletions.
const maxDeletedTaskIDs = 200

// TaskRecord is the assistant's projection of one Kanban card.
type TaskRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// BoardSnapshot maps a column name to the ordered tasks it holds, as supplied
// by the caller on each assistant turn. The assistant never owns or persists
// the board; it only remembers what it was shown.
type BoardSnapshot map[string][]TaskRecord

// UserMemory is the per-user session state: the last-seen task projection and
// the accumulated set of inferred deletions.
type UserMemory struct {
	KnownTasks map[string]TaskRecord

	deletedIDs []string
	deletedSet map[string]struct{}
}

// NewUserMemory creates an empty memory record.
func NewUserMemory() *UserMemory {
	return &UserMemory{
		KnownTasks: make(map[string]TaskRecord),
		deletedSet: make(map[string]struct{}),
	}
}

// markDeleted records a task id as deleted, preserving insertion order and
// evicting the oldest entry once the bound is reached. Re-marking an already
// deleted id is a no-op, which keeps repeated snapshots idempotent.
func (m *UserMemory) markDeleted(id string) {
	if _, ok := m.deletedSet[id]; ok {
		return
	}
	m.deletedSet[id] = struct{}{}
	m.deletedIDs = append(m.deletedIDs, id)
	if len(m.deletedIDs) > maxDeletedTaskIDs {
		evicted := m.deletedIDs[0]
		m.deletedIDs = m.deletedIDs[1:]
		delete(m.deletedSet, evicted)
	}
}

// DeletedTaskIDs returns the remembered deletions in insertion order.
func (m *UserMemory) DeletedTaskIDs() []string {
	out := make([]string, len(m.deletedIDs))
	copy(out, m.deletedIDs)
	return out
}

// MemoryStore is the session-affinity abstraction keyed by user id. The
// default implementation is in-process with process lifetime; callers can
// swap in a bounded or request-scoped store without touching tracking logic.
type MemoryStore interface {
	Get(userID string) (*UserMemory, bool)
	Set(userID string, memory *UserMemory)
	Delete(userID string)
}

// InMemoryStore is the default MemoryStore: a plain map guarded by a RWMutex,
// living for the lifetime of the hosting process.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]*UserMemory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[string]*UserMemory)}
}

func (s *InMemoryStore) Get(userID string) (*UserMemory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byUser[userID]
	return m, ok
}

func (s *InMemoryStore) Set(userID string, memory *UserMemory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = memory
}

func (s *InMemoryStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

// Tracker remembers the most recently seen board state per user and renders
// the summaries injected into the assistant prompt.
type Tracker struct {
	store MemoryStore

	// Per-user locks serialize read-modify-write cycles so concurrent turns
	// for the same user cannot interleave their memory updates.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a Tracker backed by the given store.
func NewTracker(store MemoryStore) *Tracker {
	return &Tracker{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (t *Tracker) userLock(userID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	return l
}

// flattenSnapshot turns the column-keyed snapshot into a flat task list, with
// each task's Status set to its column name. Tasks without an id cannot be
// tracked for deletion and are silently dropped.
func flattenSnapshot(snapshot BoardSnapshot) []TaskRecord {
	var out []TaskRecord
	for _, status := range orderedColumns(snapshot) {
		for _, task := range snapshot[status] {
			if task.ID == "" {
				continue
			}
			task.Status = status
			out = append(out, task)
		}
	}
	return out
}

// orderedColumns returns snapshot columns with the canonical three first, in
// board order, followed by any caller-defined extras. Go map iteration is
// randomized; the board summary must be deterministic.
func orderedColumns(snapshot BoardSnapshot) []string {
	out := make([]string, 0, len(snapshot))
	for _, canonical := range []string{StatusTodo, StatusInProgress, StatusDone} {
		if _, ok := snapshot[canonical]; ok {
			out = append(out, canonical)
		}
	}
	extras := make([]string, 0)
	for name := range snapshot {
		if name != StatusTodo && name != StatusInProgress && name != StatusDone {
			extras = append(extras, name)
		}
	}
	// Stable order for non-canonical columns too.
	sort.Strings(extras)
	return append(out, extras...)
}

// UpdateTaskMemory updates the user's remembered task state from the current
// snapshot and returns the board summary and deletion summary for prompt
// injection.
//
// Deletion is inferred, not signaled: any id present in a prior snapshot but
// absent from this one is recorded as deleted, even if the caller merely sent
// a partial board. This mirrors the product's established behavior and must
// not be changed without re-confirming intent.
func (t *Tracker) UpdateTaskMemory(userID string, snapshot BoardSnapshot) (boardSummary, deletedSummary string) {
	lock := t.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	currentTasks := flattenSnapshot(snapshot)

	memory, ok := t.store.Get(userID)
	if !ok {
		memory = NewUserMemory()
	}

	// Copy-on-write: build the updated known-task map from the previous one,
	// overwriting with the projection of every task observed this turn.
	newKnown := make(map[string]TaskRecord, len(memory.KnownTasks)+len(currentTasks))
	for id, task := range memory.KnownTasks {
		newKnown[id] = task
	}

	currentIDs := make(map[string]struct{}, len(currentTasks))
	for _, task := range currentTasks {
		currentIDs[task.ID] = struct{}{}
		newKnown[task.ID] = TaskRecord{
			ID:       task.ID,
			Title:    task.Title,
			Status:   task.Status,
			Priority: task.Priority,
			Tag:      task.Tag,
		}
	}

	for id := range memory.KnownTasks {
		if _, present := currentIDs[id]; !present {
			memory.markDeleted(id)
		}
	}

	memory.KnownTasks = newKnown
	t.store.Set(userID, memory)

	return renderBoardSummary(currentTasks), renderDeletedSummary(memory)
}

// renderBoardSummary buckets the current turn's tasks into the three
// canonical columns and renders one line per task in encounter order.
func renderBoardSummary(tasks []TaskRecord) string {
	buckets := map[string][]string{}
	for _, task := range tasks {
		priority := task.Priority
		if priority == "" {
			priority = "—"
		}
		tag := task.Tag
		if tag == "" {
			tag = "General"
		}
		line := "- [" + task.ID + "] (" + priority + ") " + task.Title +
			" (status: " + task.Status + ", tag: " + tag + ")"
		buckets[task.Status] = append(buckets[task.Status], line)
	}

	var parts []string
	if lines := buckets[StatusTodo]; len(lines) > 0 {
		parts = append(parts, "TO DO:\n"+strings.Join(lines, "\n"))
	}
	if lines := buckets[StatusInProgress]; len(lines) > 0 {
		parts = append(parts, "IN PROGRESS:\n"+strings.Join(lines, "\n"))
	}
	if lines := buckets[StatusDone]; len(lines) > 0 {
		parts = append(parts, "DONE:\n"+strings.Join(lines, "\n"))
	}

	if len(parts) == 0 {
		return "No tasks on the board yet."
	}
	return strings.Join(parts, "\n\n")
}

func renderDeletedSummary(memory *UserMemory) string {
	deleted := memory.DeletedTaskIDs()
	if len(deleted) == 0 {
		return "No deleted tasks yet."
	}
	return "Recently deleted task IDs: " + strings.Join(deleted, ", ")
}
