package assistant

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTaskMemory_EmptyBoard(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	board, deleted := tracker.UpdateTaskMemory("u1", BoardSnapshot{})

	assert.Equal(t, "No tasks on the board yet.", board)
	assert.Equal(t, "No deleted tasks yet.", deleted)
}

func TestUpdateTaskMemory_BucketRendering(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	snapshot := BoardSnapshot{
		"todo":       {{ID: "T1", Title: "Write spec", Priority: "High", Tag: "Backend"}},
		"inProgress": {{ID: "T2", Title: "Build API", Priority: "High", Tag: "Backend"}},
		"done":       {{ID: "T3", Title: "Ship MVP", Priority: "High", Tag: "Backend"}},
	}

	board, _ := tracker.UpdateTaskMemory("u1", snapshot)

	assert.Contains(t, board, "TO DO:\n- [T1] (High) Write spec (status: todo, tag: Backend)")
	assert.Contains(t, board, "IN PROGRESS:\n- [T2] (High) Build API (status: inProgress, tag: Backend)")
	assert.Contains(t, board, "DONE:\n- [T3] (High) Ship MVP (status: done, tag: Backend)")
}

func TestUpdateTaskMemory_DefaultsInRenderedLine(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	board, _ := tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{ID: "T1", Title: "Untagged task"}},
	})

	// Missing priority renders as an em-dash, missing tag as "General".
	assert.Contains(t, board, "- [T1] (—) Untagged task (status: todo, tag: General)")
}

func TestUpdateTaskMemory_Idempotence(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())
	snapshot := BoardSnapshot{
		"todo": {{ID: "T1", Title: "x"}},
		"done": {{ID: "T2", Title: "y"}},
	}

	board1, deleted1 := tracker.UpdateTaskMemory("u1", snapshot)
	board2, deleted2 := tracker.UpdateTaskMemory("u1", snapshot)

	assert.Equal(t, board1, board2)
	assert.Equal(t, deleted1, deleted2)
	assert.Equal(t, "No deleted tasks yet.", deleted2)
}

func TestUpdateTaskMemory_DeletionDetection(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{ID: "T1", Title: "x"}},
	})
	_, deleted := tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {},
	})

	assert.Contains(t, deleted, "T1")
	assert.Contains(t, deleted, "Recently deleted task IDs:")
}

func TestUpdateTaskMemory_AbsenceMeansDeletion(t *testing.T) {
	// A partial snapshot that simply omits a known task still counts as a
	// deletion. Established behavior; see UpdateTaskMemory doc.
	tracker := NewTracker(NewInMemoryStore())

	tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{ID: "T1"}, {ID: "T2"}},
	})
	_, deleted := tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{ID: "T2"}},
	})

	assert.Contains(t, deleted, "T1")
	assert.NotContains(t, deleted, "T2")
}

func TestUpdateTaskMemory_MissingIDNeverTracked(t *testing.T) {
	store := NewInMemoryStore()
	tracker := NewTracker(store)

	tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{Title: "no id"}, {ID: "T1", Title: "has id"}},
	})

	memory, ok := store.Get("u1")
	require.True(t, ok)
	assert.Len(t, memory.KnownTasks, 1)
	assert.Contains(t, memory.KnownTasks, "T1")

	// An id-less task can never trigger a deletion entry either.
	_, deleted := tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{ID: "T1", Title: "has id"}},
	})
	assert.Equal(t, "No deleted tasks yet.", deleted)
}

func TestUpdateTaskMemory_NonCanonicalColumn(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	// Flattened (so tracked for deletion) but omitted from the rendered board.
	board, _ := tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"backlog": {{ID: "B1", Title: "someday"}},
	})
	assert.Equal(t, "No tasks on the board yet.", board)

	_, deleted := tracker.UpdateTaskMemory("u1", BoardSnapshot{})
	assert.Contains(t, deleted, "B1")
}

func TestUpdateTaskMemory_EncounterOrderWithinBucket(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	board, _ := tracker.UpdateTaskMemory("u1", BoardSnapshot{
		"todo": {{ID: "A"}, {ID: "B"}, {ID: "C"}},
	})

	idxA := strings.Index(board, "[A]")
	idxB := strings.Index(board, "[B]")
	idxC := strings.Index(board, "[C]")
	assert.True(t, idxA < idxB && idxB < idxC, "tasks must render in encounter order: %s", board)
}

func TestUserMemory_DeletionRingBound(t *testing.T) {
	memory := NewUserMemory()

	for i := 0; i < maxDeletedTaskIDs+10; i++ {
		memory.markDeleted(fmt.Sprintf("T%d", i))
	}

	deleted := memory.DeletedTaskIDs()
	require.Len(t, deleted, maxDeletedTaskIDs)
	// Oldest evicted first, most recent retained.
	assert.Equal(t, "T10", deleted[0])
	assert.Equal(t, fmt.Sprintf("T%d", maxDeletedTaskIDs+9), deleted[len(deleted)-1])
}

func TestUpdateTaskMemory_ConcurrentSameUser(t *testing.T) {
	tracker := NewTracker(NewInMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tracker.UpdateTaskMemory("u1", BoardSnapshot{
				"todo": {{ID: fmt.Sprintf("T%d", n)}},
			})
		}(i)
	}
	wg.Wait()

	// After all turns every id except the last survivor was absent from some
	// snapshot; the point here is just that concurrent updates don't race.
	_, deleted := tracker.UpdateTaskMemory("u1", BoardSnapshot{})
	assert.Contains(t, deleted, "Recently deleted task IDs:")
}

// fakeStore verifies the tracker works against an injected store, never a
// package-level singleton.
type fakeStore struct {
	mu     sync.Mutex
	gets   int
	sets   int
	byUser map[string]*UserMemory
}

func (f *fakeStore) Get(userID string) (*UserMemory, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	m, ok := f.byUser[userID]
	return m, ok
}

func (f *fakeStore) Set(userID string, memory *UserMemory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.byUser[userID] = memory
}

func (f *fakeStore) Delete(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byUser, userID)
}

func TestTracker_UsesInjectedStore(t *testing.T) {
	store := &fakeStore{byUser: make(map[string]*UserMemory)}
	tracker := NewTracker(store)

	tracker.UpdateTaskMemory("u1", BoardSnapshot{"todo": {{ID: "T1"}}})

	assert.Equal(t, 1, store.gets)
	assert.Equal(t, 1, store.sets)
	assert.Contains(t, store.byUser["u1"].KnownTasks, "T1")
}
