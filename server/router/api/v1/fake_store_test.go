package v1

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/store"
)

// fakeDriver is an in-memory store.Driver for handler tests.
type fakeDriver struct {
	mu            sync.Mutex
	nextID        int32
	users         map[int32]*store.User
	holdings      map[int32]map[string]*store.Holding
	boards        map[string]*store.Board
	schemaVersion string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		nextID:   1,
		users:    make(map[int32]*store.User),
		holdings: make(map[int32]map[string]*store.Holding),
		boards:   make(map[string]*store.Board),
	}
}

func newTestStore() *store.Store {
	return store.New(newFakeDriver(), &profile.Profile{Mode: "dev"})
}

func (d *fakeDriver) GetDB() *sql.DB                  { return nil }
func (d *fakeDriver) Close() error                    { return nil }
func (d *fakeDriver) Migrate(_ context.Context) error { return nil }

func (d *fakeDriver) GetSchemaVersion(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schemaVersion, nil
}

func (d *fakeDriver) UpsertSchemaVersion(_ context.Context, version string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schemaVersion = version
	return nil
}

func (d *fakeDriver) CreateUser(_ context.Context, create *store.User) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user := *create
	user.ID = d.nextID
	user.CreatedTs = time.Now().Unix()
	user.UpdatedTs = user.CreatedTs
	d.nextID++
	d.users[user.ID] = &user
	return &user, nil
}

func (d *fakeDriver) GetUser(_ context.Context, find *store.FindUser) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.users {
		if find.ID != nil && user.ID != *find.ID {
			continue
		}
		if find.Username != nil && user.Username != *find.Username {
			continue
		}
		if find.Email != nil && user.Email != *find.Email {
			continue
		}
		return user, nil
	}
	return nil, nil
}

func (d *fakeDriver) UpsertHolding(_ context.Context, upsert *store.Holding) (*store.Holding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	holding := *upsert
	holding.UpdatedTs = time.Now().Unix()
	if d.holdings[holding.UserID] == nil {
		d.holdings[holding.UserID] = make(map[string]*store.Holding)
	}
	d.holdings[holding.UserID][holding.Symbol] = &holding
	return &holding, nil
}

func (d *fakeDriver) ListHoldings(_ context.Context, find *store.FindHolding) ([]*store.Holding, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*store.Holding
	for userID, bySymbol := range d.holdings {
		if find.UserID != nil && userID != *find.UserID {
			continue
		}
		for symbol, holding := range bySymbol {
			if find.Symbol != nil && symbol != *find.Symbol {
				continue
			}
			out = append(out, holding)
		}
	}
	return out, nil
}

func (d *fakeDriver) DeleteHolding(_ context.Context, del *store.DeleteHolding) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if bySymbol := d.holdings[del.UserID]; bySymbol != nil {
		delete(bySymbol, del.Symbol)
	}
	return nil
}

func (d *fakeDriver) UpsertBoard(_ context.Context, upsert *store.Board) (*store.Board, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	board := *upsert
	board.UpdatedTs = time.Now().Unix()
	d.boards[board.UserKey] = &board
	return &board, nil
}

func (d *fakeDriver) GetBoard(_ context.Context, userKey string) (*store.Board, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.boards[userKey], nil
}
