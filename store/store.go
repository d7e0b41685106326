// Package store provides database access to all raw objects behind a
// pluggable driver (sqlite for local use, postgres for deployments).
package store

import (
	"context"
	"time"

	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	userCache *cache.Cache[int32, *User]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:    driver,
		profile:   profile,
		userCache: cache.New[int32, *User](1000, 10*time.Minute),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(user.ID, user, 0)
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int32) (*User, error) {
	if user, ok := s.userCache.Get(id); ok {
		return user, nil
	}
	user, err := s.driver.GetUser(ctx, &FindUser{ID: &id})
	if err != nil {
		return nil, err
	}
	if user != nil {
		s.userCache.Set(user.ID, user, 0)
	}
	return user, nil
}

func (s *Store) FindUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}

func (s *Store) UpsertHolding(ctx context.Context, upsert *Holding) (*Holding, error) {
	return s.driver.UpsertHolding(ctx, upsert)
}

func (s *Store) ListHoldings(ctx context.Context, find *FindHolding) ([]*Holding, error) {
	return s.driver.ListHoldings(ctx, find)
}

func (s *Store) DeleteHolding(ctx context.Context, delete *DeleteHolding) error {
	return s.driver.DeleteHolding(ctx, delete)
}

func (s *Store) UpsertBoard(ctx context.Context, upsert *Board) (*Board, error) {
	return s.driver.UpsertBoard(ctx, upsert)
}

func (s *Store) GetBoard(ctx context.Context, userKey string) (*Board, error) {
	return s.driver.GetBoard(ctx, userKey)
}
