package collection

import (
	"context"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jpdavalos423/pokecollect/internal/binder"
	"github.com/jpdavalos423/pokecollect/internal/cards"
	"github.com/jpdavalos423/pokecollect/internal/provider"
)

type fakeFetcher struct {
	calls  int
	result provider.Card
	err    error
}

func (f *fakeFetcher) CardByID(_ context.Context, _ string) (provider.Card, error) {
	f.calls++
	if f.err != nil {
		return provider.Card{}, f.err
	}
	return f.result, nil
}

type testEnv struct {
	db      *gorm.DB
	store   *cards.Store
	fetcher *fakeFetcher
	service *Service
	now     *time.Time
}

func newTestEnv(t *testing.T, staleAfter time.Duration) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("unexpected database error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected database error: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&cards.CardRecord{}, &OwnedCard{}, &binder.SlotAssignment{}); err != nil {
		t.Fatalf("unexpected migration error: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	clock := func() time.Time { return now }

	store, err := cards.NewStore(cards.StoreConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}

	fetcher := &fakeFetcher{}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Cards:      store,
		Fetcher:    fetcher,
		StaleAfter: staleAfter,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	// clock closes over now; tests advance time through env.now.
	return &testEnv{db: db, store: store, fetcher: fetcher, service: service, now: &now}
}

func (e *testEnv) seedRecord(t *testing.T, cardID string, updatedAt time.Time) {
	t.Helper()
	record := cards.CardRecord{
		CardID:        cardID,
		Name:          "Seeded " + cardID,
		SetName:       "Seed Set",
		Number:        "1",
		Rarity:        "Common",
		ImageSmallURL: "https://img.example/" + cardID + "/low.webp",
		UpdatedAt:     updatedAt,
	}
	if err := e.db.Create(&record).Error; err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}
}

func (e *testEnv) record(t *testing.T, cardID string) *cards.CardRecord {
	t.Helper()
	record, err := e.store.GetByID(context.Background(), cardID)
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	return record
}

func providerCard(cardID, name string) provider.Card {
	return provider.Card{
		ID:     cardID,
		Name:   name,
		Number: "17",
		Rarity: "Rare",
		Set:    &provider.CardSet{Name: "Base Set"},
		Images: &provider.CardImages{Small: "https://img.example/" + cardID + "/low.webp"},
	}
}
