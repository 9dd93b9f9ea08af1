package collection

import (
	"context"
	"testing"
	"time"

	"github.com/jpdavalos423/pokecollect/internal/binder"
	"github.com/jpdavalos423/pokecollect/internal/cards"
)

func floatPtr(value float64) *float64 { return &value }
func boolPtr(value bool) *bool        { return &value }
func timePtr(value time.Time) *time.Time {
	return &value
}

// seedListFixture loads three owned cards for user-1 and one for user-2.
func seedListFixture(t *testing.T, env *testEnv) {
	t.Helper()

	base := *env.now
	records := []cards.CardRecord{
		{CardID: "base1-1", Name: "Alakazam", SetName: "Base Set", Number: "1", Rarity: "Rare Holo", MarketPrice: floatPtr(45.0), UpdatedAt: base},
		{CardID: "base1-17", Name: "Beedrill", SetName: "Base Set", Number: "17", Rarity: "Rare", MarketPrice: floatPtr(3.4), UpdatedAt: base},
		{CardID: "jungle-60", Name: "Pikachu", SetName: "Jungle", Number: "60", Rarity: "Common", UpdatedAt: base},
	}
	for index := range records {
		if err := env.db.Create(&records[index]).Error; err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}
	}

	owned := []OwnedCard{
		{ID: "owned-1", UserID: "user-1", CardID: "base1-1", AddedAt: base.Add(-3 * time.Hour)},
		{ID: "owned-2", UserID: "user-1", CardID: "base1-17", AddedAt: base.Add(-2 * time.Hour)},
		{ID: "owned-3", UserID: "user-1", CardID: "jungle-60", AddedAt: base.Add(-1 * time.Hour)},
		{ID: "owned-4", UserID: "user-2", CardID: "base1-17", AddedAt: base},
	}
	for index := range owned {
		if err := env.db.Create(&owned[index]).Error; err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}
	}

	placement := binder.SlotAssignment{UserID: "user-1", Page: 1, Slot: 0, OwnedCardID: "owned-2", UpdatedAt: base}
	if err := env.db.Create(&placement).Error; err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}
}

func TestListDefaultsToNewestFirst(t *testing.T) {
	env := newTestEnv(t, 24*time.Hour)
	seedListFixture(t, env)

	result, err := env.service.List(context.Background(), "user-1", ListQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 3 || len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got total=%d len=%d", result.Total, len(result.Items))
	}
	if result.SortBy != "addedAt" || result.SortDir != "desc" {
		t.Fatalf("unexpected sort defaults: %s %s", result.SortBy, result.SortDir)
	}
	if result.Items[0].OwnedCardID != "owned-3" || result.Items[2].OwnedCardID != "owned-1" {
		t.Fatalf("unexpected order: %s .. %s", result.Items[0].OwnedCardID, result.Items[2].OwnedCardID)
	}
}

func TestListScopesToUser(t *testing.T) {
	env := newTestEnv(t, 24*time.Hour)
	seedListFixture(t, env)

	result, err := env.service.List(context.Background(), "user-2", ListQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || result.Items[0].OwnedCardID != "owned-4" {
		t.Fatalf("expected only user-2's card, got %+v", result.Items)
	}
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t, 24*time.Hour)
	seedListFixture(t, env)
	ctx := context.Background()

	testCases := []struct {
		name  string
		query ListQuery
		want  []string
	}{
		{"name substring", ListQuery{Name: "drill"}, []string{"owned-2"}},
		{"set substring", ListQuery{Set: "Jungle"}, []string{"owned-3"}},
		{"rarity substring", ListQuery{Rarity: "Holo"}, []string{"owned-1"}},
		{"exact number", ListQuery{Number: "17"}, []string{"owned-2"}},
		{"price minimum", ListQuery{PriceMin: floatPtr(10)}, []string{"owned-1"}},
		{"price maximum treats missing as zero", ListQuery{PriceMax: floatPtr(5)}, []string{"owned-3", "owned-2"}},
		{"assigned only", ListQuery{Assigned: boolPtr(true)}, []string{"owned-2"}},
		{"unassigned only", ListQuery{Assigned: boolPtr(false)}, []string{"owned-3", "owned-1"}},
		{"added window", ListQuery{
			AddedAfter:  timePtr(env.now.Add(-150 * time.Minute)),
			AddedBefore: timePtr(env.now.Add(-90 * time.Minute)),
		}, []string{"owned-2"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := env.service.List(ctx, "user-1", testCase.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Items) != len(testCase.want) {
				t.Fatalf("expected %d items, got %d", len(testCase.want), len(result.Items))
			}
			for index, wanted := range testCase.want {
				if result.Items[index].OwnedCardID != wanted {
					t.Fatalf("position %d: expected %s, got %s", index, wanted, result.Items[index].OwnedCardID)
				}
			}
		})
	}
}

func TestListSorting(t *testing.T) {
	env := newTestEnv(t, 24*time.Hour)
	seedListFixture(t, env)

	result, err := env.service.List(context.Background(), "user-1", ListQuery{SortBy: "name", SortDir: "asc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := []string{"Alakazam", "Beedrill", "Pikachu"}
	for index, wanted := range order {
		if result.Items[index].Name != wanted {
			t.Fatalf("position %d: expected %s, got %s", index, wanted, result.Items[index].Name)
		}
	}

	result, err = env.service.List(context.Background(), "user-1", ListQuery{SortBy: "bogus", SortDir: "sideways"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SortBy != "addedAt" || result.SortDir != "desc" {
		t.Fatalf("expected sort fallback, got %s %s", result.SortBy, result.SortDir)
	}
}

func TestListPagination(t *testing.T) {
	env := newTestEnv(t, 24*time.Hour)
	seedListFixture(t, env)

	page1, err := env.service.List(context.Background(), "user-1", ListQuery{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page2, err := env.service.List(context.Background(), "user-1", ListQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page1.Total != 3 || page2.Total != 3 {
		t.Fatalf("total must count the full result set, got %d/%d", page1.Total, page2.Total)
	}
	if len(page1.Items) != 2 || len(page2.Items) != 1 {
		t.Fatalf("unexpected page sizes: %d/%d", len(page1.Items), len(page2.Items))
	}
	if page2.Items[0].OwnedCardID != "owned-1" {
		t.Fatalf("unexpected page 2 content: %s", page2.Items[0].OwnedCardID)
	}

	clamped, err := env.service.List(context.Background(), "user-1", ListQuery{Page: -1, PageSize: 5000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clamped.Page != 1 || clamped.PageSize != maxListPageSize {
		t.Fatalf("expected clamped pagination, got page=%d size=%d", clamped.Page, clamped.PageSize)
	}
}

func TestListProjection(t *testing.T) {
	env := newTestEnv(t, 24*time.Hour)
	seedListFixture(t, env)

	result, err := env.service.List(context.Background(), "user-1", ListQuery{Number: "17"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	item := result.Items[0]
	if item.Binder == nil || item.Binder.Page != 1 || item.Binder.Slot != 0 {
		t.Fatalf("expected placement, got %+v", item.Binder)
	}
	if item.MarketPrice == nil || *item.MarketPrice != 3.4 {
		t.Fatalf("unexpected price: %v", item.MarketPrice)
	}
	if item.ImageURL != cards.DefaultCardBackImage {
		t.Fatalf("expected placeholder for seeded record without image, got %q", item.ImageURL)
	}
}
