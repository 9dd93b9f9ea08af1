package binder

import "time"

const (
	// MinPage is the first album page.
	MinPage = 1
	// MinSlot and MaxSlot bound the nine fixed positions on one page.
	MinSlot = 0
	MaxSlot = 8
)

// SlotAssignment places one owned card into one album position. Two
// invariants hold after every mutation: an owned card occupies at most one
// slot, and a (user, page, slot) triple holds at most one card.
type SlotAssignment struct {
	UserID      string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Page        int       `gorm:"column:page;primaryKey;not null"`
	Slot        int       `gorm:"column:slot;primaryKey;not null"`
	OwnedCardID string    `gorm:"column:owned_card_id;size:190;not null;uniqueIndex:idx_binder_slots_owned_card"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (SlotAssignment) TableName() string {
	return "binder_slots"
}

// ValidPage reports whether the page number is inside the album.
func ValidPage(page int) bool {
	return page >= MinPage
}

// ValidSlot reports whether the slot index is one of the nine positions.
func ValidSlot(slot int) bool {
	return slot >= MinSlot && slot <= MaxSlot
}

// Item is one occupied binder position joined with its card metadata.
type Item struct {
	Page        int      `json:"page"`
	Slot        int      `json:"slot"`
	OwnedCardID string   `json:"userCardId"`
	Card        ItemCard `json:"card"`
}

// ItemCard is the card projection nested in a binder item.
type ItemCard struct {
	OwnedCardID string   `json:"userCardId"`
	CardID      string   `json:"cardId"`
	Name        string   `json:"name"`
	SetName     string   `json:"setName"`
	Number      string   `json:"number"`
	Rarity      string   `json:"rarity"`
	ImageURL    string   `json:"imageUrl"`
	MarketPrice *float64 `json:"marketPrice"`
}

type binderRow struct {
	Page          int      `gorm:"column:page"`
	Slot          int      `gorm:"column:slot"`
	OwnedCardID   string   `gorm:"column:owned_card_id"`
	CardID        string   `gorm:"column:card_id"`
	Name          string   `gorm:"column:name"`
	SetName       string   `gorm:"column:set_name"`
	Number        string   `gorm:"column:number"`
	Rarity        string   `gorm:"column:rarity"`
	ImageSmallURL string   `gorm:"column:image_small_url"`
	MarketPrice   *float64 `gorm:"column:market_price"`
}
