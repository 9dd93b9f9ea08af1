package collection

import "time"

// OwnedCard is a user's claim of possessing one copy of a card, independent
// of its binder placement. Rows are immutable after creation.
type OwnedCard struct {
	ID      string    `gorm:"column:id;primaryKey;size:190;not null"`
	UserID  string    `gorm:"column:user_id;size:190;not null;index:idx_user_cards_user"`
	CardID  string    `gorm:"column:card_id;size:190;not null"`
	AddedAt time.Time `gorm:"column:added_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (OwnedCard) TableName() string {
	return "user_cards"
}

// BinderPlacement locates a card inside the album.
type BinderPlacement struct {
	Page int `json:"page"`
	Slot int `json:"slot"`
}

// CollectionItem is the projection returned for an owned card joined with
// its cached metadata and optional placement.
type CollectionItem struct {
	OwnedCardID string           `json:"userCardId"`
	CardID      string           `json:"cardId"`
	Name        string           `json:"name"`
	SetName     string           `json:"setName"`
	Number      string           `json:"number"`
	Rarity      string           `json:"rarity"`
	ImageURL    string           `json:"imageUrl"`
	MarketPrice *float64         `json:"marketPrice"`
	AddedAt     time.Time        `json:"addedAt"`
	Binder      *BinderPlacement `json:"binder"`
}

// collectionRow is the scan target for the owned-card join.
type collectionRow struct {
	OwnedCardID   string    `gorm:"column:owned_card_id"`
	CardID        string    `gorm:"column:card_id"`
	AddedAt       time.Time `gorm:"column:added_at"`
	Name          string    `gorm:"column:name"`
	SetName       string    `gorm:"column:set_name"`
	Number        string    `gorm:"column:number"`
	Rarity        string    `gorm:"column:rarity"`
	ImageSmallURL string    `gorm:"column:image_small_url"`
	MarketPrice   *float64  `gorm:"column:market_price"`
	BinderPage    *int      `gorm:"column:binder_page"`
	BinderSlot    *int      `gorm:"column:binder_slot"`
}
