package cards

import "time"

// DefaultCardBackImage is substituted whenever a card carries no usable
// image reference.
const DefaultCardBackImage = "assets/images/card-back.png"

// CardRecord is the durable metadata cache row for one provider card.
// Rows are overwritten wholesale on refresh and never deleted; the table is
// a cache, not a system of record.
type CardRecord struct {
	CardID        string    `gorm:"column:card_id;primaryKey;size:190;not null"`
	Name          string    `gorm:"column:name;size:320"`
	SetName       string    `gorm:"column:set_name;size:320"`
	Number        string    `gorm:"column:number;size:64"`
	Rarity        string    `gorm:"column:rarity;size:190"`
	ImageSmallURL string    `gorm:"column:image_small_url;size:512"`
	MarketPrice   *float64  `gorm:"column:market_price"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (CardRecord) TableName() string {
	return "cards_cache"
}
