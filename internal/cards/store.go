package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jpdavalos423/pokecollect/internal/provider"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingCardID   = errors.New("card identifier is required")
)

const (
	opStoreNew = "cards.store.new"
	opUpsert   = "cards.upsert"
	opGetByID  = "cards.get_by_id"
)

// StoreError wraps store failures with an operation.reason code.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

// Code returns the machine-readable failure code.
func (e *StoreError) Code() string {
	return e.code
}

func newStoreError(operation, reason string, cause error) error {
	return &StoreError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// StoreConfig describes the dependencies of the metadata store.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Store persists last-known card metadata keyed by provider card id.
// Writes are last-write-wins: the table shields display paths from the
// provider, it is not authoritative.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewStore constructs the metadata store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError(opStoreNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// MapCard derives the storage record for a provider card payload.
func MapCard(card provider.Card) CardRecord {
	imageSmall := firstNonEmpty(
		imageSmallRef(card),
		card.Image,
		card.ImageURLAlt,
		card.ImageURL,
		DefaultCardBackImage,
	)

	return CardRecord{
		CardID:        strings.TrimSpace(card.ID),
		Name:          strings.TrimSpace(card.Name),
		SetName:       card.DisplaySetName(),
		Number:        provider.NormalizeCardNumber(card.DisplayNumber()),
		Rarity:        strings.TrimSpace(card.Rarity),
		ImageSmallURL: imageSmall,
		MarketPrice:   DeriveMarketPrice(card),
	}
}

// Upsert writes the derived record for the card, replacing every field of
// any existing row and refreshing its timestamp. Replaying the same payload
// converges to the same state.
func (s *Store) Upsert(ctx context.Context, card provider.Card) error {
	record := MapCard(card)
	if record.CardID == "" {
		return newStoreError(opUpsert, "missing_card_id", errMissingCardID)
	}
	record.UpdatedAt = s.clock().UTC()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "card_id"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		s.logger.Error("card metadata upsert failed",
			zap.String("operation", opUpsert),
			zap.String("card_id", record.CardID),
			zap.Error(err))
		return newStoreError(opUpsert, "write_failed", err)
	}
	return nil
}

// GetByID returns the stored record for the card, or nil when absent. The
// store makes no freshness judgement; that belongs to the reconciler.
func (s *Store) GetByID(ctx context.Context, cardID string) (*CardRecord, error) {
	id := strings.TrimSpace(cardID)
	if id == "" {
		return nil, newStoreError(opGetByID, "missing_card_id", errMissingCardID)
	}

	var record CardRecord
	err := s.db.WithContext(ctx).Where("card_id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("card metadata lookup failed",
			zap.String("operation", opGetByID),
			zap.String("card_id", id),
			zap.Error(err))
		return nil, newStoreError(opGetByID, "query_failed", err)
	}
	return &record, nil
}

func imageSmallRef(card provider.Card) string {
	if card.Images == nil {
		return ""
	}
	return card.Images.Small
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
