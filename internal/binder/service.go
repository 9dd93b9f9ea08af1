package binder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jpdavalos423/pokecollect/internal/cards"
)

const (
	defaultListPageSize = 250
	maxListPageSize     = 500
)

var (
	errMissingDatabase = errors.New("database handle is required")

	// ErrNotFound marks a missing ownership record or placement.
	ErrNotFound = errors.New("binder: not found")
	// ErrInvalidPlacement marks a page or slot outside the album bounds.
	ErrInvalidPlacement = errors.New("binder: page must be >= 1 and slot in [0, 8]")
)

// ServiceConfig describes the placement manager's dependencies.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service enforces the one-card/one-slot placement invariant. The store's
// transaction is the sole point of mutual exclusion: every mutation commits
// as one atomic unit or not at all.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the placement manager.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Assign places the owned card at (page, slot), vacating both the card's
// previous slot and the destination's previous occupant in the same
// transaction. Re-running with the same destination only refreshes the
// timestamp.
func (s *Service) Assign(ctx context.Context, userID, ownedCardID string, page, slot int) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(ownedCardID) == "" {
		return fmt.Errorf("%w: user and owned card identifiers are required", ErrInvalidPlacement)
	}
	if !ValidPage(page) || !ValidSlot(slot) {
		return ErrInvalidPlacement
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Table("user_cards").
			Where("id = ? AND user_id = ?", ownedCardID, userID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return ErrNotFound
		}

		// A card occupies only its newest slot.
		if err := tx.Where("user_id = ? AND owned_card_id = ?", userID, ownedCardID).
			Delete(&SlotAssignment{}).Error; err != nil {
			return err
		}

		// The destination's previous occupant becomes unassigned.
		if err := tx.Where("user_id = ? AND page = ? AND slot = ?", userID, page, slot).
			Delete(&SlotAssignment{}).Error; err != nil {
			return err
		}

		assignment := SlotAssignment{
			UserID:      userID,
			Page:        page,
			Slot:        slot,
			OwnedCardID: ownedCardID,
			UpdatedAt:   s.clock().UTC(),
		}
		return tx.Create(&assignment).Error
	})
	if txErr != nil {
		if errors.Is(txErr, ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error("binder slot assignment failed",
			zap.String("user_id", userID),
			zap.String("owned_card_id", ownedCardID),
			zap.Int("page", page),
			zap.Int("slot", slot),
			zap.Error(txErr))
		return fmt.Errorf("binder: assign failed: %w", txErr)
	}
	return nil
}

// Unassign removes the card's placement. A card with no placement fails
// cleanly with ErrNotFound.
func (s *Service) Unassign(ctx context.Context, userID, ownedCardID string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND owned_card_id = ?", userID, ownedCardID).
		Delete(&SlotAssignment{})
	if result.Error != nil {
		s.logger.Error("binder slot removal failed",
			zap.String("user_id", userID),
			zap.String("owned_card_id", ownedCardID),
			zap.Error(result.Error))
		return fmt.Errorf("binder: unassign failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListResult is one page of the user's binder.
type ListResult struct {
	Items    []Item `json:"items"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Total    int64  `json:"total"`
}

// List returns occupied binder positions ordered by page then slot.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultListPageSize
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&SlotAssignment{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return ListResult{}, fmt.Errorf("binder: count failed: %w", err)
	}

	var rows []binderRow
	err := s.db.WithContext(ctx).
		Table("binder_slots bs").
		Select(`bs.page, bs.slot, bs.owned_card_id,
			uc.card_id, cc.name, cc.set_name, cc.number, cc.rarity,
			cc.image_small_url, cc.market_price`).
		Joins("JOIN user_cards uc ON uc.id = bs.owned_card_id AND uc.user_id = bs.user_id").
		Joins("JOIN cards_cache cc ON cc.card_id = uc.card_id").
		Where("bs.user_id = ?", userID).
		Order("bs.page ASC, bs.slot ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		s.logger.Error("binder query failed", zap.String("user_id", userID), zap.Error(err))
		return ListResult{}, fmt.Errorf("binder: query failed: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		imageURL := row.ImageSmallURL
		if imageURL == "" {
			imageURL = cards.DefaultCardBackImage
		}
		items = append(items, Item{
			Page:        row.Page,
			Slot:        row.Slot,
			OwnedCardID: row.OwnedCardID,
			Card: ItemCard{
				OwnedCardID: row.OwnedCardID,
				CardID:      row.CardID,
				Name:        row.Name,
				SetName:     row.SetName,
				Number:      row.Number,
				Rarity:      row.Rarity,
				ImageURL:    imageURL,
				MarketPrice: row.MarketPrice,
			},
		})
	}

	return ListResult{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}
