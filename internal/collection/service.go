package collection

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jpdavalos423/pokecollect/internal/cards"
	"github.com/jpdavalos423/pokecollect/internal/provider"
)

const defaultStaleAfter = 24 * time.Hour

var (
	errMissingDatabase    = errors.New("database handle is required")
	errMissingCardStore   = errors.New("card metadata store is required")
	errMissingFetcher     = errors.New("card fetcher is required")
	errMissingIDProvider  = errors.New("id provider is required")
	errMissingUserID      = errors.New("user identifier is required")
	errCardPayloadMissing = errors.New("provider returned an empty card payload")
)

// CardFetcher is the single provider operation the reconciler depends on.
type CardFetcher interface {
	CardByID(ctx context.Context, cardID string) (provider.Card, error)
}

// ServiceConfig describes the reconciler's dependencies.
type ServiceConfig struct {
	Database   *gorm.DB
	Cards      *cards.Store
	Fetcher    CardFetcher
	StaleAfter time.Duration
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service reconciles owned cards against cached provider metadata. It decides
// when cached metadata must be refreshed and degrades to stale data when a
// refresh fails but a prior entry exists.
type Service struct {
	db         *gorm.DB
	cards      *cards.Store
	fetcher    CardFetcher
	staleAfter time.Duration
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the collection reconciler.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Cards == nil {
		return nil, errMissingCardStore
	}
	if cfg.Fetcher == nil {
		return nil, errMissingFetcher
	}

	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	idProvider := cfg.IDProvider
	if idProvider == nil {
		idProvider = NewUUIDProvider()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		db:         cfg.Database,
		cards:      cfg.Cards,
		fetcher:    cfg.Fetcher,
		staleAfter: staleAfter,
		clock:      clock,
		idProvider: idProvider,
		logger:     logger,
	}, nil
}

// isStaleRecord reports whether a cached record needs a refresh: absent,
// missing a usable timestamp, or at least staleAfter old.
func isStaleRecord(record *cards.CardRecord, now time.Time, staleAfter time.Duration) bool {
	if record == nil {
		return true
	}
	if record.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(record.UpdatedAt) >= staleAfter
}

// EnsureFresh guarantees a usable metadata row exists for the card before
// returning. Fresh entries short-circuit without any network call. A failed
// refresh is downgraded to a warning whenever a prior entry exists; with no
// prior entry the failure is classified and surfaced.
func (s *Service) EnsureFresh(ctx context.Context, cardID string) error {
	cached, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return newKindError(KindInternal, "failed to read card metadata", err)
	}

	if !isStaleRecord(cached, s.clock(), s.staleAfter) {
		return nil
	}

	refreshErr := s.refreshCard(ctx, cardID)
	if refreshErr == nil {
		return nil
	}

	if cached == nil {
		return classifyRefreshError(refreshErr)
	}

	// Availability over freshness: a stale row still serves the add path.
	s.logger.Warn("using stale card metadata after refresh failure",
		zap.String("card_id", cardID),
		zap.Error(refreshErr))
	return nil
}

// refreshCard performs the single provider fetch attempt and persists the
// result. No retries; the caller owns fallback policy.
func (s *Service) refreshCard(ctx context.Context, cardID string) error {
	card, err := s.fetcher.CardByID(ctx, cardID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(card.ID) == "" {
		return errCardPayloadMissing
	}
	return s.cards.Upsert(ctx, card)
}

// Add records ownership of one copy of the card for the user, refreshing
// metadata first so the returned projection is always complete.
func (s *Service) Add(ctx context.Context, userID, cardID string) (CollectionItem, error) {
	if strings.TrimSpace(userID) == "" {
		return CollectionItem{}, newKindError(KindInternal, "user identifier is required", errMissingUserID)
	}

	id := strings.TrimSpace(cardID)
	if id == "" {
		return CollectionItem{}, newKindError(KindInvalidCardID, "cardId must be a non-empty string", nil)
	}

	if err := s.EnsureFresh(ctx, id); err != nil {
		return CollectionItem{}, err
	}

	ownedID, err := s.idProvider.NewID()
	if err != nil {
		return CollectionItem{}, newKindError(KindInternal, "failed to generate owned card id", err)
	}

	var row collectionRow
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := OwnedCard{
			ID:      ownedID,
			UserID:  strings.TrimSpace(userID),
			CardID:  id,
			AddedAt: s.clock().UTC(),
		}
		if err := tx.Create(&owned).Error; err != nil {
			return err
		}

		result := tx.Raw(`
			SELECT
				uc.id AS owned_card_id,
				uc.card_id,
				uc.added_at,
				cc.name,
				cc.set_name,
				cc.number,
				cc.rarity,
				cc.image_small_url,
				cc.market_price,
				bs.page AS binder_page,
				bs.slot AS binder_slot
			FROM user_cards uc
			JOIN cards_cache cc ON cc.card_id = uc.card_id
			LEFT JOIN binder_slots bs ON bs.owned_card_id = uc.id AND bs.user_id = uc.user_id
			WHERE uc.id = ?`, owned.ID).Scan(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Unreachable after a successful EnsureFresh; indicates a bug.
			return errors.New("inserted collection card has no metadata row")
		}
		return nil
	})
	if txErr != nil {
		s.logger.Error("add to collection failed",
			zap.String("user_id", userID),
			zap.String("card_id", id),
			zap.Error(txErr))
		return CollectionItem{}, newKindError(KindInternal, "failed to add card", txErr)
	}

	return row.toItem(), nil
}

// Remove deletes the ownership record and any placement it holds.
func (s *Service) Remove(ctx context.Context, userID, ownedCardID string) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM binder_slots WHERE user_id = ? AND owned_card_id = ?",
			userID, ownedCardID,
		).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", ownedCardID, userID).Delete(&OwnedCard{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return newKindError(KindNotFound, "card not found", nil)
		}
		return nil
	})
	if txErr != nil {
		var classified *Error
		if errors.As(txErr, &classified) {
			return classified
		}
		s.logger.Error("remove from collection failed",
			zap.String("user_id", userID),
			zap.String("owned_card_id", ownedCardID),
			zap.Error(txErr))
		return newKindError(KindInternal, "failed to remove card", txErr)
	}
	return nil
}

func (r collectionRow) toItem() CollectionItem {
	item := CollectionItem{
		OwnedCardID: r.OwnedCardID,
		CardID:      r.CardID,
		Name:        r.Name,
		SetName:     r.SetName,
		Number:      r.Number,
		Rarity:      r.Rarity,
		ImageURL:    r.ImageSmallURL,
		MarketPrice: r.MarketPrice,
		AddedAt:     r.AddedAt,
	}
	if item.ImageURL == "" {
		item.ImageURL = cards.DefaultCardBackImage
	}
	if r.BinderPage != nil && r.BinderSlot != nil {
		item.Binder = &BinderPlacement{Page: *r.BinderPage, Slot: *r.BinderSlot}
	}
	return item
}
