package collection

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultListPageSize = 24
	maxListPageSize     = 100
)

// ListQuery carries collection listing filters, sorting and pagination.
type ListQuery struct {
	Name        string
	Set         string
	Rarity      string
	Number      string
	PriceMin    *float64
	PriceMax    *float64
	AddedAfter  *time.Time
	AddedBefore *time.Time
	Assigned    *bool
	SortBy      string
	SortDir     string
	Page        int
	PageSize    int
}

// ListResult is one page of a user's collection.
type ListResult struct {
	Items    []CollectionItem `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int64            `json:"total"`
	SortBy   string           `json:"sortBy"`
	SortDir  string           `json:"sortDir"`
}

var sortColumns = map[string]string{
	"addedAt": "uc.added_at",
	"name":    "cc.name",
	"set":     "cc.set_name",
	"rarity":  "cc.rarity",
	"price":   "cc.market_price",
}

func normalizeSort(query ListQuery) (string, string) {
	sortBy := query.SortBy
	if _, ok := sortColumns[sortBy]; !ok {
		sortBy = "addedAt"
	}
	sortDir := "desc"
	if strings.EqualFold(strings.TrimSpace(query.SortDir), "asc") {
		sortDir = "asc"
	}
	return sortBy, sortDir
}

func normalizePagination(query ListQuery) (int, int) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = defaultListPageSize
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	return page, pageSize
}

// List returns the user's owned cards joined with cached metadata and
// placement, filtered, sorted and paginated.
func (s *Service) List(ctx context.Context, userID string, query ListQuery) (ListResult, error) {
	if strings.TrimSpace(userID) == "" {
		return ListResult{}, newKindError(KindInternal, "user identifier is required", errMissingUserID)
	}

	sortBy, sortDir := normalizeSort(query)
	page, pageSize := normalizePagination(query)

	base := s.listScope(ctx, userID, query)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		s.logger.Error("collection count failed", zap.String("user_id", userID), zap.Error(err))
		return ListResult{}, newKindError(KindInternal, "failed to load collection", err)
	}

	order := sortColumns[sortBy] + " " + strings.ToUpper(sortDir) + ", uc.id ASC"

	var rows []collectionRow
	err := s.listScope(ctx, userID, query).
		Select(`uc.id AS owned_card_id, uc.card_id, uc.added_at,
			cc.name, cc.set_name, cc.number, cc.rarity,
			cc.image_small_url, cc.market_price,
			bs.page AS binder_page, bs.slot AS binder_slot`).
		Order(order).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		s.logger.Error("collection query failed", zap.String("user_id", userID), zap.Error(err))
		return ListResult{}, newKindError(KindInternal, "failed to load collection", err)
	}

	items := make([]CollectionItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}

	return ListResult{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		SortBy:   sortBy,
		SortDir:  sortDir,
	}, nil
}

func (s *Service) listScope(ctx context.Context, userID string, query ListQuery) *gorm.DB {
	scope := s.db.WithContext(ctx).
		Table("user_cards uc").
		Joins("JOIN cards_cache cc ON cc.card_id = uc.card_id").
		Joins("LEFT JOIN binder_slots bs ON bs.owned_card_id = uc.id AND bs.user_id = uc.user_id").
		Where("uc.user_id = ?", userID)

	if name := strings.TrimSpace(query.Name); name != "" {
		scope = scope.Where("cc.name LIKE ?", "%"+name+"%")
	}
	if set := strings.TrimSpace(query.Set); set != "" {
		scope = scope.Where("cc.set_name LIKE ?", "%"+set+"%")
	}
	if rarity := strings.TrimSpace(query.Rarity); rarity != "" {
		scope = scope.Where("cc.rarity LIKE ?", "%"+rarity+"%")
	}
	if number := strings.TrimSpace(query.Number); number != "" {
		scope = scope.Where("cc.number = ?", number)
	}
	if query.PriceMin != nil {
		scope = scope.Where("COALESCE(cc.market_price, 0) >= ?", *query.PriceMin)
	}
	if query.PriceMax != nil {
		scope = scope.Where("COALESCE(cc.market_price, 0) <= ?", *query.PriceMax)
	}
	if query.AddedAfter != nil {
		scope = scope.Where("uc.added_at >= ?", *query.AddedAfter)
	}
	if query.AddedBefore != nil {
		scope = scope.Where("uc.added_at <= ?", *query.AddedBefore)
	}
	if query.Assigned != nil {
		if *query.Assigned {
			scope = scope.Where("bs.owned_card_id IS NOT NULL")
		} else {
			scope = scope.Where("bs.owned_card_id IS NULL")
		}
	}

	return scope
}
