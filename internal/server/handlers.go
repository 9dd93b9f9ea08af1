package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jpdavalos423/pokecollect/internal/binder"
	"github.com/jpdavalos423/pokecollect/internal/collection"
	"github.com/jpdavalos423/pokecollect/internal/provider"
)

func (h *httpHandler) handleCardSearch(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query param 'name' is required"})
		return
	}

	query := provider.SearchQuery{
		Name:     name,
		Number:   strings.TrimSpace(c.Query("number")),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "pageSize", 20),
	}

	result, err := h.browser.SearchCards(c.Request.Context(), query)
	if err != nil {
		h.respondProviderError(c, err)
		return
	}

	h.cacheCards(c, result.Data)
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleSets(c *gin.Context) {
	sets, err := h.browser.Sets(c.Request.Context())
	if err != nil {
		h.respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sets})
}

func (h *httpHandler) handleCardsBySet(c *gin.Context) {
	cardsInSet, err := h.browser.CardsBySet(c.Request.Context(), c.Param("setId"))
	if err != nil {
		h.respondProviderError(c, err)
		return
	}

	h.cacheCards(c, cardsInSet)
	c.JSON(http.StatusOK, gin.H{"data": cardsInSet})
}

func (h *httpHandler) handleCardByID(c *gin.Context) {
	card, err := h.browser.CardByID(c.Request.Context(), c.Param("cardId"))
	if err != nil {
		h.respondProviderError(c, err)
		return
	}

	h.cacheCards(c, []provider.Card{card})
	c.JSON(http.StatusOK, gin.H{"data": card})
}

// cacheCards opportunistically persists browsed card payloads so later adds
// find warm metadata. Failures are logged, never surfaced.
func (h *httpHandler) cacheCards(c *gin.Context, payloads []provider.Card) {
	for _, card := range payloads {
		if err := h.cards.Upsert(c.Request.Context(), card); err != nil {
			h.logger.Debug("best-effort card cache write failed",
				zap.String("card_id", card.ID),
				zap.Error(err))
		}
	}
}

func (h *httpHandler) respondProviderError(c *gin.Context, err error) {
	if provider.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		c.JSON(upstream.StatusCode, gin.H{"error": upstream.Error(), "details": upstream.Body})
		return
	}

	h.logger.Error("card browse failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Card provider request failed"})
}

func (h *httpHandler) handleCollectionList(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	query := collection.ListQuery{
		Name:        c.Query("name"),
		Set:         c.Query("set"),
		Rarity:      c.Query("rarity"),
		Number:      c.Query("number"),
		PriceMin:    floatQuery(c, "priceMin"),
		PriceMax:    floatQuery(c, "priceMax"),
		AddedAfter:  timeQuery(c, "addedAfter"),
		AddedBefore: timeQuery(c, "addedBefore"),
		Assigned:    boolQuery(c, "assigned"),
		SortBy:      c.Query("sortBy"),
		SortDir:     c.Query("sortDir"),
		Page:        intQuery(c, "page", 1),
		PageSize:    intQuery(c, "pageSize", 24),
	}

	result, err := h.collection.List(c.Request.Context(), userID, query)
	if err != nil {
		h.logger.Error("collection list failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load collection"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type addCardPayload struct {
	CardID string `json:"cardId"`
}

func (h *httpHandler) handleCollectionAdd(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request addCardPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.CardID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "cardId must be a non-empty string",
			"code":  collection.KindInvalidCardID,
		})
		return
	}

	item, err := h.collection.Add(c.Request.Context(), userID, request.CardID)
	if err != nil {
		classified := collection.AsError(err)
		h.logger.Error("add collection card failed",
			zap.String("code", string(classified.Kind)),
			zap.Int("status", classified.Kind.HTTPStatus()),
			zap.String("user_id", userID),
			zap.String("card_id", request.CardID),
			zap.Error(err))

		payload := gin.H{"error": classified.Message, "code": classified.Kind}
		if classified.Details != "" {
			payload["details"] = classified.Details
		}
		c.JSON(classified.Kind.HTTPStatus(), payload)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *httpHandler) handleCollectionRemove(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	err := h.collection.Remove(c.Request.Context(), userID, c.Param("ownedCardId"))
	if err != nil {
		classified := collection.AsError(err)
		if classified.Kind == collection.KindNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		h.logger.Error("remove collection card failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove card"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleBinderList(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	result, err := h.binder.List(c.Request.Context(), userID, intQuery(c, "page", 1), intQuery(c, "pageSize", 250))
	if err != nil {
		h.logger.Error("binder list failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load binder"})
		return
	}

	c.JSON(http.StatusOK, result)
}

type assignSlotPayload struct {
	OwnedCardID string `json:"userCardId"`
	Page        *int   `json:"page"`
	Slot        *int   `json:"slot"`
}

func (h *httpHandler) handleBinderAssign(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	var request assignSlotPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		strings.TrimSpace(request.OwnedCardID) == "" ||
		request.Page == nil || request.Slot == nil ||
		!binder.ValidPage(*request.Page) || !binder.ValidSlot(*request.Slot) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userCardId, page>=1, and slot [0..8] are required"})
		return
	}

	err := h.binder.Assign(c.Request.Context(), userID, request.OwnedCardID, *request.Page, *request.Slot)
	if err != nil {
		switch {
		case errors.Is(err, binder.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found in user collection"})
		case errors.Is(err, binder.ErrInvalidPlacement):
			c.JSON(http.StatusBadRequest, gin.H{"error": "userCardId, page>=1, and slot [0..8] are required"})
		default:
			h.logger.Error("binder assign failed", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign binder slot"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) handleBinderUnassign(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	err := h.binder.Unassign(c.Request.Context(), userID, c.Param("ownedCardId"))
	if err != nil {
		if errors.Is(err, binder.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Binder slot assignment not found"})
			return
		}
		h.logger.Error("binder unassign failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign card"})
		return
	}

	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func floatQuery(c *gin.Context, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

func boolQuery(c *gin.Context, name string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "true":
		value := true
		return &value
	case "false":
		value := false
		return &value
	default:
		return nil
	}
}

func timeQuery(c *gin.Context, name string) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &value
}
