package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPageSize  = 20
	defaultCacheTTL  = 5 * time.Minute
	maxErrorBodySize = 64 * 1024

	opSearch     = "search"
	opCardByID   = "card_by_id"
	opSets       = "sets"
	opCardsBySet = "cards_by_set"
)

var errMissingBaseURL = errors.New("provider: base url is required")

// ClientConfig describes the dependencies of the gateway client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      Cache
	CacheTTL   time.Duration
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Client fronts the external card-data provider with a short-TTL cache.
// A cache miss triggers exactly one upstream call; failures are never cached
// and never retried here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	clock      func() time.Time
	logger     *zap.Logger
}

// NewClient constructs a gateway client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	cache := cfg.Cache
	if cache == nil {
		store, err := NewTTLCache(2048, clock)
		if err != nil {
			return nil, err
		}
		cache = store
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   ttl,
		clock:      clock,
		logger:     logger,
	}, nil
}

// SearchQuery carries the normalized search inputs.
type SearchQuery struct {
	Name     string
	Number   string
	Page     int
	PageSize int
}

// SearchResult is a page of cards matching a search.
type SearchResult struct {
	Data       []Card `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Count      int    `json:"count"`
	TotalCount int    `json:"totalCount"`
}

// SearchCards looks up cards by name with an optional in-set number filter.
func (c *Client) SearchCards(ctx context.Context, query SearchQuery) (SearchResult, error) {
	name := strings.TrimSpace(query.Name)
	if name == "" {
		return SearchResult{}, ErrNameRequired
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	key := strings.Join([]string{
		opSearch,
		"name=" + name,
		"number=" + strings.TrimSpace(query.Number),
		"page=" + strconv.Itoa(page),
		"size=" + strconv.Itoa(pageSize),
	}, ":")
	if result, ok := cacheLookup[SearchResult](c, opSearch, key); ok {
		return result, nil
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("pagination:page", strconv.Itoa(page))
	params.Set("pagination:itemsPerPage", strconv.Itoa(pageSize))
	if normalized := NormalizeCardNumber(query.Number); normalized != "" {
		params.Set("localId", "eq:"+normalized)
	}

	var raw []Card
	if err := c.get(ctx, opSearch, "/cards", params, &raw); err != nil {
		return SearchResult{}, err
	}

	data := make([]Card, 0, len(raw))
	for _, card := range raw {
		data = append(data, withImageURLs(card))
	}

	result := SearchResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Count:      len(data),
		TotalCount: len(data),
	}
	c.cache.Set(key, result, c.cacheTTL)
	return result, nil
}

// CardByID fetches one card by its provider identifier.
func (c *Client) CardByID(ctx context.Context, cardID string) (Card, error) {
	id := strings.TrimSpace(cardID)
	if id == "" {
		return Card{}, ErrCardIDRequired
	}

	key := opCardByID + ":" + id
	if card, ok := cacheLookup[Card](c, opCardByID, key); ok {
		return card, nil
	}

	var raw Card
	if err := c.get(ctx, opCardByID, "/cards/"+url.PathEscape(id), nil, &raw); err != nil {
		return Card{}, err
	}

	card := withImageURLs(raw)
	c.cache.Set(key, card, c.cacheTTL)
	return card, nil
}

// Sets lists every set known to the provider.
func (c *Client) Sets(ctx context.Context) ([]Set, error) {
	key := opSets + ":all"
	if sets, ok := cacheLookup[[]Set](c, opSets, key); ok {
		return sets, nil
	}

	var sets []Set
	if err := c.get(ctx, opSets, "/sets", nil, &sets); err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []Set{}
	}

	c.cache.Set(key, sets, c.cacheTTL)
	return sets, nil
}

// CardsBySet fetches every card contained in the identified set.
func (c *Client) CardsBySet(ctx context.Context, setID string) ([]Card, error) {
	id := strings.TrimSpace(setID)
	if id == "" {
		return nil, ErrSetIDRequired
	}

	key := opCardsBySet + ":" + id
	if cards, ok := cacheLookup[[]Card](c, opCardsBySet, key); ok {
		return cards, nil
	}

	var detail setDetail
	if err := c.get(ctx, opCardsBySet, "/sets/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(detail.Cards))
	for _, card := range detail.Cards {
		cards = append(cards, withImageURLs(card))
	}

	c.cache.Set(key, cards, c.cacheTTL)
	return cards, nil
}

// cacheLookup counts a hit only for an entry of the expected type; anything
// else is a miss and falls through to a fetch.
func cacheLookup[T any](c *Client, operation, key string) (T, bool) {
	if raw, ok := c.cache.Get(key); ok {
		if value, ok := raw.(T); ok {
			CacheHits.WithLabelValues(operation).Inc()
			return value, true
		}
	}
	CacheMisses.WithLabelValues(operation).Inc()
	var zero T
	return zero, false
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, target any) error {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("provider: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		UpstreamErrors.WithLabelValues(operation).Inc()
		return fmt.Errorf("provider: request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		UpstreamErrors.WithLabelValues(operation).Inc()
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodySize))
		c.logger.Warn("provider returned non-success status",
			zap.String("operation", operation),
			zap.Int("status", response.StatusCode))
		return &UpstreamError{StatusCode: response.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		UpstreamErrors.WithLabelValues(operation).Inc()
		return fmt.Errorf("provider: decode response: %w", err)
	}
	return nil
}
