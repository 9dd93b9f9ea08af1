package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jpdavalos423/pokecollect/internal/binder"
	"github.com/jpdavalos423/pokecollect/internal/cards"
	"github.com/jpdavalos423/pokecollect/internal/collection"
	"github.com/jpdavalos423/pokecollect/internal/provider"
	"github.com/jpdavalos423/pokecollect/internal/users"
)

const userIDContextKey = "pokecollect_user_id"

var (
	errMissingTokenManager      = errors.New("token manager dependency required")
	errMissingUsersService      = errors.New("users service dependency required")
	errMissingCardBrowser       = errors.New("card browser dependency required")
	errMissingCardStore         = errors.New("card metadata store dependency required")
	errMissingCollectionService = errors.New("collection service dependency required")
	errMissingBinderService     = errors.New("binder service dependency required")
)

// TokenManager issues and validates session tokens.
type TokenManager interface {
	IssueToken(userID, email string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// CardBrowser exposes the provider gateway's read operations.
type CardBrowser interface {
	SearchCards(ctx context.Context, query provider.SearchQuery) (provider.SearchResult, error)
	CardByID(ctx context.Context, cardID string) (provider.Card, error)
	Sets(ctx context.Context) ([]provider.Set, error)
	CardsBySet(ctx context.Context, setID string) ([]provider.Card, error)
}

// Dependencies wires the HTTP handler to its collaborators.
type Dependencies struct {
	TokenManager TokenManager
	Users        *users.Service
	Cards        *cards.Store
	Browser      CardBrowser
	Collection   *collection.Service
	Binder       *binder.Service
	Logger       *zap.Logger
}

// NewHTTPHandler assembles the gin router for the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Browser == nil {
		return nil, errMissingCardBrowser
	}
	if deps.Cards == nil {
		return nil, errMissingCardStore
	}
	if deps.Collection == nil {
		return nil, errMissingCollectionService
	}
	if deps.Binder == nil {
		return nil, errMissingBinderService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:     deps.TokenManager,
		users:      deps.Users,
		cards:      deps.Cards,
		browser:    deps.Browser,
		collection: deps.Collection,
		binder:     deps.Binder,
		logger:     logger,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": "pokecollect-api"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.POST("/auth/register", handler.handleRegister)
	api.POST("/auth/login", handler.handleLogin)
	api.POST("/auth/logout", handler.handleLogout)

	protected := api.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/auth/me", handler.handleMe)

	protected.GET("/cards/search", handler.handleCardSearch)
	protected.GET("/cards/sets", handler.handleSets)
	protected.GET("/cards/set/:setId", handler.handleCardsBySet)
	protected.GET("/cards/:cardId", handler.handleCardByID)

	protected.GET("/collection", handler.handleCollectionList)
	protected.POST("/collection", handler.handleCollectionAdd)
	protected.DELETE("/collection/:ownedCardId", handler.handleCollectionRemove)

	protected.GET("/binder", handler.handleBinderList)
	protected.PUT("/binder/slots", handler.handleBinderAssign)
	protected.DELETE("/binder/slots/:ownedCardId", handler.handleBinderUnassign)

	return router, nil
}

type httpHandler struct {
	tokens     TokenManager
	users      *users.Service
	cards      *cards.Store
	browser    CardBrowser
	collection *collection.Service
	binder     *binder.Service
	logger     *zap.Logger
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type accountPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Register(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidRegistration):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password (min 8 chars) are required"})
		case errors.Is(err, users.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		default:
			h.logger.Error("registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		}
		return
	}

	token, _, err := h.tokens.IssueToken(account.ID, account.Email)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		Token: token,
		User:  userPayload{ID: account.ID, Email: account.Email},
	})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	account, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	token, _, err := h.tokens.IssueToken(account.ID, account.Email)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Token: token,
		User:  userPayload{ID: account.ID, Email: account.Email},
	})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) handleMe(c *gin.Context) {
	userID := c.GetString(userIDContextKey)

	account, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("account lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": accountPayload{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}
