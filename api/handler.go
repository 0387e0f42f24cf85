package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"curve-engine/internal/curve"
	"curve-engine/internal/engine"
	"curve-engine/internal/model"
	"curve-engine/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	db        *pgxpool.Pool
	registry  *engine.Registry
	processor *engine.Processor
	secret    string
	logger    *zap.Logger
}

func NewHandler(db *pgxpool.Pool, registry *engine.Registry, processor *engine.Processor, secret string, logger *zap.Logger) *Handler {
	return &Handler{
		db:        db,
		registry:  registry,
		processor: processor,
		secret:    secret,
		logger:    logger,
	}
}

// Auth Handlers

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	var userID int64
	err = h.db.QueryRow(c.Request.Context(),
		"INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id",
		req.Email, string(hash)).Scan(&userID)

	if err != nil {
		h.logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "id": userID})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID int64
	var hash string
	err := h.db.QueryRow(c.Request.Context(),
		"SELECT id, password_hash FROM users WHERE email = $1", req.Email).Scan(&userID, &hash)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := GenerateToken(h.secret, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Launch Handlers

func (h *Handler) LaunchCurve(c *gin.Context) {
	var req struct {
		TokenID        string          `json:"token_id" binding:"required"`
		InitialPrice   decimal.Decimal `json:"initial_price"`
		MaxPrice       decimal.Decimal `json:"max_price"`
		PriceIncrement decimal.Decimal `json:"price_increment"`
		HumanOnlyPhase bool            `json:"human_only_phase"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.registry.Create(req.TokenID, model.CurveConfig{
		InitialPrice:   req.InitialPrice,
		MaxPrice:       req.MaxPrice,
		PriceIncrement: req.PriceIncrement,
		HumanOnlyPhase: req.HumanOnlyPhase,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, state.Snapshot(time.Now()))
}

// Trading Handlers

func (h *Handler) Trade(c *gin.Context) {
	var req struct {
		TokenID           string          `json:"token_id" binding:"required"`
		Amount            decimal.Decimal `json:"amount"`
		VerificationLevel string          `json:"verification_level"`
		ReputationScore   decimal.Decimal `json:"reputation_score"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("user_id")
	outcome := h.processor.ProcessTrade(c.Request.Context(), model.TradeAttempt{
		UserID:            fmt.Sprintf("%d", userID),
		TokenID:           req.TokenID,
		Amount:            req.Amount,
		VerificationLevel: model.VerificationLevel(req.VerificationLevel),
		ReputationScore:   req.ReputationScore,
		Timestamp:         time.Now(),
	})

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, outcome)
}

func (h *Handler) Quote(c *gin.Context) {
	var req struct {
		TokenID string          `json:"token_id" binding:"required"`
		Amount  decimal.Decimal `json:"amount"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.registry.Get(req.TokenID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	quote, err := state.Simulate(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Data Handlers

func (h *Handler) GetCurvePoints(c *gin.Context) {
	state, err := h.registry.Get(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	points := curve.DefaultSamplePoints
	if raw := c.Query("points"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			points = n
		}
	}

	c.JSON(http.StatusOK, curve.Sample(state.Config(), points))
}

func (h *Handler) GetState(c *gin.Context) {
	state, err := h.registry.Get(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state.Snapshot(time.Now()))
}

func (h *Handler) GetManipulationMetrics(c *gin.Context) {
	state, err := h.registry.Get(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state.AntiManipulationMetrics())
}

func (h *Handler) GetTradeHistory(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	records, err := storage.History(c.Request.Context(), h.db, c.Param("token"), limit)
	if err != nil {
		h.logger.Error("failed to query trade history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, records)
}
