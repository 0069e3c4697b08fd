// Package api exposes the session control endpoints that share the store
// with the trading loop.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/web3guy0/basebot/internal/chain"
	"github.com/web3guy0/basebot/internal/config"
	"github.com/web3guy0/basebot/internal/database"
	"github.com/web3guy0/basebot/internal/trader"
)

// BalanceReader is the chain-client surface the status endpoint needs.
type BalanceReader interface {
	NativeBalance(ctx context.Context, addr common.Address) (decimal.Decimal, error)
}

// EngineStatus reports the trading loop's observable state.
type EngineStatus interface {
	State() trader.State
}

type Server struct {
	store  *database.Database
	chain  BalanceReader
	engine EngineStatus
	srv    *http.Server
}

func NewServer(cfg *config.Config, store *database.Database, balances BalanceReader, engine EngineStatus) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		store:  store,
		chain:  balances,
		engine: engine,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router(),
	}
	return s
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/start", s.startTrading)
	r.GET("/status", s.tradingStatus)
	r.POST("/stop", s.stopTrading)

	r.GET("/health", s.health)
	r.GET("/transactions", s.transactions)
	r.GET("/logs", s.logs)

	return r
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves the API in the background.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()
	log.Info().Str("addr", s.srv.Addr).Msg("HTTP API listening")
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// StartRequest is the POST /start body.
type StartRequest struct {
	Token      string          `json:"token" binding:"required"`
	BuyAmount  decimal.Decimal `json:"buyAmount"`
	SellAmount decimal.Decimal `json:"sellAmount"`
	Frequency  int             `json:"frequency"`
	WalletID   uint            `json:"walletId"`
	Status     bool            `json:"status"`
	Slippage   decimal.Decimal `json:"slippage"`
}

func (s *Server) startTrading(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := &database.TradingSession{
		Token:      req.Token,
		BuyAmount:  req.BuyAmount,
		SellAmount: req.SellAmount,
		Frequency:  req.Frequency,
		Slippage:   req.Slippage,
		WalletID:   req.WalletID,
		Status:     req.Status,
	}
	err := s.store.StartSession(session)
	if errors.Is(err, database.ErrSessionActive) {
		active, aerr := s.store.ActiveSessions()
		if aerr != nil {
			s.serverError(c, aerr)
			return
		}
		// 401 on conflict, kept for compatibility with existing clients
		c.JSON(http.StatusUnauthorized, gin.H{
			"message":        "Trading already started",
			"error":          "Trading already started",
			"startedTrading": active,
		})
		return
	}
	if err != nil {
		s.serverError(c, err)
		return
	}

	log.Info().Uint("session", session.ID).Uint("wallet", session.WalletID).Msg("Trading session started")
	c.JSON(http.StatusOK, gin.H{"message": "Trading Started!", "currentTrading": session})
}

func (s *Server) tradingStatus(c *gin.Context) {
	session, err := s.store.LatestSession()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 300 means "no session was ever created", kept for client compatibility
		c.JSON(http.StatusMultipleChoices, gin.H{
			"message":        "Started trading does not exist",
			"currentTrading": nil,
		})
		return
	}
	if err != nil {
		s.serverError(c, err)
		return
	}

	wallet, err := s.store.GetWallet(session.WalletID)
	if err != nil {
		s.serverError(c, err)
		return
	}
	addr, err := chain.ParseAddress(wallet.Address)
	if err != nil {
		s.serverError(c, err)
		return
	}
	balance, err := s.chain.NativeBalance(c.Request.Context(), addr)
	if err != nil {
		s.serverError(c, err)
		return
	}

	encoded, err := encodeWallet(wallet)
	if err != nil {
		s.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Trading Started!",
		"currentTrading": session,
		"selectedWallet": encoded,
		"balance":        balance,
	})
}

func (s *Server) stopTrading(c *gin.Context) {
	if err := s.store.StopActiveSessions(); err != nil {
		s.serverError(c, err)
		return
	}

	session, err := s.store.LatestSession()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"message": "Trading Stopped!", "latestInfo": nil})
		return
	}
	if err != nil {
		s.serverError(c, err)
		return
	}

	log.Info().Msg("Trading stopped")
	c.JSON(http.StatusOK, gin.H{"message": "Trading Stopped!", "latestInfo": session})
}

func (s *Server) health(c *gin.Context) {
	state := s.engine.State()
	code := http.StatusOK
	if state == trader.StateFaulted {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"state": state.String()})
}

func (s *Server) transactions(c *gin.Context) {
	txns, err := s.store.RecentTransactions(limitParam(c))
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func (s *Server) logs(c *gin.Context) {
	logs, err := s.store.RecentLogs(limitParam(c))
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) serverError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Error", "serverError": err.Error()})
}

// encodeWallet returns the wallet row as base64-encoded JSON, the opaque
// shape the status endpoint's consumers expect.
func encodeWallet(wallet *database.Wallet) (string, error) {
	raw, err := json.Marshal(wallet)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func limitParam(c *gin.Context) int {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	return limit
}
