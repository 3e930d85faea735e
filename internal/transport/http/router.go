package transporthttp

import (
	"context"
	"net/http"
	"strconv"

	"prowl/internal/account"
	"prowl/internal/bot"
	"prowl/internal/gateway/notifier"
	"prowl/internal/store"
	"prowl/internal/store/actionlog"

	"github.com/gin-gonic/gin"
)

// Router exposes the operator control plane: lifecycle triggers plus
// read-only views over config, balance, trades and candidates.
type Router struct {
	Bot      *bot.Bot
	State    *account.State
	Config   store.ConfigStore
	Trades   store.TradeLog
	Audit    *actionlog.Store
	Notifier notifier.TextNotifier
}

type strategyRequest struct {
	StrategyName string `json:"strategy_name" binding:"required"`
}

type leverageRequest struct {
	Leverage int `json:"leverage" binding:"required"`
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (r *Router) Register(group *gin.RouterGroup) {
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/restart", r.handleRestart)
	group.GET("/status", r.handleStatus)
	group.POST("/set_strategy", r.handleSetStrategy)
	group.POST("/set_leverage", r.handleSetLeverage)
	group.POST("/set_amount", r.handleSetAmount)
	group.GET("/config", r.handleConfig)
	group.GET("/balance", r.handleBalance)
	group.GET("/trades", r.handleTrades)
	group.GET("/candidates", r.handleCandidates)
	group.GET("/logs", r.handleLogs)
	group.GET("/pairs", r.handlePairs)
	group.GET("/position", r.handlePosition)
	group.POST("/send_telegram", r.handleSendTelegram)
}

func (r *Router) handleStart(c *gin.Context) {
	// the loop must outlive the request, so it runs off the background context
	if err := r.Bot.Start(context.Background()); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "bot is already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "bot started"})
}

func (r *Router) handleStop(c *gin.Context) {
	if !r.Bot.Running() {
		c.JSON(http.StatusOK, gin.H{"status": "bot is not running"})
		return
	}
	r.Bot.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "bot stopped"})
}

func (r *Router) handleRestart(c *gin.Context) {
	if r.Bot.Running() {
		r.Bot.Stop()
	}
	if err := r.Bot.Start(context.Background()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "bot restarted"})
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":  r.Bot.Running(),
		"strategy": r.Bot.Strategy(),
	})
}

func (r *Router) handleSetStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.Bot.SetStrategy(req.StrategyName)
	c.JSON(http.StatusOK, gin.H{"status": "strategy set to " + req.StrategyName})
}

func (r *Router) handleSetLeverage(c *gin.Context) {
	var req leverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.Bot.SetLeverage(req.Leverage); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "leverage set to " + strconv.Itoa(req.Leverage) + "x"})
}

func (r *Router) handleSetAmount(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.Bot.SetManualAmount(req.Amount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "manual amount updated"})
}

func (r *Router) handleConfig(c *gin.Context) {
	all, err := r.Config.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, all)
}

func (r *Router) handleBalance(c *gin.Context) {
	balance, err := r.State.Balance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	score, err := r.State.Score()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_balance": balance, "score": score})
}

func (r *Router) handleTrades(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	trades, err := r.Trades.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trades)
}

func (r *Router) handleCandidates(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	candidates, err := r.Audit.RecentCandidates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (r *Router) handleLogs(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	actions, err := r.Audit.RecentActions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (r *Router) handlePairs(c *gin.Context) {
	c.JSON(http.StatusOK, r.State.AvailablePairs())
}

func (r *Router) handlePosition(c *gin.Context) {
	pos, ok := r.Bot.CurrentPosition()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"open": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": !pos.State.Terminal(), "position": pos})
}

func (r *Router) handleSendTelegram(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := r.Notifier.SendText(req.Message); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
