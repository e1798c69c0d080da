package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lounge-monitor/src/helpers"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
	"lounge-monitor/src/monitor"
	"lounge-monitor/src/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Monitor *monitor.Engine
	Poller  *monitor.Poller
	Tokens  *monitor.TokenManager
	Session *session.Store
	engine  *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MMonitorEvent
	register   chan *Client
	unregister chan *Client

	base      context.Context
	startedAt time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(
	cfg *models.MConfig,
	log *logger.Logger,
	mon *monitor.Engine,
	poller *monitor.Poller,
	tokens *monitor.TokenManager,
	sess *session.Store,
	registry *prometheus.Registry,
) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:  cfg,
		Logger:  log,
		Monitor: mon,
		Poller:  poller,
		Tokens:  tokens,
		Session: sess,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel so a burst of events never blocks a timer loop
		broadcast:  make(chan models.MMonitorEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		startedAt:  time.Now(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes(registry)
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes(registry *prometheus.Registry) {
	s.engine.GET("/health", s.getHealth)
	s.engine.GET("/ping", s.getPing)

	// Watch lifecycle
	s.engine.GET("/api/products", s.getProducts)
	s.engine.POST("/api/products/fetch", s.fetchProduct)
	s.engine.POST("/api/products/add", s.addProduct)
	s.engine.DELETE("/api/products/:key", s.deleteProduct)
	s.engine.PUT("/api/products/:key/sizes", s.updateSizes)
	s.engine.POST("/api/products/:key/reset", s.resetProduct)
	s.engine.GET("/api/products/history", s.getWatchHistory)
	s.engine.GET("/api/alerts/history", s.getAlertHistory)

	// Credentials + anti-bot session
	s.engine.POST("/api/config/token", s.updateToken)
	s.engine.POST("/api/config/refresh", s.manualRefresh)
	s.engine.POST("/api/config/session", s.updateSession)
	s.engine.GET("/api/config/autocart", s.getAutoReserve)
	s.engine.POST("/api/config/autocart", s.setAutoReserve)

	// Cart
	s.engine.GET("/api/cart", s.getCart)
	s.engine.POST("/api/cart/extend", s.extendCart)
	s.engine.POST("/api/cart/watch/start", s.startCartWatch)
	s.engine.POST("/api/cart/watch/stop", s.stopCartWatch)

	// Manual reservation probe
	s.engine.POST("/api/test/addtocart", s.testAddToCart)

	// Prometheus + WebSocket
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start(ctx context.Context) error {
	s.base = ctx
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets(ctx)

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Engine exposes the router for handler tests.
func (s *APIServer) Engine() *gin.Engine {
	return s.engine
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	flags := s.Session.Flags()
	cartRunning := s.Monitor.Cart != nil && s.Monitor.Cart.Running()

	c.JSON(200, gin.H{
		"status":          "ok",
		"uptimeSeconds":   int(time.Since(s.startedAt).Seconds()),
		"watchedProducts": s.Monitor.Registry.Len(),
		"pollerRunning":   s.Poller.Running(),
		"tokenRefresh": gin.H{
			"active":      s.Tokens.Active(),
			"lastRefresh": s.Tokens.LastRefresh(),
		},
		"cartWatchRunning": cartRunning,
		"autoReserve":      s.Monitor.AutoReserve(),
		"session":          flags,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPing(c *gin.Context) {
	c.JSON(200, gin.H{"pong": true})
}

// -----------------------------------------------------------------------------
// Watch Lifecycle Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getProducts(c *gin.Context) {
	c.JSON(200, gin.H{
		"products":     s.Monitor.Registry.Snapshots(),
		"isMonitoring": s.Poller.Running(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) fetchProduct(c *gin.Context) {
	var req models.MFetchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	campaignID, articleID, err := resolveArticle(req.CampaignID, req.ArticleID, req.URL)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	info, sizes, err := s.Monitor.FetchPreview(c.Request.Context(), campaignID, articleID)
	if err != nil {
		c.JSON(helpers.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{
		"campaignId": campaignID,
		"articleId":  articleID,
		"product":    info,
		"sizes":      sizes,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) addProduct(c *gin.Context) {
	var req models.MAddProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	campaignID, articleID, err := resolveArticle(req.CampaignID, req.ArticleID, req.URL)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	snap, err := s.Monitor.AddWatch(c.Request.Context(), campaignID, articleID, req.WatchedSizes)
	if err != nil {
		c.JSON(helpers.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	// First watch arms the poll loop.
	if s.base != nil {
		s.Poller.Start(s.base)
	}
	c.JSON(201, gin.H{"product": snap})
}

// -----------------------------------------------------------------------------

func (s *APIServer) deleteProduct(c *gin.Context) {
	key := c.Param("key")
	if !s.Monitor.RemoveWatch(key) {
		c.JSON(404, gin.H{"error": "product not found"})
		return
	}
	// Nothing left to poll.
	if s.Monitor.Registry.Len() == 0 {
		s.Poller.Stop()
	}
	c.JSON(200, gin.H{"removed": key})
}

// -----------------------------------------------------------------------------

func (s *APIServer) updateSizes(c *gin.Context) {
	var req models.MUpdateSizesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	if err := s.Monitor.Registry.UpdateWatchedSizes(key, req.WatchedSizes); err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}
	snap, _ := s.Monitor.Registry.Snapshot(key)
	c.JSON(200, gin.H{"product": snap})
}

// -----------------------------------------------------------------------------

func (s *APIServer) resetProduct(c *gin.Context) {
	key := c.Param("key")
	if err := s.Monitor.Registry.ResetNotified(key); err != nil {
		c.JSON(404, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"reset": key})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getWatchHistory(c *gin.Context) {
	limit := parseLimit(c, 50, 500)
	entries, err := s.Monitor.History.ListWatchHistory(limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"history": entries})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getAlertHistory(c *gin.Context) {
	limit := parseLimit(c, 50, 500)
	entries, err := s.Monitor.History.ListAlertHistory(limit)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"history": entries})
}

// -----------------------------------------------------------------------------
// Credential Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) updateToken(c *gin.Context) {
	var req models.MTokenUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if req.Token == "" && req.RefreshToken == "" {
		c.JSON(400, gin.H{"error": "token or refreshToken required"})
		return
	}

	s.Session.SetTokens(req.Token, req.RefreshToken)
	// Fresh credentials re-arm the expiry alert.
	s.Monitor.Notifier.ResetTokenExpired()
	if req.RefreshToken != "" && s.base != nil {
		s.Tokens.EnsureStarted(s.base)
	}
	c.JSON(200, gin.H{"session": s.Session.Flags()})
}

// -----------------------------------------------------------------------------

// manualRefresh forces one token exchange right now with the stored refresh
// credential.
func (s *APIServer) manualRefresh(c *gin.Context) {
	refreshToken := s.Session.RefreshToken()
	if refreshToken == "" {
		c.JSON(400, gin.H{"error": "no refresh token configured"})
		return
	}

	pair, err := s.Monitor.Catalog.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		c.JSON(helpers.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.Session.ApplyRefresh(pair)
	s.Monitor.Notifier.ResetTokenExpired()
	c.JSON(200, gin.H{
		"expiresIn": pair.ExpiresIn,
		"session":   s.Session.Flags(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) updateSession(c *gin.Context) {
	var req models.MSessionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if req.Clear {
		s.Session.ClearSecurity()
	} else {
		if req.Cookies == nil && req.SensorData == "" {
			c.JSON(400, gin.H{"error": "cookies or sensorData required"})
			return
		}
		s.Session.ReplaceSecurity(req.Cookies, req.SensorData)
	}
	c.JSON(200, gin.H{"session": s.Session.Flags()})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getAutoReserve(c *gin.Context) {
	c.JSON(200, gin.H{"enabled": s.Monitor.AutoReserve()})
}

func (s *APIServer) setAutoReserve(c *gin.Context) {
	var req models.MAutoReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	s.Monitor.SetAutoReserve(req.Enabled)
	c.JSON(200, gin.H{"enabled": req.Enabled})
}

// -----------------------------------------------------------------------------
// Cart Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getCart(c *gin.Context) {
	state, err := s.Monitor.Catalog.GetCart(c.Request.Context())
	if err != nil {
		c.JSON(helpers.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

func (s *APIServer) extendCart(c *gin.Context) {
	state, err := s.Monitor.Catalog.ExtendCart(c.Request.Context())
	if err != nil {
		c.JSON(helpers.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, state)
}

// -----------------------------------------------------------------------------

func (s *APIServer) startCartWatch(c *gin.Context) {
	if s.Monitor.Cart == nil {
		c.JSON(500, gin.H{"error": "cart manager unavailable"})
		return
	}
	s.Monitor.Cart.EnsureRunning()
	c.JSON(200, gin.H{"running": s.Monitor.Cart.Running()})
}

func (s *APIServer) stopCartWatch(c *gin.Context) {
	if s.Monitor.Cart == nil {
		c.JSON(500, gin.H{"error": "cart manager unavailable"})
		return
	}
	s.Monitor.Cart.Stop()
	c.JSON(200, gin.H{"running": s.Monitor.Cart.Running()})
}

// -----------------------------------------------------------------------------
// Manual Reservation Probe
// -----------------------------------------------------------------------------

func (s *APIServer) testAddToCart(c *gin.Context) {
	var req models.MTestAddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if req.ConfigSku == "" || req.SimpleSku == "" || req.CampaignID == "" {
		c.JSON(400, gin.H{"error": "configSku, simpleSku and campaignId required"})
		return
	}

	result, err := s.Monitor.TestReservation(c.Request.Context(), req.ConfigSku, req.SimpleSku, req.CampaignID, req.UseSecuritySession)
	if err != nil {
		c.JSON(helpers.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	c.JSON(status, result)
}
