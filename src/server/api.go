package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"holiday-pipeline/src/helpers"
	"holiday-pipeline/src/interfaces"
	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/metrics"
	"holiday-pipeline/src/models"

	"github.com/gin-gonic/gin"
)

// recentEvents is how many collection events are replayed to new clients.
const recentEvents = 50

var _ interfaces.IDataExchanger = (*APIServer)(nil)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

// APIServer exposes the persisted holiday data, a collect trigger, metrics
// and a websocket feed of collection events.
type APIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Collector interfaces.ICollector
	Metrics   *metrics.Metrics
	engine    *gin.Engine
	http      *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MCollectionEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Replay buffer for new clients
	recent     []models.MCollectionEvent
	stateMutex sync.RWMutex

	// Collections triggered over HTTP run one at a time
	collectMu sync.Mutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, collector interfaces.ICollector, m *metrics.Metrics, logger *logger.Logger) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     logger,
		Collector:  collector,
		Metrics:    m,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan models.MCollectionEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/statistics", s.getStatistics)
	api.GET("/holidays/:country/:year", s.getHolidays)
	api.POST("/collect/:country/:year", s.postCollect)

	s.engine.GET("/metrics", gin.WrapH(s.Metrics.Handler()))

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start runs the hub and blocks serving HTTP until Stop.
func (s *APIServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	go s.handleWebsockets()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	var latest int64
	if n := len(s.recent); n > 0 {
		latest = s.recent[n-1].Timestamp
	}
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"provider":      s.Config.Provider.Name,
		"connections":   connections,
		"latest_update": latest,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStatistics(c *gin.Context) {
	stats, err := s.Collector.GetDataStatistics(c.Request.Context())
	if err != nil {
		s.Logger.Error("Statistics failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHolidays(c *gin.Context) {
	country, year, ok := pairParams(c)
	if !ok {
		return
	}

	file, err := s.Collector.LoadHolidayData(c.Request.Context(), country, year)
	if err != nil {
		if errors.Is(err, helpers.ErrHolidayDataNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no data for %s/%d", country, year)})
			return
		}
		s.Logger.Error("Load %s/%d failed: %v", country, year, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, file)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postCollect(c *gin.Context) {
	country, year, ok := pairParams(c)
	if !ok {
		return
	}
	useCache := c.DefaultQuery("useCache", "true") != "false"

	s.collectMu.Lock()
	holidays, err := s.Collector.CollectHolidayData(c.Request.Context(), country, year, useCache)
	s.collectMu.Unlock()

	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"countryCode":   country,
		"year":          year,
		"totalHolidays": len(holidays),
		"holidays":      holidays,
	})
}
