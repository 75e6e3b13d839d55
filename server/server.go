// Package server hosts the HTTP API in front of the merge and aggregation
// engines.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fwat/internal/config"
	"fwat/server/handlers"
	"fwat/server/middleware"
	"fwat/server/services"
)

// Server wires the gin engine, middleware and handlers together.
type Server struct {
	cfg           *config.Config
	reportService *services.ReportService
	httpServer    *http.Server
}

// NewServer creates a server over the given report service.
func NewServer(cfg *config.Config, reportService *services.ReportService) *Server {
	return &Server{
		cfg:           cfg,
		reportService: reportService,
	}
}

// Start runs the HTTP server until Shutdown is called. It blocks.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	s.registerHandlers(router)

	s.httpServer = &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: router,
	}

	log.Printf("API listening on port %s", s.cfg.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// registerHandlers registers all routes.
func (s *Server) registerHandlers(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "fwat",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	reportHandler := handlers.NewReportHandler(s.reportService)

	api := router.Group("/api")
	reportAPI := api.Group("/report")
	{
		reportAPI.POST("/run", reportHandler.HandleRunMerge)
		reportAPI.GET("/stats", reportHandler.HandleLastStats)
		reportAPI.GET("/counters", reportHandler.HandleCounterReport)
		reportAPI.GET("/categories", reportHandler.HandleCategoryReport)
		reportAPI.GET("/series", reportHandler.HandleSeries)
	}
}
