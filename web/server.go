package web

import (
	"context"
	"fmt"
	"net/http"

	"article-finder/config"
	"article-finder/retriever"
	"article-finder/web/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
	config *config.Config
}

func NewServer(ret *retriever.Retriever, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router: router,
		logger: logger,
		config: config,
	}

	searchHandler := handlers.NewSearchHandler(ret, config, logger)
	router.POST("/search", searchHandler.Search)
	router.POST("/index", searchHandler.RebuildIndex)
	router.GET("/healthz", searchHandler.Health)

	return server
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.WebPort)
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
