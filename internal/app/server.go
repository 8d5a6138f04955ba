package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/job"
	"github.com/vk/taskgrid/internal/orchestrator"
	"github.com/vk/taskgrid/internal/submission"
)

const shutdownTimeout = 5 * time.Second

// statusServer exposes health, metrics and the orchestrator's entities over
// HTTP while a run is in progress.
type statusServer struct {
	logger *slog.Logger
	server *http.Server
}

func newStatusServer(ctx context.Context, port int, orc *orchestrator.Orchestrator, gatherer prometheus.Gatherer) *statusServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, orc, gatherer)

	return &statusServer{
		logger: ctxlog.FromContext(ctx),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// registerRoutes mounts every status endpoint on router.
func registerRoutes(router *gin.Engine, orc *orchestrator.Orchestrator, gatherer prometheus.Gatherer) {
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	router.GET("/jobs", func(c *gin.Context) {
		jobs := orc.Jobs()
		recs := make([]job.Record, 0, len(jobs))
		for _, j := range jobs {
			recs = append(recs, j.Record())
		}
		c.JSON(http.StatusOK, recs)
	})
	router.GET("/jobs/:id", func(c *gin.Context) {
		j, ok := orc.Job(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("job %s not found", c.Param("id"))})
			return
		}
		c.JSON(http.StatusOK, j.Record())
	})

	router.GET("/submissions", func(c *gin.Context) {
		subs := orc.Submissions()
		recs := make([]submission.Record, 0, len(subs))
		for _, s := range subs {
			recs = append(recs, s.Record())
		}
		c.JSON(http.StatusOK, recs)
	})
	router.GET("/submissions/:id", func(c *gin.Context) {
		s, ok := orc.Submission(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("submission %s not found", c.Param("id"))})
			return
		}
		c.JSON(http.StatusOK, s.Record())
	})
}

// start runs the server in a goroutine so it doesn't block.
func (s *statusServer) start() {
	go func() {
		s.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/health", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
}

func (s *statusServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("🩺 Shutting down status server...")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Status server shutdown failed", "error", err)
	}
}
