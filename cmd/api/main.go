package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registro/internal/config"
	"registro/internal/export"
	"registro/internal/httpmiddleware"
	"registro/internal/ledger"
	"registro/internal/queue"
	"registro/internal/register"
	"registro/internal/roster"
	"registro/internal/scan"
	"registro/internal/slot"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()
	loc := cfg.Location()

	var (
		store       slot.Slot
		redisClient *slot.Redis
	)
	switch cfg.SlotBackend {
	case "memory":
		store = slot.NewMemory()
	case "redis":
		redisClient = slot.NewRedis(cfg.RedisAddr, cfg.SlotName)
		store = redisClient
	default:
		sqliteSlot, err := slot.OpenSQLite(cfg.SQLitePath, cfg.SlotName)
		if err != nil {
			return fmt.Errorf("open sqlite slot: %w", err)
		}
		defer sqliteSlot.Close()
		store = sqliteSlot
	}

	book := ledger.New(ctx, store, loc)
	log.Printf("ledger loaded: %d events", book.Len())

	// Roster load fails open: a dead reference source degrades every scan
	// to the visitor path instead of blocking startup.
	var src roster.Source
	if cfg.RosterURL != "" {
		src = roster.NewHTTPSource(cfg.RosterURL)
	} else {
		src = roster.FileSource{Path: cfg.RosterPath}
	}
	people, err := roster.Load(ctx, src)
	if err != nil {
		log.Printf("warning: roster load failed, all codes resolve to visitor: %v", err)
	} else {
		log.Printf("roster loaded: %d enrolled", people.Len())
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		if redisClient == nil {
			redisClient = slot.NewRedis(cfg.RedisAddr, cfg.SlotName)
		}
		q = queue.NewRedisQueue(redisClient.Client(), "registro:notifications")
	} else {
		q = queue.NewInMemory(64)
	}

	gate := scan.NewGate(cfg.QuietPeriod)
	svc := register.NewService(people, book, gate, q)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		slotHealthy := store.Healthy(c.Request.Context())
		status := http.StatusOK
		if !slotHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "slot": slotHealthy, "roster": people.Len()})
	})

	r.POST("/v1/scans", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := svc.Scan(c.Request.Context(), req.Code)
		if err != nil {
			var storage *ledger.StorageError
			if errors.As(err, &storage) {
				log.Printf("warning: %v", storage)
				c.JSON(http.StatusCreated, gin.H{
					"outcome": res.Outcome, "event": res.Event,
					"persisted": false, "error": storage.Error(),
				})
				return
			}
			respondError(c, err)
			return
		}
		switch res.Outcome {
		case register.Ignored:
			c.JSON(http.StatusOK, gin.H{"outcome": res.Outcome})
		case register.NeedsVisitor:
			c.JSON(http.StatusOK, gin.H{"outcome": res.Outcome, "code": res.RawCode})
		default:
			c.JSON(http.StatusCreated, gin.H{"outcome": res.Outcome, "event": res.Event})
		}
	})

	r.POST("/v1/students", func(c *gin.Context) {
		var req struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		evt, err := svc.RegisterStudent(c.Request.Context(), req.Code)
		respondEvent(c, evt, err)
	})

	r.POST("/v1/visitors", func(c *gin.Context) {
		var req struct {
			Code       string `json:"code"`
			Name       string `json:"name" binding:"required"`
			NationalID string `json:"national_id" binding:"required"`
			Email      string `json:"email"`
			Reason     string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		evt, err := svc.RegisterVisitor(c.Request.Context(), register.VisitorInput{
			Code:       req.Code,
			Name:       req.Name,
			NationalID: req.NationalID,
			Email:      req.Email,
			Reason:     req.Reason,
		})
		respondEvent(c, evt, err)
	})

	r.GET("/v1/attendances", func(c *gin.Context) {
		personType := ledger.PersonType(c.Query("type"))
		if personType != "" && !personType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be student or visitor"})
			return
		}
		events := ledger.View(book.Snapshot(), c.Query("date"), personType)
		c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
	})

	r.GET("/v1/attendances/summary", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			date = book.Today()
		}
		counts := ledger.DailyCounts(book.Snapshot(), date)
		c.JSON(http.StatusOK, gin.H{"date": date, "counts": counts})
	})

	r.DELETE("/v1/attendances/:timestamp", func(c *gin.Context) {
		ts, err := time.Parse(time.RFC3339Nano, c.Param("timestamp"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be RFC3339"})
			return
		}
		if err := book.Delete(c.Request.Context(), ts); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": c.Param("timestamp")})
	})

	r.DELETE("/v1/attendances", func(c *gin.Context) {
		if err := book.Clear(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	})

	r.GET("/v1/export", func(c *gin.Context) {
		events := book.Snapshot()
		if len(events) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no events to export"})
			return
		}

		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, export.Rows(events, loc)); err != nil {
			log.Printf("export failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}

		filename := fmt.Sprintf("asistencias_%s.xlsx", book.Today())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// respondEvent answers an insert path. A storage error means the event was
// recorded in memory but the flush failed; the response carries the event
// anyway, flagged unpersisted.
func respondEvent(c *gin.Context, evt ledger.Event, err error) {
	if err == nil {
		c.JSON(http.StatusCreated, gin.H{"event": evt})
		return
	}
	var storage *ledger.StorageError
	if errors.As(err, &storage) {
		log.Printf("warning: %v", storage)
		c.JSON(http.StatusCreated, gin.H{"event": evt, "persisted": false, "error": storage.Error()})
		return
	}
	respondError(c, err)
}

// respondError maps the ledger error taxonomy to HTTP statuses. A storage
// error means the mutation applied but the flush did not; the request
// still succeeds, flagged unpersisted.
func respondError(c *gin.Context, err error) {
	var (
		dup      *ledger.DuplicateError
		invalid  *ledger.ValidationError
		notFound *ledger.NotFoundError
		unknown  *register.UnknownCodeError
		storage  *ledger.StorageError
	)
	switch {
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{"error": unknown.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &storage):
		log.Printf("warning: %v", storage)
		c.JSON(http.StatusOK, gin.H{"persisted": false, "error": storage.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
