package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/shopmate/backend/config"
	"github.com/shopmate/backend/internal/cache"
	"github.com/shopmate/backend/internal/catalog"
	"github.com/shopmate/backend/internal/chat"
	"github.com/shopmate/backend/internal/rank"
	"github.com/shopmate/backend/internal/remote"
	"github.com/shopmate/backend/session"
	"github.com/shopmate/backend/session/inmemory"
	"github.com/shopmate/backend/session/redisstore"
)

// Run wires the whole backend and serves until the listener fails.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	idx, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return err
	}
	weights := rank.WeightsFromConfig(cfg.Search)
	searcher := rank.NewSearcher(idx, weights)

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.Timeout,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Redis.Addr(), err)
		}
	}

	var sessions session.Store
	var janitor *Janitor
	if rdb != nil {
		sessions = redisstore.NewStore(rdb, cfg.Session.TTL)
	} else {
		mem := inmemory.NewStore(cfg.Session.TTL)
		sessions = mem
		janitor = NewJanitor(mem, cfg.Session.JanitorCron)
		janitor.Start()
		defer janitor.Stop()
		log.Printf("[SERVER] redis not configured, sessions are in-memory only")
	}

	resultCache := cache.New(rdb, cfg.Search.CacheTTL)
	remoteClient := remote.NewClient(cfg.Remote)
	controller := chat.NewController(sessions, remoteClient, cfg.Session.MaxMessages)

	api := e.Group("/api")
	sh := &SearchHandler{Remote: remoteClient, Local: searcher, Cache: resultCache, DefaultLimit: weights.DefaultLimit}
	sh.Register(api)
	ch := &ChatHandler{Sessions: sessions, Controller: controller, Remote: remoteClient}
	ch.Register(api)

	if addr == "" {
		addr = cfg.General.Listen
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s (catalog: %d products)", addr, idx.Len())
	return e.Start(addr)
}

func loadCatalog(ctx context.Context, cfg appconfig.CatalogConfig) (*catalog.Index, error) {
	switch cfg.Source {
	case "postgres":
		dsn, err := cfg.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return catalog.LoadPostgres(loadCtx, dsn)
	default:
		return catalog.LoadFile(cfg.FilePath)
	}
}
