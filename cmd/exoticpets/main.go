package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jmoiron/sqlx"

	"exoticpets/internal/auth"
	"exoticpets/internal/config"
	"exoticpets/internal/http/handlers"
	applog "exoticpets/internal/log"
	"exoticpets/internal/media"
	"exoticpets/internal/metrics"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/objectstore/memstore"
	"exoticpets/internal/repos"
	"exoticpets/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
		}
	}

	mode, err := objectstore.ParseMode(cfg.StoreMode)
	if err != nil {
		log.Fatal(err)
	}

	// The database is opened lazily: only SQL mode and SQL sessions need it.
	var db *sqlx.DB
	openDB := func() (*sqlx.DB, error) {
		if db != nil {
			return db, nil
		}
		d, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		db = d
		return db, nil
	}

	// ---------- Object store ----------
	store, mode, err := objectstore.Open(objectstore.Options{
		Mode:    mode,
		BaseURL: cfg.StoreURL,
		APIKey:  cfg.StoreAPIKey,
		Timeout: cfg.StoreTimeout,
		Local: func(m objectstore.Mode) (objectstore.Backend, error) {
			seed, err := loadSeed(cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			if m == objectstore.ModeMemory {
				ms := memstore.New()
				return ms, ms.Seed(seed)
			}
			d, err := openDB()
			if err != nil {
				return nil, err
			}
			repo := repos.NewObjectRepo(d)
			n, err := repo.Seed(context.Background(), seed)
			if n > 0 {
				log.Printf("[store] seeded %d objects from %s", n, cfg.SeedFile)
			}
			return repo, err
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[store] mode=%s", mode)

	policy, err := services.ParseDeletePolicy(cfg.CategoryDeletePolicy)
	if err != nil {
		log.Fatal(err)
	}
	svcOpts := services.Options{DeletePolicy: policy}
	if cfg.CloudinaryURL != "" {
		sink, err := media.NewCloudinary(cfg.CloudinaryURL, media.DefaultFolder)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
		svcOpts.Images = sink
		log.Printf("[media] uploads go to cloudinary folder %s", media.DefaultFolder)
	}
	api := services.NewAPI(store, svcOpts)

	gate, err := auth.NewGate(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Fatal(err)
	}

	// ---------- Sessions ----------
	sessCfg := session.Config{
		Expiration:     cfg.SessionTTL,
		KeyLookup:      "cookie:session_id",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	switch strings.ToLower(cfg.SessionStore) {
	case "redis":
		rs := repos.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rs.Ping(ctx); err != nil {
			log.Printf("[warn] redis %s unreachable: %v", cfg.RedisAddr, err)
		}
		cancel()
		sessCfg.Storage = rs
	case "memory":
		// fiber's default in-process storage
	default:
		d, err := openDB()
		if err != nil {
			log.Fatal(err)
		}
		ss := repos.NewSessionStorage(d)
		sessCfg.Storage = ss
		go sweepSessions(ss, time.Hour)
	}
	sessions := session.New(sessCfg)
	log.Printf("[session] store=%s ttl=%s", cfg.SessionStore, cfg.SessionTTL)

	// Templates & app
	engine := handlers.NewEngine(cfg.TemplatesDir)
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard; five images of up to 5 MiB fit
	app.Server().MaxRequestBodySize = 32 << 20

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New(helmet.Config{
		// product images may be inline data URIs or hosted elsewhere
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data: https: http:",
	}))
	app.Use(metrics.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics"
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler:   handlers.CSRFFailed,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	// cancelled on SIGINT/SIGTERM so in-flight page loads are dropped
	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Use(handlers.RequestContext(shutdownCtx, cfg.RequestTimeout))
	app.Use(auth.Middleware(sessions))

	// ---------- Static, health, metrics ----------
	log.Printf("[static] /static -> %s", cfg.StaticDir)
	app.Static("/static", cfg.StaticDir)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true, "store": string(mode)}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// ---------- App handlers ----------
	handlers.Register(app, handlers.NewDeps(api, gate))
	app.Use(handlers.NotFoundFallback)

	go func() {
		<-shutdownCtx.Done()
		log.Printf("[server] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func loadSeed(path string) ([]objectstore.Entity, error) {
	if path == "" {
		return nil, nil
	}
	return objectstore.LoadSeed(path)
}

// sweepSessions drops expired rows from the SQL session table.
func sweepSessions(s *repos.SessionStorage, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for range t.C {
		n, err := s.DeleteExpired()
		if err != nil {
			applog.Error(nil, "session.sweep.fail", err, nil)
			continue
		}
		if n > 0 {
			applog.Info(nil, "session.sweep", map[string]any{"deleted": n})
		}
	}
}
