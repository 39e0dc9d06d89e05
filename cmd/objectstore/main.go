// Command objectstore runs a local stand-in for the hosted object store: the
// same REST contract, backed by SQL or memory, for development and demos.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"exoticpets/internal/config"
	"exoticpets/internal/http/storeapi"
	applog "exoticpets/internal/log"
	"exoticpets/internal/metrics"
	"exoticpets/internal/objectstore"
	"exoticpets/internal/objectstore/memstore"
	"exoticpets/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	addr := flag.String("addr", cfg.StoreAddr, "listen address")
	seed := flag.String("seed", cfg.SeedFile, "JSON or YAML file of entities to load at startup")
	driver := flag.String("db-driver", cfg.DBDriver, "sqlite, mysql or postgres")
	dsn := flag.String("db-dsn", cfg.DBDSN, "database DSN")
	memory := flag.Bool("memory", false, "keep everything in memory")
	flag.Parse()

	applog.SetOutput(os.Stdout)

	var entities []objectstore.Entity
	if *seed != "" {
		if entities, err = objectstore.LoadSeed(*seed); err != nil {
			log.Fatal(err)
		}
	}

	var backend objectstore.Backend
	if *memory {
		m := memstore.New()
		if err := m.Seed(entities); err != nil {
			log.Fatal(err)
		}
		backend = m
		log.Printf("[sandbox] memory backend, %d seeded", len(entities))
	} else {
		db, err := repos.OpenDB(*driver, *dsn)
		if err != nil {
			log.Fatal(err)
		}
		repo := repos.NewObjectRepo(db)
		n, err := repo.Seed(context.Background(), entities)
		if err != nil {
			log.Fatal(err)
		}
		backend = repo
		log.Printf("[sandbox] %s backend dsn=%s, %d seeded", *driver, config.MaskDSN(*dsn), n)
	}

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	storeapi.Register(app, backend, cfg.StoreAPIKey)
	if cfg.StoreAPIKey == "" {
		log.Printf("[warn] STORE_API_KEY is empty; the sandbox accepts anonymous calls")
	}

	log.Fatal(app.Listen(*addr))
}
