package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/viant/nearstop/config"
	"github.com/viant/nearstop/index"
	"github.com/viant/nearstop/server"
	"github.com/viant/nearstop/store"
)

// ServeCommand serves a stop index over HTTP.
type ServeCommand struct {
	Stops string `long:"stops" env:"NEARSTOP_STOPS" description:"Stops file to index on start (GeoJSON or XLSX)"`
	DB    string `long:"db"    env:"NEARSTOP_DB"    description:"SQLite database holding a stored index"`
	Name  string `long:"name"  description:"Stored index name"`
	Addr  string `short:"a" long:"addr" env:"LISTEN_ADDRESS" description:"Address to listen on"`
	Port  int    `short:"p" long:"port" env:"LISTEN_PORT"    description:"Port to listen on"`
	Redis string `long:"redis" env:"REDIS_ADDR" description:"Redis address for the response cache"`

	global *Options
}

func (c *ServeCommand) Execute(_ []string) error {
	cfg, err := c.global.config()
	if err != nil {
		return err
	}
	idx, err := c.load(cfg)
	if err != nil {
		return err
	}
	options := server.Options{
		MaxK:     cfg.Server.MaxK,
		MaxBatch: cfg.Server.MaxBatch,
		Workers:  cfg.Join.Workers,
		Logger:   log.Logger,
	}
	cacheCfg := cfg.Server.Cache
	if client := server.OpenRedis(firstNonEmpty(c.Redis, cacheCfg.Addr), cacheCfg.Password, cacheCfg.DB); client != nil {
		defer client.Close()
		options.Cache = server.NewCache(client, firstNonEmpty(c.Name, cfg.Database.Index), cacheCfg.TTL)
		log.Info().Str("addr", client.Options().Addr).Msg("Response cache enabled")
	}
	srv, err := server.New(idx, options)
	if err != nil {
		return err
	}

	addr := firstNonEmpty(c.Addr, cfg.Server.Addr)
	port := cfg.Server.Port
	if c.Port > 0 {
		port = c.Port
	}
	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", addr, port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errs := make(chan error, 1)
	go func() { errs <- httpServer.ListenAndServe() }()
	log.Info().Str("addr", httpServer.Addr).Int("stops", idx.Len()).Msg("Web server started")

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down")
	return httpServer.Shutdown(shutdown)
}

func (c *ServeCommand) load(cfg *config.Config) (index.Index, error) {
	kind := cfg.IndexKind()
	if c.Stops != "" || (c.DB == "" && cfg.Database.DSN == "") {
		stops, err := readPoints(firstNonEmpty(c.Stops, cfg.Input.Stops), cfg.Input.IDProperty)
		if err != nil {
			return nil, fmt.Errorf("stops: %w", err)
		}
		return index.Build(kind, stops, cfg.IndexOptions())
	}
	ctx := context.Background()
	dsn := firstNonEmpty(c.DB, cfg.Database.DSN)
	db, err := store.OpenFile(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.LoadIndex(ctx, firstNonEmpty(c.Name, cfg.Database.Index), cfg.IndexOptions())
}
