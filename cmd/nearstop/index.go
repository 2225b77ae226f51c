package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/viant/nearstop/index"
	"github.com/viant/nearstop/store"
)

// IndexCommand builds a stop index and stores it with its stops.
type IndexCommand struct {
	Stops string `long:"stops" env:"NEARSTOP_STOPS" description:"Stops file (GeoJSON or XLSX)"`
	DB    string `long:"db"    env:"NEARSTOP_DB"    description:"SQLite database"`
	Name  string `long:"name"  description:"Index and dataset name"`
	Kind  string `short:"k" long:"kind" description:"Index kind (auto, brute, balltree, cover, vptree)"`

	global *Options
}

func (c *IndexCommand) Execute(_ []string) error {
	cfg, err := c.global.config()
	if err != nil {
		return err
	}
	if c.Kind != "" {
		cfg.Index.Kind = c.Kind
	}
	kind, err := index.ParseKind(cfg.Index.Kind)
	if err != nil {
		return err
	}
	dsn := firstNonEmpty(c.DB, cfg.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("database not set")
	}
	name := firstNonEmpty(c.Name, cfg.Database.Index)
	stops, err := readPoints(firstNonEmpty(c.Stops, cfg.Input.Stops), cfg.Input.IDProperty)
	if err != nil {
		return fmt.Errorf("stops: %w", err)
	}

	started := time.Now()
	idx, err := index.Build(kind, stops, cfg.IndexOptions())
	if err != nil {
		return err
	}
	kind = kind.Resolve(stops.Len())
	log.Info().Str("kind", string(kind)).Int("stops", idx.Len()).Dur("took", time.Since(started)).Msg("Index built")

	ctx := context.Background()
	db, err := store.OpenFile(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SavePointSet(ctx, name, stops); err != nil {
		return err
	}
	if err := db.SaveIndex(ctx, name, kind, idx); err != nil {
		return err
	}
	log.Info().Str("db", dsn).Str("name", name).Msg("Index stored")
	return nil
}
