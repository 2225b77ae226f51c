package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/viant/nearstop/feature"
	"github.com/viant/nearstop/index"
	"github.com/viant/nearstop/join"
	"github.com/viant/nearstop/report"
	"github.com/viant/nearstop/store"
)

// JoinCommand attaches the nearest stop to every building.
type JoinCommand struct {
	Stops       string `long:"stops"        env:"NEARSTOP_STOPS"     description:"Stops file (GeoJSON or XLSX)"`
	Buildings   string `long:"buildings"    env:"NEARSTOP_BUILDINGS" description:"Buildings file (GeoJSON or XLSX)"`
	Out         string `short:"o" long:"out" description:"Output GeoJSON file"`
	XLSX        string `long:"xlsx"         description:"Output XLSX report"`
	DB          string `long:"db"           env:"NEARSTOP_DB"        description:"SQLite database to record the run in"`
	Run         string `long:"run"          description:"Run name used in the database" default:"latest"`
	Kind        string `short:"k" long:"kind" description:"Index kind (auto, brute, balltree, cover, vptree)"`
	Workers     int    `short:"w" long:"workers" description:"Query workers, 0 uses all CPUs"`
	Links       bool   `long:"links"        description:"Add building to stop link lines to the GeoJSON output"`
	SkipInvalid bool   `long:"skip-invalid" description:"Skip buildings with malformed coordinates"`

	global *Options
}

func (c *JoinCommand) Execute(_ []string) error {
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
	stops, err := readPoints(firstNonEmpty(c.Stops, cfg.Input.Stops), cfg.Input.IDProperty)
	if err != nil {
		return fmt.Errorf("stops: %w", err)
	}
	buildings, err := readPoints(firstNonEmpty(c.Buildings, cfg.Input.Buildings), cfg.Input.IDProperty)
	if err != nil {
		return fmt.Errorf("buildings: %w", err)
	}
	log.Info().Int("stops", stops.Len()).Int("buildings", buildings.Len()).Msg("Inputs loaded")

	workers := cfg.Join.Workers
	if c.Workers > 0 {
		workers = c.Workers
	}
	joiner := &join.Joiner{
		Kind:        kind,
		Options:     cfg.IndexOptions(),
		Workers:     workers,
		SkipInvalid: c.SkipInvalid || cfg.Join.SkipInvalid,
		Logger:      log.Logger,
	}
	result, err := joiner.Join(buildings, stops)
	if err != nil {
		return err
	}
	if len(result.Rows) != buildings.Len()-len(result.Skipped) {
		return fmt.Errorf("joined %d of %d buildings", len(result.Rows), buildings.Len()-len(result.Skipped))
	}
	s := result.Stats
	log.Info().
		Int("count", s.Count).
		Float64("mean", s.Mean).
		Float64("std", s.Std).
		Float64("min", s.Min).
		Float64("p25", s.P25).
		Float64("p50", s.P50).
		Float64("p75", s.P75).
		Float64("max", s.Max).
		Msg("Distance summary (m)")

	if out := firstNonEmpty(c.Out, cfg.Output.GeoJSON); out != "" {
		opts := feature.WriteOptions{Links: c.Links || cfg.Join.Links}
		if err := feature.WriteFile(out, result.Rows, opts); err != nil {
			return err
		}
		log.Info().Str("path", out).Msg("GeoJSON written")
	}
	if out := firstNonEmpty(c.XLSX, cfg.Output.XLSX); out != "" {
		if err := report.Write(out, result.Rows, result.Stats); err != nil {
			return err
		}
		log.Info().Str("path", out).Msg("XLSX report written")
	}
	if dsn := firstNonEmpty(c.DB, cfg.Database.DSN); dsn != "" {
		ctx := context.Background()
		db, err := store.OpenFile(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveMatches(ctx, c.Run, result.Matches()); err != nil {
			return err
		}
		log.Info().Str("db", dsn).Str("run", c.Run).Int("matches", len(result.Rows)).Msg("Run recorded")
	}
	return nil
}
