package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/viant/nearstop/nearest"
	"github.com/viant/nearstop/store"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLCommand runs a statement against a stored index exposed as the
// virtual table <name>_nearest.
type SQLCommand struct {
	DB   string `long:"db"   env:"NEARSTOP_DB" description:"SQLite database holding a stored index"`
	Name string `long:"name" description:"Stored index name"`

	Args struct {
		Query string `positional-arg-name:"query" required:"yes"`
	} `positional-args:"yes"`

	global *Options
	out    io.Writer
}

func (c *SQLCommand) Execute(_ []string) error {
	cfg, err := c.global.config()
	if err != nil {
		return err
	}
	dsn := firstNonEmpty(c.DB, cfg.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("database not set")
	}
	name := firstNonEmpty(c.Name, cfg.Database.Index)
	if !identifier.MatchString(name) {
		return fmt.Errorf("index name %q is not a plain identifier", name)
	}
	if err := nearest.Register(); err != nil {
		return err
	}

	ctx := context.Background()
	s, err := store.OpenFile(ctx, dsn)
	if err != nil {
		return err
	}
	defer s.Close()
	idx, err := s.LoadIndex(ctx, name, cfg.IndexOptions())
	if err != nil {
		return fmt.Errorf("index %s: %w", name, err)
	}
	nearest.Attach(name, idx)
	defer nearest.Detach(name)

	db := s.DB()
	// temp tables are per connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS temp.%s_nearest USING nearest(%s)`, name, name)); err != nil {
		return err
	}
	log.Debug().Str("table", name+"_nearest").Int("stops", idx.Len()).Msg("Virtual table ready")

	rows, err := db.QueryContext(ctx, c.Args.Query)
	if err != nil {
		return err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	out := c.out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		record := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			record[column] = values[i]
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return rows.Err()
}
