package nearest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"github.com/viant/nearstop/geo"
)

// ModuleName is the name used in CREATE VIRTUAL TABLE ... USING.
const ModuleName = "nearest"

// Column layout declared by every nearest table.
const (
	colPosition = iota
	colID
	colLat
	colLon
	colRank
	colDistance
	colQLat
	colQLon
	colK
	colRadius
)

const schema = `CREATE TABLE %s(
	position INTEGER,
	id TEXT,
	lat REAL,
	lon REAL,
	rank INTEGER,
	distance REAL,
	qlat REAL HIDDEN,
	qlon REAL HIDDEN,
	k INTEGER HIDDEN,
	radius REAL HIDDEN
)`

// Plans chosen by BestIndex.
const (
	idxScan = iota
	idxNearest
	idxWithin
)

// Module implements vtab.Module for the nearest virtual table.
type Module struct{}

// Table represents a single nearest virtual table instance.
type Table struct {
	tableName string
	name      string
	defaultK  int
}

var registerInvalidateOnce sync.Once

// Register registers the nearest module and nearest_invalidate with the
// driver. Both are installed on every connection opened afterwards, so call
// it before the first statement runs.
func Register() error {
	if err := vtab.RegisterModule(nil, ModuleName, &Module{}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	var err error
	registerInvalidateOnce.Do(func() {
		err = sqlite.RegisterScalarFunction("nearest_invalidate", 1, invalidateFunc)
		if err != nil && strings.Contains(err.Error(), "already registered") {
			err = nil
		}
	})
	return err
}

// Create declares the table. Arguments: the catalog name, then optional
// k=N used when the query has no k constraint.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing nearest table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("nearest: USING nearest(name) expects an index name")
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("nearest: EnableConstraintSupport failed: %w", err)
	}
	t, err := parseArgs(args[2], args[3:])
	if err != nil {
		return nil, err
	}
	if err := ctx.Declare(fmt.Sprintf(schema, args[2])); err != nil {
		return nil, err
	}
	return t, nil
}

func parseArgs(tableName string, args []string) (*Table, error) {
	t := &Table{tableName: tableName, name: unquote(strings.TrimSpace(args[0])), defaultK: 1}
	if t.name == "" {
		return nil, fmt.Errorf("nearest: empty index name")
	}
	for _, raw := range args[1:] {
		key, val, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok {
			return nil, fmt.Errorf("nearest: unsupported argument %q", raw)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "k":
			k, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || k < 1 {
				return nil, fmt.Errorf("nearest: invalid k %q", val)
			}
			t.defaultK = k
		default:
			return nil, fmt.Errorf("nearest: unsupported option %q", key)
		}
	}
	return t, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// BestIndex pushes down equality on qlat, qlon and either k or radius.
// Arguments reach Filter in that order.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	var qlat, qlon, k, within *vtab.Constraint
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable || c.Op != vtab.OpEQ {
			continue
		}
		switch c.Column {
		case colQLat:
			qlat = c
		case colQLon:
			qlon = c
		case colK:
			k = c
		case colRadius:
			within = c
		}
	}
	if qlat == nil || qlon == nil {
		info.IdxNum = idxScan
		info.EstimatedCost = 1e9
		return nil
	}
	qlat.ArgIndex, qlat.Omit = 0, true
	qlon.ArgIndex, qlon.Omit = 1, true
	switch {
	case within != nil:
		within.ArgIndex, within.Omit = 2, true
		if k != nil {
			// radius wins; k is consumed and ignored
			k.ArgIndex, k.Omit = 3, true
		}
		info.IdxNum = idxWithin
		info.EstimatedCost = 100
	case k != nil:
		k.ArgIndex, k.Omit = 2, true
		info.IdxNum = idxNearest
		info.EstimatedCost = 10
		info.EstimatedRows = 10
	default:
		info.IdxNum = idxNearest
		info.EstimatedCost = 10
		info.EstimatedRows = int64(t.defaultK)
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect is a no-op; indexes live in the catalog.
func (t *Table) Disconnect() error { return nil }

// Destroy is a no-op; the catalog entry outlives the table.
func (t *Table) Destroy() error { return nil }

type row struct {
	position int
	record   geo.Record
	rank     int
	distance float64
	ranked   bool
}

// Cursor iterates the rows computed by Filter.
type Cursor struct {
	table  *Table
	rows   []row
	pos    int
	query  geo.Point
	k      int
	radius float64
	plan   int
}

// Filter computes the result rows for the plan chosen by BestIndex.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos, c.plan = nil, 0, idxNum
	value, err := lookup(context.Background(), c.table.name)
	if err != nil {
		return err
	}
	candidates := value.idx.Candidates()
	if idxNum == idxScan {
		c.rows = make([]row, candidates.Len())
		for i := range candidates.Records {
			c.rows[i] = row{position: candidates.Position(i), record: candidates.Records[i]}
		}
		return nil
	}
	if len(vals) < 2 {
		return fmt.Errorf("nearest: qlat and qlon are required")
	}
	if c.query.Lat, err = asFloat(vals[0]); err != nil {
		return err
	}
	if c.query.Lon, err = asFloat(vals[1]); err != nil {
		return err
	}
	var matches []geo.Match
	switch idxNum {
	case idxWithin:
		if c.radius, err = asFloat(vals[2]); err != nil {
			return err
		}
		matches, err = value.within.Within(c.query, c.radius)
	default:
		c.k = c.table.defaultK
		if len(vals) > 2 {
			k, err := asFloat(vals[2])
			if err != nil {
				return err
			}
			if k != math.Trunc(k) {
				return fmt.Errorf("nearest: k must be an integer: %w", geo.ErrInvalidK)
			}
			c.k = int(k)
		}
		if err = c.query.Validate(); err != nil {
			return err
		}
		matches, err = value.idx.Query(geo.NewPointSet(geo.WGS84, c.query), c.k)
	}
	if err != nil {
		return err
	}
	c.rows = make([]row, len(matches))
	for i, m := range matches {
		c.rows[i] = row{
			position: m.Candidate,
			record:   candidates.Records[m.Candidate-candidates.Offset()],
			rank:     m.Rank,
			distance: m.Distance,
			ranked:   true,
		}
	}
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("nearest: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case colPosition:
		return int64(r.position), nil
	case colID:
		if r.record.ID == "" {
			return nil, nil
		}
		return r.record.ID, nil
	case colLat:
		return r.record.Point.Lat, nil
	case colLon:
		return r.record.Point.Lon, nil
	case colRank:
		if !r.ranked {
			return nil, nil
		}
		return int64(r.rank), nil
	case colDistance:
		if !r.ranked {
			return nil, nil
		}
		return r.distance, nil
	case colQLat:
		if c.plan == idxScan {
			return nil, nil
		}
		return c.query.Lat, nil
	case colQLon:
		if c.plan == idxScan {
			return nil, nil
		}
		return c.query.Lon, nil
	case colK:
		if c.plan != idxNearest {
			return nil, nil
		}
		return int64(c.k), nil
	case colRadius:
		if c.plan != idxWithin {
			return nil, nil
		}
		return c.radius, nil
	}
	return nil, fmt.Errorf("nearest: unsupported column %d", col)
}

// Rowid returns the candidate position of the current row.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("nearest: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return int64(c.rows[c.pos].position), nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case []byte:
		return parseFloat(string(val))
	case string:
		return parseFloat(val)
	case nil:
		return 0, fmt.Errorf("nearest: NULL argument: %w", geo.ErrDimensionMismatch)
	default:
		return 0, fmt.Errorf("nearest: unsupported argument type %T", v)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("nearest: cannot parse %q: %w", s, geo.ErrDimensionMismatch)
	}
	return f, nil
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("nearest: name is nil")
	default:
		return "", fmt.Errorf("nearest: unsupported name type %T", v)
	}
}
