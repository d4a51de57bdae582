package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"buddy-mcp/config"
)

// ErrNotConfigured is returned when the store is invoked without the
// credentials its driver needs.
var ErrNotConfigured = errors.New("supabase is not configured")

// Filters maps a column name to the value it must equal. A nil value
// matches NULL.
type Filters map[string]any

// Row is one record keyed by column name.
type Row = map[string]any

// Store runs equality-filtered CRUD against one relational backend. Every
// method returns the selected or affected rows as compact JSON text.
type Store interface {
	// Query selects from table. sel is a PostgREST select list; empty
	// means every column. A limit of zero returns all rows.
	Query(ctx context.Context, table, sel string, filters Filters, limit int) (string, error)
	Insert(ctx context.Context, table string, rows []Row) (string, error)
	Update(ctx context.Context, table string, filters Filters, values Row) (string, error)
	Delete(ctx context.Context, table string, filters Filters) (string, error)
}

// New returns the Store selected by cfg.Driver.
func New(cfg config.Supabase, debug bool) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgREST, "":
		return NewPostgREST(cfg, debug), nil
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown supabase driver %q (want %s or %s)", cfg.Driver, config.DriverPostgREST, config.DriverSQLite)
	}
}

func (f Filters) keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatFilter renders a filter value the way PostgREST expects it in a
// query string. isNull reports a nil value.
func formatFilter(column string, v any) (s string, isNull bool, err error) {
	switch val := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return val, false, nil
	case json.Number:
		return val.String(), false, nil
	case bool:
		return strconv.FormatBool(val), false, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), false, nil
	case int:
		return strconv.Itoa(val), false, nil
	case int64:
		return strconv.FormatInt(val, 10), false, nil
	default:
		return "", false, fmt.Errorf("filter on %q: only scalar values are supported, got %T", column, v)
	}
}

// sqlValue converts a decoded JSON value into a database/sql argument.
// Objects and arrays are stored as their JSON text.
func sqlValue(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		return val.Float64()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return val, nil
	}
}
