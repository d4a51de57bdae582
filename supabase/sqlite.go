package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"buddy-mcp/validate"
)

// DBFileName is used when no database path is configured.
const DBFileName = "buddy-mcp.db"

// SQLite is a local stand-in for the hosted store. It speaks the same
// equality-filter dialect and returns rows through RETURNING.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = DBFileName
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	return &SQLite{db: db}, nil
}

// Exec runs a statement directly; used to prepare schemas.
func (s *SQLite) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Query accepts only a plain column list ("*" or "a,b") as sel.
func (s *SQLite) Query(ctx context.Context, table, sel string, filters Filters, limit int) (string, error) {
	columns, err := validate.ParseColumns(sel)
	if err != nil {
		return "", err
	}
	if err := checkIdentifiers(table, columns, filters, nil); err != nil {
		return "", err
	}
	sel = "*"
	if len(columns) > 0 {
		sel = joinQuoted(columns)
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s", sel, quote(table), where)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.queryRows(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("supabase query %s: %w", table, err)
	}
	return marshalRows(rows)
}

func (s *SQLite) Insert(ctx context.Context, table string, rows []Row) (string, error) {
	if err := validate.ValidateIdentifier(table); err != nil {
		return "", err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("supabase insert %s: %w", table, err)
	}
	defer tx.Rollback()

	var out []Row
	for _, row := range rows {
		if err := checkIdentifiers(table, nil, nil, row); err != nil {
			return "", err
		}
		var query string
		var args []any
		if len(row) == 0 {
			query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", quote(table))
		} else {
			cols := Filters(row).keys()
			placeholders := make([]string, len(cols))
			for i, col := range cols {
				v, err := sqlValue(row[col])
				if err != nil {
					return "", err
				}
				placeholders[i] = "?"
				args = append(args, v)
			}
			query = fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s) RETURNING *",
				quote(table), joinQuoted(cols), strings.Join(placeholders, ", "))
		}
		inserted, err := scanRows(tx.QueryContext(ctx, query, args...))
		if err != nil {
			return "", fmt.Errorf("supabase insert %s: %w", table, err)
		}
		out = append(out, inserted...)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("supabase insert %s: %w", table, err)
	}
	return marshalRows(out)
}

func (s *SQLite) Update(ctx context.Context, table string, filters Filters, values Row) (string, error) {
	if err := checkIdentifiers(table, nil, filters, values); err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("supabase update %s: no values to set", table)
	}
	cols := Filters(values).keys()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, col := range cols {
		v, err := sqlValue(values[col])
		if err != nil {
			return "", err
		}
		sets[i] = quote(col) + " = ?"
		args = append(args, v)
	}
	where, whereArgs, err := whereClause(filters)
	if err != nil {
		return "", err
	}
	args = append(args, whereArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", quote(table), strings.Join(sets, ", "), where)
	rows, err := s.queryRows(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("supabase update %s: %w", table, err)
	}
	return marshalRows(rows)
}

func (s *SQLite) Delete(ctx context.Context, table string, filters Filters) (string, error) {
	if err := checkIdentifiers(table, nil, filters, nil); err != nil {
		return "", err
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("DELETE FROM %s%s RETURNING *", quote(table), where)
	rows, err := s.queryRows(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("supabase delete %s: %w", table, err)
	}
	return marshalRows(rows)
}

func (s *SQLite) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	return scanRows(s.db.QueryContext(ctx, query, args...))
}

func scanRows(rows *sql.Rows, err error) ([]Row, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func whereClause(filters Filters) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, col := range filters.keys() {
		v := filters[col]
		if v == nil {
			conds = append(conds, quote(col)+" IS NULL")
			continue
		}
		if _, _, err := formatFilter(col, v); err != nil {
			return "", nil, err
		}
		arg, err := sqlValue(v)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, quote(col)+" = ?")
		args = append(args, arg)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func checkIdentifiers(table string, columns []string, filters Filters, values Row) error {
	if err := validate.ValidateIdentifier(table); err != nil {
		return err
	}
	for _, c := range columns {
		if err := validate.ValidateIdentifier(c); err != nil {
			return err
		}
	}
	for c := range filters {
		if err := validate.ValidateIdentifier(c); err != nil {
			return err
		}
	}
	for c := range values {
		if err := validate.ValidateIdentifier(c); err != nil {
			return err
		}
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func joinQuoted(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = quote(id)
	}
	return strings.Join(quoted, ", ")
}

func marshalRows(rows []Row) (string, error) {
	if rows == nil {
		rows = []Row{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
