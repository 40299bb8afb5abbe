// Package db answers grouped queries over the loaded datasets from an
// in-memory SQLite database. Nothing is written to disk.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"wildtrack/dataset"
)

// Store wraps one private in-memory database.
type Store struct {
	db     *sqlx.DB
	tables map[string]*table
}

type table struct {
	name    string
	columns map[string]columnKind
}

type columnKind int

const (
	kindText columnKind = iota
	kindReal
)

// Group is one row of a grouped aggregate.
type Group struct {
	Key   string  `db:"key" json:"key"`
	Value float64 `db:"value" json:"value"`
}

// Open creates an empty in-memory database.
func Open(ctx context.Context) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// the database lives as long as one connection stays open
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)
	database.SetConnMaxLifetime(0)
	return &Store{db: database, tables: make(map[string]*table)}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadFrame copies a frame into a table named after it. Columns where every
// non-empty value is numeric become REAL, the rest TEXT. Empty cells are NULL.
func (s *Store) LoadFrame(ctx context.Context, frame *dataset.Frame) error {
	name := frame.Name()
	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("table %q already loaded", name)
	}

	columns := frame.Columns()
	kinds := make([]columnKind, len(columns))
	defs := make([]string, len(columns))
	for i, col := range columns {
		kinds[i] = kindText
		sqlType := "TEXT"
		if frame.IsNumeric(col) {
			kinds[i] = kindReal
			sqlType = "REAL"
		}
		defs[i] = quoteIdent(col) + " " + sqlType
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range frame.Rows() {
		for i, cell := range row {
			args[i] = cellValue(strings.TrimSpace(cell), kinds[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	t := &table{name: name, columns: make(map[string]columnKind, len(columns))}
	for i, col := range columns {
		t.columns[col] = kinds[i]
	}
	s.tables[name] = t
	return nil
}

// CountBy counts rows per distinct value of column, most frequent first.
// Rows with a NULL key are skipped.
func (s *Store) CountBy(ctx context.Context, tableName, column string) ([]Group, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	if _, err := t.column(column); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
        SELECT %[1]s AS "key", COUNT(*) AS "value"
        FROM %[2]s
        WHERE %[1]s IS NOT NULL
        GROUP BY %[1]s
        ORDER BY "value" DESC, "key" ASC`, keyExpr(t, column), quoteIdent(t.name))
	return s.groups(ctx, query)
}

// CountByPair counts rows per (a, b) combination. The key is "a|b".
func (s *Store) CountByPair(ctx context.Context, tableName, a, b string) ([]Group, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{a, b} {
		if _, err := t.column(col); err != nil {
			return nil, err
		}
	}
	query := fmt.Sprintf(`
        SELECT %[1]s || '|' || %[2]s AS "key", COUNT(*) AS "value"
        FROM %[3]s
        WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
        GROUP BY %[1]s, %[2]s
        ORDER BY %[1]s, %[2]s`, keyExpr(t, a), keyExpr(t, b), quoteIdent(t.name))
	return s.groups(ctx, query)
}

// MeanBy averages a numeric column per group, ascending by mean. Groups
// without any value are skipped.
func (s *Store) MeanBy(ctx context.Context, tableName, group, value string) ([]Group, error) {
	return s.aggregateBy(ctx, "AVG", tableName, group, value, `"value" ASC, "key" ASC`)
}

// SumBy sums a numeric column per group, largest first.
func (s *Store) SumBy(ctx context.Context, tableName, group, value string) ([]Group, error) {
	return s.aggregateBy(ctx, "SUM", tableName, group, value, `"value" DESC, "key" ASC`)
}

func (s *Store) aggregateBy(ctx context.Context, fn, tableName, group, value, order string) ([]Group, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	if _, err := t.column(group); err != nil {
		return nil, err
	}
	if err := t.numeric(value); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
        SELECT %[1]s AS "key", %[2]s(%[3]s) AS "value"
        FROM %[4]s
        WHERE %[1]s IS NOT NULL AND %[3]s IS NOT NULL
        GROUP BY %[1]s
        ORDER BY %[5]s`, keyExpr(t, group), fn, quoteIdent(value), quoteIdent(t.name), order)
	return s.groups(ctx, query)
}

// SumWhere sums each listed numeric column over the rows where filter equals
// want. The result keeps the order of columns.
func (s *Store) SumWhere(ctx context.Context, tableName string, columns []string, filter string, want float64) ([]Group, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	if err := t.numeric(filter); err != nil {
		return nil, err
	}
	var present []string
	for _, col := range columns {
		if kind, ok := t.columns[col]; ok && kind == kindReal {
			present = append(present, col)
		}
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("table %s has none of the columns %v", t.name, columns)
	}

	sums := make([]string, len(present))
	for i, col := range present {
		sums[i] = fmt.Sprintf("COALESCE(SUM(%s), 0)", quoteIdent(col))
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", strings.Join(sums, ", "), quoteIdent(t.name), quoteIdent(filter))

	values := make([]float64, len(present))
	dest := make([]any, len(present))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.db.QueryRowxContext(ctx, query, want).Scan(dest...); err != nil {
		return nil, err
	}

	out := make([]Group, len(present))
	for i, col := range present {
		out[i] = Group{Key: col, Value: values[i]}
	}
	return out, nil
}

// Floats returns a numeric column in row order. NULL becomes NaN.
func (s *Store) Floats(ctx context.Context, tableName, column string) ([]float64, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	if err := t.numeric(column); err != nil {
		return nil, err
	}
	var raw []sql.NullFloat64
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", quoteIdent(column), quoteIdent(t.name))
	if err := s.db.SelectContext(ctx, &raw, query); err != nil {
		return nil, err
	}
	return nullFloats(raw), nil
}

// FloatsBy returns the non-NULL values of a numeric column grouped by another
// column.
func (s *Store) FloatsBy(ctx context.Context, tableName, group, column string) (map[string][]float64, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	if _, err := t.column(group); err != nil {
		return nil, err
	}
	if err := t.numeric(column); err != nil {
		return nil, err
	}
	var rows []Group
	query := fmt.Sprintf(`
        SELECT %[1]s AS "key", %[2]s AS "value"
        FROM %[3]s
        WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
        ORDER BY rowid`, keyExpr(t, group), quoteIdent(column), quoteIdent(t.name))
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make(map[string][]float64)
	for _, r := range rows {
		out[r.Key] = append(out[r.Key], r.Value)
	}
	return out, nil
}

// NumericColumns lists the REAL columns of a table in file order.
func (s *Store) NumericColumns(tableName string, order []string) ([]string, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, col := range order {
		if kind, ok := t.columns[col]; ok && kind == kindReal {
			out = append(out, col)
		}
	}
	return out, nil
}

func (s *Store) groups(ctx context.Context, query string) ([]Group, error) {
	groups := make([]Group, 0)
	if err := s.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, err
	}
	return groups, nil
}

// ErrNoTable is returned for queries against a frame that was never loaded.
var ErrNoTable = errors.New("table not loaded")

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoTable)
	}
	return t, nil
}

func (t *table) column(name string) (columnKind, error) {
	kind, ok := t.columns[name]
	if !ok {
		return 0, &dataset.ColumnError{Frame: t.name, Column: name}
	}
	return kind, nil
}

func (t *table) numeric(name string) error {
	kind, err := t.column(name)
	if err != nil {
		return err
	}
	if kind != kindReal {
		return fmt.Errorf("column %q of %s is not numeric", name, t.name)
	}
	return nil
}

// keyExpr renders a group column as text; numeric keys drop a trailing ".0"
// so a 0/1 flag groups as "0" and "1".
func keyExpr(t *table, column string) string {
	if t.columns[column] == kindReal {
		return fmt.Sprintf("CASE WHEN %[1]s = CAST(%[1]s AS INTEGER) THEN CAST(CAST(%[1]s AS INTEGER) AS TEXT) ELSE CAST(%[1]s AS TEXT) END", quoteIdent(column))
	}
	return quoteIdent(column)
}

func cellValue(cell string, kind columnKind) any {
	if cell == "" {
		return nil
	}
	if kind == kindReal {
		return dataset.ParseFloat(cell)
	}
	return cell
}

func nullFloats(raw []sql.NullFloat64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v.Valid {
			out[i] = v.Float64
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
