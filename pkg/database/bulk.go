package database

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	// DefaultInsertBatchSize caps how many rows one bulk INSERT statement carries.
	DefaultInsertBatchSize = 1000

	// DefaultUpdateBatchSize caps how many per-record updates are issued per
	// batch inside a bulk update transaction.
	DefaultUpdateBatchSize = 500
)

// BulkUpdateItem pairs a SET field map with the WHERE predicate selecting
// the rows it applies to.
type BulkUpdateItem struct {
	Set   map[string]any
	Where map[string]any
}

// BulkInsert partitions rows into batches and inserts them sequentially,
// returning the summed affected-row count. Empty input is a no-op. Each row
// must align with columns.
func (db *DB) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultInsertBatchSize
	}
	if err := checkRowShape(columns, rows); err != nil {
		return 0, err
	}

	pool, err := db.Pool()
	if err != nil {
		return 0, err
	}

	var total int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		sqlText, args := buildInsertSQL(table, columns, rows[start:end])
		tag, err := pool.Exec(ctx, sqlText, args...)
		if err != nil {
			return total, Normalize(err, fmt.Sprintf("bulk insert into %s", table), sqlText)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// BulkUpdate applies each item's SET/WHERE inside one transaction, batching
// only to bound statement bursts. Any failure aborts the whole transaction.
func (db *DB) BulkUpdate(ctx context.Context, table string, updates []BulkUpdateItem, batchSize int) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultUpdateBatchSize
	}

	var total int64
	err := db.Transaction(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for start := 0; start < len(updates); start += batchSize {
			end := start + batchSize
			if end > len(updates) {
				end = len(updates)
			}

			for _, item := range updates[start:end] {
				sqlText, args, err := buildUpdateSQL(table, item.Set, item.Where)
				if err != nil {
					return err
				}
				tag, err := tx.Exec(ctx, sqlText, args...)
				if err != nil {
					return Normalize(err, fmt.Sprintf("bulk update in %s", table), sqlText)
				}
				total += tag.RowsAffected()
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Upsert inserts rows and, on conflict over conflictColumns, updates the
// remaining columns to the incoming values. The resulting rows are returned
// as column-name maps. Empty input is a no-op.
func (db *DB) Upsert(ctx context.Context, table string, columns, conflictColumns []string, rows [][]any) ([]map[string]any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if len(conflictColumns) == 0 {
		return nil, fmt.Errorf("upsert into %s: no conflict columns given", table)
	}
	if err := checkRowShape(columns, rows); err != nil {
		return nil, err
	}

	pool, err := db.Pool()
	if err != nil {
		return nil, err
	}

	sqlText, args := buildUpsertSQL(table, columns, conflictColumns, rows)
	result, err := pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, Normalize(err, fmt.Sprintf("upsert into %s", table), sqlText)
	}

	out, err := pgx.CollectRows(result, pgx.RowToMap)
	if err != nil {
		return nil, Normalize(err, fmt.Sprintf("upsert into %s", table), sqlText)
	}
	return out, nil
}

func checkRowShape(columns []string, rows [][]any) error {
	if len(columns) == 0 {
		return fmt.Errorf("no columns given")
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// buildInsertSQL renders a multi-row INSERT with positional parameters.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(quoteIdent(table))
	sb.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(col))
	}
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for r, row := range rows {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range columns {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(len(args) + 1))
			args = append(args, row[c])
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}

// buildUpdateSQL renders one dynamic UPDATE from SET and WHERE field maps.
// Keys are sorted so the statement text is deterministic for a given shape.
func buildUpdateSQL(table string, set, where map[string]any) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, fmt.Errorf("update %s: empty SET clause", table)
	}
	if len(where) == 0 {
		return "", nil, fmt.Errorf("update %s: empty WHERE clause", table)
	}

	setCols := sortedKeys(set)
	whereCols := sortedKeys(where)

	var sb strings.Builder
	args := make([]any, 0, len(set)+len(where))

	sb.WriteString("UPDATE ")
	sb.WriteString(quoteIdent(table))
	sb.WriteString(" SET ")
	for i, col := range setCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, set[col])
		sb.WriteString(quoteIdent(col))
		sb.WriteString(" = $")
		sb.WriteString(strconv.Itoa(len(args)))
	}

	sb.WriteString(" WHERE ")
	for i, col := range whereCols {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		args = append(args, where[col])
		sb.WriteString(quoteIdent(col))
		sb.WriteString(" = $")
		sb.WriteString(strconv.Itoa(len(args)))
	}

	return sb.String(), args, nil
}

// buildUpsertSQL extends the multi-row INSERT with an ON CONFLICT clause
// updating every non-conflict column to its EXCLUDED value.
func buildUpsertSQL(table string, columns, conflictColumns []string, rows [][]any) (string, []any) {
	insertSQL, args := buildInsertSQL(table, columns, rows)

	conflictSet := make(map[string]bool, len(conflictColumns))
	for _, col := range conflictColumns {
		conflictSet[col] = true
	}

	var sb strings.Builder
	sb.WriteString(insertSQL)
	sb.WriteString(" ON CONFLICT (")
	for i, col := range conflictColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(col))
	}
	sb.WriteString(")")

	var updateCols []string
	for _, col := range columns {
		if !conflictSet[col] {
			updateCols = append(updateCols, col)
		}
	}

	if len(updateCols) == 0 {
		sb.WriteString(" DO NOTHING")
	} else {
		sb.WriteString(" DO UPDATE SET ")
		for i, col := range updateCols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quoteIdent(col))
			sb.WriteString(" = EXCLUDED.")
			sb.WriteString(quoteIdent(col))
		}
	}

	sb.WriteString(" RETURNING *")
	return sb.String(), args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
