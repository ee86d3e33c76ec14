// Package store runs read-only queries against the supplier and purchase
// order tables.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supplychain-copilot/internal/common/database"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/models"
)

var (
	ErrQueryRejected        = errors.New("QUERY_REJECTED")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
)

// TabularStore executes one read-only statement and returns its rows in
// column order. Placeholders are written as "?" regardless of dialect.
type TabularStore interface {
	Execute(ctx context.Context, query string, args ...interface{}) ([]models.Row, error)
}

// SQLStore is a TabularStore over a database/sql pool. Every call checks out
// its own connection; nothing is shared between requests except the pool.
type SQLStore struct {
	db           *sql.DB
	dialect      Dialect
	queryTimeout time.Duration
	logger       logger.Logger
}

func NewSQLStore(db *sql.DB, dialect Dialect, queryTimeout time.Duration, log logger.Logger) *SQLStore {
	return &SQLStore{
		db:           db,
		dialect:      dialect,
		queryTimeout: queryTimeout,
		logger:       logger.Component(log, "store"),
	}
}

// FromClient builds a store on the shared SQL client.
func FromClient(client *database.SQLClient, queryTimeout time.Duration, log logger.Logger) (*SQLStore, error) {
	dialect, err := ParseDialect(client.Driver)
	if err != nil {
		return nil, err
	}
	return NewSQLStore(client.DB, dialect, queryTimeout, log), nil
}

func (s *SQLStore) Execute(ctx context.Context, query string, args ...interface{}) ([]models.Row, error) {
	statement, err := ReadOnlyStatement(query)
	if err != nil {
		return nil, err
	}
	statement = s.dialect.Rebind(statement)

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, tx, err := s.beginReadOnly(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	defer s.endReadOnly(conn, tx)

	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	s.logger.Debug("query executed", map[string]interface{}{
		"dialect":    string(s.dialect),
		"rows":       len(result),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return result, nil
}

// beginReadOnly opens a read-only transaction on a dedicated connection.
// lib/pq and mysql enforce the flag server side. sqlite ignores it, so the
// connection is switched to query_only until endReadOnly.
func (s *SQLStore) beginReadOnly(ctx context.Context) (*sql.Conn, *sql.Tx, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s.dialect == DialectSQLite {
		if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
	}
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		s.endReadOnly(conn, nil)
		return nil, nil, err
	}
	return conn, tx, nil
}

// endReadOnly rolls back and clears the sqlite pragma, which is connection
// state that outlives the transaction.
func (s *SQLStore) endReadOnly(conn *sql.Conn, tx *sql.Tx) {
	if tx != nil {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Warn("failed to roll back read-only transaction", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.dialect == DialectSQLite {
		if _, err := conn.ExecContext(context.Background(), "PRAGMA query_only = OFF"); err != nil {
			s.logger.Warn("failed to reset query_only", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := conn.Close(); err != nil {
		s.logger.Warn("failed to release connection", map[string]interface{}{"error": err.Error()})
	}
}

func scanRows(rows *sql.Rows) ([]models.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]models.Row, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[i] = models.Field{Name: col, Value: normalizeValue(values[i])}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue turns driver byte slices into text so rows serialize as
// readable JSON.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
