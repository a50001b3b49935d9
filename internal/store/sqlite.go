package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nhle/jast/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	log *zap.Logger
	now func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for schema and mutation events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and brings the schema up to date.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: a single writer, and ":memory:" databases are
	// per-connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func (s *SQLiteStore) withTx(
	ctx context.Context,
	op string,
	fn func(tx *sqlx.Tx) error,
) error {
	log := s.log.With(zap.String("op", op), zap.String("op_id", uuid.NewString()))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		log.Debug("rolled back", zap.Error(err))
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", op, err)
	}

	log.Debug("committed")
	return nil
}

// timestamp returns the current time in the persisted text form.
func (s *SQLiteStore) timestamp() string {
	return formatTime(s.now())
}

// todoColumns lists todos columns in todoRow order. COALESCE covers rows
// written before status existed or with explicit NULLs.
const todoColumns = `id, parent_id, title, COALESCE(status, 0) AS status,
	position, target_date, created_at, updated_at,
	COALESCE(is_deleted, 0) AS is_deleted`

// todoRow mirrors a todos row as stored.
type todoRow struct {
	ID         int64         `db:"id"`
	ParentID   sql.NullInt64 `db:"parent_id"`
	Title      string        `db:"title"`
	Status     int           `db:"status"`
	Position   int           `db:"position"`
	TargetDate int           `db:"target_date"`
	CreatedAt  string        `db:"created_at"`
	UpdatedAt  string        `db:"updated_at"`
	IsDeleted  int           `db:"is_deleted"`
}

// toModel converts a stored row into a model.Todo.
func (r todoRow) toModel() (model.Todo, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Todo{}, fmt.Errorf("parsing created_at of todo %d: %w", r.ID, err)
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return model.Todo{}, fmt.Errorf("parsing updated_at of todo %d: %w", r.ID, err)
	}

	todo := model.Todo{
		ID:         r.ID,
		Title:      r.Title,
		Status:     model.TodoStatus(r.Status),
		Position:   r.Position,
		TargetDate: r.TargetDate,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		IsDeleted:  r.IsDeleted != 0,
	}
	if r.ParentID.Valid {
		parentID := r.ParentID.Int64
		todo.ParentID = &parentID
	}
	return todo, nil
}

// getLiveTodo loads a non-deleted todo or returns ErrNotFound.
func getLiveTodo(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Todo, error) {
	var row todoRow
	err := sqlx.GetContext(ctx, q, &row,
		"SELECT "+todoColumns+" FROM todos WHERE id = ? AND is_deleted = 0", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting todo %d: %w", id, err)
	}

	todo, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// selectTodos runs a query over todoColumns and converts the result.
func selectTodos(
	ctx context.Context,
	q sqlx.QueryerContext,
	query string,
	args ...interface{},
) ([]model.Todo, error) {
	var rows []todoRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}

	todos := make([]model.Todo, 0, len(rows))
	for _, r := range rows {
		todo, err := r.toModel()
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// nullID converts an optional todo reference into a bindable value.
func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// sameParent reports whether two optional parent references are equal.
func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// formatTime renders t as RFC 3339 UTC text for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads a stored timestamp. Besides RFC 3339 it accepts the
// "YYYY-MM-DD HH:MM:SS" form SQLite's CURRENT_TIMESTAMP produces.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateTime, s)
}
