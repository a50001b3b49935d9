package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nhle/jast/internal/datekey"
)

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id   INTEGER REFERENCES todos(id),
	title       TEXT NOT NULL,
	status      INTEGER DEFAULT 0,
	position    INTEGER NOT NULL DEFAULT 0,
	target_date INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	is_deleted  INTEGER DEFAULT 0
);`

const createDailyStatsTable = `
CREATE TABLE IF NOT EXISTS daily_stats (
	date            INTEGER PRIMARY KEY,
	total_count     INTEGER NOT NULL DEFAULT 0,
	completed_count INTEGER NOT NULL DEFAULT 0
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_todos_date_parent
	ON todos(target_date, parent_id, position);

CREATE INDEX IF NOT EXISTS idx_todos_parent
	ON todos(parent_id);
`

// populateDailyStats fills daily_stats from live todos in one pass.
const populateDailyStats = `
INSERT INTO daily_stats (date, total_count, completed_count)
SELECT target_date,
	COUNT(*),
	SUM(CASE WHEN status = 1 THEN 1 ELSE 0 END)
FROM todos
WHERE is_deleted = 0
GROUP BY target_date`

// renumberPositions rewrites positions of live todos to 1..n within each
// (parent_id, target_date) group, keeping the existing order and breaking
// ties by id.
const renumberPositions = `
UPDATE todos SET position = ranked.rn
FROM (
	SELECT id, ROW_NUMBER() OVER (
		PARTITION BY parent_id, target_date
		ORDER BY position, id
	) AS rn
	FROM todos
	WHERE is_deleted = 0
) AS ranked
WHERE ranked.id = todos.id`

// columnMigration adds one column introduced after the first table
// layout, together with the backfill that makes existing rows valid.
type columnMigration struct {
	column   string
	ddl      string
	backfill func(ctx context.Context, tx *sqlx.Tx, present map[string]bool) error
}

// columnMigrations run in order. target_date is backfilled before position
// so positions are numbered within date-scoped sibling groups.
var columnMigrations = []columnMigration{
	{
		column: "status",
		ddl:    "ALTER TABLE todos ADD COLUMN status INTEGER DEFAULT 0",
	},
	{
		column:   "target_date",
		ddl:      "ALTER TABLE todos ADD COLUMN target_date INTEGER NOT NULL DEFAULT 0",
		backfill: backfillTargetDate,
	},
	{
		column:   "position",
		ddl:      "ALTER TABLE todos ADD COLUMN position INTEGER NOT NULL DEFAULT 0",
		backfill: backfillPosition,
	},
}

// ensureSchema creates missing tables, adds columns missing from older
// layouts and seeds daily_stats on first use. Every step checks the
// current state first, so it is safe to run on each open and resumes
// cleanly after a failed attempt.
func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("creating todos table: %w", err)
	}

	present, err := s.todoColumnSet(ctx)
	if err != nil {
		return err
	}

	for _, m := range columnMigrations {
		if present[m.column] {
			continue
		}
		err := s.withTx(ctx, "add_column_"+m.column, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, m.ddl); err != nil {
				return fmt.Errorf("adding column %s: %w", m.column, err)
			}
			if m.backfill != nil {
				if err := m.backfill(ctx, tx, present); err != nil {
					return fmt.Errorf("backfilling column %s: %w", m.column, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		present[m.column] = true
		s.log.Info("schema column added", zap.String("column", m.column))
	}

	if _, err := s.db.ExecContext(ctx, createDailyStatsTable); err != nil {
		return fmt.Errorf("creating daily_stats table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createIndexes); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	var statRows int
	if err := s.db.GetContext(ctx, &statRows, "SELECT COUNT(*) FROM daily_stats"); err != nil {
		return fmt.Errorf("counting daily_stats: %w", err)
	}
	if statRows == 0 {
		res, err := s.db.ExecContext(ctx, populateDailyStats)
		if err != nil {
			return fmt.Errorf("populating daily_stats: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.log.Info("daily_stats populated", zap.Int64("days", n))
		}
	}

	return nil
}

// todoColumnSet returns the names of the columns todos currently has.
func (s *SQLiteStore) todoColumnSet(ctx context.Context) (map[string]bool, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names,
		"SELECT name FROM pragma_table_info('todos')"); err != nil {
		return nil, fmt.Errorf("inspecting todos columns: %w", err)
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	return present, nil
}

// backfillTargetDate derives each row's date key from the local calendar
// day of its created_at, then moves children onto their parent's day so no
// child is scheduled apart from its parent.
func backfillTargetDate(ctx context.Context, tx *sqlx.Tx, present map[string]bool) error {
	var rows []struct {
		ID        int64  `db:"id"`
		CreatedAt string `db:"created_at"`
	}
	if err := tx.SelectContext(ctx, &rows, "SELECT id, created_at FROM todos"); err != nil {
		return fmt.Errorf("reading created_at: %w", err)
	}

	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return fmt.Errorf("parsing created_at of todo %d: %w", r.ID, err)
		}
		key := datekey.FromTime(created.In(time.Local))
		if _, err := tx.ExecContext(ctx,
			"UPDATE todos SET target_date = ? WHERE id = ?", key, r.ID); err != nil {
			return fmt.Errorf("setting target_date of todo %d: %w", r.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE todos SET target_date = (
			SELECT p.target_date FROM todos AS p WHERE p.id = todos.parent_id
		)
		WHERE parent_id IS NOT NULL
			AND EXISTS (SELECT 1 FROM todos AS p WHERE p.id = todos.parent_id)`); err != nil {
		return fmt.Errorf("aligning children with parents: %w", err)
	}

	// Groups are now date-scoped; existing parent-scoped positions need
	// renumbering. Without a position column the next migration does it.
	if present["position"] {
		if _, err := tx.ExecContext(ctx, renumberPositions); err != nil {
			return fmt.Errorf("renumbering positions: %w", err)
		}
	}
	return nil
}

// backfillPosition assigns dense positions in id order within each group.
// All rows start at the column default of 0, so ORDER BY position, id
// reduces to id order.
func backfillPosition(ctx context.Context, tx *sqlx.Tx, _ map[string]bool) error {
	if _, err := tx.ExecContext(ctx, renumberPositions); err != nil {
		return fmt.Errorf("numbering positions: %w", err)
	}
	return nil
}
