package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nhle/jast/internal/model"
)

// RecomputeDailyStat recounts the live todos on date and rewrites its
// daily_stats row.
func (s *SQLiteStore) RecomputeDailyStat(ctx context.Context, date int) error {
	return s.withTx(ctx, "recompute_stat", func(tx *sqlx.Tx) error {
		return recomputeDailyStat(ctx, tx, date)
	})
}

// RebuildDailyStats discards every daily_stats row and derives the table
// again from todos.
func (s *SQLiteStore) RebuildDailyStats(ctx context.Context) error {
	var days int64
	err := s.withTx(ctx, "rebuild_stats", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM daily_stats"); err != nil {
			return fmt.Errorf("clearing daily_stats: %w", err)
		}
		res, err := tx.ExecContext(ctx, populateDailyStats)
		if err != nil {
			return fmt.Errorf("populating daily_stats: %w", err)
		}
		days, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("daily_stats rebuilt", zap.Int64("days", days))
	return nil
}

// GetYearlyStats returns the daily_stats rows with from <= date <= to,
// ordered by date.
func (s *SQLiteStore) GetYearlyStats(ctx context.Context, from, to int) ([]model.DailyStat, error) {
	stats := []model.DailyStat{}
	err := s.db.SelectContext(ctx, &stats, `
		SELECT date, total_count, completed_count FROM daily_stats
		WHERE date BETWEEN ? AND ?
		ORDER BY date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily stats %d..%d: %w", from, to, err)
	}
	return stats, nil
}

// recomputeDailyStat brings the daily_stats row for date in line with the
// live todos on it. A day without live todos has no row.
func recomputeDailyStat(ctx context.Context, q sqlx.ExtContext, date int) error {
	var counts struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}
	err := sqlx.GetContext(ctx, q, &counts, `
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 1 THEN 1 ELSE 0 END), 0) AS completed
		FROM todos
		WHERE target_date = ? AND is_deleted = 0`,
		date,
	)
	if err != nil {
		return fmt.Errorf("counting todos for %d: %w", date, err)
	}

	if counts.Total == 0 {
		if _, err := q.ExecContext(ctx, "DELETE FROM daily_stats WHERE date = ?", date); err != nil {
			return fmt.Errorf("deleting daily stat %d: %w", date, err)
		}
		return nil
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_count, completed_count)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_count = excluded.total_count,
			completed_count = excluded.completed_count`,
		date, counts.Total, counts.Completed,
	)
	if err != nil {
		return fmt.Errorf("upserting daily stat %d: %w", date, err)
	}
	return nil
}
