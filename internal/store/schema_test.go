package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/jast/internal/datekey"
	"github.com/nhle/jast/internal/model"
	"github.com/nhle/jast/internal/store"
	"github.com/nhle/jast/tests/testutil"
)

const (
	firstDay  = "2026-10-10T12:00:00.000Z"
	secondDay = "2026-10-12T12:00:00.000Z"
)

// localKey is the date key a migration derives from a stored created_at.
func localKey(t *testing.T, ts string) int {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t.Fatal(err)
	}
	return datekey.FromTime(parsed.In(time.Local))
}

// legacyDB writes a database file with the given layout and rows and
// returns its path.
func legacyDB(t *testing.T, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening legacy db: %v", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("preparing legacy db: %v\n%s", err, stmt)
		}
	}
	return path
}

func openStore(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return s
}

func columns(t *testing.T, path string) map[string]bool {
	t.Helper()
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var names []string
	if err := db.Select(&names, "SELECT name FROM pragma_table_info('todos')"); err != nil {
		t.Fatal(err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func TestEnsureSchemaFreshDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	s := openStore(t, path)
	stats, err := s.GetYearlyStats(context.Background(), 19000101, 21001231)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 0 {
		t.Errorf("fresh database has stats %+v", stats)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	for _, col := range []string{"status", "position", "target_date", "is_deleted"} {
		if !columns(t, path)[col] {
			t.Errorf("column %s missing", col)
		}
	}
}

func TestEnsureSchemaFromOriginalLayout(t *testing.T) {
	path := legacyDB(t,
		`CREATE TABLE todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER REFERENCES todos(id),
			title TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			is_deleted INTEGER DEFAULT 0
		)`,
		`INSERT INTO todos (id, parent_id, title, created_at, updated_at, is_deleted) VALUES
			(1, NULL, 'a',  '`+firstDay+`',  '`+firstDay+`',  0),
			(2, NULL, 'b',  '`+firstDay+`',  '`+firstDay+`',  0),
			(3, 1,    'c1', '`+secondDay+`', '`+secondDay+`', 0),
			(4, NULL, 'd',  '`+secondDay+`', '`+secondDay+`', 0),
			(5, NULL, 'x',  '`+firstDay+`',  '`+firstDay+`',  1)`,
	)

	s := openStore(t, path)
	defer s.Close()
	ctx := context.Background()

	day1, day2 := localKey(t, firstDay), localKey(t, secondDay)

	assertOrder(t, order(t, s, day1), pos(1, 1), pos(2, 2), pos(3, 1))
	assertOrder(t, order(t, s, day2), pos(4, 1))

	todos, _ := s.ListByDate(ctx, day1)
	for _, todo := range todos {
		if todo.Status != model.TodoStatusPending {
			t.Errorf("todo %d status = %s, want pending", todo.ID, todo.Status)
		}
	}

	testutil.AssertStat(t, s, day1)
	testutil.AssertStat(t, s, day2)
}

func TestEnsureSchemaFromStatusLayout(t *testing.T) {
	path := legacyDB(t,
		`CREATE TABLE todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER REFERENCES todos(id),
			title TEXT NOT NULL,
			status INTEGER DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			is_deleted INTEGER DEFAULT 0
		)`,
		`INSERT INTO todos (id, parent_id, title, status, created_at, updated_at) VALUES
			(1, NULL, 'a', 1, '`+firstDay+`', '`+firstDay+`'),
			(2, NULL, 'b', 0, '`+firstDay+`', '`+firstDay+`'),
			(3, NULL, 'c', 1, '`+firstDay+`', '`+firstDay+`')`,
	)

	s := openStore(t, path)
	defer s.Close()

	day1 := localKey(t, firstDay)
	assertOrder(t, order(t, s, day1), pos(1, 1), pos(2, 2), pos(3, 3))

	stats, err := s.GetYearlyStats(context.Background(), day1, day1)
	if err != nil {
		t.Fatal(err)
	}
	want := model.DailyStat{Date: day1, TotalCount: 3, CompletedCount: 2}
	if len(stats) != 1 || stats[0] != want {
		t.Errorf("stats = %+v, want [%+v]", stats, want)
	}
}

func TestEnsureSchemaRenumbersParentScopedPositions(t *testing.T) {
	// Before target_date existed positions ran across every day.
	path := legacyDB(t,
		`CREATE TABLE todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER REFERENCES todos(id),
			title TEXT NOT NULL,
			status INTEGER DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			is_deleted INTEGER DEFAULT 0
		)`,
		`INSERT INTO todos (id, parent_id, title, status, position, created_at, updated_at) VALUES
			(1, NULL, 'a', 0, 3, '`+firstDay+`',  '`+firstDay+`'),
			(2, NULL, 'b', 0, 2, '`+secondDay+`', '`+secondDay+`'),
			(3, NULL, 'c', 1, 1, '`+firstDay+`',  '`+firstDay+`'),
			(4, 1,    'k', 0, 7, '`+firstDay+`',  '`+firstDay+`')`,
	)

	s := openStore(t, path)
	day1, day2 := localKey(t, firstDay), localKey(t, secondDay)

	// Existing order is kept: c was ahead of a.
	assertOrder(t, order(t, s, day1), pos(3, 1), pos(1, 2), pos(4, 1))
	assertOrder(t, order(t, s, day2), pos(2, 1))
	testutil.AssertStat(t, s, day1)
	testutil.AssertStat(t, s, day2)

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Opening again finds nothing to migrate and changes nothing.
	s = openStore(t, path)
	defer s.Close()
	assertOrder(t, order(t, s, day1), pos(3, 1), pos(1, 2), pos(4, 1))
	assertOrder(t, order(t, s, day2), pos(2, 1))
}

func TestEnsureSchemaKeepsExistingStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	ctx := context.Background()

	s := openStore(t, path)
	testutil.MustCreate(t, s, "a", day, nil)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = openStore(t, path)
	defer s.Close()

	stats, err := s.GetYearlyStats(ctx, day, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].TotalCount != 1 {
		t.Errorf("stats after reopen = %+v", stats)
	}
}
