package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
)

type recordingMigrator struct {
	trees []fs.FS
}

func (m *recordingMigrator) RegisterSQLMigrations(migrations ...fs.FS) *persistence.Migrations {
	m.trees = append(m.trees, migrations...)
	return nil
}

func TestTree_ResolvesBothDialects(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, "PostgreSQL", DialectSQLite, "sqlite3"} {
		tree, err := Tree(dialect)
		if err != nil {
			t.Fatalf("tree %s: %v", dialect, err)
		}
		matches, err := fs.Glob(tree, "*.up.sql")
		if err != nil {
			t.Fatalf("glob %s: %v", dialect, err)
		}
		if len(matches) != len(Required) {
			t.Fatalf("expected %d up migrations for %s, got %v", len(Required), dialect, matches)
		}
	}
}

func TestTree_KeepsDialectsApart(t *testing.T) {
	postgres, err := Tree(DialectPostgres)
	if err != nil {
		t.Fatalf("postgres tree: %v", err)
	}
	sqlite, err := Tree(DialectSQLite)
	if err != nil {
		t.Fatalf("sqlite tree: %v", err)
	}
	pg, _ := fs.ReadFile(postgres, Required[0]+".up.sql")
	lite, _ := fs.ReadFile(sqlite, Required[0]+".up.sql")
	if string(pg) == string(lite) {
		t.Fatalf("expected dialect specific schema files")
	}
}

func TestTree_RejectsUnknownDialect(t *testing.T) {
	if _, err := Tree("mysql"); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
}

func TestTreeFrom_RequiresEveryMigrationPair(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/00001_quality_hooks_schema.up.sql":                    {Data: []byte("CREATE TABLE a (id TEXT);")},
		"data/sql/migrations/00001_quality_hooks_schema.down.sql":                  {Data: []byte("DROP TABLE a;")},
		"data/sql/migrations/00002_webhook_deliveries_analysis_uuid.up.sql":        {Data: []byte("ALTER TABLE a ADD COLUMN b TEXT;")},
		"data/sql/migrations/00002_webhook_deliveries_analysis_uuid.down.sql":      {Data: []byte("  ")},
		"data/sql/migrations/sqlite/00001_quality_hooks_schema.up.sql":             {Data: []byte("CREATE TABLE a (id TEXT);")},
		"data/sql/migrations/sqlite/00001_quality_hooks_schema.down.sql":           {Data: []byte("DROP TABLE a;")},
		"data/sql/migrations/sqlite/00002_webhook_deliveries_analysis_uuid.up.sql": {Data: []byte("ALTER TABLE a ADD COLUMN b TEXT;")},
	}

	if _, err := treeFrom(root, DialectPostgres); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty down migration error, got %v", err)
	}
	if _, err := treeFrom(root, DialectSQLite); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing down migration error, got %v", err)
	}
}

func TestRegisterDialect_HandsTreeToClient(t *testing.T) {
	migrator := &recordingMigrator{}
	if err := RegisterDialect(migrator, DialectSQLite); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(migrator.trees) != 1 {
		t.Fatalf("expected one registered tree, got %d", len(migrator.trees))
	}
	if _, err := fs.Stat(migrator.trees[0], Required[1]+".up.sql"); err != nil {
		t.Fatalf("expected analysis uuid migration in registered tree: %v", err)
	}

	if err := RegisterDialect(nil, DialectSQLite); err == nil {
		t.Fatalf("expected missing client error")
	}
	if err := RegisterDialect(migrator, "oracle"); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
	if len(migrator.trees) != 1 {
		t.Fatalf("expected failed registrations to leave the client untouched")
	}
}

func TestSQLiteAnalysisUUIDMigration_ApplyAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", "file:migrations-analysis-uuid?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()

	tree, err := Tree(DialectSQLite)
	if err != nil {
		t.Fatalf("sqlite tree: %v", err)
	}
	if err := execMigration(ctx, db, tree, Required[0]+".up.sql"); err != nil {
		t.Fatalf("apply schema migration: %v", err)
	}

	legacyInsert := `INSERT INTO webhook_deliveries (uuid, project_uuid, ce_task_uuid, name, url, success, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, legacyInsert,
		"d1", "p1", "task-1", "ci", "http://ci", true, "{}", "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert legacy delivery: %v", err)
	}

	if err := execMigration(ctx, db, tree, Required[1]+".up.sql"); err != nil {
		t.Fatalf("apply analysis uuid migration up: %v", err)
	}
	if !hasColumn(t, db, "webhook_deliveries", "analysis_uuid") {
		t.Fatalf("expected analysis_uuid column after up migration")
	}

	var analysisUUID sql.NullString
	if err := db.QueryRowContext(ctx,
		`SELECT analysis_uuid FROM webhook_deliveries WHERE uuid = ?`, "d1",
	).Scan(&analysisUUID); err != nil {
		t.Fatalf("select legacy row: %v", err)
	}
	if analysisUUID.Valid {
		t.Fatalf("expected legacy row to have null analysis uuid until backfilled")
	}

	if err := execMigration(ctx, db, tree, Required[1]+".down.sql"); err != nil {
		t.Fatalf("apply analysis uuid migration down: %v", err)
	}
	if hasColumn(t, db, "webhook_deliveries", "analysis_uuid") {
		t.Fatalf("expected analysis_uuid column to be dropped after down migration")
	}
}

func hasColumn(t *testing.T, db *sql.DB, table string, column string) bool {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		t.Fatalf("table info %s: %v", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan column: %v", err)
		}
		if name == column {
			return true
		}
	}
	return false
}

func execMigration(ctx context.Context, db *sql.DB, tree fs.FS, filename string) error {
	content, err := fs.ReadFile(tree, filename)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
