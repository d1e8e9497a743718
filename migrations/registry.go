// Package migrations hands the embedded quality hooks schema to a
// go-persistence-bun client.
package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
	qualityhooks "github.com/goliatone/go-quality-hooks"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const rootPath = "data/sql/migrations"

// Required lists the migrations every dialect tree carries, in apply order.
var Required = []string{
	"00001_quality_hooks_schema",
	"00002_webhook_deliveries_analysis_uuid",
}

// Migrator is satisfied by *persistence.Client.
type Migrator interface {
	RegisterSQLMigrations(migrations ...fs.FS) *persistence.Migrations
}

// Tree returns the migration tree for one dialect. Postgres files live at the
// root of the tree and sqlite files in its sqlite directory.
func Tree(dialect string) (fs.FS, error) {
	return treeFrom(qualityhooks.GetMigrationsFS(), dialect)
}

// RegisterDialect validates the tree for dialect and registers it on client.
func RegisterDialect(client Migrator, dialect string) error {
	if client == nil {
		return fmt.Errorf("migrations: client is required")
	}
	tree, err := Tree(dialect)
	if err != nil {
		return err
	}
	client.RegisterSQLMigrations(tree)
	return nil
}

func treeFrom(root fs.FS, dialect string) (fs.FS, error) {
	dir, err := dialectPath(dialect)
	if err != nil {
		return nil, err
	}
	tree, err := fs.Sub(root, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s tree: %w", dialect, err)
	}
	if err := checkTree(tree, dir); err != nil {
		return nil, err
	}
	return tree, nil
}

func dialectPath(dialect string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectPostgres, "pg", "postgresql":
		return rootPath, nil
	case DialectSQLite, "sqlite3":
		return rootPath + "/" + DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

// checkTree requires an up and down file for each required migration.
func checkTree(tree fs.FS, dir string) error {
	for _, name := range Required {
		for _, suffix := range []string{".up.sql", ".down.sql"} {
			content, err := fs.ReadFile(tree, name+suffix)
			if err != nil {
				return fmt.Errorf("migrations: %s is missing %s%s: %w", dir, name, suffix, err)
			}
			if strings.TrimSpace(string(content)) == "" {
				return fmt.Errorf("migrations: %s/%s%s is empty", dir, name, suffix)
			}
		}
	}
	return nil
}
