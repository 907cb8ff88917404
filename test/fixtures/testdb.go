package fixtures

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

//go:embed minimal_data.sql
var minimalDataSQL string

// CreateTestDB creates a temporary SQLite database with schema and minimal_data applied.
// Returns the file path and a cleanup function. The database is closed before return.
func CreateTestDB(t *testing.T) (path string, cleanup func()) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("exec schema: %v", err)
	}
	if len(minimalDataSQL) > 0 {
		if _, err := db.Exec(minimalDataSQL); err != nil {
			t.Fatalf("exec minimal_data: %v", err)
		}
	}

	cleanup = func() { os.RemoveAll(dir) }
	return path, cleanup
}

// OpenTestDB opens a temporary database and returns a *sql.DB (caller must Close).
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path, cleanup := CreateTestDB(t)
	t.Cleanup(cleanup)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen test db: %v", err)
	}
	return db
}

// AliasFiles is the alias directory layout written by AliasDir, relative path to content.
var AliasFiles = map[string]string{
	"maimai.tsv":             "Halcyon\thalc\thalcy\nFreedom Dive\tfd\n",
	"community/maimai.tsv":   "Oshama Scramble! (Cranky Remix)\toshama\n\tbroken row\n",
	"chunithm.tsv":           "Halcyon\thalc\n",
	"manual/maimai.tsv":      "Freedom Dive\tfreedom\t42\t0001\t1000\nHalcyon\n",
	"manual/chunithm.tsv":    "Halcyon\thc\t7\t0\t2000\nHalcyon\thc\t7\n",
	"community/notes/readme": "not an alias file\n",
}

// AliasDir writes AliasFiles into a temporary directory and returns its path.
func AliasDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range AliasFiles {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}
