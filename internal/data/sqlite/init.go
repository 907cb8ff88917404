package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Init creates the database at path with the schema.
// If path exists and has tables, Init is a no-op (safe to call multiple times).
func Init(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

// levelColumns were added to chart_levels after the first release.
var levelColumns = []struct{ name, decl string }{
	{"designer", "TEXT NOT NULL DEFAULT ''"},
	{"tap", "INTEGER"},
	{"hold", "INTEGER"},
	{"slide", "INTEGER"},
	{"touch", "INTEGER"},
	{"brk", "INTEGER"},
}

// migrate adds the columns an older database file is missing.
func migrate(db *sql.DB) error {
	rows, err := db.Query("PRAGMA table_info(chart_levels)")
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	have := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, c := range levelColumns {
		if have[c.name] {
			continue
		}
		if _, err := db.Exec("ALTER TABLE chart_levels ADD COLUMN " + c.name + " " + c.decl); err != nil {
			return fmt.Errorf("migrate %s: %w", c.name, err)
		}
	}
	return nil
}
