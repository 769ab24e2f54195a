// Package migrations embeds the SQL schema files so the CLI can apply them
// without shipping loose files alongside the binary.
package migrations

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed *.sql
var files embed.FS

// All returns the migration statements in filename order.
func All() ([]string, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	stmts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		stmts = append(stmts, string(data))
	}
	return stmts, nil
}
