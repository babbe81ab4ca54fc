// Package migrations applies the embedded DDL for each storage backend.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// execFunc runs one SQL script or statement against a backend.
type execFunc func(ctx context.Context, sql string) error

// apply runs every .sql file under dir in lexical order. Backends that reject
// multi-statement scripts set perStatement so each file is split first.
// Migrations are expected to be idempotent.
func apply(ctx context.Context, fsys fs.FS, dir string, perStatement bool, exec execFunc) error {
	files, err := sqlFiles(fsys, dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		script := string(data)
		if strings.TrimSpace(script) == "" {
			continue
		}

		stmts := []string{script}
		if perStatement {
			stmts = splitStatements(script)
		}
		for _, stmt := range stmts {
			if err := exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
	}
	return nil
}

func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements splits a script on semicolons outside single-quoted
// literals and drops "--" line comments. Block comments are not recognised.
func splitStatements(script string) []string {
	var (
		stmts    []string
		cur      strings.Builder
		inString bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case inString:
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(script) && script[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
					continue
				}
				inString = false
			}
		case ch == '\'':
			inString = true
			cur.WriteByte(ch)
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return stmts
}
