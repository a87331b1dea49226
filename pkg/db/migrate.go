/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/carverauto/camview/pkg/logger"
)

const migrationsTable = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every embedded .up.sql file that is not yet recorded
// in schema_migrations, in filename order.
func RunMigrations(ctx context.Context, q Querier, log logger.Logger) error {
	return runMigrations(ctx, q, migrationsFS, log)
}

func runMigrations(ctx context.Context, q Querier, fsys fs.FS, log logger.Logger) error {
	if _, err := q.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, migrationsTable)); err != nil {
		return fmt.Errorf("%w: create tracking table: %w", ErrFailedToMigrate, err)
	}

	applied, err := appliedVersions(ctx, q)
	if err != nil {
		return err
	}

	filenames, err := pendingFiles(fsys)
	if err != nil {
		return err
	}

	for _, name := range filenames {
		version := extractVersion(name)
		if _, ok := applied[version]; ok {
			continue
		}

		content, err := fs.ReadFile(fsys, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("%w: read %s: %w", ErrFailedToMigrate, name, err)
		}

		for idx, stmt := range splitSQLStatements(string(content)) {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("%w: statement %d in %s: %w", ErrFailedToMigrate, idx+1, name, err)
			}
		}

		if _, err := q.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, migrationsTable), version); err != nil {
			return fmt.Errorf("%w: record %s: %w", ErrFailedToMigrate, name, err)
		}

		log.Info().Str("migration", name).Msg("applied migration")
	}

	return nil
}

func appliedVersions(ctx context.Context, q Querier) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, migrationsTable))
	if err != nil {
		return nil, fmt.Errorf("%w: list applied versions: %w", ErrFailedToMigrate, err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("%w: scan applied version: %w", ErrFailedToMigrate, err)
		}

		applied[version] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate applied versions: %w", ErrFailedToMigrate, err)
	}

	return applied, nil
}

func pendingFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: read embedded migrations: %w", ErrFailedToMigrate, err)
	}

	filenames := make([]string, 0, len(entries))

	for _, entry := range entries {
		// .down.sql files are for manual rollbacks only
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)

	return filenames, nil
}

func extractVersion(filename string) string {
	version, _, _ := strings.Cut(filename, "_")
	return version
}

// splitSQLStatements splits a migration on top-level semicolons, skipping
// comments and leaving quoted text intact.
func splitSQLStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}

		current.Reset()
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch {
		case inQuote:
			current.WriteByte(ch)

			if ch == '\'' {
				inQuote = false
			}
		case ch == '\'':
			inQuote = true
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(content) && content[i+1] == '-':
			for i < len(content) && content[i] != '\n' {
				i++
			}

			current.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}

	flush()

	return statements
}
