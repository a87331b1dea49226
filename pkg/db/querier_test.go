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
	"fmt"
	"reflect"
	"strings"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier records Exec calls and replays canned rows.
type fakeQuerier struct {
	execs    []execCall
	execErr  error
	affected int64

	rows     [][]any
	queryErr error

	row    []any
	rowErr error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}

	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", f.affected)), nil
}

func (f *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	return &fakeRows{data: f.rows, pos: -1}, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{values: f.row, err: f.rowErr}
}

func (f *fakeQuerier) execSQL() []string {
	out := make([]string, 0, len(f.execs))
	for _, call := range f.execs {
		out = append(out, strings.TrimSpace(call.sql))
	}

	return out
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	return assign(r.values, dest)
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.pos], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos], nil
}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}

	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}

	return nil
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"migrations/00001_first.up.sql":    {Data: []byte("CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);")},
		"migrations/00001_first.down.sql":  {Data: []byte("DROP TABLE b; DROP TABLE a;")},
		"migrations/00002_second.up.sql":   {Data: []byte("-- seed; with a semicolon\nINSERT INTO a VALUES (1);")},
		"migrations/00002_second.down.sql": {Data: []byte("DELETE FROM a;")},
	}
}
