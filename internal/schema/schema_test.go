package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type recorder struct {
	stmts []string
	fail  string
}

func (r *recorder) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.fail != "" && strings.Contains(sql, r.fail) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	r.stmts = append(r.stmts, sql)
	return pgconn.CommandTag{}, nil
}

func TestApply_Order(t *testing.T) {
	rec := &recorder{}
	if err := Apply(context.Background(), rec); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(rec.stmts) != 2 {
		t.Fatalf("applied %d files, want 2", len(rec.stmts))
	}
	if !strings.Contains(rec.stmts[0], "CREATE TABLE IF NOT EXISTS users") {
		t.Error("users must be created first")
	}
	if !strings.Contains(rec.stmts[1], "NULLS NOT DISTINCT") {
		t.Error("cars table must carry the null-safe natural key constraint")
	}
}

func TestApply_StopsOnError(t *testing.T) {
	rec := &recorder{fail: "users"}
	err := Apply(context.Background(), rec)
	if err == nil || !strings.Contains(err.Error(), "001_users.sql") {
		t.Errorf("error = %v, want failure naming the file", err)
	}
	if len(rec.stmts) != 0 {
		t.Error("later files should not run after a failure")
	}
}
