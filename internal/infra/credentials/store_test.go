package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error { return r.scan(dest...) }

type stubSQL struct {
	value   string
	scanErr error
	execs   int
	lastArg string
}

func (s *stubSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs++
	if len(args) > 1 {
		s.lastArg, _ = args[1].(string)
	}
	return pgconn.CommandTag{}, nil
}

func (s *stubSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return stubRow{scan: func(dest ...any) error {
		if s.scanErr != nil {
			return s.scanErr
		}
		if ptr, ok := dest[0].(*string); ok {
			*ptr = s.value
		}
		return nil
	}}
}

func (s *stubSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func TestGlobalKeyTrimsStoredValue(t *testing.T) {
	store := NewStore(&stubSQL{value: "  alpha-key \n"})
	key, err := store.GlobalKey(context.Background())
	if err != nil {
		t.Fatalf("GlobalKey: %v", err)
	}
	if key != "alpha-key" {
		t.Fatalf("key = %q", key)
	}
}

func TestGlobalKeyMissingRowIsNotAnError(t *testing.T) {
	store := NewStore(&stubSQL{scanErr: pgx.ErrNoRows})
	key, err := store.GlobalKey(context.Background())
	if err != nil {
		t.Fatalf("GlobalKey: %v", err)
	}
	if key != "" {
		t.Fatalf("key = %q, want empty", key)
	}
}

func TestSetGlobalKeyRejectsEmpty(t *testing.T) {
	sql := &stubSQL{}
	store := NewStore(sql)
	if err := store.SetGlobalKey(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty key")
	}
	if sql.execs != 0 {
		t.Fatal("empty key must not be persisted")
	}
	if err := store.SetGlobalKey(context.Background(), " beta "); err != nil {
		t.Fatalf("SetGlobalKey: %v", err)
	}
	if sql.lastArg != "beta" {
		t.Fatalf("stored %q, want trimmed key", sql.lastArg)
	}
}
