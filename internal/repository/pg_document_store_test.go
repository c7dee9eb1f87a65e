package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"profile-store/internal/domain"
)

func TestPgQueries(t *testing.T) {
	if got, want := pgCreateTableQuery("users", "email"), `CREATE TABLE IF NOT EXISTS "users" ("email" TEXT PRIMARY KEY, doc JSONB NOT NULL DEFAULT '{}'::jsonb)`; got != want {
		t.Fatalf("create table query:\n got %s\nwant %s", got, want)
	}
	if got, want := pgUpsertQuery("users", "email"), `INSERT INTO "users" ("email", doc) VALUES ($1, $2::jsonb) ON CONFLICT ("email") DO UPDATE SET doc = "users".doc || EXCLUDED.doc`; got != want {
		t.Fatalf("upsert query:\n got %s\nwant %s", got, want)
	}
	if got, want := pgFindQuery("users", "email"), `SELECT doc FROM "users" WHERE "email" = $1`; got != want {
		t.Fatalf("find query:\n got %s\nwant %s", got, want)
	}
}

func TestPgQueriesEscapeIdentifiers(t *testing.T) {
	got := pgFindQuery(`users"; DROP TABLE x; --`, "email")
	want := `SELECT doc FROM "users""; DROP TABLE x; --" WHERE "email" = $1`
	if got != want {
		t.Fatalf("identifier not escaped:\n got %s\nwant %s", got, want)
	}
}

func TestIsUndefinedTable(t *testing.T) {
	if !isUndefinedTable(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "42P01"})) {
		t.Fatalf("expected undefined table to be detected")
	}
	if isUndefinedTable(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violation is not undefined table")
	}
	if isUndefinedTable(errors.New("boom")) {
		t.Fatalf("plain errors are not undefined table")
	}
}

type mockExecer struct {
	calls int
	err   error
}

func (m *mockExecer) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	m.calls++
	return pgconn.NewCommandTag("CREATE TABLE"), m.err
}

func TestPgDocumentStoreEnsureTable(t *testing.T) {
	ctx := context.Background()

	t.Run("creates once per collection", func(t *testing.T) {
		store := NewPgDocumentStore(zap.NewNop(), "")
		conn := &mockExecer{}
		for i := 0; i < 3; i++ {
			if err := store.ensureTable(ctx, conn, "users", "email"); err != nil {
				t.Fatalf("ensure table: %v", err)
			}
		}
		if conn.calls != 1 {
			t.Fatalf("expected a single CREATE TABLE, got %d", conn.calls)
		}
		if err := store.ensureTable(ctx, conn, "accounts", "email"); err != nil {
			t.Fatalf("ensure table: %v", err)
		}
		if conn.calls != 2 {
			t.Fatalf("expected a CREATE TABLE for a new collection, got %d", conn.calls)
		}
	})

	t.Run("concurrent creation is not an error", func(t *testing.T) {
		for _, code := range []string{"42P07", "23505"} {
			store := NewPgDocumentStore(zap.NewNop(), "")
			conn := &mockExecer{err: &pgconn.PgError{Code: code}}
			if err := store.ensureTable(ctx, conn, "users", "email"); err != nil {
				t.Fatalf("code %s: expected race to be tolerated, got %v", code, err)
			}
			conn.err = nil
			_ = store.ensureTable(ctx, conn, "users", "email")
			if conn.calls != 1 {
				t.Fatalf("code %s: table must be marked as ensured, calls=%d", code, conn.calls)
			}
		}
	})

	t.Run("other errors are retried next time", func(t *testing.T) {
		store := NewPgDocumentStore(zap.NewNop(), "")
		conn := &mockExecer{err: &pgconn.PgError{Code: "42501"}}
		if err := store.ensureTable(ctx, conn, "users", "email"); err == nil {
			t.Fatalf("expected permission error")
		}
		conn.err = nil
		if err := store.ensureTable(ctx, conn, "users", "email"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conn.calls != 2 {
			t.Fatalf("expected retry after failure, calls=%d", conn.calls)
		}
	})
}

func TestPgDocumentStoreIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_TEST_URL")
	if url == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	ctx := context.Background()
	store := NewPgDocumentStore(zap.NewNop(), url)
	collection := fmt.Sprintf("users_%d", time.Now().UnixNano())
	email := "it@example.com"

	if _, err := store.FindOne(ctx, collection, "email", email); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing table, got %v", err)
	}

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			errs <- store.UpsertByKey(ctx, collection, "email", fmt.Sprintf("race%d@example.com", i), domain.Profile{"n": float64(i)})
		}(i)
	}
	for i := 0; i < 4; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent first upserts: %v", err)
		}
	}
	if err := store.UpsertByKey(ctx, collection, "email", email, domain.Profile{"email": email, "name": "Ann", "bio": "a"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.UpsertByKey(ctx, collection, "email", email, domain.Profile{"email": email, "name": "Annie"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.FindOne(ctx, collection, "email", email)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got["name"] != "Annie" || got["bio"] != "a" || got["email"] != email {
		t.Fatalf("expected shallow merge, got %v", got)
	}
}
