package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"profile-store/internal/db"
	"profile-store/internal/domain"
)

const (
	pgUndefinedTable  = "42P01"
	pgDuplicateTable  = "42P07"
	pgUniqueViolation = "23505"
)

type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PgDocumentStore implementa DocumentStore sobre Postgres: una tabla por
// colección, con la clave como PRIMARY KEY y el documento en JSONB.
// Abre una conexión por llamada, igual que MongoDocumentStore.
type PgDocumentStore struct {
	logger      *zap.Logger
	databaseURL string
	// tablas ya creadas por este proceso, clave "<collection>/<keyField>"
	ensured sync.Map
}

func NewPgDocumentStore(logger *zap.Logger, databaseURL string) *PgDocumentStore {
	return &PgDocumentStore{logger: logger, databaseURL: databaseURL}
}

func (s *PgDocumentStore) UpsertByKey(ctx context.Context, collection, keyField, keyValue string, fields domain.Profile) error {
	doc := fields.Clone()
	doc[keyField] = keyValue
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	return s.withConn(ctx, func(conn *pgx.Conn) error {
		if err := s.ensureTable(ctx, conn, collection, keyField); err != nil {
			return err
		}
		tag, err := conn.Exec(ctx, pgUpsertQuery(collection, keyField), keyValue, payload)
		if isUndefinedTable(err) {
			s.ensured.Delete(collection + "/" + keyField)
		}
		if err != nil {
			return fmt.Errorf("postgres upsert: %w", err)
		}
		s.logger.Info("postgres upsert",
			zap.String("collection", collection),
			zap.Int64("rows", tag.RowsAffected()),
		)
		return nil
	})
}

func (s *PgDocumentStore) FindOne(ctx context.Context, collection, keyField, keyValue string) (domain.Profile, error) {
	var raw []byte
	err := s.withConn(ctx, func(conn *pgx.Conn) error {
		err := conn.QueryRow(ctx, pgFindQuery(collection, keyField), keyValue).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) || isUndefinedTable(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("postgres find: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var doc domain.Profile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (s *PgDocumentStore) withConn(ctx context.Context, fn func(conn *pgx.Conn) error) error {
	conn, err := db.Connect(ctx, s.databaseURL)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer func() {
		if err := conn.Close(context.Background()); err != nil {
			s.logger.Warn("postgres close failed", zap.Error(err))
		}
	}()
	return fn(conn)
}

// ensureTable crea la tabla de la colección una vez por proceso. Si otro
// proceso la crea a la vez, Postgres puede responder 42P07 o 23505
// (pg_type_typname_nsp_index); la tabla existe igual.
func (s *PgDocumentStore) ensureTable(ctx context.Context, conn pgExecer, collection, keyField string) error {
	key := collection + "/" + keyField
	if _, ok := s.ensured.Load(key); ok {
		return nil
	}
	if _, err := conn.Exec(ctx, pgCreateTableQuery(collection, keyField)); err != nil && !isCreateTableRace(err) {
		return fmt.Errorf("postgres ensure table: %w", err)
	}
	s.ensured.Store(key, struct{}{})
	return nil
}

func isCreateTableRace(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == pgDuplicateTable || pgErr.Code == pgUniqueViolation)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}

func pgCreateTableQuery(collection, keyField string) string {
	return fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, doc JSONB NOT NULL DEFAULT '{}'::jsonb)`,
		pgx.Identifier{collection}.Sanitize(),
		pgx.Identifier{keyField}.Sanitize(),
	)
}

// pgUpsertQuery usa el operador || de jsonb: reemplaza claves de primer nivel.
func pgUpsertQuery(collection, keyField string) string {
	table := pgx.Identifier{collection}.Sanitize()
	key := pgx.Identifier{keyField}.Sanitize()
	return fmt.Sprintf(
		`INSERT INTO %s (%s, doc) VALUES ($1, $2::jsonb) ON CONFLICT (%s) DO UPDATE SET doc = %s.doc || EXCLUDED.doc`,
		table, key, key, table,
	)
}

func pgFindQuery(collection, keyField string) string {
	return fmt.Sprintf(
		`SELECT doc FROM %s WHERE %s = $1`,
		pgx.Identifier{collection}.Sanitize(),
		pgx.Identifier{keyField}.Sanitize(),
	)
}
