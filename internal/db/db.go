package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const connectTimeout = 5 * time.Second

// ConnConfig parsea la URL y aplica el timeout de conexión por defecto.
func ConnConfig(databaseURL string) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = connectTimeout
	}
	return cfg, nil
}

// Connect abre una conexión individual. El llamador debe cerrarla.
func Connect(ctx context.Context, databaseURL string) (*pgx.Conn, error) {
	cfg, err := ConnConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	return pgx.ConnectConfig(ctx, cfg)
}
