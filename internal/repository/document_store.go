package repository

import (
	"context"
	"errors"

	"profile-store/internal/domain"
)

// ErrNotFound indica que no existe documento para la clave pedida.
var ErrNotFound = errors.New("document not found")

// DocumentStore define el contrato del almacén de documentos.
// Cada llamada abre su propia conexión y la cierra antes de volver.
type DocumentStore interface {
	// UpsertByKey busca el documento con keyField == keyValue y le aplica los
	// campos (merge superficial), o lo crea si no existe. Es una sola operación atómica.
	UpsertByKey(ctx context.Context, collection, keyField, keyValue string, fields domain.Profile) error
	// FindOne devuelve ErrNotFound si no hay coincidencia exacta.
	FindOne(ctx context.Context, collection, keyField, keyValue string) (domain.Profile, error)
}
