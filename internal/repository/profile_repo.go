package repository

import (
	"context"

	"profile-store/internal/domain"
)

// Colección y campo clave de los perfiles.
const (
	ProfilesCollection = "users"
	ProfilesKeyField   = domain.FieldEmail
)

// ProfileRepository define el contrato de persistencia para perfiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, email string, fields domain.Profile) error
	GetByEmail(ctx context.Context, email string) (domain.Profile, error)
}

// DocumentProfileRepository guarda perfiles en la colección users de un DocumentStore.
type DocumentProfileRepository struct {
	store DocumentStore
}

func NewDocumentProfileRepository(store DocumentStore) *DocumentProfileRepository {
	return &DocumentProfileRepository{store: store}
}

func (r *DocumentProfileRepository) Upsert(ctx context.Context, email string, fields domain.Profile) error {
	return r.store.UpsertByKey(ctx, ProfilesCollection, ProfilesKeyField, email, fields)
}

func (r *DocumentProfileRepository) GetByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return r.store.FindOne(ctx, ProfilesCollection, ProfilesKeyField, email)
}
