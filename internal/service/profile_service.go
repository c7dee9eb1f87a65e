package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"profile-store/internal/blob"
	"profile-store/internal/domain"
	"profile-store/internal/repository"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrUpload      = errors.New("upload error")
	ErrPersistence = errors.New("persistence error")

	ErrEmailRequired  = fmt.Errorf("%w: email is required", ErrValidation)
	ErrInvalidPayload = fmt.Errorf("%w: invalid user payload", ErrValidation)
)

// ProfileService coordina reglas de negocio para perfiles.
type ProfileService struct {
	logger   *zap.Logger
	profiles repository.ProfileRepository
	blobs    blob.Store
	cache    ProfileCache
	now      func() time.Time
}

func NewProfileService(logger *zap.Logger, profiles repository.ProfileRepository, blobs blob.Store, cache ProfileCache) *ProfileService {
	if cache == nil {
		cache = noopProfileCache{}
	}
	return &ProfileService{
		logger:   logger,
		profiles: profiles,
		blobs:    blobs,
		cache:    cache,
		now:      time.Now,
	}
}

// Upsert crea o actualiza el perfil descrito por rawUser (objeto JSON).
// Si hay imagen, se sube antes de tocar el documento; si la subida falla
// no se persiste nada. Si el upsert falla tras una subida exitosa, la imagen
// queda huérfana en el blob store.
// Devuelve exactamente los campos enviados al almacén.
func (s *ProfileService) Upsert(ctx context.Context, rawUser string, image *domain.ImageUpload) (domain.Profile, error) {
	var payload domain.Profile
	if err := json.Unmarshal([]byte(rawUser), &payload); err != nil || payload == nil {
		return nil, ErrInvalidPayload
	}

	email := payload.Email()
	if email == "" {
		return nil, ErrEmailRequired
	}

	update := payload.Clone()
	update[domain.FieldEmail] = email

	if image != nil {
		key := blob.ObjectKey(s.now(), image.Filename)
		s.logger.Info("uploading profile image", zap.String("key", key), zap.Int("bytes", len(image.Data)))
		if err := s.blobs.Put(ctx, key, image.Data, image.ContentType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpload, err)
		}
		update[domain.FieldImageURL] = s.blobs.PublicURL(key)
	}

	if err := s.profiles.Upsert(ctx, email, update); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.cache.Delete(ctx, email); err != nil {
		s.logger.Warn("profile cache invalidation failed", zap.String("email", email), zap.Error(err))
	}

	return update, nil
}

// Get busca el perfil por email exacto (sólo se recorta). found es false si
// no existe; eso no es un error.
func (s *ProfileService) Get(ctx context.Context, rawEmail string) (profile domain.Profile, found bool, err error) {
	email := strings.TrimSpace(rawEmail)
	if email == "" {
		return nil, false, ErrEmailRequired
	}

	if cached, ok, err := s.cache.Get(ctx, email); err != nil {
		s.logger.Warn("profile cache read failed", zap.String("email", email), zap.Error(err))
	} else if ok {
		return cached, true, nil
	}

	profile, err = s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.cache.Set(ctx, email, profile); err != nil {
		s.logger.Warn("profile cache write failed", zap.String("email", email), zap.Error(err))
	}
	return profile, true, nil
}
