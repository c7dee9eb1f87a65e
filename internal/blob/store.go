package blob

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store sube binarios bajo una clave y expone la URL pública de cada objeto.
// Put sobrescribe si la clave ya existe.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PublicURL(key string) string
}

const profilePrefix = "profiles"

// ObjectKey genera la clave profiles/<epoch-millis>_<filename> de una imagen de perfil.
func ObjectKey(now time.Time, filename string) string {
	return fmt.Sprintf("%s/%d_%s", profilePrefix, now.UnixMilli(), filename)
}

type disabledStore struct {
	reason string
}

// NewDisabledStore devuelve un Store que falla en cada Put. Se usa cuando el
// backend no pudo construirse, para que el error aparezca en el primer uso.
func NewDisabledStore(reason string) Store {
	return &disabledStore{reason: reason}
}

func (s *disabledStore) Put(_ context.Context, _ string, _ []byte, _ string) error {
	if s.reason == "" {
		return errors.New("blob store disabled")
	}
	return errors.New(s.reason)
}

func (s *disabledStore) PublicURL(key string) string {
	return key
}
