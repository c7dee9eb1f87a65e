package domain

import "strings"

// Campos con significado para el servidor; el resto se guarda tal cual.
const (
	FieldEmail    = "email"
	FieldImageURL = "imageUrl"
)

// Profile es el documento de un usuario: un conjunto abierto de campos JSON
// (null, bool, number, string, array, object) indexado por email.
type Profile map[string]any

// Email devuelve el email recortado, o "" si falta o no es un string.
func (p Profile) Email() string {
	raw, ok := p[FieldEmail].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

// Clone copia los campos de primer nivel. Los valores anidados se comparten.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ImageUpload es la imagen adjunta a un upsert. Sólo vive durante la petición.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
