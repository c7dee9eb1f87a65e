package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-store/internal/domain"
	"profile-store/internal/service"
)

const (
	userField  = "user"
	imageField = "profileImage"
)

var errUploadTooLarge = errors.New("upload too large")

// ProfileHandler mantiene dependencias para endpoints de perfiles.
type ProfileHandler struct {
	logger         *zap.Logger
	profileServ    *service.ProfileService
	maxUploadBytes int64
}

// NewProfileHandler crea una instancia de ProfileHandler con dependencias necesarias.
func NewProfileHandler(logger *zap.Logger, profileServ *service.ProfileService, maxUploadBytes int64) *ProfileHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &ProfileHandler{
		logger:         logger,
		profileServ:    profileServ,
		maxUploadBytes: maxUploadBytes,
	}
}

// UpdateProfile maneja POST /update-profile.
// Acepta multipart (user + profileImage opcional) o JSON {"user": ...}.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	h.logger.Info("update profile request received", zap.String("request_id", c.GetString("request_id")))

	rawUser, image, err := h.readUpdateRequest(c)
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large."})
			return
		}
		h.logger.Warn("invalid update profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user payload."})
		return
	}

	profile, err := h.profileServ.Upsert(c.Request.Context(), rawUser, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRequired):
			h.logger.Warn("email is missing in payload")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required."})
		case errors.Is(err, service.ErrValidation):
			h.logger.Warn("invalid user payload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user payload."})
		case errors.Is(err, service.ErrUpload):
			h.logger.Error("profile image upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image to S3."})
		default:
			h.logger.Error("update profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetProfile maneja GET /get-profile?email=.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	email := c.Query("email")
	h.logger.Info("looking up profile", zap.String("email", strings.TrimSpace(email)))

	profile, found, err := h.profileServ.Get(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.logger.Warn("no email provided to get profile")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required."})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{"newUser": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *ProfileHandler) readUpdateRequest(c *gin.Context) (string, *domain.ImageUpload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	if c.ContentType() == gin.MIMEJSON {
		rawUser, err := readJSONUser(c)
		return rawUser, nil, err
	}

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return "", nil, classifyBodyError(err)
		}
	}

	rawUser := c.PostForm(userField)
	image, err := readImage(c)
	if err != nil {
		return "", nil, classifyBodyError(err)
	}
	return rawUser, image, nil
}

// readJSONUser acepta "user" como string JSON o como objeto.
func readJSONUser(c *gin.Context) (string, error) {
	var body struct {
		User json.RawMessage `json:"user"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", classifyBodyError(err)
	}
	var asString string
	if err := json.Unmarshal(body.User, &asString); err == nil {
		return asString, nil
	}
	return string(body.User), nil
}

func readImage(c *gin.Context) (*domain.ImageUpload, error) {
	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &domain.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func classifyBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errUploadTooLarge
	}
	return err
}
