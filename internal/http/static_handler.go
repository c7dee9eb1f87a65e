package http

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultPicture = "images/profile-1.jpg"

// StaticHandler sirve la página principal y los assets del directorio estático.
type StaticHandler struct {
	logger *zap.Logger
	dir    string
	files  http.FileSystem
}

func NewStaticHandler(logger *zap.Logger, dir string) *StaticHandler {
	return &StaticHandler{
		logger: logger,
		dir:    dir,
		files:  gin.Dir(dir, false),
	}
}

// Home maneja GET /.
func (h *StaticHandler) Home(c *gin.Context) {
	c.File(filepath.Join(h.dir, "index.html"))
}

// ProfilePicture maneja GET /profile-picture con la imagen por defecto.
func (h *StaticHandler) ProfilePicture(c *gin.Context) {
	img, err := os.ReadFile(filepath.Join(h.dir, filepath.FromSlash(defaultPicture)))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("read default picture failed", zap.Error(err))
		}
		c.String(http.StatusNotFound, "Default image not found")
		return
	}
	c.Data(http.StatusOK, "image/jpg", img)
}

// Asset sirve archivos del directorio estático tal cual; sin listados de directorio.
func (h *StaticHandler) Asset(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}

	name := path.Clean("/" + c.Request.URL.Path)
	f, err := h.files.Open(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}
	stat, err := f.Stat()
	f.Close()
	if err != nil || stat.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}

	c.FileFromFS(name, h.files)
}
