package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	profileH *ProfileHandler,
	staticH *StaticHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: request id, logging, recovery y errores no atendidos con respuesta JSON.
	r.Use(
		requestIDMiddleware(),
		zapLoggerMiddleware(logger),
		recoveryMiddleware(logger),
		unhandledErrorMiddleware(logger),
	)

	r.GET("/", staticH.Home)
	r.GET("/profile-picture", staticH.ProfilePicture)

	r.POST("/update-profile", profileH.UpdateProfile)
	r.GET("/get-profile", profileH.GetProfile)

	// Cualquier otra ruta GET se resuelve contra el directorio estático.
	r.NoRoute(staticH.Asset)

	return r
}

// requestIDMiddleware propaga X-Request-ID o genera uno nuevo.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}

// recoveryMiddleware es el respondedor de último recurso para panics:
// 500 con un mensaje genérico, el detalle sólo va al log.
func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("unhandled error",
			zap.Any("panic", rec),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
	})
}

// unhandledErrorMiddleware responde 500 cuando un handler registró errores
// con c.Error sin escribir respuesta.
func unhandledErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			logger.Error("unhandled error",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString("request_id")),
				zap.String("error", c.Errors.String()),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
		}
	}
}
