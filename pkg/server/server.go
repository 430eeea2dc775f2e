// Package server exposes the AVL import workflow over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/importer"
	"avlmap/pkg/mapping"
	"avlmap/pkg/parser"
	"avlmap/pkg/store"
)

// Server holds the HTTP handlers.
type Server struct {
	importer       *importer.Importer
	store          store.Store
	maxUploadBytes int64
	logger         *zap.Logger
}

// New creates a Server. maxUploadBytes caps the size of an uploaded file.
func New(im *importer.Importer, st store.Store, maxUploadBytes int64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		importer:       im,
		store:          st,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("server"),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	uploads := api.Group("/uploads")
	uploads.POST("", s.createUpload)
	uploads.GET("/:id", s.getUpload)
	uploads.DELETE("/:id", s.deleteUpload)
	uploads.PUT("/:id/file", s.replaceUpload)
	uploads.POST("/:id/mapping", s.setMapping)
	uploads.DELETE("/:id/mapping", s.clearMapping)
	uploads.POST("/:id/automap", s.autoMap)
	uploads.POST("/:id/reset", s.resetMapping)
	uploads.GET("/:id/validate", s.validateMapping)
	uploads.GET("/:id/output", s.output)
	uploads.GET("/:id/output.csv", s.outputCSV)
	uploads.GET("/:id/preview", s.preview)
	uploads.POST("/:id/commit", s.commit)
	uploads.GET("/:id/preset", s.getPreset)
	uploads.PUT("/:id/preset", s.putPreset)

	api.GET("/records.csv", s.recordsCSV)
	records := api.Group("/records")
	records.GET("", s.listRecords)
	records.POST("", s.createRecord)
	records.PATCH("", s.updateRecords)
	records.DELETE("", s.deleteRecords)
	records.GET("/:id", s.getRecord)
	records.PATCH("/:id", s.updateRecord)
	records.DELETE("/:id", s.deleteRecord)

	return r
}

// RequestLogger emits one structured log line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, apperrors.ErrNoSession), errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mapping.ErrDuplicateClaim), errors.Is(err, mapping.ErrStaleMapping):
		return http.StatusConflict
	case errors.Is(err, mapping.ErrIncompleteMapping):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrInvalidField),
		errors.Is(err, mapping.ErrUnknownField),
		errors.Is(err, mapping.ErrUnknownSourceColumn),
		errors.Is(err, mapping.ErrNoSourceTable),
		errors.Is(err, parser.ErrEmptyFile),
		errors.Is(err, parser.ErrNoDataRows):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
