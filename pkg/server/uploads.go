package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/importer"
	"avlmap/pkg/mapping"
	"avlmap/pkg/report"
	"avlmap/pkg/schema"
)

type setMappingRequest struct {
	Source string       `json:"source" binding:"required"`
	Field  schema.Field `json:"field"`
}

type uploadResponse struct {
	Upload importer.Info         `json:"upload"`
	Status *report.MappingStatus `json:"status"`
}

func (s *Server) uploadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("upload %q: %v", c.Param("id"), apperrors.ErrNoSession)})
		return uuid.Nil, false
	}
	return id, true
}

// readFile reads the multipart "file" field, capped at maxUploadBytes.
func (s *Server) readFile(c *gin.Context) (string, []byte, error) {
	if s.maxUploadBytes > 0 {
		if c.Request.ContentLength > s.maxUploadBytes {
			return "", nil, &http.MaxBytesError{Limit: s.maxUploadBytes}
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("file is required: %w", apperrors.ErrInvalidField)
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return header.Filename, data, nil
}

// respondParseError reports a file the importer could not read. Anything the
// importer rejects is a problem with the file, not the server.
func (s *Server) respondParseError(c *gin.Context, err error) {
	if status := statusFor(err); status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) respondStatus(c *gin.Context, code int, id uuid.UUID) {
	info, status, err := s.importer.Snapshot(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(code, uploadResponse{Upload: info, Status: status})
}

func (s *Server) createUpload(c *gin.Context) {
	name, data, err := s.readFile(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	u, err := s.importer.Upload(name, data)
	if err != nil {
		s.respondParseError(c, err)
		return
	}
	s.respondStatus(c, http.StatusCreated, u.ID)
}

func (s *Server) replaceUpload(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	if _, err := s.importer.Get(id); err != nil {
		s.respondError(c, err)
		return
	}
	name, data, err := s.readFile(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if _, err := s.importer.Replace(id, name, data); err != nil {
		s.respondParseError(c, err)
		return
	}
	s.respondStatus(c, http.StatusOK, id)
}

func (s *Server) getUpload(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	s.respondStatus(c, http.StatusOK, id)
}

func (s *Server) deleteUpload(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	if err := s.importer.Discard(id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// mutate runs fn on the upload's session and responds with the new status.
func (s *Server) mutate(c *gin.Context, fn func(*mapping.Session) error) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	err := s.importer.Do(id, func(u *importer.Upload) error {
		return fn(u.Session())
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.respondStatus(c, http.StatusOK, id)
}

func (s *Server) setMapping(c *gin.Context) {
	var req setMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mutate(c, func(sess *mapping.Session) error {
		return sess.Set(req.Source, req.Field)
	})
}

func (s *Server) clearMapping(c *gin.Context) {
	source := c.Query("source")
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required"})
		return
	}
	s.mutate(c, func(sess *mapping.Session) error {
		sess.Clear(source)
		return nil
	})
}

func (s *Server) autoMap(c *gin.Context) {
	s.mutate(c, func(sess *mapping.Session) error {
		sess.AutoMap()
		return nil
	})
}

func (s *Server) resetMapping(c *gin.Context) {
	s.mutate(c, func(sess *mapping.Session) error {
		sess.Reset()
		return nil
	})
}

func (s *Server) validateMapping(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	var res mapping.Result
	err := s.importer.Do(id, func(u *importer.Upload) error {
		res = u.Session().Validate()
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// output applies the current mapping and returns the canonical table. The
// optional limit query parameter caps the number of rows returned.
func (s *Server) output(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	limit := -1
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	var (
		columns []string
		rows    [][]any
		total   int
	)
	err := s.importer.Do(id, func(u *importer.Upload) error {
		out, err := u.Session().Apply()
		if err != nil {
			return err
		}
		columns = out.Names()
		total = out.RowCount()
		n := total
		if limit >= 0 && limit < n {
			n = limit
		}
		rows = make([][]any, n)
		for i := range rows {
			rows[i] = out.Row(i)
		}
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": columns, "rows": rows, "rowCount": total})
}

func (s *Server) preview(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	rep, err := s.importer.Preview(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) commit(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	rep, err := s.importer.Commit(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) getPreset(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	name := c.DefaultQuery("name", "default")

	var buf bytes.Buffer
	err := s.importer.Do(id, func(u *importer.Upload) error {
		return mapping.WritePreset(&buf, u.Session().Preset(name))
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/yaml", buf.Bytes())
}

func (s *Server) putPreset(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}
	p, err := mapping.ReadPreset(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var skipped []string
	err = s.importer.Do(id, func(u *importer.Upload) error {
		var applyErr error
		skipped, applyErr = u.Session().ApplyPreset(p)
		return applyErr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if skipped == nil {
		skipped = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"preset": p.Name, "skipped": skipped})
}
