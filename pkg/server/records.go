package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

type bulkUpdateRequest struct {
	IDs    []uuid.UUID              `json:"ids" binding:"required,min=1"`
	Fields map[schema.Field]*string `json:"fields" binding:"required"`
}

type bulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

func recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("record %q: %v", c.Param("id"), apperrors.ErrNotFound)})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) listRecords(c *gin.Context) {
	records, err := s.store.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if records == nil {
		records = []*store.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// createRecord adds one record from a JSON object keyed by canonical field
// name. Values are cleaned the same way as imported cells.
func (s *Server) createRecord(c *gin.Context) {
	var fields map[schema.Field]*string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var rec schema.Record
	set := 0
	for f, v := range fields {
		if !schema.IsCanonical(f) {
			s.respondError(c, fmt.Errorf("%q: %w", f, apperrors.ErrInvalidField))
			return
		}
		if cleaned := schema.CleanValue(v); cleaned != nil {
			rec.Set(f, cleaned)
			set++
		}
	}
	if set == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one field must have a value"})
		return
	}

	saved, err := s.store.Save(c.Request.Context(), []schema.Record{rec})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"saved": saved})
}

// updateRecords sets the same fields on every listed record.
func (s *Server) updateRecords(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := s.store.UpdateMany(c.Request.Context(), req.IDs, req.Fields)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (s *Server) deleteRecords(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := s.store.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (s *Server) getRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	rec, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// updateRecord overwrites the fields named in the JSON body, keyed by
// canonical field name. A null value empties the field.
func (s *Server) updateRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var fields map[schema.Field]*string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := s.store.Update(ctx, id, fields); err != nil {
		s.respondError(c, err)
		return
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteRecord(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
