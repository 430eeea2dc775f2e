package server

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"avlmap/pkg/importer"
	"avlmap/pkg/schema"
	"avlmap/pkg/store"
	"avlmap/pkg/table"
)

const csvContentType = "text/csv; charset=utf-8"

// csvCell renders one value; nil becomes an empty cell.
func csvCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	default:
		return fmt.Sprint(t)
	}
}

func writeTableCSV(buf *bytes.Buffer, t *table.Table) error {
	w := csv.NewWriter(buf)
	if err := w.Write(t.Names()); err != nil {
		return err
	}
	row := make([]string, t.Len())
	for i := 0; i < t.RowCount(); i++ {
		for j, v := range t.Row(i) {
			row[j] = csvCell(v)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeRecordsCSV(buf *bytes.Buffer, records []*store.Record) error {
	w := csv.NewWriter(buf)
	header := make([]string, 0, schema.FieldCount+2)
	header = append(header, "Item ID")
	for _, f := range schema.Fields() {
		header = append(header, string(f))
	}
	header = append(header, "Date Added")
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, rec := range records {
		row[0] = rec.ID.String()
		for i, v := range rec.Fields {
			row[i+1] = csvCell(v)
		}
		row[len(row)-1] = rec.DateAdded
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func sendCSV(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, csvContentType, data)
}

// outputCSV downloads the mapped upload as a canonical CSV.
func (s *Server) outputCSV(c *gin.Context) {
	id, ok := s.uploadID(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := s.importer.Do(id, func(u *importer.Upload) error {
		out, err := u.Session().Apply()
		if err != nil {
			return err
		}
		return writeTableCSV(&buf, out)
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	sendCSV(c, "avl_processed.csv", buf.Bytes())
}

// recordsCSV downloads the stored AVL.
func (s *Server) recordsCSV(c *gin.Context) {
	records, err := s.store.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := writeRecordsCSV(&buf, records); err != nil {
		s.respondError(c, err)
		return
	}
	sendCSV(c, "avl_records.csv", buf.Bytes())
}
