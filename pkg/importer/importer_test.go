package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"avlmap/pkg/apperrors"
	"avlmap/pkg/engine"
	"avlmap/pkg/mapping"
	"avlmap/pkg/parser"
	"avlmap/pkg/schema"
	"avlmap/pkg/store"
)

// avlCSV builds a CSV whose header is the canonical field list.
func avlCSV(rows ...[]string) []byte {
	names := make([]string, 0, schema.FieldCount)
	for _, f := range schema.Fields() {
		names = append(names, string(f))
	}
	lines := []string{strings.Join(names, ",")}
	for _, r := range rows {
		lines = append(lines, strings.Join(r, ","))
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

func avlLine(manufacturer, sku, desc string) []string {
	row := make([]string, schema.FieldCount)
	for i := range row {
		row[i] = "v"
	}
	row[schema.Index(schema.Manufacturer)] = manufacturer
	row[schema.Index(schema.ModelSKU)] = sku
	row[schema.Index(schema.ProductModelDescription)] = desc
	return row
}

func newImporter(t *testing.T) (*Importer, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return New(st, Options{SampleSize: 2, SampleWidth: 30}, zaptest.NewLogger(t)), st
}

func TestImporter_UploadAutoMapCommit(t *testing.T) {
	ctx := context.Background()
	im, st := newImporter(t)

	u, err := im.Upload("avl.csv", avlCSV(
		avlLine("Acme", "AC-400", "Mono 400W panel"),
		avlLine("Bolt", "B-1", "Rail"),
	))
	require.NoError(t, err)
	assert.Equal(t, parser.EncodingUTF8, u.Encoding)
	assert.Empty(t, u.Warnings)

	require.NoError(t, im.Do(u.ID, func(u *Upload) error {
		assert.Len(t, u.Session().AutoMap(), schema.FieldCount)
		return nil
	}))

	status, err := im.Status(u.ID)
	require.NoError(t, err)
	assert.True(t, status.Valid)
	assert.Equal(t, 2, status.RowCount)
	assert.Equal(t, []string{"Acme", "Bolt"}, status.Sources[1].Samples)

	rep, err := im.Commit(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Saved)
	assert.Equal(t, 2, rep.TotalNew)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AC-400", list[0].Fields.String(schema.ModelSKU))
	assert.Equal(t, "v", list[0].Fields.String(schema.InternalNotes))

	got, err := im.Get(u.ID)
	require.NoError(t, err)
	assert.True(t, got.Session().Complete())
}

func TestImporter_CommitReconcilesAgainstStore(t *testing.T) {
	ctx := context.Background()
	im, st := newImporter(t)

	first, err := im.Upload("first.csv", avlCSV(avlLine("Acme", "AC-400", "Mono 400W panel")))
	require.NoError(t, err)
	require.NoError(t, im.Do(first.ID, func(u *Upload) error { u.Session().AutoMap(); return nil }))
	_, err = im.Commit(ctx, first.ID)
	require.NoError(t, err)

	second, err := im.Upload("second.csv", avlCSV(
		avlLine("ACME", "ac-400", "Mono 400W panel"),
		avlLine("Acme", "AC-405", "Mono 405W panel"),
		avlLine("Core", "C-1", "Optimizer"),
	))
	require.NoError(t, err)
	require.NoError(t, im.Do(second.ID, func(u *Upload) error { u.Session().AutoMap(); return nil }))

	preview, err := im.Preview(ctx, second.ID)
	require.NoError(t, err)
	assert.Zero(t, preview.Saved)
	list, _ := st.List(ctx)
	assert.Len(t, list, 1)

	rep, err := im.Commit(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Saved)
	assert.Equal(t, engine.ReconcileStats{TotalProcessed: 3, ExactSKU: 1, FuzzyDescription: 1, New: 1}, rep.Stats)
	assert.Equal(t, engine.MatchExactSKU, rep.Entries[0].MatchType)
	assert.Equal(t, engine.MatchFuzzyDescription, rep.Entries[1].MatchType)

	list, _ = st.List(ctx)
	assert.Len(t, list, 4)
}

func TestImporter_CommitIncomplete(t *testing.T) {
	im, st := newImporter(t)

	u, err := im.Upload("partial.csv", []byte("Manufacturer,Model SKU\nAcme,AC-400\n"))
	require.NoError(t, err)
	require.NoError(t, im.Do(u.ID, func(u *Upload) error { u.Session().AutoMap(); return nil }))

	_, err = im.Commit(context.Background(), u.ID)
	require.ErrorIs(t, err, mapping.ErrIncompleteMapping)
	assert.Contains(t, err.Error(), string(schema.EquipmentCategory))
	assert.NotContains(t, err.Error(), string(schema.Manufacturer))

	list, _ := st.List(context.Background())
	assert.Empty(t, list)
}

func TestImporter_ReplaceResetsSession(t *testing.T) {
	im, _ := newImporter(t)

	u, err := im.Upload("a.csv", []byte("Manufacturer,Cat\nAcme,panel\n"))
	require.NoError(t, err)
	require.NoError(t, im.Do(u.ID, func(u *Upload) error {
		return u.Session().Set("Manufacturer", schema.Manufacturer)
	}))

	replaced, err := im.Replace(u.ID, "b.csv", []byte("Mfr,Model\nAcme,AC-400\n"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, replaced.ID)
	assert.Equal(t, "b.csv", replaced.Name)
	assert.Empty(t, replaced.Session().Entries())
	assert.Equal(t, []string{"Mfr", "Model"}, replaced.Session().Table().Names())
}

func TestImporter_Errors(t *testing.T) {
	im, _ := newImporter(t)

	_, err := im.Upload("avl.pdf", []byte("x"))
	assert.ErrorIs(t, err, parser.ErrUnsupported)

	_, err = im.Status(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNoSession)
	_, err = im.Commit(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNoSession)

	u, err := im.Upload("a.csv", []byte("Manufacturer\nAcme\n"))
	require.NoError(t, err)
	require.NoError(t, im.Discard(u.ID))
	assert.ErrorIs(t, im.Discard(u.ID), apperrors.ErrNoSession)
	_, err = im.Get(u.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoSession)
}

func TestImporter_RepeatedHeadersAreMappable(t *testing.T) {
	im, _ := newImporter(t)

	u, err := im.Upload("notes.csv", []byte("Manufacturer,Notes,Notes\nAcme,site a,crate 4\n"))
	require.NoError(t, err)

	require.NoError(t, im.Do(u.ID, func(u *Upload) error {
		s := u.Session()
		assert.Equal(t, []string{"Manufacturer", "Notes", "Notes.1"}, s.Table().Names())

		s.AutoMap()
		f, ok := s.Field("Notes")
		require.True(t, ok)
		assert.Equal(t, schema.InternalNotes, f)
		_, ok = s.Field("Notes.1")
		assert.False(t, ok)

		return s.Set("Notes.1", schema.AdditionalNotes)
	}))

	status, err := im.Status(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Mapped)
}

func TestImporter_SnapshotDuringReplace(t *testing.T) {
	im, _ := newImporter(t)

	u, err := im.Upload("v0.csv", []byte("Manufacturer\nAcme\n"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 20; i++ {
			_, err := im.Replace(u.ID, fmt.Sprintf("v%d.csv", i), []byte("Manufacturer,a,b\nAcme,x\n"))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			info, status, err := im.Snapshot(u.ID)
			assert.NoError(t, err)
			assert.Equal(t, u.ID, info.ID)
			assert.NotNil(t, status)
		}
	}()
	wg.Wait()

	info, _, err := im.Snapshot(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "v20.csv", info.Name)
	require.Len(t, info.Warnings, 1)
	assert.Contains(t, info.Warnings[0].Message, "padding")
}
