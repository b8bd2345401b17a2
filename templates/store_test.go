package templates

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/reportcanvas/logging"
	"github.com/ByLCY/reportcanvas/model"
	"github.com/ByLCY/reportcanvas/raster"
	"github.com/ByLCY/reportcanvas/storage"
)

type stubThumbs struct {
	out string
	err error
}

func (s stubThumbs) CaptureThumbnail(context.Context, model.Document, int, int) (string, error) {
	return s.out, s.err
}

func newStore(t *testing.T, opts ...Option) (*Store, storage.Storage) {
	t.Helper()
	st := storage.NewMemory()
	return NewStore(st, opts...), st
}

func sampleTemplate(name string) model.CanvasTemplate {
	bg := model.NewImageElement("data:image/png;base64,AAAA", model.Size{Width: 100, Height: 100}, model.Size{Width: 794, Height: 1123})
	return model.CanvasTemplate{
		Name:     name,
		Category: "finance",
		Page: model.TemplatePage{
			Size:            model.SizeA4,
			Orientation:     model.Portrait,
			BackgroundColor: "#FFFBEB",
			Elements:        model.Elements{bg},
		},
	}
}

func TestListEmptyAndCorrupt(t *testing.T) {
	rec := logging.NewRecorder()
	s, st := newStore(t, WithLogger(slog.New(rec)))
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, st.Set(ctx, StorageKey, []byte("{not json")))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, rec.Contains(slog.LevelWarn, "corrupt"))
}

func TestCreateGetUpdate(t *testing.T) {
	clock := time.UnixMilli(1_000)
	s, _ := newStore(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	created, err := s.Create(ctx, sampleTemplate("  Invoice "))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Invoice", created.Name)
	assert.Equal(t, int64(1_000), created.CreatedAt)
	assert.NotNil(t, created.Header.Elements)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Page.Elements.IDs(), got.Page.Elements.IDs())

	clock = time.UnixMilli(5_000)
	got.Name = "Invoice v2"
	got.CreatedAt = 0
	updated, err := s.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), updated.CreatedAt)
	assert.Equal(t, int64(5_000), updated.UpdatedAt)

	again, err := s.Update(ctx, updated)
	require.NoError(t, err)
	assert.Greater(t, again.UpdatedAt, updated.UpdatedAt)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, sampleTemplate("ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateValidates(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, model.CanvasTemplate{})
	assert.Error(t, err)

	bad := sampleTemplate("Bad")
	bad.Page.Size = "B5"
	_, err = s.Create(ctx, bad)
	assert.Error(t, err)

	bad = sampleTemplate("Bad color")
	bad.Header.BackgroundColor = "blue-ish"
	_, err = s.Create(ctx, bad)
	assert.Error(t, err)

	ok := sampleTemplate("Fixed")
	ok.ID = "fixed"
	_, err = s.Create(ctx, ok)
	require.NoError(t, err)
	_, err = s.Create(ctx, ok)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestDuplicateRegeneratesIDs(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureDefaults(ctx))

	cp, err := s.Duplicate(ctx, DefaultReportID)
	require.NoError(t, err)
	orig, err := s.Get(ctx, DefaultReportID)
	require.NoError(t, err)

	assert.NotEqual(t, orig.ID, cp.ID)
	assert.Equal(t, "Budget Report (Copy)", cp.Name)
	assert.False(t, cp.IsDefault)
	assert.NotEqual(t, orig.Header.Elements.IDs(), cp.Header.Elements.IDs())
	assert.Equal(t, len(orig.Header.Elements), len(cp.Header.Elements))

	require.NoError(t, s.Delete(ctx, cp.ID))
}

func TestDeleteDefaultLeavesListUnchanged(t *testing.T) {
	s, st := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureDefaults(ctx))
	before, err := st.Get(ctx, StorageKey)
	require.NoError(t, err)

	err = s.Delete(ctx, DefaultBlankID)
	assert.ErrorIs(t, err, ErrDefaultTemplate)

	after, err := st.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestUpdateKeepsDefaultFlag(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureDefaults(ctx))

	tpl, err := s.Get(ctx, DefaultBlankID)
	require.NoError(t, err)
	tpl.IsDefault = false
	tpl.Name = "Renamed"
	updated, err := s.Update(ctx, tpl)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)
	assert.Equal(t, "Renamed", updated.Name)

	assert.ErrorIs(t, s.Delete(ctx, DefaultBlankID), ErrDefaultTemplate)
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureDefaults(ctx))
	require.NoError(t, s.EnsureDefaults(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, tpl := range list {
		assert.True(t, tpl.IsDefault)
	}

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "report"}, cats)
}

func TestImportInlinesImages(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	_, data, err := raster.DataURL("data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seal.png"), data, 0o644))

	src := `template "Letterhead" {
  category: finance
  header background #DBEAFE {
    text "City Budget Office" at 20 30 size 400 40 { bold: true }
  }
  page A4 portrait {
    image "seal.png" at 297 400 size 200 200
  }
}
`
	out, err := s.Import(ctx, strings.NewReader(src), dir)
	require.NoError(t, err)
	require.Len(t, out, 1)
	img := out[0].Page.Elements[0].(*model.ImageElement)
	assert.True(t, strings.HasPrefix(img.Src, "data:image/png;base64,"))
	assert.Equal(t, "#DBEAFE", out[0].Header.BackgroundColor)

	_, err = s.Import(ctx, strings.NewReader(strings.Replace(src, "Letterhead", "Other", 1)), t.TempDir())
	assert.Error(t, err)
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveFromDocument(t *testing.T) {
	ctx := context.Background()
	doc := model.NewDocument()
	doc.Pages = append(doc.Pages, model.NewPage(model.SizeLong, model.Landscape))
	doc.Pages[1].BackgroundColor = "#EEEEEE"
	doc.CurrentPageIndex = 1
	doc.Header.Elements = model.Elements{model.NewTextElement(model.Size{Width: 1248, Height: 120})}

	s, _ := newStore(t, WithThumbnailer(stubThumbs{out: "data:image/png;base64,THUMB"}))
	tpl, err := s.SaveFromDocument(ctx, doc, Meta{Name: "From editor", Category: "custom"})
	require.NoError(t, err)
	assert.Equal(t, model.SizeLong, tpl.Page.Size)
	assert.Equal(t, model.Landscape, tpl.Page.Orientation)
	assert.Equal(t, "#EEEEEE", tpl.Page.BackgroundColor)
	assert.Equal(t, "data:image/png;base64,THUMB", tpl.Thumbnail)
	assert.Equal(t, doc.Header.Elements.IDs(), tpl.Header.Elements.IDs())

	rec := logging.NewRecorder()
	failing, _ := newStore(t, WithThumbnailer(stubThumbs{err: errors.New("no display")}), WithLogger(slog.New(rec)))
	tpl, err = failing.SaveFromDocument(ctx, doc, Meta{Name: "No thumb"})
	require.NoError(t, err)
	assert.Empty(t, tpl.Thumbnail)
	assert.True(t, rec.Contains(slog.LevelWarn, "thumbnail"))
}
