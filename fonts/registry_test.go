package fonts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSourceVariants(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OpenSans.ttf"), []byte("regular"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "OpenSans-Bold.otf"), []byte("bold"), 0o644))

	r := NewRegistry(nil, DirSource{Dir: dir})
	require.NoError(t, r.Load(context.Background(), "Open Sans"))
	assert.True(t, r.Loaded("Open Sans"))

	data, style, ok := r.Bytes("Open Sans", Bold)
	require.True(t, ok)
	assert.Equal(t, Bold, style)
	assert.Equal(t, "bold", string(data))

	data, style, ok = r.Bytes("Open Sans", BoldItalic)
	require.True(t, ok)
	assert.Equal(t, Regular, style)
	assert.Equal(t, "regular", string(data))
}

func TestMissingFamily(t *testing.T) {
	r := NewRegistry(nil, DirSource{Dir: t.TempDir()})
	err := r.Load(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	r.Request("Nope")
	r.Wait()
	assert.False(t, r.Loaded("Nope"))
	assert.Empty(t, r.Families())
}

func TestHTTPSourceAndRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/Roboto/Regular.ttf" {
			_, _ = w.Write([]byte("roboto"))
			return
		}
		http.NotFound(w, req)
	}))
	defer srv.Close()

	r := NewRegistry(nil, HTTPSource{URLTemplate: srv.URL + "/{family}/{style}.ttf"})
	r.Request("Roboto")
	r.Wait()
	require.True(t, r.Loaded("Roboto"))
	assert.Equal(t, []string{"Roboto"}, r.Families())
}

func TestStyleOf(t *testing.T) {
	assert.Equal(t, BoldItalic, StyleOf(true, true))
	assert.Equal(t, Italic, StyleOf(false, true))
	assert.Equal(t, Regular, StyleOf(false, false))
}
