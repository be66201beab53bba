package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ComicsFetchedTotal.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ComicsFetchedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ComicsFetchedTotal))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RemoteFrontier.Set(3000)
	m.ComicsIndexedTotal.WithLabelValues("indexed").Add(2)

	path := filepath.Join(t.TempDir(), "xkcd.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "xkcd_remote_frontier 3000")
	assert.Contains(t, string(data), `xkcd_comics_indexed_total{outcome="indexed"} 2`)
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.SyncHaltsTotal.Inc()
	require.NoError(t, m.Push(context.Background(), srv.URL, "xkcd-index"))

	assert.True(t, strings.HasSuffix(gotPath, "/job/xkcd-index"), gotPath)
	assert.NotEmpty(t, gotBody)
}
