package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestDumperAttach(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "sid=1")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("<p>short and stout</p>"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "dumps")
	dumper, err := NewDumper(dir)
	require.NoError(t, err)

	client := resty.New()
	dumper.Attach(client, "side a")

	_, err = client.R().
		SetHeader("X-Probe", "yes").
		Get(srv.URL + "/menu")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "0001-side_a-GET-418.txt", entries[0].Name())

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(contents), "GET "+srv.URL+"/menu")
	require.Contains(t, string(contents), "X-Probe: yes")
	require.Contains(t, string(contents), "Set-Cookie: sid=1")
	require.Contains(t, string(contents), "<p>short and stout</p>")
}

func TestDumperWriteIsUnique(t *testing.T) {
	dumper, err := NewDumper(t.TempDir())
	require.NoError(t, err)

	first, err := dumper.Write("x", "1")
	require.NoError(t, err)
	second, err := dumper.Write("x", "2")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
