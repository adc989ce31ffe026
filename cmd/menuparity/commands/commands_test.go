package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"menuparity/internal/history"

	"github.com/stretchr/testify/require"
)

const menu = `<html><body><ul id="dropmenu"><li><a href="/">Home</a></li></ul></body></html>`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configName), []byte(`{
		// comments are allowed
		selector: "nav.main",
		retries: 2,
		login: {phrases: ["Sign in to"]},
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "menuparity.local.json5"), []byte(`{retries: 3}`), 0600))
	t.Chdir(nested)

	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "nav.main", cfg.Selector)
	require.Equal(t, 3, cfg.Retries)
	require.Equal(t, 1500, cfg.DelayMs)
	require.Equal(t, 15000, cfg.TimeoutMs)
	require.NotNil(t, cfg.Login.authflow().Detector)
}

func TestLoadConfigMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
	require.Nil(t, cfg.Login.authflow().Detector)
}

func TestClampIndex(t *testing.T) {
	require.Equal(t, 1, clampIndex(0, 3))
	require.Equal(t, 2, clampIndex(2, 3))
	require.Equal(t, 3, clampIndex(9, 3))
}

func TestValidate(t *testing.T) {
	require.NoError(t, validate(defaultConfig()))

	cfg := defaultConfig()
	cfg.Retries = -1
	require.Error(t, validate(cfg))

	cfg = defaultConfig()
	cfg.Selector = ""
	require.Error(t, validate(cfg))
}

func TestCompareCommand(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(menu))
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("urls.txt", []byte(srv.URL+"/a,"+srv.URL+"/b\n"), 0600))
	require.NoError(t, os.WriteFile("cookies.txt", []byte("sid=1\n"), 0600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"compare",
		"--insecure",
		"--delay", "0",
		"--no-color",
		"--markdown-report", "out/report.md",
		"--history-db", "history.db",
	})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	require.Contains(t, out.String(), "[1/1] /a  vs  /b  PASS")
	require.Contains(t, out.String(), "ALL PASS")

	md, err := os.ReadFile(filepath.Join("out", "report.md"))
	require.NoError(t, err)
	require.Contains(t, string(md), "/a")

	store, err := history.Open(context.Background(), "history.db")
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 1, runs[0].Passed)
}
