package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK"}`))
	})
	mux.HandleFunc("/v1/cities", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":{"ru":"Москва","en":"Moscow"}}]`))
	})
	mux.HandleFunc("/v1/cities/1/buildings/2/auditories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":10,"building_id":2,"floor_number":3,"capacity":50,"auditorium_number":"301","type":{"ru":"Лекционная","en":"Lecture"},"image_url":null}]`))
	})
	mux.HandleFunc("/v1/cities/1/buildings/2/auditories/occupancy", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"auditorium_id":10,"person_count":45,"actual_timestamp":null,"is_fresh":true,"time_diff_minutes":0}]`))
	})
	return httptest.NewServer(mux)
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`api:
  base_url: %q
database:
  driver: sqlite
  dsn: %q
`, baseURL, filepath.Join(dir, "settings.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), &out, append([]string{"--config", configPath}, args...))
	return out.String(), err
}

func TestCLI_SessionFlow(t *testing.T) {
	backend := newBackend()
	defer backend.Close()
	configPath := writeConfig(t, backend.URL)

	out, err := execute(t, configPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in: false")

	_, err = execute(t, configPath, "cities")
	assert.ErrorIs(t, err, errNotLoggedIn)

	_, err = execute(t, configPath, "login", "admin")
	assert.Error(t, err, "password is required")

	out, err = execute(t, configPath, "login", "admin", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in")

	out, err = execute(t, configPath, "cities")
	require.NoError(t, err)
	assert.Contains(t, out, "Moscow")

	out, err = execute(t, configPath, "lang", "ru")
	require.NoError(t, err)
	assert.Equal(t, "ru\n", out)

	out, err = execute(t, configPath, "cities")
	require.NoError(t, err)
	assert.Contains(t, out, "Москва")

	out, err = execute(t, configPath, "auditoriums", "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "301")
	assert.Contains(t, out, "90%")
	assert.Contains(t, out, "high")

	_, err = execute(t, configPath, "auditoriums", "1", "two")
	assert.EqualError(t, err, `invalid building ID "two"`)

	out, err = execute(t, configPath, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = execute(t, configPath, "--json", "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"logged_in": false`)
}

func TestLoadDotenv(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	dir := t.TempDir()
	loadDotenv(filepath.Join(dir, ".env"))
	assert.Contains(t, logs.String(), "no .env file loaded")

	logs.Reset()
	envFile := filepath.Join(dir, "present.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TRACKOCCCTL_DOTENV_CHECK=1\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TRACKOCCCTL_DOTENV_CHECK") })

	loadDotenv(envFile)
	assert.Empty(t, logs.String())
	assert.Equal(t, "1", os.Getenv("TRACKOCCCTL_DOTENV_CHECK"))
}
