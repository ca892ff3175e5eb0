package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	cmd := (&app{stdout: &out}).command()
	err := cmd.Run(context.Background(), append([]string{name, "--log-level", "error"}, args...))
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := run(t, "list")
	require.NoError(t, err)
	for _, fixture := range []string{"actions", "admins", "categories", "metrics", "users", "visits"} {
		assert.Contains(t, out, fixture)
	}
}

func TestGenerate(t *testing.T) {
	out, err := run(t, "generate", "--fixture", "metrics", "--count", "4", "--seed", "3")
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 4)
	assert.Equal(t, "temperature", items[0]["key"])

	again, err := run(t, "generate", "--fixture", "metrics", "--count", "4", "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestGenerateYAMLToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cats.yaml")
	_, err := run(t, "generate", "-f", "categories", "-n", "2", "--format", "yaml", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "slug:")
}

func TestGenerateUnknownFixture(t *testing.T) {
	_, err := run(t, "generate", "--fixture", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fixture: nope")
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")
	out, err := run(t, "seed", "--fixture", "users", "--count", "3", "--store", "sqlite", "--path", path)
	require.NoError(t, err)
	assert.Equal(t, "seeded 3 users into sqlite\n", out)
}

func TestInitAndRunWithMetrics(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Equal(t, "wrote forge.yaml\n", out)

	metricsPath := filepath.Join(dir, "forge.prom")
	_, err = run(t, "--metrics-file", metricsPath, "run")
	require.NoError(t, err)

	for _, f := range []string{"fixtures.db", "fixtures.bolt", "actions.yaml"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "forge_persisted_total"))
	assert.True(t, strings.Contains(string(data), "forge_builds_total"))
}
