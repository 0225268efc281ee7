package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewConfigDefaults(t *testing.T) {
	m := NewViewConfigManager(t.TempDir(), 15, nil)

	cfg, err := m.LoadConfig("campaigns")
	require.NoError(t, err)
	assert.Equal(t, "campaigns", cfg.Resource)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 15, cfg.ItemsPerPage)

	cached, ok := m.GetConfig("campaigns")
	require.True(t, ok)
	assert.Same(t, cfg, cached)
}

func TestViewConfigLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "donations.json"),
		[]byte(`{"items_per_page":25,"columns":["donorName","amount"],"default_filters":{"status":"pending"}}`), 0o644))

	m := NewViewConfigManager(dir, 10, nil)
	cfg, err := m.LoadConfig("donations")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.ItemsPerPage)
	assert.True(t, cfg.Enabled, "missing keys keep defaults")
	assert.Equal(t, []string{"donorName", "amount"}, cfg.Columns)
	assert.Equal(t, "pending", cfg.DefaultFilters["status"])
}

func TestViewConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "team.json"), []byte(`{"items_per_page":0}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events.json"), []byte(`{`), 0o644))

	m := NewViewConfigManager(dir, 10, nil)
	_, err := m.LoadConfig("team")
	assert.Error(t, err)
	_, err = m.LoadConfig("events")
	assert.Error(t, err)
}

func TestViewConfigUpdateAndReload(t *testing.T) {
	dir := t.TempDir()
	m := NewViewConfigManager(dir, 10, nil)

	err := m.UpdateConfig("contact", map[string]interface{}{
		"items_per_page":  float64(20),
		"title":           "Inbox",
		"columns":         []interface{}{"name", "subject"},
		"default_filters": map[string]interface{}{"status": "new"},
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "contact.json"))
	require.NoError(t, err)

	reloaded, err := m.ReloadConfig("contact")
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.ItemsPerPage)
	assert.Equal(t, "Inbox", reloaded.Title)
	assert.Equal(t, []string{"name", "subject"}, reloaded.Columns)
	assert.Equal(t, "new", reloaded.DefaultFilters["status"])

	assert.Error(t, m.UpdateConfig("contact", map[string]interface{}{"items_per_page": 500}))
	assert.Error(t, m.UpdateConfig("contact", map[string]interface{}{"colour": "red"}))
	cfg, _ := m.GetConfig("contact")
	assert.Equal(t, 20, cfg.ItemsPerPage, "failed updates leave the cached config untouched")

	require.NoError(t, m.DeleteConfig("contact"))
	_, ok := m.GetConfig("contact")
	assert.False(t, ok)
	cfg, err = m.LoadConfig("contact")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ItemsPerPage)
}

func TestViewConfigRejectsPathTraversal(t *testing.T) {
	m := NewViewConfigManager(t.TempDir(), 10, nil)
	err := m.SaveConfig(&ViewConfig{Resource: "../etc", ItemsPerPage: 10})
	assert.Error(t, err)
}
