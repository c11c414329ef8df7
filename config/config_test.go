package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Kellerman81/go_case_tables/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCfgDefaults(t *testing.T) {
	cfg, err := LoadCfg(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.General.WebPort)
	assert.Equal(t, 25, cfg.General.DefaultEntries)
	assert.Equal(t, []int{10, 15, 25, 50, 100}, cfg.General.EntriesOptions)
	assert.Equal(t, 500*time.Millisecond, cfg.General.SearchDebounce())
	assert.Equal(t, 25, cfg.Table("patients").DefaultEntries)
}

func TestLoadCfgFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[general]
WebPort = "8080"
WebApiKey = "secret"
DefaultEntries = 15

[tables.patients]
DefaultEntries = 50
DefaultOrder = "name"
DefaultDirection = "desc"
Caption = "Line list"
`), 0o644))

	cfg, err := LoadCfg(file)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.General.WebPort)
	assert.Equal(t, "secret", cfg.General.WebAPIKey)
	assert.Equal(t, "Info", cfg.General.LogLevel, "defaults stay for missing keys")
	assert.Equal(t, 50, cfg.Table("patients").DefaultEntries)
	assert.Equal(t, "name", cfg.Table("patients").DefaultOrder)
	assert.Equal(t, 15, cfg.Table("users").DefaultEntries)
}

func TestLoadCfgBroken(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[general\nWebPort ="), 0o644))
	_, err := LoadCfg(file)
	assert.Error(t, err)
}

func TestSettingsStore(t *testing.T) {
	store, err := OpenSettings(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Load("alice", "patients")
	require.NoError(t, err)
	assert.False(t, ok)

	q := table.NextSort(table.NewQuery(50), "name")
	require.NoError(t, store.Save("alice", "patients", q))

	settings, ok, err := store.Load("alice", "patients")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TableSettings{Entries: 50, OrderBy: "name", SortDirection: table.SortAsc}, settings)

	applied, err := store.Apply("alice", "patients", table.Query{Page: 2, Entries: 10, Search: "x"})
	require.NoError(t, err)
	assert.Equal(t, table.Query{Page: 2, Entries: 50, OrderBy: "name", SortDirection: table.SortAsc, Search: "x"}, applied)

	untouched, err := store.Apply("bob", "patients", table.NewQuery(10))
	require.NoError(t, err)
	assert.Equal(t, table.NewQuery(10), untouched)
}
