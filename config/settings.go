package config

import (
	"github.com/Kellerman81/go_case_tables/table"
	"github.com/pkg/errors"
	"github.com/recoilme/pudge"
)

// TableSettings is what a user last chose for a table.
type TableSettings struct {
	Entries       int
	OrderBy       string
	SortDirection string
}

// SettingsStore keeps table settings per user in a pudge file.
type SettingsStore struct {
	db *pudge.Db
}

func OpenSettings(file string) (*SettingsStore, error) {
	db, err := pudge.Open(file, &pudge.Config{SyncInterval: 1}) // every second fsync
	if err != nil {
		return nil, errors.Wrapf(err, "open settings %s", file)
	}
	return &SettingsStore{db: db}, nil
}

func settingsKey(user, tableID string) string {
	return user + "/" + tableID
}

// Save remembers page size and sort of q.
func (s *SettingsStore) Save(user, tableID string, q table.Query) error {
	settings := TableSettings{Entries: q.Entries, OrderBy: q.OrderBy, SortDirection: q.SortDirection}
	return errors.Wrap(s.db.Set(settingsKey(user, tableID), settings), "save settings")
}

// Load returns the saved settings. ok is false when there are none.
func (s *SettingsStore) Load(user, tableID string) (settings TableSettings, ok bool, err error) {
	err = s.db.Get(settingsKey(user, tableID), &settings)
	if err == pudge.ErrKeyNotFound {
		return TableSettings{}, false, nil
	}
	if err != nil {
		return TableSettings{}, false, errors.Wrap(err, "load settings")
	}
	return settings, true, nil
}

// Apply overlays the saved settings on q.
func (s *SettingsStore) Apply(user, tableID string, q table.Query) (table.Query, error) {
	settings, ok, err := s.Load(user, tableID)
	if err != nil || !ok {
		return q, err
	}
	if settings.Entries > 0 {
		q.Entries = settings.Entries
	}
	q.OrderBy = settings.OrderBy
	q.SortDirection = settings.SortDirection
	return q, nil
}

func (s *SettingsStore) Close() error {
	return s.db.Close()
}
