package database

import (
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema/*.sql
var schemaFS embed.FS

var DB *sqlx.DB
var DBVersion string

// DBLogLevel "debug" logs every statement with its arguments.
var DBLogLevel string

var dbFile string

// InitDb opens (and creates) the sqlite database at path.
func InitDb(path string, dbloglevel string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create database directory")
		}
	}
	db, err := sqlx.Connect("sqlite3", "file:"+path+"?_fk=1&_mutex=no&_cslike=0")
	if err != nil {
		return errors.Wrapf(err, "open database %s", path)
	}
	db.SetMaxIdleConns(15)
	db.SetMaxOpenConns(5)
	DB = db
	DBLogLevel = dbloglevel
	dbFile = path
	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}
	err := DB.Close()
	DB = nil
	return err
}

// UpgradeDB applies the embedded schema migrations.
func UpgradeDB() error {
	src, err := iofs.New(schemaFS, "schema")
	if err != nil {
		return errors.Wrap(err, "read schema")
	}
	driver, err := sqlite3.WithInstance(DB.DB, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return errors.Wrap(err, "migration failed")
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "an error occurred while syncing the database")
	}
	vers, _, _ := m.Version()
	DBVersion = strconv.Itoa(int(vers))
	logger.Log.Infoln("Database version", DBVersion)
	return nil
}

// DbQuickCheck runs PRAGMA quick_check. A healthy database answers "ok".
func DbQuickCheck() (string, error) {
	var str string
	if err := DB.Get(&str, "PRAGMA quick_check;"); err != nil {
		return "", errors.Wrap(err, "quick check")
	}
	return str, nil
}

// BackupName is the file name of a backup taken at t.
func BackupName(t time.Time) string {
	return filepath.Base(dbFile) + "." + t.Format("20060102_150405")
}

// Backup writes a copy of the open database to backupPath and keeps the
// newest maxbackups backups in its directory.
func Backup(backupPath string, maxbackups int) error {
	if DB == nil {
		return errors.New("database not open")
	}
	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return errors.Wrap(err, "create backup directory")
	}
	_, err := DB.Exec(`VACUUM INTO ?`, backupPath)
	if err != nil {
		return errors.Wrap(err, "vacuum failed")
	}
	return RemoveOldDbBackups(filepath.Dir(backupPath), maxbackups)
}

func RemoveOldDbBackups(dir string, max int) error {
	if max <= 0 {
		return nil
	}

	prefix := filepath.Base(dbFile) + "."
	files, err := oldDatabaseFiles(dir, prefix)
	if err != nil {
		return err
	}
	if len(files) <= max {
		return nil
	}

	for _, f := range files[max:] {
		errRemove := os.Remove(filepath.Join(dir, f.name))
		if err == nil && errRemove != nil {
			err = errRemove
		}
		logger.Log.Debugln("Removed backup", f.name)
	}
	return err
}

type backupInfo struct {
	timestamp time.Time
	name      string
}

// oldDatabaseFiles lists the backups in dir, newest first
func oldDatabaseFiles(dir, prefix string) ([]backupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "can't read backup directory")
	}
	backupFiles := []backupInfo{}

	for _, f := range entries {
		if f.IsDir() {
			continue
		}
		if t, err := timeFromName(f.Name(), prefix); err == nil {
			backupFiles = append(backupFiles, backupInfo{t, f.Name()})
		}
	}

	sort.Slice(backupFiles, func(i, j int) bool {
		return backupFiles[i].timestamp.After(backupFiles[j].timestamp)
	})
	return backupFiles, nil
}

func timeFromName(filename, prefix string) (time.Time, error) {
	if !strings.HasPrefix(filename, prefix) {
		return time.Time{}, errors.New("mismatched prefix")
	}
	return time.Parse("20060102_150405", filename[len(prefix):])
}
