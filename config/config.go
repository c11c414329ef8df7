package config

import (
	"os"
	"time"

	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const Configfile string = "config.toml"

type MainConfig struct {
	General GeneralConfig          `koanf:"general"`
	Tables  map[string]TableConfig `koanf:"tables"`
}

type GeneralConfig struct {
	LogLevel     string `koanf:"LogLevel"`
	DBLogLevel   string `koanf:"DBLogLevel"`
	LogFile      string `koanf:"LogFile"`
	LogFileSize  int    `koanf:"LogFileSize"`
	LogFileCount int    `koanf:"LogFileCount"`
	LogCompress  bool   `koanf:"LogCompress"`

	WebPort   string `koanf:"WebPort"`
	WebAPIKey string `koanf:"WebApiKey"`
	CSRFToken string `koanf:"CsrfToken"`
	BasePath  string `koanf:"BasePath"`

	DatabasePath string `koanf:"DatabasePath"`
	SettingsPath string `koanf:"SettingsPath"`
	BackupDir    string `koanf:"BackupDir"`
	BackupMax    int    `koanf:"BackupMax"`
	BackupCron   string `koanf:"BackupCron"`

	SearchDebounceMS int   `koanf:"SearchDebounceMS"`
	DefaultEntries   int   `koanf:"DefaultEntries"`
	EntriesOptions   []int `koanf:"EntriesOptions"`
}

// TableConfig overrides the general table defaults for one table id.
type TableConfig struct {
	DefaultEntries   int    `koanf:"DefaultEntries"`
	DefaultOrder     string `koanf:"DefaultOrder"`
	DefaultDirection string `koanf:"DefaultDirection"`
	Caption          string `koanf:"Caption"`
}

var defaults = map[string]interface{}{
	"general.LogLevel":         "Info",
	"general.DBLogLevel":       "Info",
	"general.LogFile":          "case_tables.log",
	"general.LogFileSize":      5,
	"general.LogFileCount":     1,
	"general.LogCompress":      false,
	"general.WebPort":          "9090",
	"general.BasePath":         "",
	"general.DatabasePath":     "./databases/data.db",
	"general.SettingsPath":     "./databases/settings.db",
	"general.BackupDir":        "./backup",
	"general.BackupMax":        5,
	"general.BackupCron":       "0 0 3 * * *",
	"general.SearchDebounceMS": 500,
	"general.DefaultEntries":   25,
	"general.EntriesOptions":   []interface{}{10, 15, 25, 50, 100},
}

// LoadCfg reads configfile over the defaults. A missing file leaves the defaults.
func LoadCfg(configfile string) (MainConfig, error) {
	var k = koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return MainConfig{}, errors.Wrap(err, "load defaults")
	}

	if _, err := os.Stat(configfile); err == nil {
		if err := k.Load(file.Provider(configfile), toml.Parser()); err != nil {
			return MainConfig{}, errors.Wrapf(err, "error loading config %s", configfile)
		}
	} else if os.IsNotExist(err) {
		logger.Log.Warnln("Config file", configfile, "not found, using defaults")
	} else {
		return MainConfig{}, errors.Wrapf(err, "error loading config %s", configfile)
	}

	var cfg MainConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return MainConfig{}, errors.Wrap(err, "error parsing config")
	}
	if cfg.General.DefaultEntries <= 0 {
		cfg.General.DefaultEntries = 25
	}
	return cfg, nil
}

func (g GeneralConfig) SearchDebounce() time.Duration {
	return time.Duration(g.SearchDebounceMS) * time.Millisecond
}

// Table returns the settings of table id with the general defaults filled in.
func (c MainConfig) Table(id string) TableConfig {
	t := c.Tables[id]
	if t.DefaultEntries <= 0 {
		t.DefaultEntries = c.General.DefaultEntries
	}
	return t
}
