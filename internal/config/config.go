package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"bankrecon/internal/charset"
	"bankrecon/internal/log"
)

// EnvPrefix prefixes every environment override, e.g. BANKRECON_DATABASE_PATH.
const EnvPrefix = "BANKRECON"

// Ledger backends
const (
	LedgerSheets = "sheets"
	LedgerMemory = "memory"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Google   GoogleConfig   `mapstructure:"google"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Import   ImportConfig   `mapstructure:"import"`
	Export   ExportConfig   `mapstructure:"export"`
	Updater  UpdaterConfig  `mapstructure:"updater"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GoogleConfig holds opaque credentials for the spreadsheet API.
type GoogleConfig struct {
	ServiceAccountJSON string `mapstructure:"service_account_json"`
	ServiceAccountFile string `mapstructure:"service_account_file"`
	OAuthClientFile    string `mapstructure:"oauth_client_file"`
	OAuthTokenFile     string `mapstructure:"oauth_token_file"`
}

type LedgerConfig struct {
	Backend     string        `mapstructure:"backend"`
	DataDir     string        `mapstructure:"data_dir"`
	Timezone    string        `mapstructure:"timezone"`
	MetadataTTL time.Duration `mapstructure:"metadata_ttl"`
}

type ImportConfig struct {
	Dir         string `mapstructure:"dir"`
	Pattern     string `mapstructure:"pattern"`
	Charset     string `mapstructure:"charset"`
	Separator   string `mapstructure:"separator"`
	Categorize  bool   `mapstructure:"categorize"`
	Concurrency int    `mapstructure:"concurrency"`
}

type ExportConfig struct {
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	SheetName       string        `mapstructure:"sheet_name"`
	SourceAccount   string        `mapstructure:"source_account"`
	Separator       string        `mapstructure:"separator"`
	Charset         string        `mapstructure:"charset"`
	TargetDir       string        `mapstructure:"target_dir"`
	Prefix          string        `mapstructure:"prefix"`
	Currency        string        `mapstructure:"currency"`
	ReadyStatus     string        `mapstructure:"ready_status"`
	NoticeMaxLength int           `mapstructure:"notice_max_length"`
	DateLayout      string        `mapstructure:"date_layout"`
	Columns         ExportColumns `mapstructure:"columns"`
}

// ExportColumns names the ledger columns the transfer export reads.
type ExportColumns struct {
	Account      string `mapstructure:"account"`
	Beneficiary  string `mapstructure:"beneficiary"`
	Amount       string `mapstructure:"amount"`
	Currency     string `mapstructure:"currency"`
	Notice       string `mapstructure:"notice"`
	TransferDate string `mapstructure:"transfer_date"`
	Status       string `mapstructure:"status"`
}

type UpdaterConfig struct {
	Concurrency int            `mapstructure:"concurrency"`
	Sheets      []UpdaterSheet `mapstructure:"sheets"`
}

// UpdaterSheet is one ledger sheet the updater reads control fields from.
type UpdaterSheet struct {
	Remark    string `mapstructure:"remark"`
	Active    bool   `mapstructure:"active"`
	ID        string `mapstructure:"id"`
	SheetName string `mapstructure:"sheet_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "./data/bankrecon.db")

	v.SetDefault("google.service_account_json", "")
	v.SetDefault("google.service_account_file", "")
	v.SetDefault("google.oauth_client_file", "")
	v.SetDefault("google.oauth_token_file", "")

	v.SetDefault("ledger.backend", LedgerSheets)
	v.SetDefault("ledger.data_dir", "./data/ledger")
	v.SetDefault("ledger.timezone", "Europe/Budapest")
	v.SetDefault("ledger.metadata_ttl", 10*time.Minute)

	v.SetDefault("import.dir", "./import")
	v.SetDefault("import.pattern", "*.csv")
	v.SetDefault("import.charset", "ISO-8859-2")
	v.SetDefault("import.separator", ";")
	v.SetDefault("import.categorize", true)
	v.SetDefault("import.concurrency", 4)

	v.SetDefault("export.spreadsheet_id", "")
	v.SetDefault("export.sheet_name", "SZÁMLÁK")
	v.SetDefault("export.source_account", "")
	v.SetDefault("export.separator", ";")
	v.SetDefault("export.charset", "ISO-8859-2")
	v.SetDefault("export.target_dir", "./transfers")
	v.SetDefault("export.prefix", "transfers")
	v.SetDefault("export.currency", "HUF")
	v.SetDefault("export.ready_status", "Rögzíthető")
	v.SetDefault("export.notice_max_length", 140)
	v.SetDefault("export.date_layout", "2006-01-02")
	v.SetDefault("export.columns.account", "számlaszám")
	v.SetDefault("export.columns.beneficiary", "kedvezményezett")
	v.SetDefault("export.columns.amount", "összeg")
	v.SetDefault("export.columns.currency", "deviza")
	v.SetDefault("export.columns.notice", "közlemény")
	v.SetDefault("export.columns.transfer_date", "utalás napja")
	v.SetDefault("export.columns.status", "státusz")

	v.SetDefault("updater.concurrency", 4)
}

// Load reads the optional config file at path, then applies BANKRECON_*
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errors = append(errors, err.Error())
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		errors = append(errors, "database path cannot be empty")
	}

	switch c.Ledger.Backend {
	case LedgerSheets:
		errors = append(errors, c.Google.validate()...)
	case LedgerMemory:
		if c.Ledger.DataDir == "" {
			errors = append(errors, "ledger data directory cannot be empty when using memory backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of [%s %s]", c.Ledger.Backend, LedgerSheets, LedgerMemory))
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ledger timezone '%s': %v", c.Ledger.Timezone, err))
	}

	if c.Import.Dir == "" {
		errors = append(errors, "import directory cannot be empty")
	}
	if _, err := filepath.Match(c.Import.Pattern, ""); err != nil {
		errors = append(errors, fmt.Sprintf("invalid import pattern '%s': %v", c.Import.Pattern, err))
	}
	errors = append(errors, checkSeparator("import", c.Import.Separator)...)
	errors = append(errors, checkCharset("import", c.Import.Charset)...)
	if c.Import.Concurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid import concurrency %d: must be at least 1", c.Import.Concurrency))
	}

	errors = append(errors, checkSeparator("export", c.Export.Separator)...)
	errors = append(errors, checkCharset("export", c.Export.Charset)...)
	if c.Export.TargetDir == "" {
		errors = append(errors, "export target directory cannot be empty")
	}
	if c.Export.NoticeMaxLength < 1 {
		errors = append(errors, fmt.Sprintf("invalid notice max length %d: must be at least 1", c.Export.NoticeMaxLength))
	}
	if strings.TrimSpace(c.Export.Currency) == "" {
		errors = append(errors, "export currency cannot be empty")
	}
	if c.Export.DateLayout == "" {
		errors = append(errors, "export date layout cannot be empty")
	}

	if c.Updater.Concurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid updater concurrency %d: must be at least 1", c.Updater.Concurrency))
	}
	for i, s := range c.Updater.Sheets {
		if !s.Active {
			continue
		}
		if s.ID == "" || s.SheetName == "" {
			errors = append(errors, fmt.Sprintf("updater sheet %d (%s): id and sheet_name are required", i, s.Remark))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// validate checks that configured credential files exist. Whether enough
// credentials are set is decided when the ledger is opened, since the import
// command never needs them.
func (g GoogleConfig) validate() []string {
	var errors []string
	for _, f := range []string{g.ServiceAccountFile, g.OAuthClientFile, g.OAuthTokenFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", f))
		}
	}
	return errors
}

func checkSeparator(section, sep string) []string {
	if utf8.RuneCountInString(sep) != 1 {
		return []string{fmt.Sprintf("invalid %s separator '%s': must be a single character", section, sep)}
	}
	return nil
}

func checkCharset(section, name string) []string {
	if _, err := charset.Lookup(name); err != nil {
		return []string{fmt.Sprintf("invalid %s charset: %v", section, err)}
	}
	return nil
}

// Separator returns the first rune of s.
func Separator(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// Location loads the ledger time zone.
func (l LedgerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(l.Timezone)
}
