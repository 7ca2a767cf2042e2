package dbmigrate

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the contents of the settings file.
type Settings struct {
	Database           Database `yaml:"database"`
	MigrationDirectory string   `yaml:"migration_directory"`
	MigrationTable     string   `yaml:"migration_table,omitempty"`
}

// Database holds the connection parameters.
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// DefaultSettings returns the settings written by init.
func DefaultSettings() Settings {
	return Settings{
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "your_db_username",
			Password: "your_db_password",
			Name:     "your_db_name",
			SSLMode:  "disable",
		},
		MigrationDirectory: "dbmigrations",
		MigrationTable:     DefaultLedgerTable,
	}
}

// LoadSettings читает файл настроек, применяет переменные окружения и проверяет поля.
// Вход: путь к YAML-файлу.
// Выход: Settings или ошибка, оборачивающая ErrInvalidConfiguration.
// Назначение: получить неизменяемые настройки на время запуска.
// LoadSettings reads the settings file, applies environment overrides and validates.
// Input: path to the YAML file.
// Output: Settings or an error wrapping ErrInvalidConfiguration.
// Purpose: obtain the settings that stay fixed for the run.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("%w: settings file %s not found", ErrInvalidConfiguration, path)
		}
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, path, err)
	}

	settings.ApplyEnv(os.LookupEnv)

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// WriteDefaultSettings writes DefaultSettings to path unless a file already
// exists there. It reports whether a file was written.
func WriteDefaultSettings(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	data, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return false, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write settings file: %w", err)
	}

	return true, nil
}

// ApplyEnv overrides database fields from POSTGRES_* variables. Environment
// values take priority over the file.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("POSTGRES_HOST"); ok && v != "" {
		s.Database.Host = v
	}
	if v, ok := lookup("POSTGRES_PORT"); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			s.Database.Port = port
		} else {
			s.Database.Port = -1
		}
	}
	if v, ok := lookup("POSTGRES_USER"); ok && v != "" {
		s.Database.User = v
	}
	if v, ok := lookup("POSTGRES_PASSWORD"); ok {
		s.Database.Password = v
	}
	if v, ok := lookup("POSTGRES_DB"); ok && v != "" {
		s.Database.Name = v
	}
}

// Validate checks required fields once, after loading.
func (s Settings) Validate() error {
	var missing, invalid []string

	if s.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if s.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if s.Database.Name == "" {
		missing = append(missing, "database.name")
	}
	if s.MigrationDirectory == "" {
		missing = append(missing, "migration_directory")
	}
	if s.Database.Port < 1 || s.Database.Port > 65535 {
		invalid = append(invalid, "database.port")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(invalid, ", "))
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(parts, "; "))
}

// Config returns the engine configuration.
func (s Settings) Config() Config {
	table := s.MigrationTable
	if table == "" {
		table = DefaultLedgerTable
	}
	return Config{
		MigrationsDir: s.MigrationDirectory,
		Table:         table,
	}
}

// DSN builds a postgres:// connection URL.
func (s Settings) DSN() string {
	sslmode := s.Database.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.Database.User, s.Database.Password),
		Host:     net.JoinHostPort(s.Database.Host, strconv.Itoa(s.Database.Port)),
		Path:     "/" + s.Database.Name,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}

	return u.String()
}
