package dbmigrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3"
)

// Placeholder is written into freshly created migration files.
const Placeholder = "/* Insert your SQL commands here. */"

const idTimeLayout = "20060102150405"

// NewID returns "<UTC timestamp>-<name>", the identifier shared by an up/down pair.
func NewID(name string, now time.Time) string {
	return now.UTC().Format(idTimeLayout) + "-" + name
}

// CreateMigration создаёт пару файлов up/down с заглушкой внутри.
// Вход: logger, директория, имя миграции, текущее время.
// Выход: пути созданных файлов (up, затем down) или error.
// Назначение: команда create.
// CreateMigration creates an up/down file pair holding the placeholder.
// Input: logger, directory, migration name, current time.
// Output: paths of the created files (up, then down) or an error.
// Purpose: the create command.
func CreateMigration(logger lager.Logger, dir, name string, now time.Time) ([]string, error) {
	logger = logger.Session("create-migration", lager.Data{"dir": dir, "name": name})

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("migration name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("migration name %q must not contain path separators", name)
	}

	if !folderExists(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create migrations dir: %w", err)
		}
		logger.Info(createdFolder)
	}

	id := NewID(name, now)

	paths := make([]string, 0, 2)
	for _, direction := range []Direction{DirectionUp, DirectionDown} {
		path := filepath.Join(dir, id+direction.Suffix())

		if err := writeNewFile(path, Placeholder); err != nil {
			return paths, err
		}

		logger.Info(createdMigrationFile, lager.Data{"path": path})
		paths = append(paths, path)
	}

	return paths, nil
}

func writeNewFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("migration file %s already exists", path)
		}
		return err
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
