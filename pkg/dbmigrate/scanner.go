package dbmigrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanMigrations читает директорию и возвращает миграции одного направления.
// Вход: путь к директории и направление.
// Выход: миграции, отсортированные по идентификатору, или error.
// Назначение: получить детерминированный список для apply/rollback.
// ScanMigrations reads the directory and returns migrations of one direction.
// Input: directory path and direction.
// Output: migrations sorted by identifier, or an error.
// Purpose: produce a deterministic list for apply/rollback.
func ScanMigrations(dir string, direction Direction) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, dir)
		}
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	suffix := direction.Suffix()
	seen := make(map[string]struct{}, len(entries))

	var migrations []Migration
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}

		path := filepath.Join(dir, name)
		if !isRegularFile(entry, path) {
			continue
		}

		id := strings.TrimSuffix(name, suffix)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		migrations = append(migrations, Migration{
			ID:        id,
			Direction: direction,
			Filename:  name,
			Path:      path,
		})
	}

	if len(migrations) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMigrationFiles, dir)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})

	return migrations, nil
}

// Symlinks count when they resolve to a regular file.
func isRegularFile(entry fs.DirEntry, path string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func folderExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
