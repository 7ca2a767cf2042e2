package dbmigrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.cloudfoundry.org/lager/v3"
)

// StatusReport describes the ledger against the migration directory.
type StatusReport struct {
	Applied []AppliedMigration
	Pending []Migration
}

// Validate проверяет, что директория миграций и таблица учёта существуют.
// Вход: ctx, logger, cfg с директорией и таблицей, gw.
// Выход: Ledger для таблицы; ErrFolderNotFound или ErrTableNotFound.
// Назначение: общая проверка перед up и down.
// Validate checks that the migrations directory and ledger table exist.
// Input: ctx, logger, cfg with directory and table, gw.
// Output: Ledger for the table; ErrFolderNotFound or ErrTableNotFound.
// Purpose: shared precondition check for up and down.
func Validate(ctx context.Context, logger lager.Logger, cfg Config, gw Gateway) (*Ledger, error) {
	if !folderExists(cfg.MigrationsDir) {
		err := fmt.Errorf("%w: %s", ErrFolderNotFound, cfg.MigrationsDir)
		logger.Error(failedToValidate, err)
		return nil, err
	}

	ledger := NewLedger(cfg.table())

	exists, err := ledger.Exists(ctx, gw)
	if err != nil {
		logger.Error(failedToValidate, err)
		return nil, err
	}
	if !exists {
		return ledger, fmt.Errorf("%w: %s", ErrTableNotFound, ledger.Table())
	}

	return ledger, nil
}

// ApplyUp применяет все новые up-миграции по возрастанию идентификатора,
// каждую в своей транзакции вместе с записью в таблицу учёта.
// Вход: ctx для отмены, logger, cfg с директорией и таблицей, gw.
// Выход: имена применённых миграций и error; при ошибке возвращаются имена,
// применённые до неё, и *MigrationError.
// Назначение: довести схему БД до состояния директории миграций.
// ApplyUp applies every pending up migration in ascending identifier order,
// each in its own transaction together with its ledger row.
// Input: ctx for cancellation, logger, cfg with directory and table, gw.
// Output: names applied in this run and an error; on failure the names
// applied before it are returned with a *MigrationError.
// Purpose: bring the database schema up to the migrations directory.
func ApplyUp(ctx context.Context, logger lager.Logger, cfg Config, gw Gateway) ([]string, error) {
	logger = logger.Session("apply-up", lager.Data{
		"migrations_dir": cfg.MigrationsDir,
		"table":          NormalizeTableName(cfg.table()),
	})
	logger.Info(starting)
	defer logger.Info(finished)

	ledger, err := Validate(ctx, logger, cfg, gw)
	switch {
	case errors.Is(err, ErrTableNotFound):
		if err := ledger.Create(ctx, gw); err != nil {
			logger.Error(failedToCreateTable, err)
			return nil, err
		}
		logger.Info(ledgerTableCreated)
	case err != nil:
		return nil, err
	default:
		if err := ledger.EnsureUniqueNames(ctx, gw); err != nil {
			logger.Error(failedToCreateIndex, err)
			return nil, err
		}
	}

	names, err := ledger.AppliedNames(ctx, gw)
	if err != nil {
		logger.Error(failedToQueryMigrations, err)
		return nil, err
	}
	logger.Debug(retrievedAppliedNames, lager.Data{"names": names})

	applied := make(map[string]struct{}, len(names))
	for _, name := range names {
		applied[name] = struct{}{}
	}

	migrations, err := ScanMigrations(cfg.MigrationsDir, DirectionUp)
	if err != nil {
		logger.Error(failedToScanMigrations, err)
		return nil, err
	}

	var done []string
	for _, migration := range migrations {
		migrationLogger := logger.WithData(lager.Data{"name": migration.Name()})

		if _, ok := applied[migration.Name()]; ok {
			migrationLogger.Info(skippedAppliedMigration)
			continue
		}

		err := runMigration(ctx, gw, migration, func(conn Conn) error {
			return ledger.Record(ctx, conn, migration.Name(), time.Now().UTC())
		})
		if err != nil {
			migrationLogger.Error(failedToApplyMigration, err)
			return done, err
		}

		migrationLogger.Info(appliedMigration)
		done = append(done, migration.Name())
	}

	return done, nil
}

// ApplyDown откатывает ровно одну, последнюю применённую миграцию.
// Вход: ctx для отмены, logger, cfg с директорией и таблицей, gw.
// Выход: имя откаченной записи или error (ErrEmptyLedger, ErrFileNotFound,
// *MigrationError).
// Назначение: пошаговый откат без пакетного режима.
// ApplyDown rolls back exactly one migration, the most recently applied.
// Input: ctx for cancellation, logger, cfg with directory and table, gw.
// Output: the ledger name that was rolled back, or an error (ErrEmptyLedger,
// ErrFileNotFound, *MigrationError).
// Purpose: strict single-step rollback.
func ApplyDown(ctx context.Context, logger lager.Logger, cfg Config, gw Gateway) (string, error) {
	logger = logger.Session("apply-down", lager.Data{
		"migrations_dir": cfg.MigrationsDir,
		"table":          NormalizeTableName(cfg.table()),
	})
	logger.Info(starting)
	defer logger.Info(finished)

	ledger, err := Validate(ctx, logger, cfg, gw)
	if err != nil {
		return "", err
	}

	latest, err := ledger.Latest(ctx, gw)
	if err != nil {
		logger.Error(failedToQueryMigrations, err)
		return "", err
	}

	upSuffix := "-" + string(DirectionUp)
	if !strings.HasSuffix(latest, upSuffix) {
		err := fmt.Errorf("latest ledger entry %q is not an up migration", latest)
		logger.Error(failedToRollback, err)
		return "", err
	}

	id := strings.TrimSuffix(latest, upSuffix)
	filename := id + DirectionDown.Suffix()
	migration := Migration{
		ID:        id,
		Direction: DirectionDown,
		Filename:  filename,
		Path:      filepath.Join(cfg.MigrationsDir, filename),
	}

	logger = logger.WithData(lager.Data{"name": latest, "file": filename})

	if !fileExists(migration.Path) {
		err := fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		logger.Error(failedToRollback, err)
		return "", err
	}

	err = runMigration(ctx, gw, migration, func(conn Conn) error {
		return ledger.Remove(ctx, conn, latest)
	})
	if err != nil {
		logger.Error(failedToRollback, err)
		return "", err
	}

	logger.Info(rolledBackMigration)
	return latest, nil
}

// Status reports applied migrations and the up files not yet applied. It
// never creates the ledger table.
func Status(ctx context.Context, logger lager.Logger, cfg Config, gw Gateway) (*StatusReport, error) {
	logger = logger.Session("status")

	ledger, err := Validate(ctx, logger, cfg, gw)
	if err != nil && !errors.Is(err, ErrTableNotFound) {
		return nil, err
	}

	status := &StatusReport{}
	if err == nil {
		status.Applied, err = ledger.Applied(ctx, gw)
		if err != nil {
			logger.Error(failedToQueryMigrations, err)
			return nil, err
		}
	}

	applied := make(map[string]struct{}, len(status.Applied))
	for _, m := range status.Applied {
		applied[m.Name] = struct{}{}
	}

	migrations, err := ScanMigrations(cfg.MigrationsDir, DirectionUp)
	if err != nil {
		if errors.Is(err, ErrNoMigrationFiles) {
			return status, nil
		}
		logger.Error(failedToScanMigrations, err)
		return nil, err
	}

	for _, migration := range migrations {
		if _, ok := applied[migration.Name()]; !ok {
			status.Pending = append(status.Pending, migration)
		}
	}

	return status, nil
}

// runMigration executes the file content and the ledger mutation in one
// transaction. Failures come back as *MigrationError naming the file.
func runMigration(ctx context.Context, gw Gateway, migration Migration, record func(Conn) error) error {
	content, err := os.ReadFile(migration.Path)
	if err != nil {
		return &MigrationError{File: migration.Filename, Err: err}
	}

	sqlText := string(content)
	if IsEmptySQL(sqlText) {
		return &MigrationError{File: migration.Filename, Err: ErrEmptyFile}
	}

	err = gw.WithTransaction(ctx, func(conn Conn) error {
		if err := conn.Execute(ctx, sqlText); err != nil {
			return err
		}
		return record(conn)
	})
	if err != nil {
		return &MigrationError{File: migration.Filename, Err: err}
	}

	return nil
}
