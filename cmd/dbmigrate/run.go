package main

import (
	"context"

	"code.cloudfoundry.org/lager/v3"

	"dbmigrate/pkg/dbmigrate"
)

type runContext struct {
	ctx context.Context
	cfg dbmigrate.Config
	gw  dbmigrate.Gateway
}

func loadSettings(logger lager.Logger, path string) (dbmigrate.Settings, error) {
	settings, err := dbmigrate.LoadSettings(path)
	if err != nil {
		logger.Error(failedToLoadSettings, err, lager.Data{"path": path})
		return dbmigrate.Settings{}, err
	}
	return settings, nil
}

// withGateway загружает настройки, открывает БД и вызывает fn.
// Ошибка fn логируется здесь, соединение закрывается всегда.
// withGateway loads settings, opens the database and calls fn.
// The error from fn is logged here and the connection is always closed.
func withGateway(opts *options, logger lager.Logger, fn func(runContext) error) error {
	logger.Info(starting)
	defer logger.Info(finished)

	settings, err := loadSettings(logger, opts.ConfigPath)
	if err != nil {
		return err
	}

	ctx, cancel := opts.context()
	defer cancel()

	gw, err := opts.open(ctx, settings.DSN(), logger)
	if err != nil {
		logger.Error(failedToOpenDatabase, err, lager.Data{
			"host": settings.Database.Host,
			"port": settings.Database.Port,
			"name": settings.Database.Name,
		})
		return err
	}
	defer gw.Close()

	err = fn(runContext{ctx: ctx, cfg: settings.Config(), gw: gw})
	if err != nil {
		logger.Error(failedToRunCommand, err)
		return err
	}

	return nil
}
