package main

import (
	"fmt"

	"code.cloudfoundry.org/lager/v3"

	"dbmigrate/pkg/dbmigrate"
)

type InitCommand struct {
	opts *options
}

func (cmd *InitCommand) Execute([]string) error {
	logger := cmd.opts.logger().Session("init", lager.Data{"path": cmd.opts.ConfigPath})

	written, err := dbmigrate.WriteDefaultSettings(cmd.opts.ConfigPath)
	if err != nil {
		logger.Error(failedToWriteSettings, err)
		return err
	}
	if !written {
		logger.Info(warningSettingsFileExists)
		return nil
	}

	logger.Info(createdSettingsFile)
	fmt.Fprintln(cmd.opts.stdout, cmd.opts.ConfigPath)
	return nil
}

type CreateCommand struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes" description:"Name of the SQL files"`
	} `positional-args:"yes"`

	opts *options
}

func (cmd *CreateCommand) Execute([]string) error {
	logger := cmd.opts.logger().Session("create")

	settings, err := loadSettings(logger, cmd.opts.ConfigPath)
	if err != nil {
		return err
	}

	paths, err := dbmigrate.CreateMigration(logger, settings.MigrationDirectory, cmd.Args.Name, cmd.opts.now())
	if err != nil {
		logger.Error(failedToCreateFiles, err)
		return err
	}

	for _, path := range paths {
		fmt.Fprintln(cmd.opts.stdout, path)
	}
	return nil
}

type UpCommand struct {
	opts *options
}

func (cmd *UpCommand) Execute([]string) error {
	logger := cmd.opts.logger().Session("up")

	return withGateway(cmd.opts, logger, func(run runContext) error {
		applied, err := dbmigrate.ApplyUp(run.ctx, logger, run.cfg, run.gw)
		for _, name := range applied {
			fmt.Fprintln(cmd.opts.stdout, name)
		}
		if err != nil {
			return err
		}

		if len(applied) == 0 {
			fmt.Fprintln(cmd.opts.stdout, "no changes")
		}
		return nil
	})
}

type DownCommand struct {
	opts *options
}

func (cmd *DownCommand) Execute([]string) error {
	logger := cmd.opts.logger().Session("down")

	return withGateway(cmd.opts, logger, func(run runContext) error {
		name, err := dbmigrate.ApplyDown(run.ctx, logger, run.cfg, run.gw)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.opts.stdout, name)
		return nil
	})
}

type StatusCommand struct {
	opts *options
}

func (cmd *StatusCommand) Execute([]string) error {
	logger := cmd.opts.logger().Session("status")

	return withGateway(cmd.opts, logger, func(run runContext) error {
		status, err := dbmigrate.Status(run.ctx, logger, run.cfg, run.gw)
		if err != nil {
			return err
		}

		if len(status.Applied) == 0 && len(status.Pending) == 0 {
			fmt.Fprintln(cmd.opts.stdout, "no migrations found")
			return nil
		}
		for _, m := range status.Applied {
			fmt.Fprintf(cmd.opts.stdout, "applied  %s  %s\n", m.AppliedAt.UTC().Format("2006-01-02 15:04:05"), m.Name)
		}
		for _, m := range status.Pending {
			fmt.Fprintf(cmd.opts.stdout, "pending  %s\n", m.Name())
		}
		return nil
	})
}

type VersionCommand struct {
	opts *options
}

func (cmd *VersionCommand) Execute([]string) error {
	fmt.Fprintln(cmd.opts.stdout, version)
	return nil
}
