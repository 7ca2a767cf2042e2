package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cloudfoundry.org/lager/v3"
	flags "github.com/jessevdk/go-flags"

	"dbmigrate/pkg/dbmigrate"
	"dbmigrate/pkg/dbmigrate/drivers/postgres"
)

// version содержит текущую версию CLI.
// Назначение: показывать версию в команде version.
// version holds the current CLI version.
// Purpose: print version in the version command.
var version = "0.1.0"

// options хранит глобальные флаги и зависимости команд.
// Назначение: общий контейнер, передаваемый командам по указателю.
// options holds global flags and command dependencies.
// Purpose: shared container handed to every command by pointer.
type options struct {
	ConfigPath string        `long:"config" env:"DBMIGRATE_CONFIG" default:"./db-migration.yaml" description:"Path of the settings file"`
	Timeout    time.Duration `long:"timeout" env:"DBMIGRATE_TIMEOUT" default:"0" description:"Overall timeout of a database command, 0 disables it"`

	Logger LagerFlag

	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	open   func(ctx context.Context, dsn string, logger lager.Logger) (dbmigrate.Gateway, error)
}

func defaultOptions() *options {
	return &options{
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
		open:   openPostgres,
	}
}

func openPostgres(ctx context.Context, dsn string, logger lager.Logger) (dbmigrate.Gateway, error) {
	gw, err := postgres.Open(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return gw, nil
}

func (o *options) logger() lager.Logger {
	return o.Logger.Logger("dbmigrate", o.stderr)
}

// context returns a context cancelled on SIGINT/SIGTERM and after Timeout.
func (o *options) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if o.Timeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func newParser(opts *options) *flags.Parser {
	parser := flags.NewParser(opts, flags.Default)
	parser.Name = "dbmigrate"

	initCmd, _ := parser.AddCommand("init",
		"Create the settings file",
		"Write a default settings file unless one already exists.",
		&InitCommand{opts: opts})
	initCmd.Aliases = []string{"start"}

	_, _ = parser.AddCommand("create",
		"Create a migration file pair",
		"Create <timestamp>-<name>-up.sql and -down.sql in the migration directory.",
		&CreateCommand{opts: opts})

	_, _ = parser.AddCommand("up",
		"Apply pending migrations",
		"Apply every migration not recorded in the ledger, oldest first.",
		&UpCommand{opts: opts})

	_, _ = parser.AddCommand("down",
		"Roll back the latest migration",
		"Run the down file of the most recently applied migration.",
		&DownCommand{opts: opts})

	_, _ = parser.AddCommand("status",
		"Show applied and pending migrations",
		"List ledger records and up files not yet applied.",
		&StatusCommand{opts: opts})

	_, _ = parser.AddCommand("version",
		"Show version",
		"Print the dbmigrate version.",
		&VersionCommand{opts: opts})

	return parser
}

func main() {
	parser := newParser(defaultOptions())

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
