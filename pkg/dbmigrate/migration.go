package dbmigrate

import "time"

// Migration описывает один файл миграции в директории.
// Migration describes a single migration file in the migrations directory.
type Migration struct {
	ID        string
	Direction Direction
	Filename  string
	Path      string
}

// Direction это направление миграции.
// Direction is a migration direction.
type Direction string

const (
	// DirectionUp применяет изменения схемы.
	// DirectionUp applies schema changes.
	DirectionUp Direction = "up"
	// DirectionDown откатывает изменения схемы.
	// DirectionDown reverts schema changes.
	DirectionDown Direction = "down"
)

// Suffix returns the file name suffix shared by all files of the direction.
func (d Direction) Suffix() string {
	return "-" + string(d) + ".sql"
}

// Name возвращает имя миграции в формате "<id>-<direction>".
// Назначение: ключ строки в таблице учёта миграций.
// Name returns the migration name in "<id>-<direction>" format.
// Purpose: the key stored in the ledger table.
func (m Migration) Name() string {
	return m.ID + "-" + string(m.Direction)
}

// AppliedMigration это запись о применённой миграции.
// AppliedMigration is a ledger record of an applied migration.
type AppliedMigration struct {
	Name      string
	AppliedAt time.Time
}
