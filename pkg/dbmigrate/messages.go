package dbmigrate

const (
	starting = "starting"
	finished = "finished"

	ledgerTableCreated      = "ledger-table-created"
	retrievedAppliedNames   = "retrieved-applied-migrations"
	skippedAppliedMigration = "skipped-applied-migration"
	appliedMigration        = "applied-migration"
	rolledBackMigration     = "rolled-back-migration"

	failedToValidate        = "failed-to-validate"
	failedToCreateTable     = "failed-to-create-table"
	failedToCreateIndex     = "failed-to-create-unique-index"
	failedToQueryMigrations = "failed-to-query-migrations"
	failedToScanMigrations  = "failed-to-scan-migrations"
	failedToApplyMigration  = "failed-to-apply-migration"
	failedToRollback        = "failed-to-rollback-migration"

	createdMigrationFile = "created-migration-file"
	createdFolder        = "created-migration-folder"
)
