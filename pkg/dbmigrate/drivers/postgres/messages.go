package postgres

const (
	fetching   = "fetching"
	executing  = "executing"
	committed  = "committed"
	rolledBack = "rolled-back"

	failedToOpenConnection   = "failed-to-open-sql-connection"
	failedToPingConnection   = "failed-to-ping-sql-connection"
	failedToStartTransaction = "failed-to-start-transaction"
	failedToCommit           = "failed-to-commit-transaction"
	failedToRollback         = "failed-to-rollback-transaction"
)
