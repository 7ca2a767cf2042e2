package main

const (
	starting = "starting"
	finished = "finished"

	createdSettingsFile       = "created-settings-file"
	warningSettingsFileExists = "warning-settings-file-already-exists"

	failedToLoadSettings  = "failed-to-load-settings"
	failedToWriteSettings = "failed-to-write-settings"
	failedToOpenDatabase  = "failed-to-open-database"
	failedToCreateFiles   = "failed-to-create-migration-files"
	failedToRunCommand    = "failed-to-run-command"
)
