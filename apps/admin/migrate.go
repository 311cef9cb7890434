package main

import (
	"database/sql"

	"github.com/trezcool/darasa/storage/database"
)

var migrateRunFunc = runMigration // mockable

func runMigration(db *sql.DB, command string, args ...string) error {
	return database.RunMigrationCommand(db, command, args...)
}

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateRunFunc(cli.db, args[0], arguments...)
}
