package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

// Connect initializes the database connection.
// SQLite is enough for a single-line community hotline; the gorm driver can
// be swapped for Postgres without touching callers.
func Connect(dsn string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	return nil
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}

// ForUpdate applies a SELECT ... FOR UPDATE lock to the query. Inside a
// transaction this serializes concurrent writers on the selected rows.
// SQLite has no row locks and rejects the clause; its single-writer lock
// already serializes transactions, so the clause is skipped there.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
