package mock

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbOnce sync.Once
var sharedDb *Db

// Db wraps a shared in-memory sqlite connection the integration suite runs
// against. The scenario server and the step assertions both use the same
// single connection, so writes from the processing goroutine are visible to
// the asserting steps without coordination.
type Db struct {
	DbConn *gorm.DB
	models map[string]any
	schema string
}

// NewDb returns the process-wide database mock, creating and migrating it on
// first use. The models map keys are the table names scenario assertions use.
func NewDb(schema string, models map[string]any) *Db {
	dbOnce.Do(func() {
		sharedDb = connect(schema, models)
	})
	return sharedDb
}

func connect(schema string, models map[string]any) *Db {
	// cache=shared keeps the in-memory database alive across gorm sessions;
	// a single underlying connection serializes concurrent access.
	conn, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		panic(err)
	}
	conn.SetMaxOpenConns(1)

	gormDb, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: false,
	})
	if err != nil {
		panic("failed to open sqlite mock: " + err.Error())
	}

	d := &Db{
		DbConn: gormDb,
		schema: schema,
		models: models,
	}
	if err := d.ClearDB(); err != nil {
		panic(fmt.Sprintf("failed to prepare sqlite mock: %v", err))
	}
	return d
}

// ClearDB brings the database back to empty migrated tables. The first call
// also attaches the schema and runs the migration; later calls only wipe
// rows, so scenarios start clean without paying migration cost.
func (d *Db) ClearDB() error {
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		if err = d.DbConn.Exec("ATTACH ':memory:' AS " + d.schema).Error; err != nil {
			if !strings.Contains(err.Error(), "is already in use") {
				return err
			}
			// Already attached on a previous call, tables exist.
		} else {
			if err = d.migrate(); err != nil {
				continue
			}

			// Give sqlite a moment to settle the new schema before the
			// table check reads it.
			time.Sleep(200 * time.Millisecond)
			_ = d.DbConn.Exec("PRAGMA schema_version").Error

			if err = d.verifyTables(); err != nil {
				continue
			}
		}

		if err = d.truncateAll(); err != nil {
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to clear database after 5 attempts: %w", err)
}

// migrate drops and recreates every registered table inside one exclusive
// transaction, so a concurrently polling scenario never sees half a schema.
func (d *Db) migrate() (err error) {
	tx := d.DbConn.Exec("BEGIN EXCLUSIVE")
	defer func() {
		if rec := recover(); rec != nil {
			tx.Rollback()
			err = fmt.Errorf("panic during migration: %v", rec)
			return
		}
		if err != nil {
			if rollbackErr := tx.Exec("ROLLBACK").Error; rollbackErr != nil {
				panic(rollbackErr)
			}
			return
		}
		if commitErr := tx.Exec("COMMIT").Error; commitErr != nil {
			panic(commitErr)
		}
	}()

	modelList := make([]any, 0, len(d.models))
	for _, m := range d.models {
		modelList = append(modelList, m)

		tableName, nameErr := d.tableName(tx, m)
		if nameErr != nil {
			return nameErr
		}
		if dropErr := tx.Exec("DROP TABLE IF EXISTS " + tableName).Error; dropErr != nil {
			return dropErr
		}
	}

	if migrateErr := tx.AutoMigrate(modelList...); migrateErr != nil {
		return migrateErr
	}

	for _, m := range modelList {
		if !tx.Migrator().HasTable(m) {
			return fmt.Errorf("table for model %T was not created", m)
		}
	}
	return nil
}

// truncateAll deletes every row of every registered table and resets the
// sqlite autoincrement counters.
func (d *Db) truncateAll() error {
	for _, m := range d.models {
		session := d.DbConn.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := session.Unscoped().Delete(m).Error; err != nil {
			return err
		}

		tableName, err := d.tableName(d.DbConn, m)
		if err != nil {
			return err
		}
		err = d.DbConn.Exec("DELETE FROM sqlite_sequence WHERE name = ?", tableName).Error
		if err != nil && !strings.Contains(err.Error(), "no such table: sqlite_sequence") {
			return err
		}
	}
	return nil
}

// verifyTables confirms every registered table exists and is queryable.
func (d *Db) verifyTables() error {
	for _, m := range d.models {
		if !d.DbConn.Migrator().HasTable(m) {
			return fmt.Errorf("table for model %T was not created", m)
		}
		if err := d.DbConn.Find(&m).Error; err != nil {
			return fmt.Errorf("failed to query table for model %T: %w", m, err)
		}
	}
	return nil
}

func (d *Db) tableName(tx *gorm.DB, m any) (string, error) {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(m); err != nil {
		return "", err
	}
	return stmt.Schema.Table, nil
}

// GetModel returns the registered model for a table name, for the
// reflection-based database assertions.
func (d *Db) GetModel(table string) (any, bool) {
	m, ok := d.models[table]
	return m, ok
}
