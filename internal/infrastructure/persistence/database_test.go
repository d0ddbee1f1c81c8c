package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase wires a Database over a sqlmock connection so pool and
// scoping behavior can be tested without postgres.
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// gorm.Open pings the connection automatically during initialization
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_ForStore(t *testing.T) {
	type DeployLog struct {
		ID      uint
		StoreID uuid.UUID
		Message string
	}

	t.Run("filters every query by store_id", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		storeID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "deploy_logs" WHERE store_id = \$1`).
			WithArgs(storeID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "message"}).
				AddRow(1, storeID, "theme activated"))

		var logs []DeployLog
		require.NoError(t, db.ForStore(storeID).Find(&logs).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("composes with further conditions", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		storeID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "deploy_logs" WHERE store_id = \$1 AND message = \$2`).
			WithArgs(storeID, "theme activated").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		var logs []DeployLog
		err := db.ForStore(storeID).Where("message = ?", "theme activated").Find(&logs).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("leaves the shared handle unscoped", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		original := db.DB
		scoped := db.ForStore(uuid.New())

		assert.NotEqual(t, original, scoped)
		assert.Equal(t, original, db.DB)
	})

	t.Run("panics on the zero store ID", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		assert.Panics(t, func() { db.ForStore(uuid.Nil) })
	})
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Transaction(t *testing.T) {
	type DeployLog struct {
		ID      uint
		Message string
	}

	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		// postgres inserts go through Query because of the RETURNING clause
		mock.ExpectQuery(`INSERT INTO "deploy_logs"`).
			WithArgs("build started").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&DeployLog{Message: "build started"}).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error { return assert.AnError })
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
