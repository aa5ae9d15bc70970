package archive

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Init(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS observations")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, New(db, "observations", "FS1").Init(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	line := `{"at":"2024-06-01T10:00:00","bv":4.10,"hth":1}`
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO observations (station, ts, hth, obs) VALUES ($1,$2,$3,$4) ON CONFLICT (station, ts) DO NOTHING")).
		WithArgs("FS1", ts, int64(1), line).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, New(db, "observations", "FS1").Record(context.Background(), ts, 1, line))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO observations").WillReturnError(errors.New("connection reset"))

	err = New(db, "observations", "FS1").Record(context.Background(), time.Now(), 0, "{}")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
}
