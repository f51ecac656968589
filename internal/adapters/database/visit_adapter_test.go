package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahanati/dashboard-backend/internal/adapters/database"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
)

func newMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

func testVisit(mr, num, consNo string) *entities.Visit {
	return &entities.Visit{
		MRNumber:    mr,
		VisitNum:    num,
		VisitType:   "N",
		VisitDate:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		ClinicCode:  "CL1",
		ClinicName:  "Dental",
		VisitStatus: "P",
		DeptCode:    "D1",
		DeptName:    "Dentistry",
		ConsNo:      consNo,
		Status:      "A",
		IsNHIF:      "N",
	}
}

func TestBulkUpsert_SingleStatementPerChunk(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewVisitAdapter(client, 1000)

	mock.ExpectExec(`INSERT INTO "visits" .+ ON CONFLICT \(mr_number,visit_num,visit_date,clinic_code,dept_code,cons_no\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.BulkUpsert(context.Background(), client.DB(), []*entities.Visit{
		testVisit("MR1", "V1", "C1"),
		testVisit("MR2", "V2", "C2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_ChunksLargeBatches(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewVisitAdapter(client, 2)

	mock.ExpectExec(`INSERT INTO "visits"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "visits"`).WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := repo.BulkUpsert(context.Background(), client.DB(), []*entities.Visit{
		testVisit("MR1", "V1", "C1"),
		testVisit("MR2", "V2", "C2"),
		testVisit("MR3", "V3", "C3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CollapsesDuplicateKeysWithinChunk(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewVisitAdapter(client, 1000)

	first := testVisit("MR1", "V1", "C1")
	second := testVisit("MR1", "V1", "C1")
	second.ClinicName = "Updated Name"

	// One statement, and the later duplicate's values are the ones bound.
	mock.ExpectExec(`INSERT INTO "visits"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := repo.BulkUpsert(context.Background(), client.DB(), []*entities.Visit{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_EmptyBatchIsNoop(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewVisitAdapter(client, 1000)

	count, err := repo.BulkUpsert(context.Background(), client.DB(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByDate(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewVisitAdapter(client, 1000)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "visits"`).
		WithArgs("2026-08-15").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountByDate(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
