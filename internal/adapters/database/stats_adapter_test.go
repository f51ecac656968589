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
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

func TestUpsertDaily_ConflictsOnStatDate(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewStatsAdapter(client)

	mock.ExpectExec(`INSERT INTO "daily_dashboard_stats" .+ ON CONFLICT \(stat_date\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertDaily(context.Background(), client.DB(), &entities.DailyDashboardStat{
		StatDate:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		TotalVisits: 10,
		Consulted:   6,
		Pending:     4,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceClinicStats_DeletesThenInserts(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewStatsAdapter(client)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM "clinic_stats"`).
		WithArgs("2026-08-15").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO "clinic_stats"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.ReplaceClinicStats(context.Background(), client.DB(), date, []*entities.ClinicStat{
		{StatDate: date, ClinicCode: "CL1", ClinicName: "Dental", TotalVisits: 5},
		{StatDate: date, ClinicCode: "CL2", ClinicName: "Eye Clinic", TotalVisits: 3},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceClinicStats_EmptySetOnlyDeletes(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewStatsAdapter(client)
	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM "clinic_stats"`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.ReplaceClinicStats(context.Background(), client.DB(), date, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDailyByDate_NotFound(t *testing.T) {
	client, mock := newMockClient(t)
	repo := database.NewStatsAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "daily_dashboard_stats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetDailyByDate(context.Background(), time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
