package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahanati/dashboard-backend/internal/adapters/database"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

// visitClientStub serves canned payloads per formatted date.
type visitClientStub struct {
	visits map[string][]visitapi.RawVisit
	errs   map[string]error
}

func (c *visitClientStub) FetchVisits(ctx context.Context, date time.Time) ([]visitapi.RawVisit, error) {
	key := date.Format("2006-01-02")
	if err, ok := c.errs[key]; ok {
		return nil, err
	}
	return c.visits[key], nil
}

func (c *visitClientStub) CountForDate(ctx context.Context, date time.Time) (int, error) {
	visits, err := c.FetchVisits(ctx, date)
	if err != nil {
		return 0, err
	}
	return len(visits), nil
}

func newSyncServiceForTest(t *testing.T, client visitapi.Client) (*SyncService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pgClient := postgres.NewClientFromDB(db)
	visitAdapter := database.NewVisitAdapter(pgClient, 1000)
	masterAdapter := database.NewMasterAdapter(pgClient)
	statsAdapter := database.NewStatsAdapter(pgClient)
	syncLogAdapter := database.NewSyncLogAdapter(pgClient)

	svc := NewSyncService(
		client,
		pgClient,
		visitAdapter,
		masterAdapter,
		syncLogAdapter,
		NewAggregationService(visitAdapter, statsAdapter),
		NewCacheInvalidationService(nil, nil),
		nil,
		nil,
		2,
	)
	svc.now = func() time.Time { return testNow }
	return svc, mock
}

func expectSyncLogCreate(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery(`INSERT INTO "sync_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

func expectSyncLogFinalize(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`UPDATE "sync_logs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// expectBareCommit covers a date whose records carry no master data codes
// and whose stored day reads back empty.
func expectBareCommit(mock sqlmock.Sqlmock, rowCount int) {
	mock.ExpectBegin()
	if rowCount > 0 {
		mock.ExpectExec(`INSERT INTO "visits"`).
			WillReturnResult(sqlmock.NewResult(0, int64(rowCount)))
	}
	mock.ExpectQuery(`SELECT .+ FROM "visits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "daily_dashboard_stats"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "clinic_stats"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "daily_referral_stats"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestSyncForDate_Success(t *testing.T) {
	date := day(15)
	client := &visitClientStub{visits: map[string][]visitapi.RawVisit{
		"2026-08-15": {
			{MRNumber: "MR1", VisitNum: "V1", VisitDate: "20260815", ClinicCode: "CL1", ClinicName: "Dental", DeptCode: "D1", DeptName: "Dentistry", DoctCode: "DR1"},
			{MRNumber: "MR2", VisitNum: "V2", VisitDate: "20260815", ClinicCode: "CL1", ClinicName: "Dental", DeptCode: "D1", DeptName: "Dentistry"},
		},
	}}
	svc, mock := newSyncServiceForTest(t, client)

	expectSyncLogCreate(mock, 7)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "clinics"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "departments"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "doctors"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "visits"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT .+ FROM "visits"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "daily_dashboard_stats"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "clinic_stats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "daily_referral_stats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	expectSyncLogFinalize(mock)

	result, err := svc.SyncForDate(context.Background(), date)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "2026-08-15", result.Date)
	assert.Equal(t, 2, result.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncForDate_FetchFailure(t *testing.T) {
	client := &visitClientStub{errs: map[string]error{
		"2026-08-15": apperrors.NewExternalError("API Error: 500", nil),
	}}
	svc, mock := newSyncServiceForTest(t, client)

	expectSyncLogCreate(mock, 3)
	expectSyncLogFinalize(mock)

	result, err := svc.SyncForDate(context.Background(), day(15))
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "API Error: 500", result.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncDateRange_PartialFailure(t *testing.T) {
	client := &visitClientStub{
		visits: map[string][]visitapi.RawVisit{
			"2026-08-01": {{VisitDate: "20260801"}},
			"2026-08-03": {{VisitDate: "20260803"}},
		},
		errs: map[string]error{
			"2026-08-02": apperrors.NewExternalError("API Error: 500", nil),
		},
	}
	svc, mock := newSyncServiceForTest(t, client)

	// wave 1: days 1 and 2
	expectSyncLogCreate(mock, 1)
	expectBareCommit(mock, 1)
	expectSyncLogFinalize(mock)
	expectSyncLogCreate(mock, 2)
	expectSyncLogFinalize(mock)
	// wave 2: day 3
	expectSyncLogCreate(mock, 3)
	expectBareCommit(mock, 1)
	expectSyncLogFinalize(mock)

	result, err := svc.SyncDateRange(context.Background(), day(1), day(3))
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalSyncedDays)
	assert.Equal(t, map[string]string{"2026-08-02": "API Error: 500"}, result.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncDateRange_EndBeforeStart(t *testing.T) {
	svc, _ := newSyncServiceForTest(t, &visitClientStub{})

	_, err := svc.SyncDateRange(context.Background(), day(5), day(1))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestMasterCacheSkipsRepeatedCodes(t *testing.T) {
	date1 := day(1)
	date2 := day(2)
	client := &visitClientStub{visits: map[string][]visitapi.RawVisit{
		"2026-08-01": {{VisitDate: "20260801", ClinicCode: "CL1", ClinicName: "Dental", DeptCode: "D1", DeptName: "Dentistry"}},
		"2026-08-02": {{VisitDate: "20260802", ClinicCode: "CL1", ClinicName: "Dental", DeptCode: "D1", DeptName: "Dentistry"}},
	}}
	svc, mock := newSyncServiceForTest(t, client)

	// day 1 writes the master rows
	expectSyncLogCreate(mock, 1)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "clinics"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "departments"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "visits"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM "visits"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "daily_dashboard_stats"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "clinic_stats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "daily_referral_stats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	expectSyncLogFinalize(mock)

	// day 2 sees the same codes and skips the master upserts
	expectSyncLogCreate(mock, 2)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "visits"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM "visits"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO "daily_dashboard_stats"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "clinic_stats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "daily_referral_stats"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	expectSyncLogFinalize(mock)

	result, err := svc.SyncDateRange(context.Background(), date1, date2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalSyncedDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// memoryVisitRepo stores visits keyed by their encounter identity, the way
// the unique constraint does, so repeated upserts of the same key replace
// the row instead of adding one.
type memoryVisitRepo struct {
	order []string
	rows  map[string]*entities.Visit
}

func newMemoryVisitRepo() *memoryVisitRepo {
	return &memoryVisitRepo{rows: map[string]*entities.Visit{}}
}

func (r *memoryVisitRepo) BulkUpsert(ctx context.Context, q repositories.Querier, visits []*entities.Visit) (int, error) {
	for _, v := range visits {
		key := entities.VisitKey{
			MRNumber:   v.MRNumber,
			VisitNum:   v.VisitNum,
			VisitDate:  v.VisitDate,
			ClinicCode: v.ClinicCode,
			DeptCode:   v.DeptCode,
			ConsNo:     v.ConsNo,
		}.String()
		if _, ok := r.rows[key]; !ok {
			r.order = append(r.order, key)
		}
		r.rows[key] = v
	}
	return len(visits), nil
}

func (r *memoryVisitRepo) ListByDate(ctx context.Context, q repositories.Querier, date time.Time) ([]*entities.Visit, error) {
	var out []*entities.Visit
	for _, key := range r.order {
		if r.rows[key].VisitDate.Equal(date) {
			out = append(out, r.rows[key])
		}
	}
	return out, nil
}

func (r *memoryVisitRepo) CountByDate(ctx context.Context, date time.Time) (int, error) {
	visits, err := r.ListByDate(ctx, nil, date)
	return len(visits), err
}

type noopMasterRepo struct{}

func (noopMasterRepo) UpsertClinics(ctx context.Context, q repositories.Querier, clinics []entities.Clinic) error {
	return nil
}

func (noopMasterRepo) UpsertDepartments(ctx context.Context, q repositories.Querier, departments []entities.Department) error {
	return nil
}

func (noopMasterRepo) UpsertDoctors(ctx context.Context, q repositories.Querier, doctors []entities.Doctor) error {
	return nil
}

type memorySyncLogRepo struct {
	nextID    int64
	successes []int
	failures  []string
}

func (r *memorySyncLogRepo) Create(ctx context.Context, log *entities.SyncLog) (int64, error) {
	r.nextID++
	return r.nextID, nil
}

func (r *memorySyncLogRepo) MarkSuccess(ctx context.Context, id int64, recordsSynced int) error {
	r.successes = append(r.successes, recordsSynced)
	return nil
}

func (r *memorySyncLogRepo) MarkFailed(ctx context.Context, id int64, message string) error {
	r.failures = append(r.failures, message)
	return nil
}

func (r *memorySyncLogRepo) ListRecent(ctx context.Context, limit int) ([]*entities.SyncLog, error) {
	return nil, nil
}

// Syncing the same unchanged payload twice must leave the visit table at the
// same size and reproduce the same aggregate counters.
func TestSyncForDate_RepeatedSyncKeepsRowsAndAggregatesStable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	// Two records synthesize the same cons_no from visit_num and cons_time,
	// so they share one encounter key; the third is distinct.
	shared := visitapi.RawVisit{
		MRNumber: "MR1", VisitNum: "V100", VisitDate: "20260815",
		ClinicCode: "C01", ClinicName: "Dental", DeptCode: "010", DeptName: "Dental",
		ConsTime: "09:35", VisitStatus: "C",
	}
	raw := []visitapi.RawVisit{
		shared,
		shared,
		{
			MRNumber: "MR2", VisitNum: "V200", VisitDate: "20260815",
			ClinicCode: "C01", ClinicName: "Dental", DeptCode: "010", DeptName: "Dental",
			ConsTime: "10:00",
		},
	}
	client := &visitClientStub{visits: map[string][]visitapi.RawVisit{"2026-08-15": raw}}

	visitRepo := newMemoryVisitRepo()
	statsRepo := newStatsRepoStub()
	logRepo := &memorySyncLogRepo{}

	svc := NewSyncService(
		client,
		postgres.NewClientFromDB(db),
		visitRepo,
		noopMasterRepo{},
		logRepo,
		NewAggregationService(visitRepo, statsRepo),
		NewCacheInvalidationService(nil, nil),
		nil,
		nil,
		2,
	)
	svc.now = func() time.Time { return testNow }

	for run := 0; run < 2; run++ {
		mock.ExpectBegin()
		mock.ExpectCommit()

		result, err := svc.SyncForDate(context.Background(), date)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 3, result.Count)
	}

	assert.Len(t, visitRepo.rows, 2, "second sync must not grow the visit table")

	require.Len(t, statsRepo.upsertedDaily, 2)
	first, second := statsRepo.upsertedDaily[0], statsRepo.upsertedDaily[1]
	assert.Equal(t, 2, first.TotalVisits)
	assert.Equal(t, 1, first.Consulted)
	assert.Equal(t, 1, first.Pending)
	assert.Equal(t, first.TotalVisits, first.Consulted+first.Pending)

	assert.Equal(t, first.TotalVisits, second.TotalVisits)
	assert.Equal(t, first.Consulted, second.Consulted)
	assert.Equal(t, first.Pending, second.Pending)
	assert.Equal(t, first.NewVisits, second.NewVisits)
	assert.Equal(t, first.Followups, second.Followups)
	assert.Equal(t, first.NHIFVisits, second.NHIFVisits)

	assert.Equal(t, []int{3, 3}, logRepo.successes)
	assert.Empty(t, logRepo.failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}
