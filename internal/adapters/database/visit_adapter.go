package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// visitConflictTarget mirrors the visits_encounter_unique constraint.
const visitConflictTarget = "mr_number,visit_num,visit_date,clinic_code,dept_code,cons_no"

var visitColumns = []interface{}{
	"id", "mr_number", "visit_num", "visit_type", "visit_date", "doct_code",
	"cons_time", "cons_no", "clinic_code", "clinic_name", "cons_doctor",
	"visit_status", "accomp_code", "doct_cons_dt", "doct_cons_tm", "dept_code",
	"dept_name", "pat_catg", "ref_hosp", "ref_hosp_name", "nhi_yn",
	"pat_catg_nm", "status", "is_nhif", "gender", "created_at", "updated_at",
}

// VisitAdapter implements VisitRepository on PostgreSQL
type VisitAdapter struct {
	client    *postgres.Client
	dialect   goqu.DialectWrapper
	chunkSize int
}

// NewVisitAdapter creates a new visit adapter. chunkSize bounds the number
// of rows per upsert statement.
func NewVisitAdapter(client *postgres.Client, chunkSize int) repositories.VisitRepository {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &VisitAdapter{
		client:    client,
		dialect:   goqu.Dialect("postgres"),
		chunkSize: chunkSize,
	}
}

// BulkUpsert writes visits in chunks with ON CONFLICT on the encounter key.
// Within one statement a later row for the same key overwrites the earlier
// one (last write wins), which matches the feed's processing-order
// semantics.
func (a *VisitAdapter) BulkUpsert(ctx context.Context, q repositories.Querier, visits []*entities.Visit) (int, error) {
	if len(visits) == 0 {
		return 0, nil
	}

	for start := 0; start < len(visits); start += a.chunkSize {
		end := start + a.chunkSize
		if end > len(visits) {
			end = len(visits)
		}
		if err := a.upsertChunk(ctx, q, visits[start:end]); err != nil {
			return 0, err
		}
	}

	return len(visits), nil
}

func (a *VisitAdapter) upsertChunk(ctx context.Context, q repositories.Querier, visits []*entities.Visit) error {
	// Postgres rejects a multi-row upsert that touches the same key twice in
	// one statement, so collapse intra-chunk duplicates first, keeping the
	// last occurrence.
	deduped := dedupeByKey(visits)

	records := make([]interface{}, 0, len(deduped))
	for _, v := range deduped {
		records = append(records, visitRecord(v))
	}

	query, args, err := a.dialect.
		Insert("visits").
		Prepared(true).
		Rows(records...).
		OnConflict(goqu.DoUpdate(visitConflictTarget, excludedVisitRecord())).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build visit upsert", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert visits", err)
	}
	return nil
}

func dedupeByKey(visits []*entities.Visit) []*entities.Visit {
	seen := make(map[string]int, len(visits))
	deduped := make([]*entities.Visit, 0, len(visits))
	for _, v := range visits {
		key := v.Key().String()
		if idx, ok := seen[key]; ok {
			deduped[idx] = v
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, v)
	}
	return deduped
}

func visitRecord(v *entities.Visit) goqu.Record {
	return goqu.Record{
		"mr_number":     v.MRNumber,
		"visit_num":     v.VisitNum,
		"visit_type":    v.VisitType,
		"visit_date":    v.VisitDate.Format(dateLayout),
		"doct_code":     nullString(v.DoctCode),
		"cons_time":     nullString(v.ConsTime),
		"cons_no":       v.ConsNo,
		"clinic_code":   v.ClinicCode,
		"clinic_name":   v.ClinicName,
		"cons_doctor":   nullString(v.ConsDoctor),
		"visit_status":  v.VisitStatus,
		"accomp_code":   nullString(v.AccompCode),
		"doct_cons_dt":  nullDate(v.DoctConsDt),
		"doct_cons_tm":  nullString(v.DoctConsTm),
		"dept_code":     v.DeptCode,
		"dept_name":     v.DeptName,
		"pat_catg":      nullString(v.PatCatg),
		"ref_hosp":      nullString(v.RefHosp),
		"ref_hosp_name": nullString(v.RefHospName),
		"nhi_yn":        nullString(v.NhiYn),
		"pat_catg_nm":   nullString(v.PatCatgNm),
		"status":        v.Status,
		"is_nhif":       v.IsNHIF,
		"gender":        nullString(v.Gender),
		"created_at":    v.CreatedAt,
		"updated_at":    v.UpdatedAt,
	}
}

// excludedVisitRecord updates every non-key column from the incoming row.
func excludedVisitRecord() goqu.Record {
	record := goqu.Record{}
	for _, col := range []string{
		"visit_type", "doct_code", "cons_time", "clinic_name", "cons_doctor",
		"visit_status", "accomp_code", "doct_cons_dt", "doct_cons_tm",
		"dept_name", "pat_catg", "ref_hosp", "ref_hosp_name", "nhi_yn",
		"pat_catg_nm", "status", "is_nhif", "gender", "updated_at",
	} {
		record[col] = goqu.L("EXCLUDED." + col)
	}
	return record
}

// ListByDate returns all visits stored for date.
func (a *VisitAdapter) ListByDate(ctx context.Context, q repositories.Querier, date time.Time) ([]*entities.Visit, error) {
	query, args, err := a.dialect.
		Select(visitColumns...).
		From("visits").
		Where(goqu.Ex{"visit_date": date.Format(dateLayout)}).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build visit query", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list visits", err)
	}
	defer rows.Close()

	var visits []*entities.Visit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read visit rows", err)
	}

	return visits, nil
}

func scanVisit(rows *sql.Rows) (*entities.Visit, error) {
	visit := &entities.Visit{}
	var (
		doctCode, consTime, consDoctor, accompCode, doctConsTm sql.NullString
		patCatg, refHosp, refHospName, nhiYn, patCatgNm, gender sql.NullString
		doctConsDt sql.NullTime
	)

	err := rows.Scan(
		&visit.ID,
		&visit.MRNumber,
		&visit.VisitNum,
		&visit.VisitType,
		&visit.VisitDate,
		&doctCode,
		&consTime,
		&visit.ConsNo,
		&visit.ClinicCode,
		&visit.ClinicName,
		&consDoctor,
		&visit.VisitStatus,
		&accompCode,
		&doctConsDt,
		&doctConsTm,
		&visit.DeptCode,
		&visit.DeptName,
		&patCatg,
		&refHosp,
		&refHospName,
		&nhiYn,
		&patCatgNm,
		&visit.Status,
		&visit.IsNHIF,
		&gender,
		&visit.CreatedAt,
		&visit.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan visit", err)
	}

	visit.DoctCode = fromNullString(doctCode)
	visit.ConsTime = fromNullString(consTime)
	visit.ConsDoctor = fromNullString(consDoctor)
	visit.AccompCode = fromNullString(accompCode)
	visit.DoctConsTm = fromNullString(doctConsTm)
	visit.PatCatg = fromNullString(patCatg)
	visit.RefHosp = fromNullString(refHosp)
	visit.RefHospName = fromNullString(refHospName)
	visit.NhiYn = fromNullString(nhiYn)
	visit.PatCatgNm = fromNullString(patCatgNm)
	visit.Gender = fromNullString(gender)
	if doctConsDt.Valid {
		d := doctConsDt.Time
		visit.DoctConsDt = &d
	}

	return visit, nil
}

// CountByDate returns the number of visits stored for date.
func (a *VisitAdapter) CountByDate(ctx context.Context, date time.Time) (int, error) {
	query, args, err := a.dialect.
		Select(goqu.COUNT("*")).
		From("visits").
		Where(goqu.Ex{"visit_date": date.Format(dateLayout)}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build visit count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count visits", err)
	}
	return count, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
