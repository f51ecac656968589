package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/domain/repositories"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

// MasterAdapter implements MasterRepository on PostgreSQL
type MasterAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewMasterAdapter creates a new master data adapter
func NewMasterAdapter(client *postgres.Client) repositories.MasterRepository {
	return &MasterAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// UpsertClinics writes clinic code -> name mappings, refreshing the name on
// conflict.
func (a *MasterAdapter) UpsertClinics(ctx context.Context, q repositories.Querier, clinics []entities.Clinic) error {
	if len(clinics) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(clinics))
	for _, c := range clinics {
		records = append(records, goqu.Record{
			"clinic_code": c.ClinicCode,
			"clinic_name": c.ClinicName,
		})
	}

	query, args, err := a.dialect.
		Insert("clinics").
		Prepared(true).
		Rows(records...).
		OnConflict(goqu.DoUpdate("clinic_code", goqu.Record{
			"clinic_name": goqu.L("EXCLUDED.clinic_name"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build clinic upsert", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert clinics", err)
	}
	return nil
}

// UpsertDepartments writes department code -> name mappings.
func (a *MasterAdapter) UpsertDepartments(ctx context.Context, q repositories.Querier, departments []entities.Department) error {
	if len(departments) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(departments))
	for _, d := range departments {
		records = append(records, goqu.Record{
			"dept_code": d.DeptCode,
			"dept_name": d.DeptName,
		})
	}

	query, args, err := a.dialect.
		Insert("departments").
		Prepared(true).
		Rows(records...).
		OnConflict(goqu.DoUpdate("dept_code", goqu.Record{
			"dept_name": goqu.L("EXCLUDED.dept_name"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build department upsert", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert departments", err)
	}
	return nil
}

// UpsertDoctors records doctor codes seen in the feed.
func (a *MasterAdapter) UpsertDoctors(ctx context.Context, q repositories.Querier, doctors []entities.Doctor) error {
	if len(doctors) == 0 {
		return nil
	}

	records := make([]interface{}, 0, len(doctors))
	for _, d := range doctors {
		records = append(records, goqu.Record{
			"doctor_code": d.DoctorCode,
		})
	}

	query, args, err := a.dialect.
		Insert("doctors").
		Prepared(true).
		Rows(records...).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build doctor upsert", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert doctors", err)
	}
	return nil
}
