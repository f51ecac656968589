package repositories

import (
	"context"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
)

// MasterRepository upserts the code -> name reference tables fed as a side
// effect of visit ingestion. Upserts are the correctness mechanism; the
// per-run memoization in front of them is only an optimization.
type MasterRepository interface {
	UpsertClinics(ctx context.Context, q Querier, clinics []entities.Clinic) error
	UpsertDepartments(ctx context.Context, q Querier, departments []entities.Department) error
	UpsertDoctors(ctx context.Context, q Querier, doctors []entities.Doctor) error
}
