package services

import "github.com/zahanati/dashboard-backend/internal/domain/entities"

// MasterCache remembers which master data codes were already upserted during
// one sync invocation so a multi-date range does not re-write the same
// clinic row hundreds of times. It is an optimization only; the upserts
// it skips are idempotent, and a fresh cache is built per invocation.
// Not safe for concurrent use.
type MasterCache struct {
	clinics     map[string]struct{}
	departments map[string]struct{}
	doctors     map[string]struct{}
}

func NewMasterCache() *MasterCache {
	return &MasterCache{
		clinics:     map[string]struct{}{},
		departments: map[string]struct{}{},
		doctors:     map[string]struct{}{},
	}
}

// FilterClinics returns the clinics not yet marked as written.
func (c *MasterCache) FilterClinics(clinics []entities.Clinic) []entities.Clinic {
	var out []entities.Clinic
	for _, cl := range clinics {
		if _, seen := c.clinics[cl.ClinicCode]; !seen {
			out = append(out, cl)
		}
	}
	return out
}

// MarkClinics records clinics as written. Callers mark only after the
// surrounding transaction commits, so a rollback does not suppress the
// upsert on the next date.
func (c *MasterCache) MarkClinics(clinics []entities.Clinic) {
	for _, cl := range clinics {
		c.clinics[cl.ClinicCode] = struct{}{}
	}
}

func (c *MasterCache) FilterDepartments(departments []entities.Department) []entities.Department {
	var out []entities.Department
	for _, d := range departments {
		if _, seen := c.departments[d.DeptCode]; !seen {
			out = append(out, d)
		}
	}
	return out
}

func (c *MasterCache) MarkDepartments(departments []entities.Department) {
	for _, d := range departments {
		c.departments[d.DeptCode] = struct{}{}
	}
}

func (c *MasterCache) FilterDoctors(doctors []entities.Doctor) []entities.Doctor {
	var out []entities.Doctor
	for _, d := range doctors {
		if _, seen := c.doctors[d.DoctorCode]; !seen {
			out = append(out, d)
		}
	}
	return out
}

func (c *MasterCache) MarkDoctors(doctors []entities.Doctor) {
	for _, d := range doctors {
		c.doctors[d.DoctorCode] = struct{}{}
	}
}
