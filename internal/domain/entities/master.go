package entities

// Master/reference rows learned as a side effect of visit ingestion.
// Codes are never removed once seen.

// Clinic maps a clinic code to its display name.
type Clinic struct {
	ClinicCode string `json:"clinic_code"`
	ClinicName string `json:"clinic_name"`
}

// Department maps a department code to its display name.
type Department struct {
	DeptCode string `json:"dept_code"`
	DeptName string `json:"dept_name"`
}

// Doctor records a consulting doctor code seen in the feed.
type Doctor struct {
	DoctorCode string `json:"doctor_code"`
}
