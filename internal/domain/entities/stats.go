package entities

import "time"

// DailyDashboardStat is the pre-aggregated summary for one calendar date.
// Owned exclusively by the aggregator; total visits always equals
// consulted + pending because the two buckets partition the visit rows.
type DailyDashboardStat struct {
	ID          int64     `json:"id"`
	StatDate    time.Time `json:"stat_date"`
	TotalVisits int       `json:"total_visits"`
	Consulted   int       `json:"consulted"`
	Pending     int       `json:"pending"`
	NewVisits   int       `json:"new_visits"`
	Followups   int       `json:"followups"`
	NHIFVisits  int       `json:"nhif_visits"`
	Emergency   int       `json:"emergency"`
	Foreigner   int       `json:"foreigner"`
	Public      int       `json:"public"`
	IPPMPrivate int       `json:"ippm_private"`
	IPPMCredit  int       `json:"ippm_credit"`
	CostSharing int       `json:"cost_sharing"`
	NSSF        int       `json:"nssf"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ClinicStat is the per-clinic visit count for one date.
type ClinicStat struct {
	ID          int64     `json:"id"`
	StatDate    time.Time `json:"stat_date"`
	ClinicCode  string    `json:"clinic_code"`
	ClinicName  string    `json:"clinic_name"`
	TotalVisits int       `json:"total_visits"`
}

// DailyReferralStat is the per-referral-hospital visit count for one date.
type DailyReferralStat struct {
	ID          int64     `json:"id"`
	StatDate    time.Time `json:"stat_date"`
	RefHospCode string    `json:"ref_hosp_code"`
	RefHospName string    `json:"ref_hosp_name"`
	Count       int       `json:"count"`
}

// Gap statuses reported by gap detection.
const (
	GapStatusMissing = "MISSING"
	GapStatusEmpty   = "EMPTY"
)

// Gap marks a date whose aggregate row is absent or zero, indicating a
// likely missed sync.
type Gap struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
	Status string `json:"status"`
}
