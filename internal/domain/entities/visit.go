package entities

import (
	"fmt"
	"time"
)

// Visit status markers as delivered by the hospital information system.
const (
	VisitStatusConsulted = "C"
	VisitStatusPending   = "P"

	VisitTypeNew      = "N"
	VisitTypeFollowup = "F"

	NHIFYes = "Y"
	NHIFNo  = "N"

	// EmergencyDeptCode is the department code the emergency unit reports under.
	EmergencyDeptCode = "150"
)

// VisitKey is the natural identity of one encounter. All six components
// together must be unique; the upsert conflict target is exactly this tuple.
type VisitKey struct {
	MRNumber   string
	VisitNum   string
	VisitDate  time.Time
	ClinicCode string
	DeptCode   string
	ConsNo     string
}

// String renders the key in a stable form usable as a map key.
func (k VisitKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		k.MRNumber, k.VisitNum, k.VisitDate.Format("2006-01-02"), k.ClinicCode, k.DeptCode, k.ConsNo)
}

// Visit is one clinical encounter. Key columns are plain strings (empty when
// the source omitted them) so the unique constraint stays well defined;
// everything else degrades to nil.
type Visit struct {
	ID          int64
	MRNumber    string
	VisitNum    string
	VisitType   string
	VisitDate   time.Time
	DoctCode    *string
	ConsTime    *string
	ConsNo      string
	ClinicCode  string
	ClinicName  string
	ConsDoctor  *string
	VisitStatus string
	AccompCode  *string
	DoctConsDt  *time.Time
	DoctConsTm  *string
	DeptCode    string
	DeptName    string
	PatCatg     *string
	RefHosp     *string
	RefHospName *string
	NhiYn       *string
	PatCatgNm   *string
	Status      string
	IsNHIF      string
	Gender      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the encounter identity key for this visit.
func (v *Visit) Key() VisitKey {
	return VisitKey{
		MRNumber:   v.MRNumber,
		VisitNum:   v.VisitNum,
		VisitDate:  v.VisitDate,
		ClinicCode: v.ClinicCode,
		DeptCode:   v.DeptCode,
		ConsNo:     v.ConsNo,
	}
}

// Consulted reports whether the encounter has been seen by a doctor.
func (v *Visit) Consulted() bool {
	return v.VisitStatus == VisitStatusConsulted
}
