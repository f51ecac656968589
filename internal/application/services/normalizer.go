package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/zahanati/dashboard-backend/internal/domain/entities"
	"github.com/zahanati/dashboard-backend/internal/infrastructure/clients/visitapi"
	apperrors "github.com/zahanati/dashboard-backend/pkg/errors"
)

const (
	unknownClinicName = "Unknown Clinic"
	unknownDeptName   = "Unknown Dept"
)

// ErrMissingVisitDate rejects a record whose visit date cannot be
// determined. visit_date is the one mandatory field; everything else
// degrades to null or a synthesized value.
var ErrMissingVisitDate = apperrors.NewValidationError("record has no usable visit date")

// PreparedBatch is the output of normalizing one date's raw records.
type PreparedBatch struct {
	Visits      []*entities.Visit
	Clinics     []entities.Clinic
	Departments []entities.Department
	Doctors     []entities.Doctor
	Skipped     int
}

// NormalizeBatch cleans and keys every raw record, collecting the distinct
// master data codes seen along the way. Records without a visit date are
// counted in Skipped and dropped.
func NormalizeBatch(raw []visitapi.RawVisit, now time.Time) *PreparedBatch {
	batch := &PreparedBatch{}
	clinics := map[string]entities.Clinic{}
	departments := map[string]entities.Department{}
	doctors := map[string]entities.Doctor{}
	var clinicOrder, deptOrder, doctorOrder []string

	for i, record := range raw {
		visit, err := NormalizeVisit(record, i, now)
		if err != nil {
			batch.Skipped++
			continue
		}
		batch.Visits = append(batch.Visits, visit)

		if visit.ClinicCode != "" {
			if _, seen := clinics[visit.ClinicCode]; !seen {
				clinicOrder = append(clinicOrder, visit.ClinicCode)
			}
			clinics[visit.ClinicCode] = entities.Clinic{
				ClinicCode: visit.ClinicCode,
				ClinicName: visit.ClinicName,
			}
		}
		if visit.DeptCode != "" {
			if _, seen := departments[visit.DeptCode]; !seen {
				deptOrder = append(deptOrder, visit.DeptCode)
			}
			departments[visit.DeptCode] = entities.Department{
				DeptCode: visit.DeptCode,
				DeptName: visit.DeptName,
			}
		}
		if visit.DoctCode != nil {
			if _, seen := doctors[*visit.DoctCode]; !seen {
				doctorOrder = append(doctorOrder, *visit.DoctCode)
				doctors[*visit.DoctCode] = entities.Doctor{DoctorCode: *visit.DoctCode}
			}
		}
	}

	for _, code := range clinicOrder {
		batch.Clinics = append(batch.Clinics, clinics[code])
	}
	for _, code := range deptOrder {
		batch.Departments = append(batch.Departments, departments[code])
	}
	for _, code := range doctorOrder {
		batch.Doctors = append(batch.Doctors, doctors[code])
	}

	return batch
}

// NormalizeVisit turns one raw record into a canonical visit with a
// deterministic encounter key. index is the record's position in the batch,
// used as the last-resort key component when both cons_no and cons_time are
// absent. Pure except for reading now.
func NormalizeVisit(record visitapi.RawVisit, index int, now time.Time) (*entities.Visit, error) {
	visitDate, ok := parseAPIDate(record.VisitDate)
	if !ok {
		return nil, ErrMissingVisitDate
	}

	visit := &entities.Visit{
		MRNumber:    clean(record.MRNumber),
		VisitNum:    clean(record.VisitNum),
		VisitType:   firstChar(record.VisitType, entities.VisitTypeNew),
		VisitDate:   visitDate,
		DoctCode:    cleanPtr(record.DoctCode),
		ConsTime:    cleanPtr(record.ConsTime),
		ClinicCode:  clean(record.ClinicCode),
		ClinicName:  cleanOr(record.ClinicName, unknownClinicName),
		ConsDoctor:  cleanPtr(record.ConsDoctor),
		VisitStatus: firstChar(record.VisitStatus, entities.VisitStatusPending),
		AccompCode:  cleanPtr(record.AccompCode),
		DoctConsTm:  cleanPtr(record.DoctConsTm),
		DeptCode:    clean(record.DeptCode),
		DeptName:    cleanOr(record.DeptName, unknownDeptName),
		PatCatg:     cleanPtr(record.PatCatg),
		RefHosp:     cleanPtr(record.RefHosp),
		RefHospName: cleanPtr(record.RefHospName),
		NhiYn:       firstCharPtr(record.NhiYn),
		PatCatgNm:   cleanPtr(record.PatCatgNm),
		Status:      firstChar(record.Status, "A"),
		Gender:      firstCharPtr(record.PatSex),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if d, ok := parseAPIDate(record.DoctConsDt); ok {
		visit.DoctConsDt = &d
	}

	visit.ConsNo = normalizeConsNo(record.ConsNo, visit.VisitNum, record.ConsTime, index)

	if strings.Contains(strings.ToUpper(clean(record.PatCatgNm)), "NHIF") {
		visit.IsNHIF = entities.NHIFYes
	} else {
		visit.IsNHIF = entities.NHIFNo
	}

	return visit, nil
}

// normalizeConsNo keeps a present consultation number verbatim. When the
// source omits it, the key is synthesized from the visit number plus the
// consultation time (separators stripped), or the record index when the
// time is also absent. Two records whose synthesized components are equal
// still collide; the later one wins under upsert semantics.
func normalizeConsNo(consNo, visitNum, consTime string, index int) string {
	if v := clean(consNo); v != "" {
		return v
	}
	if t := stripTimeSeparators(consTime); t != "" {
		return clean(visitNum) + "-" + t
	}
	return clean(visitNum) + "-" + strconv.Itoa(index)
}

func stripTimeSeparators(consTime string) string {
	t := clean(consTime)
	if t == "" {
		return ""
	}
	replacer := strings.NewReplacer(":", "", ".", "", " ", "")
	return replacer.Replace(t)
}

// parseAPIDate accepts the feed's 8-digit YYYYMMDD form as well as an
// already formatted calendar date.
func parseAPIDate(value string) (time.Time, bool) {
	v := clean(value)
	if v == "" {
		return time.Time{}, false
	}
	if len(v) == 8 && isNumeric(v) {
		d, err := time.Parse(visitapi.DateLayout, v)
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func clean(s string) string {
	return strings.TrimSpace(s)
}

// cleanPtr trims and converts empty strings to nil.
func cleanPtr(s string) *string {
	v := clean(s)
	if v == "" {
		return nil
	}
	return &v
}

func cleanOr(s, fallback string) string {
	if v := clean(s); v != "" {
		return v
	}
	return fallback
}

func firstChar(s, fallback string) string {
	v := clean(s)
	if v == "" {
		return fallback
	}
	return string([]rune(v)[0])
}

func firstCharPtr(s string) *string {
	v := clean(s)
	if v == "" {
		return nil
	}
	c := string([]rune(v)[0])
	return &c
}
