package services

import "strings"

// PatientCategory is the billing class a visit is counted under on the
// dashboard. A visit belongs to at most one category.
type PatientCategory string

const (
	CategoryForeigner   PatientCategory = "foreigner"
	CategoryPublic      PatientCategory = "public"
	CategoryIPPMPrivate PatientCategory = "ippm_private"
	CategoryIPPMCredit  PatientCategory = "ippm_credit"
	CategoryCostSharing PatientCategory = "cost_sharing"
	CategoryNSSF        PatientCategory = "nssf"
	CategoryOther       PatientCategory = "other"
)

const (
	catgCodeForeigner = "016"
	catgCodePublic    = "001"
)

// ClassifyCategory maps a visit's pat_catg code and display name to a
// category. The code is authoritative where the source system assigns one;
// the insurance-scheme classes carry no stable code and are recognized by
// name, which also serves as the fallback when the code is absent.
func ClassifyCategory(code, name *string) PatientCategory {
	if code != nil {
		switch strings.TrimSpace(*code) {
		case catgCodeForeigner:
			return CategoryForeigner
		case catgCodePublic:
			return CategoryPublic
		}
	}

	n := ""
	if name != nil {
		n = strings.ToUpper(*name)
	}

	switch {
	case strings.Contains(n, "IPPM") && strings.Contains(n, "PRIVATE"):
		return CategoryIPPMPrivate
	case strings.Contains(n, "IPPM") && strings.Contains(n, "CREDIT"):
		return CategoryIPPMCredit
	case strings.Contains(n, "COST") && strings.Contains(n, "SHARING"):
		return CategoryCostSharing
	case strings.Contains(n, "NSSF"):
		return CategoryNSSF
	case code == nil && strings.Contains(n, "FOREIGN"):
		return CategoryForeigner
	case code == nil && strings.Contains(n, "PUBLIC"):
		return CategoryPublic
	}

	return CategoryOther
}
