package insurance

import "regexp"

// benefitMapping pairs an ICD-10 category pattern with the benefit it maps
// to. Order matters: earlier entries take priority.
type benefitMapping struct {
	pattern *regexp.Regexp
	benefit BenefitType
}

var diagnosisMappings = []benefitMapping{
	{regexp.MustCompile(`^O.*`), BenefitMaternity},
	{regexp.MustCompile(`^C\d{2}.*`), BenefitCriticalIllness},
	{regexp.MustCompile(`^I(2[0-5]|3|4[0-1]).*`), BenefitCriticalIllness},
	{regexp.MustCompile(`^(G30|E10|E11).*`), BenefitCriticalIllness},
	{regexp.MustCompile(`^[ST].*`), BenefitAccident},
	{regexp.MustCompile(`^K0[0-5].*`), BenefitDental},
	{regexp.MustCompile(`^Z74.*`), BenefitPreventiveCare},
	{regexp.MustCompile(`^(E66|I10|J45|N18).*`), BenefitChronicConditions},
	{regexp.MustCompile(`^(J06|N30|R05).*`), BenefitAcuteConditions},
	{regexp.MustCompile(`^Z5[1-3].*`), BenefitPreventiveCare},
}

// ResolveDiagnosisBenefit maps an ICD-10 diagnosis code to a benefit type.
// Unmatched codes (including the remaining Z codes) fall back to
// hospitalization (inpatient) or outpatient treatments.
func ResolveDiagnosisBenefit(code string, inpatient bool) BenefitType {
	if code == "" {
		return settingFallback(inpatient)
	}
	for _, m := range diagnosisMappings {
		if m.pattern.MatchString(code) {
			return m.benefit
		}
	}
	return settingFallback(inpatient)
}

// ResolveProcedureBenefit maps an ICD-10-PCS procedure code to a benefit type
// by section and body system.
func ResolveProcedureBenefit(code string, inpatient bool) BenefitType {
	if len(code) < 2 {
		return settingFallback(inpatient)
	}

	section := code[0]
	bodySystem := code[1]
	prefix := code
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}

	switch {
	case section == '1':
		return BenefitMaternity
	case section == '3' && prefix == "3E0":
		return BenefitMedicationAdmin
	case section == 'B':
		return BenefitDiagnosticImaging
	case section == 'C' || section == 'D':
		return BenefitOncologyTreatments
	}

	if section == '0' {
		switch bodySystem {
		case '0', '2': // central nervous system, heart and great vessels
			return BenefitMajorSurgery
		case 'H', 'P', 'Q', 'R', 'S': // skin/breast, bones and joints
			return BenefitMinorSurgery
		default:
			if inpatient {
				return BenefitHospitalization
			}
			return BenefitMinorSurgery
		}
	}

	return settingFallback(inpatient)
}

func settingFallback(inpatient bool) BenefitType {
	if inpatient {
		return BenefitHospitalization
	}
	return BenefitOutpatientTreatments
}
