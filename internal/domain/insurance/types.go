package insurance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BenefitType categorises a medical charge for coverage matching.
type BenefitType string

const (
	BenefitHospitalization      BenefitType = "HOSPITALIZATION"
	BenefitSurgery              BenefitType = "SURGERY"
	BenefitOutpatientTreatments BenefitType = "OUTPATIENT_TREATMENTS"
	BenefitDental               BenefitType = "DENTAL"
	BenefitMaternity            BenefitType = "MATERNITY"
	BenefitCriticalIllness      BenefitType = "CRITICAL_ILLNESS"
	BenefitOncologyTreatments   BenefitType = "ONCOLOGY_TREATMENTS"
	BenefitDiagnosticImaging    BenefitType = "DIAGNOSTIC_IMAGING"
	BenefitMedicationAdmin      BenefitType = "MEDICATION_ADMIN"
	BenefitMinorSurgery         BenefitType = "MINOR_SURGERY"
	BenefitMajorSurgery         BenefitType = "MAJOR_SURGERY"
	BenefitPreventiveCare       BenefitType = "PREVENTIVE_CARE"
	BenefitChronicConditions    BenefitType = "CHRONIC_CONDITIONS"
	BenefitAcuteConditions      BenefitType = "ACUTE_CONDITIONS"
	BenefitAccident             BenefitType = "ACCIDENT"
)

// AccidentType is the sub-type of an accident-related charge, used for
// per-accident payout sub-limits.
type AccidentType string

const (
	AccidentDeath               AccidentType = "DEATH"
	AccidentPermanentDisability AccidentType = "PERMANENT_DISABILITY"
	AccidentPartialDisability   AccidentType = "PARTIAL_DISABILITY"
	AccidentTemporaryDisability AccidentType = "TEMPORARY_DISABILITY"
	AccidentFracture            AccidentType = "FRACTURE"
	AccidentBurns               AccidentType = "BURNS"
	AccidentMedicalExpenses     AccidentType = "MEDICAL_EXPENSES"
)

var validAccidentTypes = map[AccidentType]bool{
	AccidentDeath: true, AccidentPermanentDisability: true, AccidentPartialDisability: true,
	AccidentTemporaryDisability: true, AccidentFracture: true, AccidentBurns: true,
	AccidentMedicalExpenses: true,
}

func ParseAccidentType(s string) (AccidentType, error) {
	t := AccidentType(strings.ToUpper(s))
	if !validAccidentTypes[t] {
		return "", fmt.Errorf("unknown accident type: %s", s)
	}
	return t, nil
}

// WardClassType identifies a hospital ward class with a fixed daily rate.
type WardClassType string

const (
	WardLabourClassA          WardClassType = "LABOUR_CLASS_A"
	WardLabourClassB1         WardClassType = "LABOUR_CLASS_B1"
	WardLabourClassB2         WardClassType = "LABOUR_CLASS_B2"
	WardLabourClassC          WardClassType = "LABOUR_CLASS_C"
	WardICU                   WardClassType = "ICU"
	WardDaySurgerySeater      WardClassType = "DAYSURGERY_CLASS_SEATER"
	WardDaySurgeryCohort      WardClassType = "DAYSURGERY_CLASS_COHORT"
	WardDaySurgerySingle      WardClassType = "DAYSURGERY_CLASS_SINGLE"
	WardGeneralClassA         WardClassType = "GENERAL_CLASS_A"
	WardGeneralClassB1        WardClassType = "GENERAL_CLASS_B1"
	WardGeneralClassB2        WardClassType = "GENERAL_CLASS_B2"
	WardGeneralClassC         WardClassType = "GENERAL_CLASS_C"
)

type wardInfo struct {
	dailyRate   decimal.Decimal
	description string
}

var wardClasses = map[WardClassType]wardInfo{
	WardLabourClassA:     {decimal.NewFromInt(1500), "Labour Class A"},
	WardLabourClassB1:    {decimal.NewFromInt(1000), "Labour Class B1"},
	WardLabourClassB2:    {decimal.NewFromInt(500), "Labour Class B2"},
	WardLabourClassC:     {decimal.NewFromInt(250), "Labour Class C"},
	WardICU:              {decimal.NewFromInt(2000), "ICU"},
	WardDaySurgerySeater: {decimal.NewFromInt(300), "Day Surgery Seater"},
	WardDaySurgeryCohort: {decimal.NewFromInt(250), "Day Surgery Bed Cohort"},
	WardDaySurgerySingle: {decimal.NewFromInt(200), "Day Surgery Bed Single"},
	WardGeneralClassA:    {decimal.NewFromInt(500), "General Class A"},
	WardGeneralClassB1:   {decimal.NewFromInt(250), "General Class B1"},
	WardGeneralClassB2:   {decimal.NewFromInt(200), "General Class B2"},
	WardGeneralClassC:    {decimal.NewFromInt(150), "General Class C"},
}

// DailyRate returns the fixed daily charge for the ward class, or zero for an
// unknown class.
func (w WardClassType) DailyRate() decimal.Decimal {
	return wardClasses[w].dailyRate
}

func (w WardClassType) Description() string {
	return wardClasses[w].description
}

// PolicyStatus is the stored lifecycle state of an insurance policy.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "ACTIVE"
	PolicyExpired   PolicyStatus = "EXPIRED"
	PolicyCancelled PolicyStatus = "CANCELLED"
	PolicyPending   PolicyStatus = "PENDING"
)

func ParsePolicyStatus(s string) (PolicyStatus, error) {
	switch st := PolicyStatus(strings.ToUpper(s)); st {
	case PolicyActive, PolicyExpired, PolicyCancelled, PolicyPending:
		return st, nil
	default:
		return "", fmt.Errorf("unknown policy status: %s", s)
	}
}
