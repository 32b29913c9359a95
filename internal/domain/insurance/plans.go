package insurance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Plan is a catalog entry: a named, provider-branded coverage definition that
// held policies are minted from.
type Plan struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	ProviderName string       `json:"provider_name"`
	Spec         CoverageSpec `json:"coverage"`
}

// Coverage builds the plan's coverage terms.
func (p Plan) Coverage() (Coverage, error) {
	return NewBaseCoverage(p.Spec)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("bad plan amount %q: %v", s, err))
	}
	return d
}

// StandardPlans returns the built-in national plan catalog.
func StandardPlans() []Plan {
	publicExclusions := ExclusionSpec{
		DiagnosisPatterns: []string{
			`Z41\.1`,  // cosmetic surgery encounters
			`Z00.*`,   // general examinations
			`E66\..*`, // obesity
		},
		ProcedurePatterns: []string{
			`0B[HJQ]`, // respiratory insertion/inspection/repair
			`3E0.*`,   // introduction of substances
		},
		Benefits:      []BenefitType{BenefitDental, BenefitMaternity},
		AccidentTypes: []AccidentType{AccidentTemporaryDisability},
	}

	return []Plan{
		{
			Code:         "MEDISHIELD",
			Name:         "MediShield Life",
			ProviderName: "Central Provident Board",
			Spec: CoverageSpec{
				Limits: LimitSpec{
					AnnualLimit:   dec("150000"),
					LifetimeLimit: dec("2000000"),
					BenefitLimits: map[BenefitType]decimal.Decimal{
						BenefitHospitalization:    dec("1200"),
						BenefitSurgery:            dec("4500"),
						BenefitOncologyTreatments: dec("3000"),
						BenefitAccident:           dec("150000"),
					},
					WardLimits: map[WardClassType]decimal.Decimal{
						WardGeneralClassB2: dec("150000"),
						WardGeneralClassC:  dec("150000"),
					},
				},
				Deductible:         dec("1500"),
				Coinsurance:        dec("0.10"),
				DeathBenefitAmount: dec("100000"),
				CoveredBenefits: []BenefitType{
					BenefitHospitalization,
					BenefitSurgery,
					BenefitOutpatientTreatments,
					BenefitOncologyTreatments,
					BenefitDiagnosticImaging,
				},
				Exclusions: publicExclusions,
			},
		},
		{
			Code:         "CARESHIELD",
			Name:         "CareShield Life",
			ProviderName: "Central Provident Board",
			Spec: CoverageSpec{
				Limits: LimitSpec{
					AnnualLimit: dec("50000"),
					BenefitLimits: map[BenefitType]decimal.Decimal{
						BenefitCriticalIllness: dec("120000"),
					},
					AccidentSubLimits: map[AccidentType]decimal.Decimal{
						AccidentPermanentDisability: dec("600"),
					},
				},
				Coinsurance:        dec("0.05"),
				DeathBenefitAmount: dec("50000"),
				CoveredBenefits: []BenefitType{
					BenefitCriticalIllness,
					BenefitPreventiveCare,
				},
				// pre-existing condition exclusions
				Exclusions: ExclusionSpec{
					DiagnosisPatterns: []string{
						`^E1[0-4]\..*`, // diabetes mellitus
						`^I1[0-5]\..*`, // hypertensive diseases
						`^C3[0-4]\..*`, // respiratory cancers
						`^F2[0-9]\..*`, // schizophrenia spectrum
						`^M1[5-9]\..*`, // osteoarthritis
						`^J4[0-5]\..*`, // chronic lower respiratory
						`^K7[0-4]\..*`, // liver diseases
						`^N18\..*`,     // chronic kidney disease
						`^B20\..*`,     // HIV
					},
					Benefits:      []BenefitType{BenefitMinorSurgery},
					AccidentTypes: []AccidentType{AccidentTemporaryDisability},
				},
			},
		},
		{
			Code:         "ELDERSHIELD",
			Name:         "ElderShield Supplement",
			ProviderName: "Central Provident Board",
			Spec: CoverageSpec{
				Limits: LimitSpec{
					AnnualLimit: dec("75000"),
					AccidentSubLimits: map[AccidentType]decimal.Decimal{
						AccidentPermanentDisability: dec("400"),
					},
				},
				Deductible:  dec("500"),
				Coinsurance: dec("0.15"),
				CoveredBenefits: []BenefitType{
					BenefitPreventiveCare,
					BenefitChronicConditions,
				},
				// occupational exposure exclusions
				Exclusions: ExclusionSpec{
					DiagnosisPatterns: []string{`^Z5[6-7]\..*`},
					Benefits:          []BenefitType{BenefitAcuteConditions},
					AccidentTypes:     []AccidentType{AccidentTemporaryDisability},
				},
			},
		},
	}
}

// PlanByCode finds a catalog plan by its code.
func PlanByCode(code string) (Plan, bool) {
	for _, p := range StandardPlans() {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}
