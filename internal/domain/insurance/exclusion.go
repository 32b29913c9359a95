package insurance

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// ExclusionCriteria removes otherwise-covered items from eligibility: code
// patterns for diagnoses and procedures plus excluded benefit and accident
// types. Pattern matching is case-insensitive and partial — a pattern found
// anywhere in a code excludes the item. Immutable once built.
type ExclusionCriteria struct {
	diagnosisPatterns []*regexp.Regexp
	procedurePatterns []*regexp.Regexp
	benefits          map[BenefitType]bool
	accidents         map[AccidentType]bool

	// kept for serialisation
	rawDiagnosis []string
	rawProcedure []string
}

// ExclusionSpec configures an ExclusionCriteria.
type ExclusionSpec struct {
	DiagnosisPatterns []string       `json:"excludedDiagnosisPatterns,omitempty"`
	ProcedurePatterns []string       `json:"excludedProcedurePatterns,omitempty"`
	Benefits          []BenefitType  `json:"excludedBenefits,omitempty"`
	AccidentTypes     []AccidentType `json:"excludedAccidentTypes,omitempty"`
}

// NewExclusionCriteria compiles the spec's code patterns. Invalid regular
// expressions are a construction error.
func NewExclusionCriteria(spec ExclusionSpec) (ExclusionCriteria, error) {
	diag, err := compilePatterns(spec.DiagnosisPatterns)
	if err != nil {
		return ExclusionCriteria{}, fmt.Errorf("diagnosis exclusion: %w", err)
	}
	proc, err := compilePatterns(spec.ProcedurePatterns)
	if err != nil {
		return ExclusionCriteria{}, fmt.Errorf("procedure exclusion: %w", err)
	}

	benefits := make(map[BenefitType]bool, len(spec.Benefits))
	for _, b := range spec.Benefits {
		benefits[b] = true
	}
	accidents := make(map[AccidentType]bool, len(spec.AccidentTypes))
	for _, a := range spec.AccidentTypes {
		accidents[a] = true
	}

	return ExclusionCriteria{
		diagnosisPatterns: diag,
		procedurePatterns: proc,
		benefits:          benefits,
		accidents:         accidents,
		rawDiagnosis:      append([]string(nil), spec.DiagnosisPatterns...),
		rawProcedure:      append([]string(nil), spec.ProcedurePatterns...),
	}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Applies reports whether the item is excluded from coverage: its diagnosis
// code matches an excluded-diagnosis pattern, its procedure code matches an
// excluded-procedure pattern, or its resolved benefit type is excluded.
func (e ExclusionCriteria) Applies(item ClaimableItem, inpatient bool) bool {
	if code := item.DiagnosisCode(); code != "" && matchesAny(code, e.diagnosisPatterns) {
		return true
	}
	if code := item.ProcedureCode(); code != "" && matchesAny(code, e.procedurePatterns) {
		return true
	}
	return e.benefits[item.ResolveBenefitType(inpatient)]
}

// IsExcludedAccident reports whether the accident type is excluded.
func (e ExclusionCriteria) IsExcludedAccident(t AccidentType) bool {
	return e.accidents[t]
}

func matchesAny(code string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(code) {
			return true
		}
	}
	return false
}

// Spec returns a serialisable view of the criteria. Excluded benefit and
// accident types come out sorted so a stored policy serialises identically
// across saves.
func (e ExclusionCriteria) Spec() ExclusionSpec {
	spec := ExclusionSpec{
		DiagnosisPatterns: append([]string(nil), e.rawDiagnosis...),
		ProcedurePatterns: append([]string(nil), e.rawProcedure...),
	}
	for b := range e.benefits {
		spec.Benefits = append(spec.Benefits, b)
	}
	sort.Slice(spec.Benefits, func(i, j int) bool { return spec.Benefits[i] < spec.Benefits[j] })
	for a := range e.accidents {
		spec.AccidentTypes = append(spec.AccidentTypes, a)
	}
	sort.Slice(spec.AccidentTypes, func(i, j int) bool { return spec.AccidentTypes[i] < spec.AccidentTypes[j] })
	return spec
}

func (e ExclusionCriteria) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Spec())
}

func (e *ExclusionCriteria) UnmarshalJSON(data []byte) error {
	var spec ExclusionSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return err
	}
	built, err := NewExclusionCriteria(spec)
	if err != nil {
		return err
	}
	*e = built
	return nil
}
