package insurance

import "testing"

// stubItem is a minimal ClaimableItem for coverage tests.
type stubItem struct {
	diagnosis string
	procedure string
	accident  AccidentType
}

func (s stubItem) ResolveBenefitType(inpatient bool) BenefitType {
	if s.accident != "" {
		return BenefitAccident
	}
	if s.procedure != "" {
		return ResolveProcedureBenefit(s.procedure, inpatient)
	}
	return ResolveDiagnosisBenefit(s.diagnosis, inpatient)
}

func (s stubItem) BenefitDescription(inpatient bool) string {
	return string(s.ResolveBenefitType(inpatient))
}

func (s stubItem) DiagnosisCode() string { return s.diagnosis }
func (s stubItem) ProcedureCode() string { return s.procedure }

func (s stubItem) AccidentSubType() (AccidentType, bool) {
	return s.accident, s.accident != ""
}

func TestNewExclusionCriteria_InvalidPattern(t *testing.T) {
	_, err := NewExclusionCriteria(ExclusionSpec{DiagnosisPatterns: []string{"("}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestExclusionCriteria_DiagnosisPatterns(t *testing.T) {
	excl, err := NewExclusionCriteria(ExclusionSpec{
		DiagnosisPatterns: []string{`Z41\.1`, `E66\..*`},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !excl.Applies(stubItem{diagnosis: "Z41.1"}, false) {
		t.Error("Z41.1 should be excluded")
	}
	if !excl.Applies(stubItem{diagnosis: "E66.9"}, false) {
		t.Error("E66.9 should be excluded")
	}
	if excl.Applies(stubItem{diagnosis: "J06.9"}, false) {
		t.Error("J06.9 should not be excluded")
	}
}

func TestExclusionCriteria_MatchingIsCaseInsensitiveAndPartial(t *testing.T) {
	excl, err := NewExclusionCriteria(ExclusionSpec{
		ProcedurePatterns: []string{"0B[HJQ]"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !excl.Applies(stubItem{procedure: "0bh17ez"}, true) {
		t.Error("lower-case code should still match")
	}
	// unanchored: a match anywhere in the code excludes
	if !excl.Applies(stubItem{procedure: "X0BJ0ZZ"}, true) {
		t.Error("pattern found mid-code should still match")
	}
}

func TestExclusionCriteria_BenefitAndAccident(t *testing.T) {
	excl, err := NewExclusionCriteria(ExclusionSpec{
		Benefits:      []BenefitType{BenefitDental},
		AccidentTypes: []AccidentType{AccidentTemporaryDisability},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !excl.Applies(stubItem{diagnosis: "K02.9"}, false) {
		t.Error("item resolving to an excluded benefit should be excluded")
	}
	if excl.Applies(stubItem{diagnosis: "O80"}, false) {
		t.Error("maternity item should not be excluded")
	}

	if !excl.IsExcludedAccident(AccidentTemporaryDisability) {
		t.Error("TEMPORARY_DISABILITY should be excluded")
	}
	if excl.IsExcludedAccident(AccidentDeath) {
		t.Error("DEATH should not be excluded")
	}
}

func TestExclusionCriteria_SpecIsDeterministic(t *testing.T) {
	excl, err := NewExclusionCriteria(ExclusionSpec{
		Benefits:      []BenefitType{BenefitMaternity, BenefitDental, BenefitAccident},
		AccidentTypes: []AccidentType{AccidentFracture, AccidentBurns, AccidentDeath},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spec := excl.Spec()
	wantBenefits := []BenefitType{BenefitAccident, BenefitDental, BenefitMaternity}
	for i, b := range wantBenefits {
		if spec.Benefits[i] != b {
			t.Fatalf("benefits[%d] = %s, want %s", i, spec.Benefits[i], b)
		}
	}
	wantAccidents := []AccidentType{AccidentBurns, AccidentDeath, AccidentFracture}
	for i, a := range wantAccidents {
		if spec.AccidentTypes[i] != a {
			t.Fatalf("accidents[%d] = %s, want %s", i, spec.AccidentTypes[i], a)
		}
	}

	// stored policy JSON must not drift between saves
	first, err := excl.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := excl.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("serialisation drifted:\n%s\n%s", first, second)
	}
}

func TestExclusionCriteria_JSONRoundTrip(t *testing.T) {
	orig, err := NewExclusionCriteria(ExclusionSpec{
		DiagnosisPatterns: []string{`Z00.*`},
		Benefits:          []BenefitType{BenefitMaternity},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded ExclusionCriteria
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !decoded.Applies(stubItem{diagnosis: "Z00.0"}, false) {
		t.Error("decoded criteria lost its diagnosis pattern")
	}
	if !decoded.Applies(stubItem{diagnosis: "O80"}, false) {
		t.Error("decoded criteria lost its benefit exclusion")
	}
}
