package clinical

import (
	"fmt"
	"regexp"
	"strings"
)

// ICD-10-CM diagnosis codes: a letter, two alphanumerics, optional dotted
// extension up to four characters. U is reserved for provisional assignment.
var diagnosisCodePattern = regexp.MustCompile(`^[A-TV-Z][0-9][0-9A-Z](\.[0-9A-Z]{1,4})?$`)

// ICD-10-PCS procedure codes: exactly seven characters, no I or O.
var procedureCodePattern = regexp.MustCompile(`^[0-9A-HJ-NP-Z]{7}$`)

// DiagnosticCode is a validated ICD-10-CM diagnosis code.
type DiagnosticCode struct {
	code        string
	description string
}

func NewDiagnosticCode(code, description string) (DiagnosticCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !diagnosisCodePattern.MatchString(code) {
		return DiagnosticCode{}, fmt.Errorf("invalid ICD-10 diagnosis code: %q", code)
	}
	return DiagnosticCode{code: code, description: description}, nil
}

func (d DiagnosticCode) Code() string        { return d.code }
func (d DiagnosticCode) Description() string { return d.description }

// Category is the three-character category prefix, without any extension.
func (d DiagnosticCode) Category() string {
	if i := strings.IndexByte(d.code, '.'); i >= 0 {
		return d.code[:i]
	}
	return d.code
}

// ProcedureCode is a validated ICD-10-PCS procedure code.
type ProcedureCode struct {
	code        string
	description string
}

func NewProcedureCode(code, description string) (ProcedureCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !procedureCodePattern.MatchString(code) {
		return ProcedureCode{}, fmt.Errorf("invalid ICD-10-PCS procedure code: %q", code)
	}
	return ProcedureCode{code: code, description: description}, nil
}

func (p ProcedureCode) Code() string        { return p.code }
func (p ProcedureCode) Description() string { return p.description }

// Section is the first character of the code, identifying the PCS section.
func (p ProcedureCode) Section() byte { return p.code[0] }
