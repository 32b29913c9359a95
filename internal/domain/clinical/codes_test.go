package clinical

import "testing"

func TestNewDiagnosticCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"J06.9", true},
		{"C50.911", true},
		{"I21", true},
		{"s52.5", true}, // normalised to upper case
		{"U07.1", false}, // U is reserved
		{"1234", false},
		{"J6", false},
		{"J06.", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			d, err := NewDiagnosticCode(tt.code, "test")
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("expected error for %q", tt.code)
			}
			if tt.valid && d.Code() != "S52.5" && tt.code == "s52.5" {
				t.Errorf("code = %q, want S52.5", d.Code())
			}
		})
	}
}

func TestDiagnosticCode_Category(t *testing.T) {
	d, err := NewDiagnosticCode("E11.65", "Type 2 diabetes with hyperglycemia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Category() != "E11" {
		t.Errorf("category = %q, want E11", d.Category())
	}
}

func TestNewProcedureCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"0DTJ4ZZ", true},
		{"3E0234Z", true},
		{"B2111ZZ", true},
		{"0DTJ4Z", false},  // six characters
		{"0DTJ4ZZI", false}, // eight characters
		{"0DTJ4ZO", false},  // O is not allowed
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := NewProcedureCode(tt.code, "test")
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("expected error for %q", tt.code)
			}
		})
	}
}

func TestProcedureCode_Section(t *testing.T) {
	p, err := NewProcedureCode("3E0234Z", "Introduction of serum into muscle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Section() != '3' {
		t.Errorf("section = %c, want 3", p.Section())
	}
}
