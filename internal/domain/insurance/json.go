package insurance

import (
	"encoding/json"
	"fmt"
)

// Coverage documents are stored as JSON with a type discriminator so that a
// policy row can hold either a single plan or a stacked composite.

const (
	coverageTypeBase      = "base"
	coverageTypeComposite = "composite"
)

type coverageEnvelope struct {
	Type       string            `json:"type"`
	Base       *CoverageSpec     `json:"base,omitempty"`
	Components []json.RawMessage `json:"components,omitempty"`
}

// Spec returns a serialisable view of the coverage terms.
func (c *BaseCoverage) Spec() CoverageSpec {
	return CoverageSpec{
		Limits:             c.limits.Spec(),
		Deductible:         c.deductible,
		Coinsurance:        c.coinsurance,
		DeathBenefitAmount: c.deathBenefitAmount,
		CoveredBenefits:    c.CoveredBenefits(),
		Exclusions:         c.exclusions.Spec(),
	}
}

// MarshalCoverage encodes a coverage tree for storage.
func MarshalCoverage(c Coverage) ([]byte, error) {
	switch cov := c.(type) {
	case *BaseCoverage:
		spec := cov.Spec()
		return json.Marshal(coverageEnvelope{Type: coverageTypeBase, Base: &spec})
	case *CompositeCoverage:
		components := make([]json.RawMessage, 0, len(cov.coverages))
		for _, child := range cov.coverages {
			raw, err := MarshalCoverage(child)
			if err != nil {
				return nil, err
			}
			components = append(components, raw)
		}
		return json.Marshal(coverageEnvelope{Type: coverageTypeComposite, Components: components})
	default:
		return nil, fmt.Errorf("unsupported coverage type %T", c)
	}
}

// UnmarshalCoverage decodes a stored coverage tree.
func UnmarshalCoverage(data []byte) (Coverage, error) {
	var env coverageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode coverage: %w", err)
	}

	switch env.Type {
	case coverageTypeBase:
		if env.Base == nil {
			return nil, fmt.Errorf("base coverage document missing terms")
		}
		return NewBaseCoverage(*env.Base)
	case coverageTypeComposite:
		children := make([]Coverage, 0, len(env.Components))
		for _, raw := range env.Components {
			child, err := UnmarshalCoverage(raw)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return NewCompositeCoverage(children...)
	default:
		return nil, fmt.Errorf("unknown coverage type %q", env.Type)
	}
}
