package block

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComposition matches every CompositionError.
	ErrComposition = errors.New("invalid observing block")
	// ErrNotFinalized indicates an operation that needs a validated block.
	ErrNotFinalized = errors.New("observing block has not been finalized")
	// ErrMissingComponent indicates a mandatory component is absent.
	ErrMissingComponent = errors.New("missing component")
	// ErrInstrumentMismatch indicates components target different instruments.
	ErrInstrumentMismatch = errors.New("instrument mismatch")
)

// Composition rules, used as Violation.Rule and as metric labels.
const (
	RuleKind               = "kind"
	RuleTarget             = "target"
	RuleAlignment          = "alignment"
	RulePattern            = "pattern"
	RuleDetector           = "detector"
	RuleInstrument         = "instrument"
	RuleAlignmentDetector  = "alignment_detector"
	RuleInstrumentMismatch = "instrument_mismatch"
)

// Violation is one broken composition rule.
type Violation struct {
	Rule      string
	Component string // e.g. "detector_configs[1]"
	Err       error
}

func (v Violation) Error() string {
	if v.Component == "" {
		return v.Err.Error()
	}
	return v.Component + ": " + v.Err.Error()
}

// Unwrap returns the underlying error.
func (v Violation) Unwrap() error {
	return v.Err
}

// CompositionError collects every violation found while finalizing a block.
type CompositionError struct {
	Kind       Kind
	Block      string
	Violations []Violation
}

func (e *CompositionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s block %s: %d violation", e.Kind, e.Block, len(e.Violations))
	if len(e.Violations) != 1 {
		b.WriteString("s")
	}
	for _, v := range e.Violations {
		b.WriteString("; ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Unwrap exposes ErrComposition and each violation to errors.Is/As.
func (e *CompositionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations)+1)
	errs = append(errs, ErrComposition)
	for _, v := range e.Violations {
		errs = append(errs, v)
	}
	return errs
}

// Rules returns the rule of every violation, in order.
func (e *CompositionError) Rules() []string {
	rules := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		rules[i] = v.Rule
	}
	return rules
}
