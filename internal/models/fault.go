package models

import (
	"errors"
	"fmt"
)

// FaultKind classifies where an external-call boundary went wrong. Gateways
// return a real value or a *Fault error, never an error message disguised as
// content; the orchestrator decides per kind whether to degrade or propagate.
type FaultKind int

const (
	// KindValidation rejects caller input before any external call is made.
	KindValidation FaultKind = iota
	// KindMalformed means an external reply could not be parsed as expected.
	KindMalformed
	// KindProvider is a network or provider-side failure.
	KindProvider
	// KindFilesystem is local cache contention or IO failure.
	KindFilesystem
)

func (k FaultKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindMalformed:
		return "malformed"
	case KindProvider:
		return "provider"
	case KindFilesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Fault is a tagged failure from one operation against one collaborator.
type Fault struct {
	Kind FaultKind `json:"kind"`
	Op   string    `json:"op"`
	Err  error     `json:"-"`
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s fault", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s fault: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

func NewFault(kind FaultKind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

func Validationf(op, format string, args ...any) *Fault {
	return &Fault{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

func Malformed(op string, err error) *Fault {
	return &Fault{Kind: KindMalformed, Op: op, Err: err}
}

func Provider(op string, err error) *Fault {
	return &Fault{Kind: KindProvider, Op: op, Err: err}
}

func Filesystem(op string, err error) *Fault {
	return &Fault{Kind: KindFilesystem, Op: op, Err: err}
}

// AsFault unwraps err into a *Fault, or wraps it as a provider fault when it
// carries no tag. Keeps the orchestrator's switch total.
func AsFault(op string, err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return Provider(op, err)
}

// IsKind reports whether err carries a fault of the given kind.
func IsKind(err error, kind FaultKind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}
