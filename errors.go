package factgraph

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies one of the error categories from the error taxonomy.
// LimitViolation is deliberately not a Kind: limit failures are data,
// aggregated and returned from Set/Save, never thrown. See limit.go.
type Kind int

const (
	// KindParseError indicates a malformed path, JSON document, or value literal.
	KindParseError Kind = iota
	// KindInvalidValue indicates a value failed its type's invariants.
	KindInvalidValue
	// KindTypeMismatch indicates a Set/Get saw a value whose type differs
	// from the declared writable type.
	KindTypeMismatch
	// KindUnknownPath indicates a path refers to no declared fact.
	KindUnknownPath
	// KindShapeMismatch indicates vectorized inputs had incompatible
	// multiplicities. Fatal to the operation; never collapses to Incomplete.
	KindShapeMismatch
	// KindEvaluationCycle indicates recursive evaluation of the same
	// concrete path during a single force.
	KindEvaluationCycle
	// KindDictionaryError indicates an inconsistent dictionary: a missing
	// module, or use of a dictionary that was never frozen.
	KindDictionaryError
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindInvalidValue:
		return "InvalidValue"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindUnknownPath:
		return "UnknownPath"
	case KindShapeMismatch:
		return "ShapeMismatch"
	case KindEvaluationCycle:
		return "EvaluationCycle"
	case KindDictionaryError:
		return "DictionaryError"
	default:
		return "UnknownKind"
	}
}

// Error is the error type returned at operation boundaries throughout
// factgraph. It carries a Kind so callers (and the boundary adapter) can
// switch on category without string matching, and wraps a cause with
// github.com/pkg/errors so %+v printing retains a stack trace from the
// point the error was first raised.
type Error struct {
	Kind Kind
	Path string // concrete or abstract path involved, if any
	Op   string // operation name, e.g. "Graph.Set", "Path.Parse"
	err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Path, e.err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Is allows errors.Is(err, factgraph.KindKind-style sentinels) by kind via
// a zero-value *Error carrying only a Kind, e.g.:
//
//	errors.Is(err, &factgraph.Error{Kind: factgraph.KindUnknownPath})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(op string, kind Kind, path string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Path: path, err: errors.Wrap(cause, kind.String())}
}

func newErrorf(op string, kind Kind, path string, format string, args ...interface{}) *Error {
	return newError(op, kind, path, fmt.Errorf(format, args...))
}

// LimitViolation describes a single failing limit on a writable fact.
// It is never an error value: it is aggregated and returned from Set and
// Save, per spec.md §7's propagation policy.
type LimitViolation struct {
	Path     string
	Severity Severity
	Context  LimitContext
	Message  string
}

func (v LimitViolation) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", v.Path, v.Severity, v.Context.Name, v.Message)
}
