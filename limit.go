package factgraph

import (
	"fmt"
	"regexp"
	"sync"
)

// Severity distinguishes a hard validation failure from an advisory one,
// per spec.md §5. Warnings are reported but never block Save.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "Warning"
	}
	return "Error"
}

// LimitKind enumerates the limit forms a dictionary entry may declare.
type LimitKind int

const (
	LimitMin LimitKind = iota
	LimitMax
	LimitMinLength
	LimitMaxLength
	LimitMaxCollectionSize
	LimitMatch
)

func (k LimitKind) String() string {
	switch k {
	case LimitMin:
		return "Min"
	case LimitMax:
		return "Max"
	case LimitMinLength:
		return "MinLength"
	case LimitMaxLength:
		return "MaxLength"
	case LimitMaxCollectionSize:
		return "MaxCollectionSize"
	case LimitMatch:
		return "Match"
	default:
		return "UnknownLimit"
	}
}

// LimitContext names the bound a limit checks against, for diagnostics: a
// human label plus the expressions (or literal renderings) for the actual
// and bound sides of the comparison, per spec.md §5.
type LimitContext struct {
	Name       string
	ActualExpr string
	BoundExpr  string
}

// Limit is one declared constraint on a writable fact. A fact may carry
// several; all are checked on Set/Save and violations aggregate rather
// than short-circuit, per spec.md §5.
type Limit struct {
	Kind     LimitKind
	Severity Severity
	Bound    Value         // for Min/Max/MinLength/MaxLength/MaxCollectionSize
	Pattern  string        // for Match
	Context  LimitContext
}

// domainApplicable reports whether kind is a legal limit for values of
// vk, per spec.md §5's applicability table.
func (k LimitKind) domainApplicable(vk ValueKind) bool {
	switch k {
	case LimitMin, LimitMax:
		switch vk {
		case KindInt, KindDollar, KindRational, KindDay, KindDays:
			return true
		default:
			return false
		}
	case LimitMinLength:
		return vk == KindString || vk == KindCollection
	case LimitMaxLength, LimitMatch:
		return vk == KindString
	case LimitMaxCollectionSize:
		return vk == KindCollection
	default:
		return false
	}
}

// Check evaluates l against v, returning a LimitViolation if l is broken.
// path is the concrete path of the fact being checked, used only for the
// violation's diagnostic identity.
func (l Limit) Check(path string, v Value) (*LimitViolation, error) {
	if !l.Kind.domainApplicable(v.Kind()) {
		return nil, newErrorf("Limit.Check", KindDictionaryError, path,
			"limit %s is not applicable to value kind %s", l.Kind, v.Kind())
	}

	switch l.Kind {
	case LimitMin:
		ok, err := compareOrdered(v, l.Bound, func(cmp int) bool { return cmp >= 0 })
		if err != nil {
			return nil, err
		}
		if !ok {
			return l.violation(path, fmt.Sprintf("%s is below minimum %s", v, l.Bound)), nil
		}
	case LimitMax:
		ok, err := compareOrdered(v, l.Bound, func(cmp int) bool { return cmp <= 0 })
		if err != nil {
			return nil, err
		}
		if !ok {
			return l.violation(path, fmt.Sprintf("%s exceeds maximum %s", v, l.Bound)), nil
		}
	case LimitMinLength:
		bound := mustInt(l.Bound)
		switch s := v.(type) {
		case StringValue:
			if len(string(s)) < bound {
				return l.violation(path, fmt.Sprintf("length %d is below minimum %d", len(string(s)), bound)), nil
			}
		case CollectionValue:
			if len(s.Members) < bound {
				return l.violation(path, fmt.Sprintf("length %d is below minimum %d", len(s.Members), bound)), nil
			}
		default:
			return nil, newErrorf("Limit.Check", KindTypeMismatch, path, "MinLength requires a string or collection value")
		}
	case LimitMaxLength:
		s, ok := v.(StringValue)
		if !ok {
			return nil, newErrorf("Limit.Check", KindTypeMismatch, path, "MaxLength requires a string value")
		}
		bound := mustInt(l.Bound)
		if len(string(s)) > bound {
			return l.violation(path, fmt.Sprintf("length %d exceeds maximum %d", len(string(s)), bound)), nil
		}
	case LimitMaxCollectionSize:
		c, ok := v.(CollectionValue)
		if !ok {
			return nil, newErrorf("Limit.Check", KindTypeMismatch, path, "MaxCollectionSize requires a collection value")
		}
		bound := mustInt(l.Bound)
		if len(c.Members) > bound {
			return l.violation(path, fmt.Sprintf("collection size %d exceeds maximum %d", len(c.Members), bound)), nil
		}
	case LimitMatch:
		s, ok := v.(StringValue)
		if !ok {
			return nil, newErrorf("Limit.Check", KindTypeMismatch, path, "Match requires a string value")
		}
		re, err := compileCached(l.Pattern)
		if err != nil {
			return nil, newError("Limit.Check", KindDictionaryError, path, err)
		}
		if !re.MatchString(string(s)) {
			return l.violation(path, fmt.Sprintf("%q does not match pattern %q", string(s), l.Pattern)), nil
		}
	}
	return nil, nil
}

func (l Limit) violation(path, message string) *LimitViolation {
	return &LimitViolation{Path: path, Severity: l.Severity, Context: l.Context, Message: message}
}

func mustInt(v Value) int {
	if iv, ok := v.(IntValue); ok {
		return int(iv)
	}
	return 0
}

// compareOrdered compares two values of the same orderable kind and runs
// pred over the three-way comparison result.
func compareOrdered(a, b Value, pred func(cmp int) bool) (bool, error) {
	switch av := a.(type) {
	case IntValue:
		bv, ok := b.(IntValue)
		if !ok {
			return false, newErrorf("compareOrdered", KindTypeMismatch, "", "cannot compare Int to %T", b)
		}
		return pred(cmpInt(int64(av), int64(bv))), nil
	case DollarValue:
		bv, ok := b.(DollarValue)
		if !ok {
			return false, newErrorf("compareOrdered", KindTypeMismatch, "", "cannot compare Dollar to %T", b)
		}
		return pred(cmpInt(int64(av), int64(bv))), nil
	case RationalValue:
		bv, ok := b.(RationalValue)
		if !ok {
			return false, newErrorf("compareOrdered", KindTypeMismatch, "", "cannot compare Rational to %T", b)
		}
		return pred(cmpInt(av.Num*bv.Den, bv.Num*av.Den)), nil
	case DayValue:
		bv, ok := b.(DayValue)
		if !ok {
			return false, newErrorf("compareOrdered", KindTypeMismatch, "", "cannot compare Day to %T", b)
		}
		switch {
		case av.Before(bv):
			return pred(-1), nil
		case av.After(bv):
			return pred(1), nil
		default:
			return pred(0), nil
		}
	case DaysValue:
		bv, ok := b.(DaysValue)
		if !ok {
			return false, newErrorf("compareOrdered", KindTypeMismatch, "", "cannot compare Days to %T", b)
		}
		return pred(cmpInt(int64(av), int64(bv))), nil
	default:
		return false, newErrorf("compareOrdered", KindTypeMismatch, "", "value kind %T is not orderable", a)
	}
}

var (
	regexCacheMu sync.Mutex
	regexCache   = map[string]*regexp.Regexp{}
)

// compileCached compiles pattern, memoizing across calls since Match
// limits are checked on every Set of their fact.
func compileCached(pattern string) (*regexp.Regexp, error) {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()
	if re, ok := regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache[pattern] = re
	return re, nil
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CheckEnumMembership validates that v's chosen value (or, for MultiEnum,
// each chosen value) appears in options. This is the intrinsic limit of
// spec.md §4.4 for Enum/MultiEnum: membership is checked structurally
// against the dictionary's declared option list, not via a Match regex,
// because the option set varies per fact and is sourced at Set time.
func CheckEnumMembership(path string, v Value, options []string) *LimitViolation {
	allowed := make(map[string]bool, len(options))
	for _, o := range options {
		allowed[o] = true
	}
	switch vv := v.(type) {
	case EnumValue:
		if !allowed[vv.Value] {
			return &LimitViolation{
				Path: path, Severity: SeverityError,
				Context: LimitContext{Name: "enum membership", ActualExpr: vv.Value},
				Message: fmt.Sprintf("%q is not a valid option", vv.Value),
			}
		}
	case MultiEnumValue:
		for _, val := range vv.Values {
			if !allowed[val] {
				return &LimitViolation{
					Path: path, Severity: SeverityError,
					Context: LimitContext{Name: "enum membership", ActualExpr: val},
					Message: fmt.Sprintf("%q is not a valid option", val),
				}
			}
		}
	}
	return nil
}
