package factgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
)

// ValueKind tags the closed set of writable value variants. Kept as a
// small enumeration (rather than reflect.Type) so the dictionary and
// boundary layers have a stable, serializable identifier for each type,
// per spec.md §9's open question about exposing a stable type-tag enum.
type ValueKind int

const (
	KindBool ValueKind = iota
	KindInt
	KindString
	KindDollar
	KindRational
	KindDay
	KindDays
	KindEnum
	KindMultiEnum
	KindTin
	KindEin
	KindIpPin
	KindPin
	KindPhone
	KindEmail
	KindAddress
	KindBankAccount
	KindCollection
)

var kindNames = map[ValueKind]string{
	KindBool:        "Bool",
	KindInt:         "Int",
	KindString:      "Str",
	KindDollar:      "Dollar",
	KindRational:    "Rational",
	KindDay:         "Day",
	KindDays:        "Days",
	KindEnum:        "Enum",
	KindMultiEnum:   "MultiEnum",
	KindTin:         "Tin",
	KindEin:         "Ein",
	KindIpPin:       "IpPin",
	KindPin:         "Pin",
	KindPhone:       "Phone",
	KindEmail:       "Email",
	KindAddress:     "Address",
	KindBankAccount: "BankAccount",
	KindCollection:  "Collection",
}

func (k ValueKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Value is the closed tagged union of writable/derivable value variants.
// Every variant provides construction (which may fail with InvalidValue),
// canonical rendering, equality, and the JSON codec described in spec.md §3.
type Value interface {
	Kind() ValueKind
	Equal(other Value) bool
	String() string
	json.Marshaler
}

var validate = validator.New()

// ---------------------------------------------------------------- Bool

type BoolValue bool

func NewBool(b bool) BoolValue           { return BoolValue(b) }
func (v BoolValue) Kind() ValueKind      { return KindBool }
func (v BoolValue) String() string       { return strconv.FormatBool(bool(v)) }
func (v BoolValue) Bool() bool           { return bool(v) }
func (v BoolValue) Equal(o Value) bool   { ov, ok := o.(BoolValue); return ok && v == ov }
func (v BoolValue) MarshalJSON() ([]byte, error) { return json.Marshal(bool(v)) }

// ---------------------------------------------------------------- Int

type IntValue int32

func NewInt(i int32) IntValue          { return IntValue(i) }
func (v IntValue) Kind() ValueKind     { return KindInt }
func (v IntValue) String() string      { return strconv.Itoa(int(v)) }
func (v IntValue) Int() int32          { return int32(v) }
func (v IntValue) Equal(o Value) bool  { ov, ok := o.(IntValue); return ok && v == ov }
func (v IntValue) MarshalJSON() ([]byte, error) { return json.Marshal(int32(v)) }

// ---------------------------------------------------------------- Str

type StringValue string

func NewString(s string) StringValue   { return StringValue(s) }
func (v StringValue) Kind() ValueKind  { return KindString }
func (v StringValue) String() string   { return string(v) }
func (v StringValue) Equal(o Value) bool { ov, ok := o.(StringValue); return ok && v == ov }
func (v StringValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

// ---------------------------------------------------------------- Dollar

// DollarValue holds an exact integer count of cents.
type DollarValue int64

func NewDollar(cents int64) DollarValue { return DollarValue(cents) }

func (v DollarValue) Kind() ValueKind { return KindDollar }
func (v DollarValue) Cents() int64    { return int64(v) }

// String renders the canonical form used by the JSON codec: an integer
// count of cents, per spec.md §3.
func (v DollarValue) String() string { return strconv.FormatInt(int64(v), 10) }

// Humanized renders a human-friendly "$1,234.56" form for explain output
// and error messages only — never for the canonical JSON encoding.
func (v DollarValue) Humanized() string {
	sign := ""
	cents := int64(v)
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + humanize.Comma(cents/100) + fmt.Sprintf(".%02d", cents%100)
}

func (v DollarValue) Equal(o Value) bool { ov, ok := o.(DollarValue); return ok && v == ov }
func (v DollarValue) MarshalJSON() ([]byte, error) { return json.Marshal(int64(v)) }

func (v DollarValue) Add(o DollarValue) DollarValue { return v + o }
func (v DollarValue) Sub(o DollarValue) DollarValue { return v - o }

// AddRational adds a Rational to a Dollar, rounding the result back to
// whole cents with round-half-to-even (banker's rounding), per spec.md §4.1.
func (v DollarValue) AddRational(r RationalValue) DollarValue {
	return DollarValue(int64(v) + r.RoundToCents())
}

// ---------------------------------------------------------------- Rational

// RationalValue is stored reduced with a positive denominator.
type RationalValue struct {
	Num int64
	Den int64
}

func NewRational(num, den int64) (RationalValue, error) {
	if den == 0 {
		return RationalValue{}, fmt.Errorf("rational denominator must be non-zero")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), den)
	if g != 0 {
		num /= g
		den /= g
	}
	return RationalValue{Num: num, Den: den}, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func (v RationalValue) Kind() ValueKind { return KindRational }
func (v RationalValue) String() string  { return fmt.Sprintf("%d/%d", v.Num, v.Den) }
func (v RationalValue) Equal(o Value) bool {
	ov, ok := o.(RationalValue)
	return ok && v.Num == ov.Num && v.Den == ov.Den
}
func (v RationalValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

// RoundToCents converts the rational, interpreted as a dollar quantity,
// to an integer number of cents using round-half-to-even.
func (v RationalValue) RoundToCents() int64 {
	// value * 100, rounded half-to-even
	num := v.Num * 100
	den := v.Den
	q := num / den
	r := num % den
	if r == 0 {
		return q
	}
	twiceR := abs64(r) * 2
	switch {
	case twiceR < den:
		return q
	case twiceR > den:
		if num < 0 {
			return q - 1
		}
		return q + 1
	default:
		// exactly half: round to even
		if q%2 == 0 {
			return q
		}
		if num < 0 {
			return q - 1
		}
		return q + 1
	}
}

func (v RationalValue) Add(o RationalValue) RationalValue {
	r, _ := NewRational(v.Num*o.Den+o.Num*v.Den, v.Den*o.Den)
	return r
}

func (v RationalValue) Mul(o RationalValue) RationalValue {
	r, _ := NewRational(v.Num*o.Num, v.Den*o.Den)
	return r
}

// ---------------------------------------------------------------- Day

// DayValue is a civil (Y-M-D) date, independent of time zone.
type DayValue struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDay(year int, month time.Month, day int) (DayValue, error) {
	d := DayValue{Year: year, Month: month, Day: day}
	t := d.toTime()
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return DayValue{}, fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, month, day)
	}
	return d, nil
}

func ParseDay(s string) (DayValue, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DayValue{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayValue{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (v DayValue) toTime() time.Time {
	return time.Date(v.Year, v.Month, v.Day, 0, 0, 0, 0, time.UTC)
}

func (v DayValue) Kind() ValueKind { return KindDay }
func (v DayValue) String() string  { return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day) }
func (v DayValue) Equal(o Value) bool {
	ov, ok := o.(DayValue)
	return ok && v == ov
}
func (v DayValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

func (v DayValue) Before(o DayValue) bool { return v.toTime().Before(o.toTime()) }
func (v DayValue) After(o DayValue) bool  { return v.toTime().After(o.toTime()) }

// LastDayOfMonth returns the last calendar day of v's month.
func (v DayValue) LastDayOfMonth() DayValue {
	firstOfNext := time.Date(v.Year, v.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	last := firstOfNext.AddDate(0, 0, -1)
	return DayValue{Year: last.Year(), Month: last.Month(), Day: last.Day()}
}

// AddMonthsPreservingMonthEnd adds n months, re-anchoring to the last day
// of the resulting month when v was itself the last day of its month.
// This is the domain rule behind the Dates operator AddPayrollMonths.
func (v DayValue) AddMonthsPreservingMonthEnd(n int) DayValue {
	wasLastDay := v.Day == v.LastDayOfMonth().Day
	t := v.toTime().AddDate(0, n, 0)
	result := DayValue{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	if wasLastDay {
		return result.LastDayOfMonth()
	}
	return result
}

// ---------------------------------------------------------------- Days

type DaysValue int64

func NewDays(n int64) DaysValue         { return DaysValue(n) }
func (v DaysValue) Kind() ValueKind     { return KindDays }
func (v DaysValue) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v DaysValue) Equal(o Value) bool  { ov, ok := o.(DaysValue); return ok && v == ov }
func (v DaysValue) MarshalJSON() ([]byte, error) { return json.Marshal(int64(v)) }

// ---------------------------------------------------------------- Enum / MultiEnum

// EnumValue stores both the path of its option set and the current
// chosen value; equality requires both to match, per spec.md §4.1.
type EnumValue struct {
	OptionsPath string
	Value       string
}

func NewEnum(optionsPath, value string) EnumValue {
	return EnumValue{OptionsPath: optionsPath, Value: value}
}

func (v EnumValue) Kind() ValueKind { return KindEnum }
func (v EnumValue) String() string  { return v.Value }
func (v EnumValue) Equal(o Value) bool {
	ov, ok := o.(EnumValue)
	return ok && v.OptionsPath == ov.OptionsPath && v.Value == ov.Value
}
func (v EnumValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

// MultiEnumValue is order-insensitive on equality.
type MultiEnumValue struct {
	OptionsPath string
	Values      []string
}

func NewMultiEnum(optionsPath string, values []string) MultiEnumValue {
	cp := make([]string, len(values))
	copy(cp, values)
	return MultiEnumValue{OptionsPath: optionsPath, Values: cp}
}

func (v MultiEnumValue) Kind() ValueKind { return KindMultiEnum }
func (v MultiEnumValue) String() string  { return strings.Join(v.Values, ", ") }
func (v MultiEnumValue) Equal(o Value) bool {
	ov, ok := o.(MultiEnumValue)
	if !ok || v.OptionsPath != ov.OptionsPath || len(v.Values) != len(ov.Values) {
		return false
	}
	a := append([]string(nil), v.Values...)
	b := append([]string(nil), ov.Values...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
func (v MultiEnumValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Values) }

// ---------------------------------------------------------------- Validated strings

var (
	tinRE   = regexp.MustCompile(`^\d{9}$`)
	einRE   = regexp.MustCompile(`^\d{9}$`)
	ipPinRE = regexp.MustCompile(`^\d{6}$`)
	pinRE   = regexp.MustCompile(`^\d{5}$`)
	phoneRE = regexp.MustCompile(`^\d{10}$`)
)

func normalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type TinValue string

// NewTin validates and canonicalizes a US taxpayer identification number
// (SSN/ITIN shape: 9 digits), rendering XXX-XX-XXXX.
func NewTin(raw string) (TinValue, error) {
	digits := normalizeDigits(raw)
	if !tinRE.MatchString(digits) {
		return "", fmt.Errorf("invalid TIN %q: must be 9 digits", raw)
	}
	return TinValue(digits[0:3] + "-" + digits[3:5] + "-" + digits[5:9]), nil
}
func (v TinValue) Kind() ValueKind { return KindTin }
func (v TinValue) String() string  { return string(v) }
func (v TinValue) Equal(o Value) bool { ov, ok := o.(TinValue); return ok && v == ov }
func (v TinValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

type EinValue string

// NewEin validates and canonicalizes an employer identification number
// (9 digits), rendering XX-XXXXXXX.
func NewEin(raw string) (EinValue, error) {
	digits := normalizeDigits(raw)
	if !einRE.MatchString(digits) {
		return "", fmt.Errorf("invalid EIN %q: must be 9 digits", raw)
	}
	return EinValue(digits[0:2] + "-" + digits[2:9]), nil
}
func (v EinValue) Kind() ValueKind { return KindEin }
func (v EinValue) String() string  { return string(v) }
func (v EinValue) Equal(o Value) bool { ov, ok := o.(EinValue); return ok && v == ov }
func (v EinValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

type IpPinValue string

// NewIpPin validates a 6-digit IRS identity-protection PIN.
func NewIpPin(raw string) (IpPinValue, error) {
	digits := normalizeDigits(raw)
	if !ipPinRE.MatchString(digits) {
		return "", fmt.Errorf("invalid IP PIN %q: must be 6 digits", raw)
	}
	return IpPinValue(digits), nil
}
func (v IpPinValue) Kind() ValueKind { return KindIpPin }
func (v IpPinValue) String() string  { return string(v) }
func (v IpPinValue) Equal(o Value) bool { ov, ok := o.(IpPinValue); return ok && v == ov }
func (v IpPinValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

type PinValue string

// NewPin validates a 5-digit self-select signature PIN.
func NewPin(raw string) (PinValue, error) {
	digits := normalizeDigits(raw)
	if !pinRE.MatchString(digits) {
		return "", fmt.Errorf("invalid PIN %q: must be 5 digits", raw)
	}
	return PinValue(digits), nil
}
func (v PinValue) Kind() ValueKind { return KindPin }
func (v PinValue) String() string  { return string(v) }
func (v PinValue) Equal(o Value) bool { ov, ok := o.(PinValue); return ok && v == ov }
func (v PinValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

type PhoneValue string

// NewPhone validates a 10-digit US phone number, rendering (XXX) XXX-XXXX.
func NewPhone(raw string) (PhoneValue, error) {
	digits := normalizeDigits(raw)
	if !phoneRE.MatchString(digits) {
		return "", fmt.Errorf("invalid phone %q: must be 10 digits", raw)
	}
	return PhoneValue(fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])), nil
}
func (v PhoneValue) Kind() ValueKind { return KindPhone }
func (v PhoneValue) String() string  { return string(v) }
func (v PhoneValue) Equal(o Value) bool { ov, ok := o.(PhoneValue); return ok && v == ov }
func (v PhoneValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

type EmailValue string

// NewEmail validates an email address using go-playground/validator's
// "email" tag, layered under the value's own presence check.
func NewEmail(raw string) (EmailValue, error) {
	raw = strings.TrimSpace(raw)
	if err := validate.Var(raw, "required,email"); err != nil {
		return "", fmt.Errorf("invalid email %q: %w", raw, err)
	}
	return EmailValue(raw), nil
}
func (v EmailValue) Kind() ValueKind { return KindEmail }
func (v EmailValue) String() string  { return string(v) }
func (v EmailValue) Equal(o Value) bool { ov, ok := o.(EmailValue); return ok && v == ov }
func (v EmailValue) MarshalJSON() ([]byte, error) { return json.Marshal(string(v)) }

// ---------------------------------------------------------------- Address

type AddressValue struct {
	Street  string
	Line2   string
	City    string
	Region  string
	Postal  string
	Country string
}

var usPostalRE = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// NewAddress validates region/postal format for US addresses (the
// intrinsic limit described in spec.md §4.4); non-US countries only
// require the postal code to be non-empty.
func NewAddress(a AddressValue) (AddressValue, error) {
	if strings.TrimSpace(a.Street) == "" {
		return AddressValue{}, fmt.Errorf("address street is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return AddressValue{}, fmt.Errorf("address city is required")
	}
	if a.Country == "" {
		a.Country = "US"
	}
	if a.Country == "US" {
		if len(a.Region) != 2 {
			return AddressValue{}, fmt.Errorf("invalid US region %q: must be a 2-letter code", a.Region)
		}
		if !usPostalRE.MatchString(a.Postal) {
			return AddressValue{}, fmt.Errorf("invalid US postal code %q", a.Postal)
		}
	} else if strings.TrimSpace(a.Postal) == "" {
		return AddressValue{}, fmt.Errorf("postal code is required")
	}
	return a, nil
}

func (v AddressValue) Kind() ValueKind { return KindAddress }
func (v AddressValue) String() string {
	return fmt.Sprintf("%s, %s %s %s, %s", v.Street, v.City, v.Region, v.Postal, v.Country)
}
func (v AddressValue) Equal(o Value) bool { ov, ok := o.(AddressValue); return ok && v == ov }
func (v AddressValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Street  string `json:"street"`
		Line2   string `json:"line2,omitempty"`
		City    string `json:"city"`
		Region  string `json:"region"`
		Postal  string `json:"postal"`
		Country string `json:"country"`
	}{v.Street, v.Line2, v.City, v.Region, v.Postal, v.Country})
}

// ---------------------------------------------------------------- BankAccount

type BankAccountValue struct {
	AccountType string // "checking" | "savings"
	Routing     string
	Account     string
}

var routingRE = regexp.MustCompile(`^\d{9}$`)

// NewBankAccount validates the ABA routing number checksum, per the
// standard weighted-digit algorithm.
func NewBankAccount(a BankAccountValue) (BankAccountValue, error) {
	if a.AccountType != "checking" && a.AccountType != "savings" {
		return BankAccountValue{}, fmt.Errorf("invalid account type %q", a.AccountType)
	}
	if !routingRE.MatchString(a.Routing) || !validRoutingChecksum(a.Routing) {
		return BankAccountValue{}, fmt.Errorf("invalid routing number %q", a.Routing)
	}
	if strings.TrimSpace(a.Account) == "" {
		return BankAccountValue{}, fmt.Errorf("account number is required")
	}
	return a, nil
}

func validRoutingChecksum(r string) bool {
	weights := [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	sum := 0
	for i, c := range r {
		sum += int(c-'0') * weights[i]
	}
	return sum%10 == 0
}

func (v BankAccountValue) Kind() ValueKind { return KindBankAccount }
func (v BankAccountValue) String() string {
	return fmt.Sprintf("%s ****%s", v.AccountType, lastN(v.Account, 4))
}
func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
func (v BankAccountValue) Equal(o Value) bool { ov, ok := o.(BankAccountValue); return ok && v == ov }
func (v BankAccountValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Routing string `json:"routing"`
		Account string `json:"account"`
	}{v.AccountType, v.Routing, v.Account})
}

// ---------------------------------------------------------------- Collection

// CollectionValue stores member identifiers in insertion order.
type CollectionValue struct {
	Members []string
}

func NewCollection(members ...string) (CollectionValue, error) {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m] {
			return CollectionValue{}, fmt.Errorf("duplicate member id %q", m)
		}
		seen[m] = true
	}
	cp := make([]string, len(members))
	copy(cp, members)
	return CollectionValue{Members: cp}, nil
}

func (v CollectionValue) Kind() ValueKind { return KindCollection }
func (v CollectionValue) String() string  { return "[" + strings.Join(v.Members, ", ") + "]" }
func (v CollectionValue) Equal(o Value) bool {
	ov, ok := o.(CollectionValue)
	if !ok || len(v.Members) != len(ov.Members) {
		return false
	}
	for i := range v.Members {
		if v.Members[i] != ov.Members[i] {
			return false
		}
	}
	return true
}
func (v CollectionValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Members) }

// With returns a copy of v with id appended, failing if id is already present.
func (v CollectionValue) With(id string) (CollectionValue, error) {
	for _, m := range v.Members {
		if m == id {
			return CollectionValue{}, fmt.Errorf("duplicate member id %q", id)
		}
	}
	return NewCollection(append(append([]string{}, v.Members...), id)...)
}

// Without returns a copy of v with id removed.
func (v CollectionValue) Without(id string) CollectionValue {
	out := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		if m != id {
			out = append(out, m)
		}
	}
	return CollectionValue{Members: out}
}

// Contains reports whether id is a member of v.
func (v CollectionValue) Contains(id string) bool {
	for _, m := range v.Members {
		if m == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------- Tagged JSON codec

// taggedValue is the wire format described in spec.md §6:
// {"$type": "<type-tag>", "item": <json>}.
type taggedValue struct {
	Type string          `json:"$type"`
	Item json.RawMessage `json:"item"`
}

// EncodeTaggedValue produces the tagged JSON container used by migrations
// and persistence.
func EncodeTaggedValue(v Value) ([]byte, error) {
	item, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Type: v.Kind().String(), Item: item})
}

// DecodeTaggedValue parses the tagged JSON container back into a typed Value.
func DecodeTaggedValue(data []byte) (Value, error) {
	var tv taggedValue
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&tv); err != nil {
		return nil, fmt.Errorf("decoding tagged value: %w", err)
	}
	return decodeByTag(tv.Type, tv.Item)
}

func decodeByTag(tag string, item json.RawMessage) (Value, error) {
	switch tag {
	case "Bool":
		var b bool
		if err := json.Unmarshal(item, &b); err != nil {
			return nil, err
		}
		return NewBool(b), nil
	case "Int":
		var i int32
		if err := json.Unmarshal(item, &i); err != nil {
			return nil, err
		}
		return NewInt(i), nil
	case "Str":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewString(s), nil
	case "Dollar":
		var c int64
		if err := json.Unmarshal(item, &c); err != nil {
			return nil, err
		}
		return NewDollar(c), nil
	case "Rational":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return parseRationalString(s)
	case "Day":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return ParseDay(s)
	case "Days":
		var n int64
		if err := json.Unmarshal(item, &n); err != nil {
			return nil, err
		}
		return NewDays(n), nil
	case "Tin":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewTin(s)
	case "Ein":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewEin(s)
	case "IpPin":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewIpPin(s)
	case "Pin":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewPin(s)
	case "Phone":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewPhone(s)
	case "Email":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewEmail(s)
	case "Address":
		var a struct {
			Street, Line2, City, Region, Postal, Country string
		}
		if err := json.Unmarshal(item, &a); err != nil {
			return nil, err
		}
		return NewAddress(AddressValue{a.Street, a.Line2, a.City, a.Region, a.Postal, a.Country})
	case "BankAccount":
		var a struct {
			Type    string `json:"type"`
			Routing string `json:"routing"`
			Account string `json:"account"`
		}
		if err := json.Unmarshal(item, &a); err != nil {
			return nil, err
		}
		return NewBankAccount(BankAccountValue{a.Type, a.Routing, a.Account})
	case "Collection":
		var members []string
		if err := json.Unmarshal(item, &members); err != nil {
			return nil, err
		}
		return NewCollection(members...)
	case "Enum":
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewEnum("", s), nil
	case "MultiEnum":
		var values []string
		if err := json.Unmarshal(item, &values); err != nil {
			return nil, err
		}
		return NewMultiEnum("", values), nil
	default:
		return nil, fmt.Errorf("unknown value type tag %q", tag)
	}
}

func parseRationalString(s string) (RationalValue, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return RationalValue{}, fmt.Errorf("invalid rational %q: expected n/d", s)
	}
	num, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RationalValue{}, fmt.Errorf("invalid rational numerator %q: %w", parts[0], err)
	}
	den, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return RationalValue{}, fmt.Errorf("invalid rational denominator %q: %w", parts[1], err)
	}
	return NewRational(num, den)
}

// DecodeValueForKind decodes item (the plain, untagged canonical JSON form
// from spec.md §3, as used for Enum/MultiEnum which need their options
// path supplied separately) for a specific expected kind.
func DecodeValueForKind(kind ValueKind, item []byte, optionsPath string) (Value, error) {
	switch kind {
	case KindEnum:
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, err
		}
		return NewEnum(optionsPath, s), nil
	case KindMultiEnum:
		var ss []string
		if err := json.Unmarshal(item, &ss); err != nil {
			return nil, err
		}
		return NewMultiEnum(optionsPath, ss), nil
	default:
		return decodeByTag(kind.String(), item)
	}
}
