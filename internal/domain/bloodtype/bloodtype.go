// Package bloodtype holds the ABO/Rh catalog, its wire codec and the static
// component compatibility matrix used across registration, screening and
// volunteer matching.
package bloodtype

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ABO is the ABO group of a blood type.
type ABO string

const (
	A  ABO = "A"
	B  ABO = "B"
	AB ABO = "AB"
	O  ABO = "O"
)

// Rh is the Rh(D) sign of a blood type.
type Rh string

const (
	Positive Rh = "+"
	Negative Rh = "-"
)

// DefaultID is returned by ToNumericID when the input cannot be mapped.
// Several callers rely on always receiving a valid id, so the codec falls
// back to A+ instead of failing.
const DefaultID = 1

// BloodType is one of the eight canonical ABO+Rh types.
type BloodType struct {
	ABO ABO
	Rh  Rh
}

// Canonical types in backend id order.
var (
	APos  = BloodType{A, Positive}
	ANeg  = BloodType{A, Negative}
	BPos  = BloodType{B, Positive}
	BNeg  = BloodType{B, Negative}
	ABPos = BloodType{AB, Positive}
	ABNeg = BloodType{AB, Negative}
	OPos  = BloodType{O, Positive}
	ONeg  = BloodType{O, Negative}
)

// numericIDs is the external contract with the API: the position in this
// list plus one is the bloodTypeId sent over the wire.
var numericIDs = []BloodType{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// Logger receives warnings whenever a fallback id is substituted for bad
// input. It is a no-op unless SetLogger is called.
var logger = zerolog.Nop()

// SetLogger installs the logger used to flag codec fallbacks.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// FallbackObserver is notified about every codec fallback; kind is
// "blood_type" or "component".
var fallbackObserver func(kind string)

// SetFallbackObserver registers a hook (typically a metrics counter) called
// on every codec fallback.
func SetFallbackObserver(fn func(kind string)) {
	fallbackObserver = fn
}

func reportFallback(kind, input string) {
	logger.Warn().Str("kind", kind).Str("input", input).Msg("unmapped code, using default id")
	if fallbackObserver != nil {
		fallbackObserver(kind)
	}
}

// All returns the eight blood types in canonical order.
func All() []BloodType {
	out := make([]BloodType, len(numericIDs))
	copy(out, numericIDs)
	return out
}

// Parse splits a combined code such as "AB+" into its ABO group and Rh sign.
// The ABO prefix is matched longest first, so "AB-" is never read as "A".
// Rh may also be spelled "pos"/"neg" or "positive"/"negative".
func Parse(code string) (ABO, Rh, error) {
	s := strings.ToUpper(strings.TrimSpace(code))
	if s == "" {
		return "", "", fmt.Errorf("empty blood type")
	}

	var abo ABO
	for _, candidate := range []ABO{AB, A, B, O} {
		if strings.HasPrefix(s, string(candidate)) {
			abo = candidate
			break
		}
	}
	if abo == "" {
		return "", "", fmt.Errorf("unknown ABO group in %q", code)
	}

	rest := strings.TrimSpace(s[len(abo):])
	switch rest {
	case "+", "POS", "POSITIVE":
		return abo, Positive, nil
	case "-", "NEG", "NEGATIVE":
		return abo, Negative, nil
	case "":
		return "", "", fmt.Errorf("missing Rh sign in %q", code)
	default:
		return "", "", fmt.Errorf("invalid Rh sign %q in %q", rest, code)
	}
}

// Encode concatenates an ABO group and Rh sign.
func Encode(abo ABO, rh Rh) string {
	return string(abo) + string(rh)
}

// ToNumericIDStrict maps an ABO group and Rh sign to the backend id.
func ToNumericIDStrict(abo ABO, rh Rh) (int, error) {
	want := BloodType{ABO: ABO(strings.ToUpper(strings.TrimSpace(string(abo)))), Rh: Rh(strings.TrimSpace(string(rh)))}
	for i, t := range numericIDs {
		if t == want {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown blood type %q", Encode(abo, rh))
}

// ToNumericID maps an ABO group and Rh sign to the backend id, falling back
// to DefaultID (A+) for unknown input. Fallbacks are logged.
func ToNumericID(abo ABO, rh Rh) int {
	id, err := ToNumericIDStrict(abo, rh)
	if err != nil {
		reportFallback("blood_type", Encode(abo, rh))
		return DefaultID
	}
	return id
}

// CodeToNumericID parses a combined code and maps it to the backend id with
// the same fallback policy as ToNumericID.
func CodeToNumericID(code string) int {
	abo, rh, err := Parse(code)
	if err != nil {
		reportFallback("blood_type", code)
		return DefaultID
	}
	return ToNumericID(abo, rh)
}

// FromNumericID is the inverse of ToNumericID.
func FromNumericID(id int) (ABO, Rh, error) {
	if id < 1 || id > len(numericIDs) {
		return "", "", fmt.Errorf("blood type id %d out of range", id)
	}
	t := numericIDs[id-1]
	return t.ABO, t.Rh, nil
}

// New builds a BloodType from a combined code.
func New(code string) (BloodType, error) {
	abo, rh, err := Parse(code)
	if err != nil {
		return BloodType{}, err
	}
	return BloodType{ABO: abo, Rh: rh}, nil
}

// MustNew is New for package-level literals and tests.
func MustNew(code string) BloodType {
	t, err := New(code)
	if err != nil {
		panic(err)
	}
	return t
}

// FromID builds a BloodType from a backend id.
func FromID(id int) (BloodType, error) {
	abo, rh, err := FromNumericID(id)
	if err != nil {
		return BloodType{}, err
	}
	return BloodType{ABO: abo, Rh: rh}, nil
}

// String returns the combined code, e.g. "O-".
func (t BloodType) String() string {
	return Encode(t.ABO, t.Rh)
}

// ID returns the backend id, or 0 for the zero value.
func (t BloodType) ID() int {
	id, err := ToNumericIDStrict(t.ABO, t.Rh)
	if err != nil {
		return 0
	}
	return id
}

// IsZero reports whether t is the zero value.
func (t BloodType) IsZero() bool {
	return t.ABO == "" && t.Rh == ""
}

func (t BloodType) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *BloodType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = BloodType{}
		return nil
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("blood type must be a string: %w", err)
	}
	parsed, err := New(code)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// antigens reports which ABO antigens a group carries on its red cells.
func (a ABO) antigens() (hasA, hasB bool) {
	switch a {
	case A:
		return true, false
	case B:
		return false, true
	case AB:
		return true, true
	}
	return false, false
}
