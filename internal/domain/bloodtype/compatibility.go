package bloodtype

// Entry is the compatibility of one blood type for one component.
type Entry struct {
	Type        BloodType   `json:"type"`
	Component   Component   `json:"component"`
	DonateTo    []BloodType `json:"donateTo"`
	ReceiveFrom []BloodType `json:"receiveFrom"`
}

type matrixKey struct {
	t BloodType
	c Component
}

// matrix is built once at init and only read afterwards.
var matrix = buildMatrix()

func buildMatrix() map[matrixKey]Entry {
	m := make(map[matrixKey]Entry, len(numericIDs)*len(components))
	for _, c := range components {
		for _, t := range numericIDs {
			e := Entry{Type: t, Component: c, DonateTo: []BloodType{}, ReceiveFrom: []BloodType{}}
			for _, other := range numericIDs {
				if canDonate(t, other, c) {
					e.DonateTo = append(e.DonateTo, other)
				}
				if canDonate(other, t, c) {
					e.ReceiveFrom = append(e.ReceiveFrom, other)
				}
			}
			m[matrixKey{t, c}] = e
		}
	}
	return m
}

// canDonate is the rule the matrix is generated from. Cellular products
// need the donor's ABO antigens to be a subset of the recipient's and an
// Rh-negative donor for Rh-negative recipients. Plasma carries antibodies
// instead of antigens, so the ABO relation is inverted and Rh is ignored.
func canDonate(donor, recipient BloodType, c Component) bool {
	dA, dB := donor.ABO.antigens()
	rA, rB := recipient.ABO.antigens()

	if c == Plasma {
		return (!rA || dA) && (!rB || dB)
	}
	if (dA && !rA) || (dB && !rB) {
		return false
	}
	return donor.Rh == Negative || recipient.Rh == Positive
}

// Compatibility returns the donate-to and receive-from lists for a type and
// component. Unknown inputs yield an entry with empty lists.
func Compatibility(t BloodType, c Component) Entry {
	e, ok := matrix[matrixKey{t, c}]
	if !ok {
		return Entry{Type: t, Component: c, DonateTo: []BloodType{}, ReceiveFrom: []BloodType{}}
	}
	return Entry{
		Type:        e.Type,
		Component:   e.Component,
		DonateTo:    append([]BloodType(nil), e.DonateTo...),
		ReceiveFrom: append([]BloodType(nil), e.ReceiveFrom...),
	}
}

// CanDonate reports whether donor blood of the given component may be given
// to recipient.
func CanDonate(donor, recipient BloodType, c Component) bool {
	e, ok := matrix[matrixKey{donor, c}]
	if !ok {
		return false
	}
	for _, t := range e.DonateTo {
		if t == recipient {
			return true
		}
	}
	return false
}

// IsCompatibleWithRequest applies the urgent-event policy: a nil required
// type accepts every donor, otherwise the donor type must match exactly.
// It does not consult the matrix.
func IsCompatibleWithRequest(donor BloodType, required *BloodType) bool {
	if required == nil {
		return true
	}
	return donor == *required
}
