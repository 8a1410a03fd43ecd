package bloodtype

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Component is a donated blood product.
type Component string

const (
	WholeBlood    Component = "whole-blood"
	RedBloodCells Component = "red-blood-cells"
	Plasma        Component = "plasma"
	Platelets     Component = "platelets"
)

// Backend component ids. UnknownComponentID is what unmapped codes resolve
// to; the API treats it as whole blood.
const (
	UnknownComponentID      = 0
	WholeBloodComponentID   = 1
	RedBloodCellComponentID = 2
	PlateletComponentID     = 3
	PlasmaComponentID       = 4
)

var components = []Component{WholeBlood, RedBloodCells, Plasma, Platelets}

var componentIDs = map[Component]int{
	WholeBlood:    WholeBloodComponentID,
	RedBloodCells: RedBloodCellComponentID,
	Platelets:     PlateletComponentID,
	Plasma:        PlasmaComponentID,
}

// shelfLife is how long a qualified unit stays usable after collection.
var shelfLife = map[Component]time.Duration{
	WholeBlood:    35 * 24 * time.Hour,
	RedBloodCells: 42 * 24 * time.Hour,
	Plasma:        365 * 24 * time.Hour,
	Platelets:     5 * 24 * time.Hour,
}

var componentAliases = map[string]Component{
	"wholeblood":    WholeBlood,
	"whole":         WholeBlood,
	"redbloodcell":  RedBloodCells,
	"redbloodcells": RedBloodCells,
	"redcells":      RedBloodCells,
	"rbc":           RedBloodCells,
	"plasma":        Plasma,
	"platelet":      Platelets,
	"platelets":     Platelets,
}

// Components returns the four components in display order.
func Components() []Component {
	out := make([]Component, len(components))
	copy(out, components)
	return out
}

func normalizeComponent(code string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(code)))
}

// ParseComponent accepts the component spellings used by the API and the
// forms ("wholeblood", "whole-blood", "redbloodcell", "platelet", ...).
func ParseComponent(code string) (Component, error) {
	c, ok := componentAliases[normalizeComponent(code)]
	if !ok {
		return "", fmt.Errorf("unknown blood component %q", code)
	}
	return c, nil
}

// ComponentID maps a component code to its backend id. Unmapped codes yield
// UnknownComponentID and are logged.
func ComponentID(code string) int {
	c, err := ParseComponent(code)
	if err != nil {
		reportFallback("component", code)
		return UnknownComponentID
	}
	return c.ID()
}

// ComponentFromID is the inverse of Component.ID. UnknownComponentID maps
// to whole blood.
func ComponentFromID(id int) (Component, error) {
	if id == UnknownComponentID {
		return WholeBlood, nil
	}
	for c, cid := range componentIDs {
		if cid == id {
			return c, nil
		}
	}
	return "", fmt.Errorf("blood component id %d out of range", id)
}

// ID returns the backend id of c.
func (c Component) ID() int {
	return componentIDs[c]
}

// Valid reports whether c is one of the four known components.
func (c Component) Valid() bool {
	_, ok := componentIDs[c]
	return ok
}

// ShelfLife returns how long a unit of c may be stored.
func (c Component) ShelfLife() time.Duration {
	return shelfLife[c]
}

func (c *Component) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("component must be a string: %w", err)
	}
	parsed, err := ParseComponent(code)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
