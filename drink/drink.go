/*
Package drink is the catalogue of drink types and their fluid factors.

PURPOSE:
  An intake event carries its own hydration/dehydration factors so the
  engine never needs to know what was drunk. This package is where those
  factors come from when the user picks a drink by name.

FACTORS:
  hydration:   share of the volume that counts toward fluid balance
  dehydration: extra fluid lost per unit drunk (alcohol only)

USAGE:
  beer, ok := drink.Lookup("beer")
  event := beer.Event(time.Now(), 330) // 313.5 hydration, 165 dehydration
*/
package drink

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hydration-engine/engine"
)

// Type is one catalogue drink.
type Type struct {
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	HydrationFactor   float64 `json:"hydration_factor"`
	DehydrationFactor float64 `json:"dehydration_factor"`
}

// Catalogue order is display order.
var catalogue = []Type{
	{"water", "Water", 1.00, 0},
	{"coffee", "Coffee", 0.98, 0},
	{"tea", "Tea", 0.99, 0},
	{"soda", "Soda", 0.89, 0},
	{"juice", "Juice", 0.85, 0},
	{"milk", "Milk", 0.87, 0},
	{"sport", "Sport", 0.95, 0},
	{"energy", "Energy", 0.90, 0},
	{"beer", "Beer", 0.95, 0.5},
	{"wine", "Wine", 0.85, 1.5},
	{"hard_liquor", "Hard Liquor", 0.60, 4},
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(catalogue))
	for _, t := range catalogue {
		m[t.Name] = t
	}
	return m
}()

var Water = MustLookup("water")

// Lookup finds a drink by name, case-insensitively.
func Lookup(name string) (Type, bool) {
	t, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// MustLookup finds a drink or panics.
// Use in tests or when you're certain the drink exists.
func MustLookup(name string) Type {
	t, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("drink type not in catalogue: %s", name))
	}
	return t
}

// All returns the catalogue in display order.
func All() []Type {
	out := make([]Type, len(catalogue))
	copy(out, catalogue)
	return out
}

// Event builds an intake event for this drink with a fresh ID.
func (t Type) Event(at time.Time, amount float64) engine.IntakeEvent {
	return engine.IntakeEvent{
		ID:                uuid.NewString(),
		Timestamp:         at,
		Amount:            amount,
		HydrationFactor:   t.HydrationFactor,
		DehydrationFactor: t.DehydrationFactor,
		Drink:             t.Name,
	}
}
