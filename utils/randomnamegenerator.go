package utils

import (
	"fmt"
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out unique display names for freshly created
// nodes. Seeded deterministically so generated test scenes are reproducible.
type RandomNameGenerator map[string]int

func (rng *RandomNameGenerator) RandomName() string {
	if *rng == nil {
		*rng = make(map[string]int)
		randomdata.CustomRand(rand.New(rand.NewSource(0)))
	}
	name := randomdata.SillyName()
	seen := (*rng)[name]
	(*rng)[name] = seen + 1
	if seen != 0 {
		name = fmt.Sprintf("%s%d", name, seen+1)
	}
	return name
}
