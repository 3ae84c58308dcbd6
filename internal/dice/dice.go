// Package dice resolves skill checks.
//
// A check rolls one or more dice of the same size, sums them, adds a
// modifier and optionally compares the total against a target number.
// Critical flags are read off the individual dice and never depend on the
// modifier or the target.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// ErrInvalidDie indicates a die specification could not be parsed.
var ErrInvalidDie = errors.New("die must look like d20 or 2d6 with positive count and faces")

// ErrRollOutOfRange indicates a supplied roll is not a face of the die.
var ErrRollOutOfRange = errors.New("roll outside the die's faces")

// MaxDice bounds how many dice one check may roll.
const MaxDice = 100

// Source draws uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a seeded source. Equal seeds produce equal sequences.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Spec describes how many dice of which size to roll.
type Spec struct {
	Count int
	Faces int
}

func (s Spec) String() string {
	if s.Count == 1 {
		return fmt.Sprintf("d%d", s.Faces)
	}
	return fmt.Sprintf("%dd%d", s.Count, s.Faces)
}

// ParseDie parses "d20", "D8" or "3d6". A missing count means one die.
func ParseDie(die string) (Spec, error) {
	raw := strings.ToLower(strings.TrimSpace(die))
	countText, facesText, ok := strings.Cut(raw, "d")
	if !ok || facesText == "" {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDie, die)
	}
	count := 1
	if countText != "" {
		n, err := strconv.Atoi(countText)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDie, die)
		}
		count = n
	}
	faces, err := strconv.Atoi(facesText)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDie, die)
	}
	if count < 1 || count > MaxDice || faces < 2 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidDie, die)
	}
	return Spec{Count: count, Faces: faces}, nil
}

// Result is the outcome of a check.
type Result struct {
	Die             string `json:"die" yaml:"die"`
	Rolls           []int  `json:"rolls" yaml:"rolls"`
	Modifier        int    `json:"modifier" yaml:"modifier"`
	Total           int    `json:"total" yaml:"total"`
	Target          *int   `json:"target,omitempty" yaml:"target,omitempty"`
	Success         *bool  `json:"success,omitempty" yaml:"success,omitempty"`
	CriticalSuccess bool   `json:"critical_success" yaml:"critical_success"`
	CriticalFailure bool   `json:"critical_failure" yaml:"critical_failure"`
}

// Passed reports whether the check met its target. A check without a target
// never passes.
func (r Result) Passed() bool {
	return r.Success != nil && *r.Success
}

// Roll draws the dice described by die from src and evaluates the check.
func Roll(src Source, die string, modifier int, target *int) (Result, error) {
	spec, err := ParseDie(die)
	if err != nil {
		return Result{}, err
	}
	rolls := make([]int, spec.Count)
	for i := range rolls {
		rolls[i] = src.IntN(spec.Faces) + 1
	}
	return evaluate(spec, rolls, modifier, target), nil
}

// Evaluate scores already-rolled dice. It lets a host that rolled physical or
// remote dice submit the faces and still get engine-consistent flags.
func Evaluate(die string, rolls []int, modifier int, target *int) (Result, error) {
	spec, err := ParseDie(die)
	if err != nil {
		return Result{}, err
	}
	if len(rolls) != spec.Count {
		return Result{}, fmt.Errorf("%w: %s needs %d rolls, got %d", ErrRollOutOfRange, spec, spec.Count, len(rolls))
	}
	for _, r := range rolls {
		if r < 1 || r > spec.Faces {
			return Result{}, fmt.Errorf("%w: %d on %s", ErrRollOutOfRange, r, spec)
		}
	}
	copied := append([]int(nil), rolls...)
	return evaluate(spec, copied, modifier, target), nil
}

func evaluate(spec Spec, rolls []int, modifier int, target *int) Result {
	result := Result{
		Die:      spec.String(),
		Rolls:    rolls,
		Modifier: modifier,
	}
	sum := 0
	for _, r := range rolls {
		sum += r
		if r == spec.Faces {
			result.CriticalSuccess = true
		}
		if r == 1 {
			result.CriticalFailure = true
		}
	}
	result.Total = sum + modifier
	if target != nil {
		t := *target
		success := result.Total >= t
		result.Target = &t
		result.Success = &success
	}
	return result
}

// Roller is a reseedable check resolver.
type Roller struct {
	src Source
}

// NewRoller returns a roller seeded with seed.
func NewRoller(seed uint64) *Roller {
	return &Roller{src: NewSource(seed)}
}

// NewRollerFrom wraps an existing source.
func NewRollerFrom(src Source) *Roller {
	return &Roller{src: src}
}

// Reseed restarts the roller's sequence from seed.
func (r *Roller) Reseed(seed uint64) {
	r.src = NewSource(seed)
}

// Roll rolls a check with the roller's source.
func (r *Roller) Roll(die string, modifier int, target *int) (Result, error) {
	return Roll(r.src, die, modifier, target)
}

// IntN exposes the underlying source so combat can share one random stream.
func (r *Roller) IntN(n int) int {
	return r.src.IntN(n)
}

// Target is a convenience for building the optional target argument.
func Target(n int) *int {
	return &n
}
