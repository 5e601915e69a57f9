// Package distribution samples object counts and object sizes from the
// probability distributions configured for a root: empty (pass the real
// value through unchanged), a predefined family (Normal, LogNormal,
// Exponential, Binomial, Gamma), or a custom empirical distribution loaded
// from a ".dist" file.
package distribution

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"alpaca-morph/internal/logger"
)

var log = logger.New("DIST", "info")

// SetLevel adjusts the package logger's verbosity.
func SetLevel(level string) { log.SetLevel(level) }

// sampleLimit bounds retries when sampling a predefined distribution for a
// value that clears a lower bound. After this many misses sample_ge gives up.
const sampleLimit = 30

// Dist is a parsed probability distribution, ready for sampling.
type Dist struct {
	// Name is "" (empty/pass-through), "Joint" (empty 2-ary), "custom"
	// (loaded from a .dist file), or a predefined family name.
	Name string

	// Params holds the family's parameters for predefined distributions,
	// or the per-row probabilities for a custom distribution.
	Params []float64

	// Values holds the per-row values for a custom distribution: one
	// sub-slice per row, all the same arity (1 for single, 2 for joint).
	Values [][]uint64
}

// predefined family parameter counts, keyed by name as it appears in a spec
// string ("Normal/10,2").
var predefinedArity = map[string]int{
	"Normal":    2,
	"LogNormal": 2,
	"Exp":       1,
	"Poisson":   1, // reserved: parses but sample_predefined rejects it
	"Binomial":  2,
	"Gamma":     2,
}

// Parse builds a Dist from a spec string: "" or "Joint" for pass-through,
// a path ending in ".dist" for a custom empirical distribution read from
// disk, or "Family/p1,p2,..." for a predefined family.
func Parse(spec string) (*Dist, error) {
	switch {
	case strings.HasSuffix(spec, ".dist"):
		return parseDistFile(spec)
	case spec == "" || spec == "Joint":
		return &Dist{Name: spec}, nil
	default:
		return parsePredefined(spec)
	}
}

func parseDistFile(path string) (*Dist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", ErrInvalidSpec, path, err)
	}
	return parseDistContent(path, string(data))
}

func parseDistContent(name, data string) (*Dist, error) {
	var probs []float64
	var values [][]uint64

	for _, line := range strings.Split(data, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(values) > 0 && len(fields) != len(values[0])+1 {
			return nil, fmt.Errorf("%w: invalid dist file %s, line %q", ErrInvalidSpec, name, line)
		}

		p, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, name, err)
		}

		row := make([]uint64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, name, err)
			}
			row[i] = v
		}

		probs = append(probs, p)
		values = append(values, row)
	}

	return &Dist{Name: "custom", Params: probs, Values: values}, nil
}

func parsePredefined(spec string) (*Dist, error) {
	tokens := strings.SplitN(spec, "/", 2)
	if len(tokens) != 2 {
		return nil, fmt.Errorf("%w: invalid distribution %q", ErrInvalidSpec, spec)
	}

	name := tokens[0]
	need, ok := predefinedArity[name]
	if !ok {
		return nil, fmt.Errorf("%w: invalid distribution %q", ErrInvalidSpec, spec)
	}

	fields := strings.Split(tokens[1], ",")
	params := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, spec, err)
		}
		params[i] = v
	}

	if len(params) != need {
		return nil, fmt.Errorf("%w: %s distribution requires %d params, %d given", ErrInvalidSpec, name, need, len(params))
	}

	return &Dist{Name: name, Params: params}, nil
}

// Validate checks the data-model invariant for a custom distribution: row
// probabilities sum to 1 within 1e-5. Predefined and pass-through
// distributions always validate cleanly.
func (d *Dist) Validate() error {
	if d.Name != "custom" {
		return nil
	}
	var sum float64
	for _, p := range d.Params {
		sum += p
	}
	if math.Abs(sum-1) > 1e-5 {
		return fmt.Errorf("%w: custom distribution probabilities sum to %v, want 1±1e-5", ErrInvalidSpec, sum)
	}
	return nil
}

// SampleGE draws a value >= lowerBound from a 1-ary distribution. For an
// empty distribution it returns lowerBound unchanged. For a custom
// distribution it samples once over the renormalized mass at or above the
// bound. For a predefined family it retries up to the sample limit.
func SampleGE(d *Dist, lowerBound uint64) (uint64, error) {
	switch {
	case d.Name == "custom":
		return sampleCustomGE(d, lowerBound)

	case d.Name == "" || d.Name == "Joint":
		return lowerBound, nil

	default:
		for i := 0; i < sampleLimit; i++ {
			n := samplePredefined(d)
			if n >= lowerBound {
				return n, nil
			}
		}
		return 0, fmt.Errorf("%w: limit=%d reached for distribution %s", ErrSampleLimit, sampleLimit, d.Name)
	}
}

func sampleCustomGE(d *Dist, lowerBound uint64) (uint64, error) {
	if len(d.Values) == 0 || len(d.Values[0]) != 1 {
		return 0, fmt.Errorf("%w: custom distribution has %d values per row, expected 1", ErrArityMismatch, arityOf(d))
	}

	var totalMass float64
	for i, row := range d.Values {
		if row[0] >= lowerBound {
			totalMass += d.Params[i]
		}
	}
	if totalMass < 1e-5 {
		return 0, fmt.Errorf("%w: values >= %d have prob 0 in custom distribution", ErrEmptySupport, lowerBound)
	}

	target := openClosed01()
	var sum float64
	var sampled uint64

	for i, row := range d.Values {
		if row[0] < lowerBound {
			continue
		}
		sampled = row[0]
		sum += d.Params[i] / totalMass
		if sum >= target {
			break
		}
	}

	return sampled, nil
}

// SamplePairGE draws a pair (a, b) from a 2-ary custom distribution such
// that a >= lbA and b >= lbB. Only custom distributions carry joint mass;
// anything else is an arity mismatch.
func SamplePairGE(d *Dist, lbA, lbB uint64) (uint64, uint64, error) {
	if d.Name != "custom" {
		return 0, 0, fmt.Errorf("%w: joint distributions need to be given in a file (got %s)", ErrArityMismatch, d.Name)
	}
	if len(d.Values) == 0 || len(d.Values[0]) != 2 {
		return 0, 0, fmt.Errorf("%w: custom distribution has %d values per row, expected 2", ErrArityMismatch, arityOf(d))
	}

	var totalMass float64
	for i, row := range d.Values {
		if row[0] >= lbA && row[1] >= lbB {
			totalMass += d.Params[i]
		}
	}
	if totalMass < 1e-5 {
		return 0, 0, fmt.Errorf("%w: values >= (%d,%d) have prob 0 in custom distribution", ErrEmptySupport, lbA, lbB)
	}

	target := openClosed01()
	var sum float64
	var sampledA, sampledB uint64

	for i, row := range d.Values {
		if row[0] < lbA || row[1] < lbB {
			continue
		}
		sampledA, sampledB = row[0], row[1]
		sum += d.Params[i] / totalMass
		if sum >= target {
			break
		}
	}

	return sampledA, sampledB, nil
}

// SampleGEMany draws n independent samples via SampleGE, stopping at the
// first error.
func SampleGEMany(d *Dist, lowerBound uint64, n int) ([]uint64, error) {
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		v, err := SampleGE(d, lowerBound)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func arityOf(d *Dist) int {
	if len(d.Values) == 0 {
		return 0
	}
	return len(d.Values[0])
}

// openClosed01 draws a float in (0, 1], matching the reference sampler's use
// of an open-closed unit distribution rather than Go's half-open default.
func openClosed01() float64 {
	return 1 - rand.Float64()
}

// samplePredefined draws one raw value from a predefined family, truncated
// toward zero the way a saturating float-to-uint cast would: negative draws
// saturate to 0.
func samplePredefined(d *Dist) uint64 {
	var v float64
	switch d.Name {
	case "Normal":
		v = distuv.Normal{Mu: d.Params[0], Sigma: d.Params[1]}.Rand()
	case "LogNormal":
		v = distuv.LogNormal{Mu: d.Params[0], Sigma: d.Params[1]}.Rand()
	case "Exp":
		v = distuv.Exponential{Rate: d.Params[0]}.Rand()
	case "Binomial":
		v = distuv.Binomial{N: d.Params[0], P: d.Params[1]}.Rand()
	case "Gamma":
		v = distuv.Gamma{Alpha: d.Params[0], Beta: d.Params[1]}.Rand()
	default:
		log.Errorf("sample_predefined", "unsupported family %q", d.Name)
		return 0
	}
	return saturatingUint(v)
}

func saturatingUint(v float64) uint64 {
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(math.Trunc(v))
}
