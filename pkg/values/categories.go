package values

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Person generates names.
type Person struct{ p *Provider }

func (g Person) FirstName() string { return Pick(g.p, firstNames) }
func (g Person) LastName() string  { return Pick(g.p, lastNames) }

func (g Person) FullName() string {
	return g.FirstName() + " " + g.LastName()
}

// Internet generates network-shaped strings.
type Internet struct{ p *Provider }

func (g Internet) Domain() string { return Pick(g.p, domains) }

// Username returns a lowercase handle such as "ada_lovelace42".
func (g Internet) Username() string {
	first := strings.ToLower(Pick(g.p, firstNames))
	last := strings.ToLower(Pick(g.p, lastNames))
	return first + "_" + last + strconv.Itoa(g.p.IntN(100))
}

func (g Internet) Email() string {
	return g.Username() + "@" + g.Domain()
}

// URL returns an https URL with a random path and query string.
func (g Internet) URL() string {
	return "https://" + g.Domain() + Pick(g.p, paths) + Pick(g.p, params)
}

// Lorem generates filler text.
type Lorem struct{ p *Provider }

func (g Lorem) Word() string { return Pick(g.p, words) }

func (g Lorem) Words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = g.Word()
	}
	return out
}

// Sentence returns 4 to 11 words, capitalized and terminated with a period.
func (g Lorem) Sentence() string {
	s := strings.Join(g.Words(4+g.p.IntN(8)), " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

// Number generates bounded numbers.
type Number struct{ p *Provider }

// Int returns a uniform int in [lo, hi]. Bounds are swapped if reversed.
func (g Number) Int(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + g.p.IntN(hi-lo+1)
}

// Float returns a uniform float in [lo, hi) rounded to the given decimals.
func (g Number) Float(lo, hi float64, decimals int) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	v := lo + g.p.Float64()*(hi-lo)
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// Datatype generates identifiers and flags.
type Datatype struct{ p *Provider }

func (g Datatype) UUID() string  { return g.p.uuid().String() }
func (g Datatype) Boolean() bool { return g.p.IntN(2) == 1 }

// Date generates timestamps.
type Date struct{ p *Provider }

// Recent returns a time within the last day.
func (g Date) Recent() time.Time {
	return g.Past(24 * time.Hour)
}

// Past returns a time in (now-within, now].
func (g Date) Past(within time.Duration) time.Time {
	if within <= 0 {
		return g.p.clock()
	}
	offset := time.Duration(g.p.Float64() * float64(within))
	return g.p.clock().Add(-offset).Truncate(time.Second)
}
