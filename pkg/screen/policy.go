package screen

import "github.com/SamStudio8/dehumanizer/pkg/align"

// Combine selects how two configured thresholds combine.
type Combine int

const (
	// AllOf accepts a hit only if every configured threshold passes.
	AllOf Combine = iota
	// AnyOf treats the thresholds as a pair: unless both are configured
	// every hit is accepted, otherwise a hit passing either one is.
	AnyOf
)

func (c Combine) String() string {
	if c == AnyOf {
		return "any-of"
	}
	return "all-of"
}

// Policy decides whether a single hit counts as a contaminant match. With no
// threshold configured every hit is accepted. Raising either threshold never
// accepts a hit that was rejected before.
type Policy struct {
	MinLen  float64 // percent of the query covered by the hit
	MinID   float64 // percent identity, matched bases / block length
	Combine Combine
}

func (p Policy) lenOK(h align.Hit, qlen int) bool {
	if qlen <= 0 {
		return false
	}
	return 100*float64(h.Span())/float64(qlen) >= p.MinLen
}

func (p Policy) idOK(h align.Hit) bool {
	if h.BlockLen <= 0 {
		return false
	}
	return 100*float64(h.MatchedBases)/float64(h.BlockLen) >= p.MinID
}

// Accept applies the policy to h for a query of length qlen.
func (p Policy) Accept(h align.Hit, qlen int) bool {
	hasLen, hasID := p.MinLen > 0, p.MinID > 0
	switch {
	case !hasLen && !hasID:
		return true
	case p.Combine == AnyOf && !(hasLen && hasID):
		return true
	case hasLen && !hasID:
		return p.lenOK(h, qlen)
	case !hasLen && hasID:
		return p.idOK(h)
	case p.Combine == AnyOf:
		return p.lenOK(h, qlen) || p.idOK(h)
	default:
		return p.lenOK(h, qlen) && p.idOK(h)
	}
}
