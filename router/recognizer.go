package router

import (
	"strings"
)

type segmentKind uint8

const (
	staticSegment segmentKind = iota
	paramSegment
	optionalSegment
	starSegment
)

type patternSegment struct {
	kind segmentKind
	name string
}

type routePattern struct {
	config   *RouteConfig
	path     string
	segments []patternSegment
}

func compilePattern(cfg *RouteConfig, path string) routePattern {
	rp := routePattern{config: cfg, path: path}
	for _, s := range splitPath(path) {
		switch {
		case strings.HasPrefix(s, ":") && strings.HasSuffix(s, "?"):
			rp.segments = append(rp.segments, patternSegment{kind: optionalSegment, name: s[1 : len(s)-1]})
		case strings.HasPrefix(s, ":"):
			rp.segments = append(rp.segments, patternSegment{kind: paramSegment, name: s[1:]})
		case strings.HasPrefix(s, "*"):
			rp.segments = append(rp.segments, patternSegment{kind: starSegment, name: s[1:]})
		default:
			rp.segments = append(rp.segments, patternSegment{kind: staticSegment, name: s})
		}
	}
	return rp
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// paramNames returns the names of the parameters in pattern order.
func (rp routePattern) paramNames() []string {
	var out []string
	for _, s := range rp.segments {
		if s.kind != staticSegment {
			out = append(out, s.name)
		}
	}
	return out
}

type patternMatch struct {
	consumed int
	params   map[string]string
	statics  int
}

// match consumes a prefix of segs. Optional parameters only take a
// segment when one is left. Up to explicit required parameters past the
// end of segs are left for parameters given in the instruction itself.
func (rp routePattern) match(segs []string, explicit int) (patternMatch, bool) {
	m := patternMatch{params: map[string]string{}}
	for _, ps := range rp.segments {
		switch ps.kind {
		case staticSegment:
			if m.consumed >= len(segs) || segs[m.consumed] != ps.name {
				return m, false
			}
			m.consumed++
			m.statics++
		case paramSegment:
			if m.consumed >= len(segs) {
				if explicit == 0 {
					return m, false
				}
				explicit--
				continue
			}
			m.params[ps.name] = segs[m.consumed]
			m.consumed++
		case optionalSegment:
			if m.consumed < len(segs) {
				m.params[ps.name] = segs[m.consumed]
				m.consumed++
			}
		case starSegment:
			m.params[ps.name] = strings.Join(segs[m.consumed:], "/")
			m.consumed = len(segs)
		}
	}
	return m, true
}

// RecognizedRoute is the route a path matched and the parameters it
// captured. Consumed is how many segments of the path it took.
type RecognizedRoute struct {
	Config   *RouteConfig
	Pattern  string
	Params   map[string]string
	Consumed int
	names    []string
}

type recognizer struct {
	patterns []routePattern
}

func newRecognizer(routes []*RouteConfig) *recognizer {
	r := &recognizer{}
	for _, cfg := range routes {
		for _, p := range cfg.Paths() {
			r.patterns = append(r.patterns, compilePattern(cfg, p))
		}
	}
	return r
}

// recognize finds the route consuming the most segments of segs, then the
// one with the most static segments, then the first configured.
func (r *recognizer) recognize(segs []string, explicit int) (*RecognizedRoute, bool) {
	var best *RecognizedRoute
	bestStatics := -1
	for _, rp := range r.patterns {
		m, ok := rp.match(segs, explicit)
		if !ok {
			continue
		}
		if best != nil && (m.consumed < best.Consumed || m.consumed == best.Consumed && m.statics <= bestStatics) {
			continue
		}
		best = &RecognizedRoute{
			Config:   rp.config,
			Pattern:  rp.path,
			Params:   m.params,
			Consumed: m.consumed,
			names:    rp.paramNames(),
		}
		bestStatics = m.statics
	}
	return best, best != nil
}

func (r *recognizer) hasEmptyRoute() bool {
	for _, rp := range r.patterns {
		if len(rp.segments) == 0 {
			return true
		}
	}
	return false
}
