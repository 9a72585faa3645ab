package factgraph

import (
	"strings"
)

// SegmentKind tags the four kinds of path segment from spec.md §3.
type SegmentKind int

const (
	SegNamed SegmentKind = iota
	SegParent
	SegWildcard
	SegMember
)

// Segment is one element of a Path.
type Segment struct {
	Kind SegmentKind
	Name string // for SegNamed and SegMember: the collection/child name
	ID   string // for SegMember: the member id
}

func namedSeg(name string) Segment    { return Segment{Kind: SegNamed, Name: name} }
func parentSeg() Segment              { return Segment{Kind: SegParent} }
func wildcardSeg() Segment            { return Segment{Kind: SegWildcard} }
func memberSeg(name, id string) Segment { return Segment{Kind: SegMember, Name: name, ID: id} }

func (s Segment) String() string {
	switch s.Kind {
	case SegParent:
		return ".."
	case SegWildcard:
		return "*"
	case SegMember:
		return s.Name + "/#" + s.ID
	default:
		return s.Name
	}
}

// Path is an absolute or relative list of segments, per spec.md §3.
type Path struct {
	Absolute bool
	Segments []Segment
}

// ParsePath parses an absolute path ("/a/b/*") or a relative one
// ("./a", "../b", "*"), per spec.md §4.3. Normalization folds "." and
// ".." and rejects escapes above root.
func ParsePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, newErrorf("ParsePath", KindParseError, raw, "empty path")
	}

	absolute := strings.HasPrefix(raw, "/")
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Path{Absolute: absolute}, nil
	}

	parts := strings.Split(trimmed, "/")
	segments := make([]Segment, 0, len(parts))
	for i, p := range parts {
		switch {
		case p == "." :
			continue
		case p == "..":
			segments = append(segments, parentSeg())
		case p == "*":
			segments = append(segments, wildcardSeg())
		case strings.HasPrefix(p, "#"):
			if i == 0 {
				return Path{}, newErrorf("ParsePath", KindParseError, raw,
					"member segment %q must follow a named collection", p)
			}
			prev := segments[len(segments)-1]
			if prev.Kind != SegNamed {
				return Path{}, newErrorf("ParsePath", KindParseError, raw,
					"member segment %q must follow a named collection", p)
			}
			segments[len(segments)-1] = memberSeg(prev.Name, p[1:])
		default:
			segments = append(segments, namedSeg(p))
		}
	}

	path := Path{Absolute: absolute, Segments: segments}
	return normalize(path, raw)
}

// normalize folds "." (already dropped during parse) and ".." segments,
// rejecting an escape above the root of an absolute path.
func normalize(p Path, raw string) (Path, error) {
	out := make([]Segment, 0, len(p.Segments))
	for _, seg := range p.Segments {
		if seg.Kind == SegParent {
			if len(out) == 0 {
				if p.Absolute {
					return Path{}, newErrorf("ParsePath", KindParseError, raw, "'..' escapes above root")
				}
				out = append(out, seg)
				continue
			}
			if out[len(out)-1].Kind == SegParent {
				out = append(out, seg)
				continue
			}
			out = out[:len(out)-1]
			continue
		}
		out = append(out, seg)
	}
	return Path{Absolute: p.Absolute, Segments: out}, nil
}

// IsAbstract reports whether p contains a wildcard segment.
func (p Path) IsAbstract() bool {
	for _, s := range p.Segments {
		if s.Kind == SegWildcard {
			return true
		}
	}
	return false
}

// IsConcrete reports whether every reference in p is a member or named
// child (no wildcards, no unresolved relative markers).
func (p Path) IsConcrete() bool {
	if !p.Absolute {
		return false
	}
	for _, s := range p.Segments {
		if s.Kind == SegWildcard || s.Kind == SegParent {
			return false
		}
	}
	return true
}

// Resolve computes relative.resolve(base): an absolute path formed by
// applying p (interpreted relative to base) on top of base, per spec.md §4.3.
func (p Path) Resolve(base Path) (Path, error) {
	if p.Absolute {
		return p, nil
	}
	if !base.Absolute {
		return Path{}, newErrorf("Path.Resolve", KindParseError, "", "base path must be absolute")
	}
	combined := Path{Absolute: true, Segments: append(append([]Segment{}, base.Segments...), p.Segments...)}
	return normalize(combined, p.String())
}

// ToAbstract maps every #id member segment to a wildcard.
func (p Path) ToAbstract() Path {
	out := make([]Segment, 0, len(p.Segments)+1)
	for _, s := range p.Segments {
		if s.Kind == SegMember {
			out = append(out, Segment{Kind: SegNamed, Name: s.Name}, wildcardSeg())
		} else {
			out = append(out, s)
		}
	}
	return Path{Absolute: p.Absolute, Segments: out}
}

// Populate takes, for each wildcard in p (in order), the member list of the
// enclosing collection and produces the Cartesian enumeration of concrete
// paths, per spec.md §4.3. membersByPosition[i] holds the member ids for
// the i-th wildcard encountered in p. Expansion proceeds left-to-right,
// tracking the collection name immediately preceding each wildcard so the
// resulting member segment carries it and takes the place of that named
// segment, e.g. "/a/*/b" with member m1 yields "/a/#m1/b".
func (p Path) Populate(membersByPosition [][]string) ([]Path, error) {
	results := [][]Segment{{}}
	wildcardIdx := 0
	var lastNamed string
	for _, seg := range p.Segments {
		if seg.Kind == SegNamed {
			lastNamed = seg.Name
		}
		if seg.Kind != SegWildcard {
			for i := range results {
				results[i] = append(results[i], seg)
			}
			continue
		}
		if wildcardIdx >= len(membersByPosition) {
			return nil, newErrorf("Path.Populate", KindDictionaryError, p.String(),
				"no member list supplied for wildcard at position %d", wildcardIdx)
		}
		members := membersByPosition[wildcardIdx]
		wildcardIdx++
		var next [][]Segment
		for _, prefix := range results {
			if len(members) == 0 {
				cp := append([]Segment{}, prefix...)
				next = append(next, cp) // trailing wildcard over empty collection: no rows
				_ = cp
				continue
			}
			for _, m := range members {
				base := prefix
				if n := len(base); n > 0 && base[n-1].Kind == SegNamed {
					base = base[:n-1]
				}
				cp := append(append([]Segment{}, base...), memberSeg(lastNamed, m))
				next = append(next, cp)
			}
		}
		if len(members) == 0 {
			next = nil
		}
		results = next
	}

	out := make([]Path, len(results))
	for i, segs := range results {
		out[i] = Path{Absolute: p.Absolute, Segments: segs}
	}
	return out, nil
}

// String renders the canonical form used for persistence and diagnostics.
func (p Path) String() string {
	var b strings.Builder
	if p.Absolute {
		b.WriteString("/")
	}
	for i, s := range p.Segments {
		if i > 0 {
			b.WriteString("/")
		}
		switch s.Kind {
		case SegParent:
			b.WriteString("..")
		case SegWildcard:
			b.WriteString("*")
		case SegMember:
			b.WriteString(s.Name)
			b.WriteString("/#")
			b.WriteString(s.ID)
		default:
			b.WriteString(s.Name)
		}
	}
	return b.String()
}

// Parent returns p with its last segment removed, and true if p was
// non-empty.
func (p Path) Parent() (Path, bool) {
	if len(p.Segments) == 0 {
		return p, false
	}
	return Path{Absolute: p.Absolute, Segments: p.Segments[:len(p.Segments)-1]}, true
}

// Child appends a named segment.
func (p Path) Child(name string) Path {
	return Path{Absolute: p.Absolute, Segments: append(append([]Segment{}, p.Segments...), namedSeg(name))}
}

// Equal compares two paths structurally.
func (p Path) Equal(o Path) bool {
	return p.String() == o.String()
}

// WithMemberID replaces p's last segment (the collection's own named
// segment) with a member segment carrying id, yielding the path of one
// member of that collection, e.g. "/dependents" -> "/dependents/#<id>".
func (p Path) WithMemberID(id string) (Path, error) {
	if len(p.Segments) == 0 {
		return Path{}, newErrorf("Path.WithMemberID", KindParseError, p.String(), "path has no named segment to convert to a member")
	}
	last := p.Segments[len(p.Segments)-1]
	if last.Kind != SegNamed {
		return Path{}, newErrorf("Path.WithMemberID", KindParseError, p.String(), "last segment is not a named collection")
	}
	out := append([]Segment{}, p.Segments[:len(p.Segments)-1]...)
	out = append(out, memberSeg(last.Name, id))
	return Path{Absolute: p.Absolute, Segments: out}, nil
}
