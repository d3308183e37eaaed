// Package bio decodes per-position classifier scores into BIO tags and typed
// spans.
//
// A label space over n token types has 1+2n labels:
//
//	0        O      (outside any span)
//	1+2t     B-t    (first position of a span of type t)
//	2+2t     I-t    (continuation of a span of type t)
//
// Label indices match the classifier's output features one to one.
package bio

import (
	"fmt"
	"strings"
)

// Tag is the Begin/Inside/Outside part of a label.
type Tag int

const (
	Outside Tag = iota
	Begin
	Inside
)

// String returns O, B or I.
func (t Tag) String() string {
	switch t {
	case Begin:
		return "B"
	case Inside:
		return "I"
	default:
		return "O"
	}
}

// Label indexes a LabelSpace.
type Label int

// O is the outside label in every label space.
const O Label = 0

// LabelSpace names the token types a classifier distinguishes.
type LabelSpace struct {
	types []string
}

// NewLabelSpace creates a label space for the given token types.
func NewLabelSpace(types ...string) (*LabelSpace, error) {
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if t == "" || strings.ContainsAny(t, " \t") {
			return nil, fmt.Errorf("bio: invalid token type %q", t)
		}
		if seen[t] {
			return nil, fmt.Errorf("bio: duplicate token type %q", t)
		}
		seen[t] = true
	}
	return &LabelSpace{types: append([]string(nil), types...)}, nil
}

// Types returns the token type names.
func (s *LabelSpace) Types() []string {
	return s.types
}

// Size returns the number of labels, 1+2*len(Types()).
func (s *LabelSpace) Size() int {
	return 1 + 2*len(s.types)
}

// Begin returns B-t for token type t.
func (s *LabelSpace) Begin(t int) Label {
	return Label(1 + 2*t)
}

// Inside returns I-t for token type t.
func (s *LabelSpace) Inside(t int) Label {
	return Label(2 + 2*t)
}

// Tag returns the BIO tag of l.
func (s *LabelSpace) Tag(l Label) Tag {
	switch {
	case l <= O:
		return Outside
	case l%2 == 1:
		return Begin
	default:
		return Inside
	}
}

// Type returns the token type index of l, or -1 for O.
func (s *LabelSpace) Type(l Label) int {
	if l <= O {
		return -1
	}
	return int(l-1) / 2
}

// Valid reports whether l belongs to the space.
func (s *LabelSpace) Valid(l Label) bool {
	return l >= 0 && int(l) < s.Size()
}

// Name returns the label as O, B-<type> or I-<type>.
func (s *LabelSpace) Name(l Label) string {
	if !s.Valid(l) {
		return fmt.Sprintf("invalid(%d)", int(l))
	}
	if l == O {
		return "O"
	}
	return s.Tag(l).String() + "-" + s.types[s.Type(l)]
}

// Parse is the inverse of Name.
func (s *LabelSpace) Parse(name string) (Label, error) {
	if name == "O" {
		return O, nil
	}
	tag, typ, ok := strings.Cut(name, "-")
	if ok {
		for t, candidate := range s.types {
			if candidate != typ {
				continue
			}
			switch tag {
			case "B":
				return s.Begin(t), nil
			case "I":
				return s.Inside(t), nil
			}
		}
	}
	return O, fmt.Errorf("bio: unknown label %q", name)
}

// Allowed reports whether next may follow prev. An I-t label must continue a
// span of the same type t.
func (s *LabelSpace) Allowed(prev, next Label) bool {
	if s.Tag(next) != Inside {
		return true
	}
	return prev != O && s.Type(prev) == s.Type(next)
}

// AllowedFirst reports whether a sequence may start with l.
func (s *LabelSpace) AllowedFirst(l Label) bool {
	return s.Tag(l) != Inside
}
