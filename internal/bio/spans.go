package bio

import "fmt"

// Span is a typed range [Start, End) of source bytes.
type Span struct {
	Type  string
	Start int
	End   int
}

// Text returns the span's bytes in line.
func (s Span) Text(line string) string {
	return line[s.Start:s.End]
}

// String formats the span as type[start:end].
func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Type, s.Start, s.End)
}

// Spans groups per-position labels into typed spans over line.
//
// Labels are indexed by token position: position 0 is the begin sentinel and
// byte i of line is position i+1, so labels must cover at least len(line)+1
// positions. Labels past the end of the line are ignored. A B-t label starts
// a span; I-t extends a span of type t and starts a new one otherwise.
func Spans(space *LabelSpace, labels []Label, line string) ([]Span, error) {
	if len(labels) < len(line)+1 {
		return nil, fmt.Errorf("bio: %d labels cannot cover a %d byte line", len(labels), len(line))
	}

	var spans []Span
	open := -1
	for i := 0; i < len(line); i++ {
		l := labels[i+1]
		if !space.Valid(l) {
			return nil, fmt.Errorf("bio: invalid label %d at byte %d", int(l), i)
		}
		typ := space.Type(l)
		switch {
		case l == O:
			open = -1
			continue
		case space.Tag(l) == Inside && open >= 0 && space.types[typ] == spans[open].Type:
			spans[open].End = i + 1
			continue
		}
		spans = append(spans, Span{Type: space.types[typ], Start: i, End: i + 1})
		open = len(spans) - 1
	}
	return spans, nil
}
