package bio

import (
	"math/rand"
	"testing"

	"github.com/born-ml/highlight/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace(t *testing.T) *LabelSpace {
	t.Helper()
	space, err := NewLabelSpace("keyword", "number")
	require.NoError(t, err)
	return space
}

func scores(t *testing.T, rows ...[]float32) tensor.View {
	t.Helper()
	var data []float32
	for _, r := range rows {
		data = append(data, r...)
	}
	out, err := tensor.FromSlice(data, tensor.Shape{len(rows), len(rows[0])})
	require.NoError(t, err)
	return out.View()
}

func TestLabelSpace(t *testing.T) {
	space := testSpace(t)
	assert.Equal(t, 5, space.Size())

	names := make([]string, space.Size())
	for l := range names {
		names[l] = space.Name(Label(l))
	}
	assert.Equal(t, []string{"O", "B-keyword", "I-keyword", "B-number", "I-number"}, names)

	for _, name := range names {
		l, err := space.Parse(name)
		require.NoError(t, err)
		assert.Equal(t, name, space.Name(l))
	}
	_, err := space.Parse("B-string")
	assert.Error(t, err)
	_, err = space.Parse("X-keyword")
	assert.Error(t, err)

	assert.Equal(t, Begin, space.Tag(space.Begin(1)))
	assert.Equal(t, Inside, space.Tag(space.Inside(1)))
	assert.Equal(t, Outside, space.Tag(O))
	assert.Equal(t, 1, space.Type(space.Inside(1)))
	assert.Equal(t, -1, space.Type(O))
	assert.Equal(t, "invalid(7)", space.Name(7))
}

func TestNewLabelSpaceInvalid(t *testing.T) {
	_, err := NewLabelSpace("a", "a")
	assert.Error(t, err)
	_, err = NewLabelSpace("")
	assert.Error(t, err)

	space, err := NewLabelSpace()
	require.NoError(t, err)
	assert.Equal(t, 1, space.Size())
}

func TestAllowed(t *testing.T) {
	space := testSpace(t)
	kwB, kwI := space.Begin(0), space.Inside(0)
	numB, numI := space.Begin(1), space.Inside(1)

	tests := []struct {
		prev, next Label
		want       bool
	}{
		{O, O, true},
		{O, kwB, true},
		{O, kwI, false},
		{kwB, kwI, true},
		{kwI, kwI, true},
		{kwI, numI, false},
		{numB, kwI, false},
		{kwI, numB, true},
		{numI, O, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, space.Allowed(tt.prev, tt.next), "%s -> %s", space.Name(tt.prev), space.Name(tt.next))
	}
	assert.False(t, space.AllowedFirst(kwI))
	assert.True(t, space.AllowedFirst(kwB))
}

func TestArgmaxDecoder(t *testing.T) {
	space := testSpace(t)
	d := ArgmaxDecoder{Space: space}

	labels, err := d.Decode(scores(t,
		[]float32{1, 0, 0, 0, 0},
		[]float32{0, 1.5, 2, 0, 0},
		[]float32{0, 0, 0, 3, 3},
	))
	require.NoError(t, err)
	assert.Equal(t, []Label{O, space.Inside(0), space.Begin(1)}, labels)
}

func TestViterbiDecoderRepairsInvalidTransition(t *testing.T) {
	space := testSpace(t)
	d := ViterbiDecoder{Space: space}

	labels, err := d.Decode(scores(t,
		[]float32{1, 0, 0, 0, 0},
		[]float32{0, 1.5, 2, 0, 0},
	))
	require.NoError(t, err)
	assert.Equal(t, []Label{O, space.Begin(0)}, labels)
}

func TestDecodersZeroScores(t *testing.T) {
	space := testSpace(t)
	zero := tensor.Zeros(tensor.Shape{200, space.Size()}).View()

	for name, d := range map[string]Decoder{
		"argmax":  ArgmaxDecoder{Space: space},
		"viterbi": ViterbiDecoder{Space: space},
	} {
		labels, err := d.Decode(zero)
		require.NoError(t, err, name)
		require.Len(t, labels, 200, name)
		for i, l := range labels {
			assert.Equal(t, O, l, "%s position %d", name, i)
		}
	}
}

func TestViterbiDecoderIsOptimal(t *testing.T) {
	space := testSpace(t)
	d := ViterbiDecoder{Space: space}
	rng := rand.New(rand.NewSource(1))

	const n = 4
	k := space.Size()
	for trial := 0; trial < 20; trial++ {
		rows := make([][]float32, n)
		for i := range rows {
			rows[i] = make([]float32, k)
			for j := range rows[i] {
				rows[i][j] = float32(rng.NormFloat64())
			}
		}
		s := scores(t, rows...)

		labels, err := d.Decode(s)
		require.NoError(t, err)
		require.True(t, validSequence(space, labels), "trial %d: %v", trial, labels)

		assert.InDelta(t, bruteForceBest(space, s), sequenceScore(s, labels), 1e-5, "trial %d", trial)
	}
}

func validSequence(space *LabelSpace, labels []Label) bool {
	if !space.AllowedFirst(labels[0]) {
		return false
	}
	for i := 1; i < len(labels); i++ {
		if !space.Allowed(labels[i-1], labels[i]) {
			return false
		}
	}
	return true
}

func sequenceScore(s tensor.View, labels []Label) float64 {
	var total float64
	for i, l := range labels {
		total += float64(s.At(i, int(l)))
	}
	return total
}

func bruteForceBest(space *LabelSpace, s tensor.View) float64 {
	n, k := s.Dim(0), s.Dim(1)
	labels := make([]Label, n)
	best := -1e18
	var walk func(i int)
	walk = func(i int) {
		if i == n {
			if validSequence(space, labels) {
				best = max(best, sequenceScore(s, labels))
			}
			return
		}
		for j := 0; j < k; j++ {
			labels[i] = Label(j)
			walk(i + 1)
		}
	}
	walk(0)
	return best
}

func TestDecodeRejectsWrongWidth(t *testing.T) {
	space := testSpace(t)
	bad := tensor.Zeros(tensor.Shape{3, 4}).View()

	_, err := ArgmaxDecoder{Space: space}.Decode(bad)
	assert.Error(t, err)
	_, err = ViterbiDecoder{Space: space}.Decode(bad)
	assert.Error(t, err)
	_, err = ViterbiDecoder{}.Decode(tensor.Zeros(tensor.Shape{3, 5}).View())
	assert.Error(t, err)
	_, err = ArgmaxDecoder{Space: space}.Decode(tensor.Zeros(tensor.Shape{1, 3, 5}).View())
	assert.Error(t, err)
}

func TestSpans(t *testing.T) {
	space := testSpace(t)
	kwB, kwI := space.Begin(0), space.Inside(0)
	numB, numI := space.Begin(1), space.Inside(1)

	line := "int a = 2;"
	labels := make([]Label, 200)
	labels[1], labels[2], labels[3] = kwB, kwI, kwI
	labels[9] = numB
	labels[50] = numI // past the line, ignored

	spans, err := Spans(space, labels, line)
	require.NoError(t, err)
	require.Equal(t, []Span{
		{Type: "keyword", Start: 0, End: 3},
		{Type: "number", Start: 8, End: 9},
	}, spans)
	assert.Equal(t, "int", spans[0].Text(line))
	assert.Equal(t, "2", spans[1].Text(line))
	assert.Equal(t, "keyword[0:3]", spans[0].String())

	// I-t after a different type, and B-t after B-t, start new spans.
	labels = []Label{O, kwB, numI, kwB, kwB}
	spans, err = Spans(space, labels, "abcd")
	require.NoError(t, err)
	assert.Equal(t, []Span{
		{Type: "keyword", Start: 0, End: 1},
		{Type: "number", Start: 1, End: 2},
		{Type: "keyword", Start: 2, End: 3},
		{Type: "keyword", Start: 3, End: 4},
	}, spans)
}

func TestSpansErrors(t *testing.T) {
	space := testSpace(t)

	_, err := Spans(space, []Label{O, O}, "abc")
	assert.Error(t, err)
	_, err = Spans(space, []Label{O, 9}, "a")
	assert.Error(t, err)

	spans, err := Spans(space, make([]Label, 4), "abc")
	require.NoError(t, err)
	assert.Empty(t, spans)
}
