package bio

import (
	"fmt"
	"math"

	"github.com/born-ml/highlight/internal/tensor"
)

// Decoder turns the scores of one sequence, [seq, labels], into one label per
// position.
type Decoder interface {
	Decode(scores tensor.View) ([]Label, error)
}

// ArgmaxDecoder picks the highest scoring label at every position
// independently. Ties go to the lowest label index.
type ArgmaxDecoder struct {
	Space *LabelSpace
}

// Decode implements Decoder.
func (d ArgmaxDecoder) Decode(scores tensor.View) ([]Label, error) {
	if err := checkScores(d.Space, scores); err != nil {
		return nil, err
	}
	labels := make([]Label, scores.Dim(0))
	for i := range labels {
		best := scores.At(i, 0)
		for j := 1; j < scores.Dim(1); j++ {
			if s := scores.At(i, j); s > best {
				best = s
				labels[i] = Label(j)
			}
		}
	}
	return labels, nil
}

// ViterbiDecoder finds the highest scoring label sequence that never breaks
// a span: I-t only follows B-t or I-t, and never starts the sequence. The
// score of a sequence is the sum of its per-position scores. Ties go to the
// lowest label index.
type ViterbiDecoder struct {
	Space *LabelSpace
}

// Decode implements Decoder.
func (d ViterbiDecoder) Decode(scores tensor.View) ([]Label, error) {
	if err := checkScores(d.Space, scores); err != nil {
		return nil, err
	}
	n, k := scores.Dim(0), scores.Dim(1)

	// best[i][j] is the score of the best valid sequence ending in label j at
	// position i; back[i][j] is the label it came from.
	best := make([][]float64, n)
	back := make([][]int, n)
	for i := range best {
		best[i] = make([]float64, k)
		back[i] = make([]int, k)
	}

	for j := 0; j < k; j++ {
		best[0][j] = math.Inf(-1)
		if d.Space.AllowedFirst(Label(j)) {
			best[0][j] = float64(scores.At(0, j))
		}
		back[0][j] = -1
	}

	for i := 1; i < n; i++ {
		for j := 0; j < k; j++ {
			bestScore := math.Inf(-1)
			bestPrevious := -1
			for p := 0; p < k; p++ {
				if !d.Space.Allowed(Label(p), Label(j)) {
					continue
				}
				if best[i-1][p] > bestScore {
					bestScore = best[i-1][p]
					bestPrevious = p
				}
			}
			back[i][j] = bestPrevious
			best[i][j] = math.Inf(-1)
			if bestPrevious >= 0 {
				best[i][j] = bestScore + float64(scores.At(i, j))
			}
		}
	}

	last := 0
	for j := 1; j < k; j++ {
		if best[n-1][j] > best[n-1][last] {
			last = j
		}
	}

	labels := make([]Label, n)
	for i := n - 1; i >= 0; i-- {
		labels[i] = Label(last)
		last = back[i][last]
	}
	return labels, nil
}

func checkScores(space *LabelSpace, scores tensor.View) error {
	if space == nil {
		return fmt.Errorf("bio: decoder has no label space")
	}
	if scores.Rank() != 2 {
		return fmt.Errorf("bio: scores must be [seq x labels], got %v", scores.Shape())
	}
	if scores.Dim(1) != space.Size() {
		return fmt.Errorf("bio: scores have %d labels, label space has %d", scores.Dim(1), space.Size())
	}
	return nil
}
