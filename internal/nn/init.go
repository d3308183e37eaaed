package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/highlight/internal/tensor"
)

// Xavier fills t from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier(t *tensor.Tensor, fanIn, fanOut int, rng *rand.Rand) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := t.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
}

// Normal fills t from N(0, std^2).
func Normal(t *tensor.Tensor, std float64, rng *rand.Rand) {
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64() * std)
	}
}

// Fill sets every element of t to v.
func Fill(t *tensor.Tensor, v float32) {
	data := t.Data()
	for i := range data {
		data[i] = v
	}
}
