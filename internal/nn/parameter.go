package nn

import (
	"github.com/born-ml/highlight/internal/tensor"
)

// Parameter is a named weight tensor owned by a params struct.
//
// Example:
//
//	for _, p := range params.Parameters() {
//	    fmt.Println(p.Name(), p.Tensor().Shape())
//	}
type Parameter struct {
	name   string
	tensor *tensor.Tensor
}

// NewParameter names a weight tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// prefixed renames every parameter to prefix.name.
func prefixed(prefix string, params []*Parameter) []*Parameter {
	out := make([]*Parameter, len(params))
	for i, p := range params {
		out[i] = NewParameter(prefix+"."+p.name, p.tensor)
	}
	return out
}

// CountParameters returns the total number of scalar weights.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.tensor.NumElements()
	}
	return n
}
