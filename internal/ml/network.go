package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNonFinite indicates a loss or output that is NaN or infinite
	ErrNonFinite = errors.New("non-finite value")

	// ErrShapeMismatch indicates input rows that do not match the network width
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyDataset indicates there is nothing to train on
	ErrEmptyDataset = errors.New("empty dataset")
)

// Activation selects the non-linearity applied after a dense layer
type Activation int

const (
	Linear Activation = iota
	ReLU
)

func (a Activation) String() string {
	switch a {
	case ReLU:
		return "relu"
	default:
		return "linear"
	}
}

// LayerSpec describes one dense layer; Dropout is applied to its output while training
type LayerSpec struct {
	Units      int
	Activation Activation
	Dropout    float64
}

// DefaultArchitecture returns the regression stack used by the price estimator:
// dense(64, relu) → dropout(0.2) → dense(32, relu) → dropout(0.1) → dense(16, relu) → dense(1)
func DefaultArchitecture() []LayerSpec {
	return []LayerSpec{
		{Units: 64, Activation: ReLU, Dropout: 0.2},
		{Units: 32, Activation: ReLU, Dropout: 0.1},
		{Units: 16, Activation: ReLU},
		{Units: 1, Activation: Linear},
	}
}

type dense struct {
	w       *mat.Dense // in x out
	b       []float64
	act     Activation
	dropout float64

	// Adam moments, laid out like w's backing array and b
	mW, vW []float64
	mB, vB []float64
}

// layerCache keeps what backprop needs from one forward pass
type layerCache struct {
	input *mat.Dense
	z     *mat.Dense
	mask  *mat.Dense
}

// Network is a feed-forward regression network with a single output.
// Predict is safe for concurrent use; Fit must not run concurrently with anything.
type Network struct {
	inputWidth int
	layers     []*dense
	step       int
}

// NewNetwork creates a network with Glorot-uniform weights and zero biases
func NewNetwork(inputWidth int, specs []LayerSpec, rng *rand.Rand) (*Network, error) {
	if inputWidth <= 0 {
		return nil, fmt.Errorf("input width must be positive, got %d", inputWidth)
	}
	if len(specs) == 0 {
		return nil, errors.New("network needs at least one layer")
	}
	if last := specs[len(specs)-1]; last.Units != 1 {
		return nil, fmt.Errorf("output layer must have 1 unit, got %d", last.Units)
	}

	n := &Network{inputWidth: inputWidth}
	in := inputWidth
	for i, spec := range specs {
		if spec.Units <= 0 {
			return nil, fmt.Errorf("layer %d: units must be positive, got %d", i, spec.Units)
		}
		if spec.Dropout < 0 || spec.Dropout >= 1 {
			return nil, fmt.Errorf("layer %d: dropout must be in [0, 1), got %f", i, spec.Dropout)
		}

		limit := math.Sqrt(6.0 / float64(in+spec.Units))
		data := make([]float64, in*spec.Units)
		for j := range data {
			data[j] = (rng.Float64()*2 - 1) * limit
		}

		n.layers = append(n.layers, &dense{
			w:       mat.NewDense(in, spec.Units, data),
			b:       make([]float64, spec.Units),
			act:     spec.Activation,
			dropout: spec.Dropout,
			mW:      make([]float64, in*spec.Units),
			vW:      make([]float64, in*spec.Units),
			mB:      make([]float64, spec.Units),
			vB:      make([]float64, spec.Units),
		})
		in = spec.Units
	}

	return n, nil
}

// InputWidth returns the number of features the network expects
func (n *Network) InputWidth() int {
	return n.inputWidth
}

// ParamCount returns the number of trainable parameters
func (n *Network) ParamCount() int {
	total := 0
	for _, l := range n.layers {
		r, c := l.w.Dims()
		total += r*c + len(l.b)
	}
	return total
}

// Predict runs inference for a single feature row with dropout disabled
func (n *Network) Predict(x []float64) (float64, error) {
	if len(x) != n.inputWidth {
		return 0, fmt.Errorf("%w: expected %d features, got %d", ErrShapeMismatch, n.inputWidth, len(x))
	}

	row := make([]float64, len(x))
	copy(row, x)

	out, _ := n.forward(mat.NewDense(1, n.inputWidth, row), false, nil)
	y := out.At(0, 0)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: prediction is %v", ErrNonFinite, y)
	}
	return y, nil
}

func (n *Network) forward(x *mat.Dense, train bool, rng *rand.Rand) (*mat.Dense, []layerCache) {
	var caches []layerCache
	if train {
		caches = make([]layerCache, 0, len(n.layers))
	}

	a := x
	for _, l := range n.layers {
		z := &mat.Dense{}
		z.Mul(a, l.w)
		rows, _ := z.Dims()
		for i := 0; i < rows; i++ {
			zr := z.RawRowView(i)
			for j := range zr {
				zr[j] += l.b[j]
			}
		}

		out := mat.DenseCopyOf(z)
		if l.act == ReLU {
			for i := 0; i < rows; i++ {
				or := out.RawRowView(i)
				for j, v := range or {
					if v < 0 {
						or[j] = 0
					}
				}
			}
		}

		var mask *mat.Dense
		if train && l.dropout > 0 {
			mask = dropoutMask(out, l.dropout, rng)
			out.MulElem(out, mask)
		}

		if train {
			caches = append(caches, layerCache{input: a, z: z, mask: mask})
		}
		a = out
	}

	return a, caches
}

// dropoutMask builds an inverted-dropout mask: dropped units are 0, kept units 1/(1-rate)
func dropoutMask(like *mat.Dense, rate float64, rng *rand.Rand) *mat.Dense {
	rows, cols := like.Dims()
	keep := 1 - rate
	data := make([]float64, rows*cols)
	for i := range data {
		if rng.Float64() < keep {
			data[i] = 1 / keep
		}
	}
	return mat.NewDense(rows, cols, data)
}

// backward propagates the loss gradient through the cached pass and applies one Adam step
func (n *Network) backward(grad *mat.Dense, caches []layerCache, opt adam) {
	n.step++

	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]
		c := caches[i]
		g := grad

		if c.mask != nil {
			g.MulElem(g, c.mask)
		}
		if l.act == ReLU {
			rows, _ := g.Dims()
			for r := 0; r < rows; r++ {
				gr := g.RawRowView(r)
				zr := c.z.RawRowView(r)
				for j := range gr {
					if zr[j] <= 0 {
						gr[j] = 0
					}
				}
			}
		}

		var dW mat.Dense
		dW.Mul(c.input.T(), g)

		db := make([]float64, len(l.b))
		rows, _ := g.Dims()
		for r := 0; r < rows; r++ {
			for j, v := range g.RawRowView(r) {
				db[j] += v
			}
		}

		// Input gradient uses the weights before this step's update
		if i > 0 {
			dx := &mat.Dense{}
			dx.Mul(g, l.w.T())
			grad = dx
		}

		opt.update(l.w.RawMatrix().Data, denseData(&dW), l.mW, l.vW, n.step)
		opt.update(l.b, db, l.mB, l.vB, n.step)
	}
}

// denseData returns the row-major elements of m regardless of stride
func denseData(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
