package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// FitConfig controls a training run
type FitConfig struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64 // fraction of rows held out from the end, diagnostic only
	LearningRate    float64
	Rand            *rand.Rand // shuffling and dropout
	OnEpoch         func(EpochStats)
}

// EpochStats is reported after every epoch
type EpochStats struct {
	Epoch   int
	Loss    float64
	ValLoss float64 // NaN when there is no validation split
}

// History holds per-epoch losses of a training run
type History struct {
	Loss    []float64
	ValLoss []float64
}

// FinalLoss returns the training and validation loss of the last epoch
func (h *History) FinalLoss() (float64, float64) {
	if h == nil || len(h.Loss) == 0 {
		return math.NaN(), math.NaN()
	}
	return h.Loss[len(h.Loss)-1], h.ValLoss[len(h.ValLoss)-1]
}

// adam holds the optimizer hyper-parameters; moment state lives on each layer
type adam struct {
	lr      float64
	beta1   float64
	beta2   float64
	epsilon float64
}

func newAdam(lr float64) adam {
	return adam{lr: lr, beta1: 0.9, beta2: 0.999, epsilon: 1e-7}
}

func (a adam) update(params, grads, m, v []float64, t int) {
	lrT := a.lr * math.Sqrt(1-math.Pow(a.beta2, float64(t))) / (1 - math.Pow(a.beta1, float64(t)))
	for i, g := range grads {
		m[i] = a.beta1*m[i] + (1-a.beta1)*g
		v[i] = a.beta2*v[i] + (1-a.beta2)*g*g
		params[i] -= lrT * m[i] / (math.Sqrt(v[i]) + a.epsilon)
	}
}

// Fit trains the network with mean squared error loss.
//
// The last ValidationSplit fraction of the rows is held out before shuffling
// and only evaluated; the remaining rows are reshuffled every epoch.
func (n *Network) Fit(x [][]float64, y []float64, cfg FitConfig) (*History, error) {
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d labels", ErrShapeMismatch, len(x), len(y))
	}
	for i, row := range x {
		if len(row) != n.inputWidth {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShapeMismatch, i, len(row), n.inputWidth)
		}
	}
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		return nil, errors.New("epochs and batch size must be positive")
	}
	if cfg.ValidationSplit < 0 || cfg.ValidationSplit >= 1 {
		return nil, fmt.Errorf("validation split must be in [0, 1), got %f", cfg.ValidationSplit)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	splitAt := int(float64(len(x)) * (1 - cfg.ValidationSplit))
	if splitAt == 0 {
		return nil, fmt.Errorf("%w: validation split leaves no training rows", ErrEmptyDataset)
	}
	trainX, trainY := x[:splitAt], y[:splitAt]
	valX, valY := x[splitAt:], y[splitAt:]

	opt := newAdam(cfg.LearningRate)
	history := &History{
		Loss:    make([]float64, 0, cfg.Epochs),
		ValLoss: make([]float64, 0, cfg.Epochs),
	}

	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var sum float64
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			bx, by := batch(trainX, trainY, order[start:end], n.inputWidth)

			pred, caches := n.forward(bx, true, rng)
			loss, grad := mseLoss(pred, by)
			if math.IsNaN(loss) || math.IsInf(loss, 0) {
				return history, fmt.Errorf("%w: loss at epoch %d is %v", ErrNonFinite, epoch, loss)
			}
			n.backward(grad, caches, opt)
			sum += loss * float64(end-start)
		}

		epochLoss := sum / float64(len(order))
		valLoss := math.NaN()
		if len(valX) > 0 {
			var err error
			valLoss, err = n.Evaluate(valX, valY)
			if err != nil {
				return history, fmt.Errorf("validation at epoch %d: %w", epoch, err)
			}
		}

		history.Loss = append(history.Loss, epochLoss)
		history.ValLoss = append(history.ValLoss, valLoss)
		if cfg.OnEpoch != nil {
			cfg.OnEpoch(EpochStats{Epoch: epoch, Loss: epochLoss, ValLoss: valLoss})
		}
	}

	return history, nil
}

// Evaluate returns the mean squared error over the rows with dropout disabled
func (n *Network) Evaluate(x [][]float64, y []float64) (float64, error) {
	if len(x) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d labels", ErrShapeMismatch, len(x), len(y))
	}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	bx, by := batch(x, y, idx, n.inputWidth)
	pred, _ := n.forward(bx, false, nil)
	loss, _ := mseLoss(pred, by)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, fmt.Errorf("%w: evaluation loss is %v", ErrNonFinite, loss)
	}
	return loss, nil
}

func batch(x [][]float64, y []float64, idx []int, width int) (*mat.Dense, []float64) {
	bx := mat.NewDense(len(idx), width, nil)
	by := make([]float64, len(idx))
	for i, k := range idx {
		bx.SetRow(i, x[k])
		by[i] = y[k]
	}
	return bx, by
}

// mseLoss returns the mean squared error and its gradient with respect to pred
func mseLoss(pred *mat.Dense, y []float64) (float64, *mat.Dense) {
	rows := len(y)
	grad := mat.NewDense(rows, 1, nil)
	var sum float64
	for i := 0; i < rows; i++ {
		diff := pred.At(i, 0) - y[i]
		sum += diff * diff
		grad.Set(i, 0, 2*diff/float64(rows))
	}
	return sum / float64(rows), grad
}
