package tensor

import (
	"fmt"
	"sync/atomic"
)

// live counts tensors that were allocated and not yet released.
var live atomic.Int64

// Live returns the number of tensors currently holding data.
func Live() int64 {
	return live.Load()
}

// Tensor is a dense row-major array of float64 values with a fixed shape.
// A tensor owns its backing slice until Release is called.
type Tensor struct {
	shape    []int
	data     []float64
	released atomic.Bool
}

// New wraps data in a tensor of the given shape.
// It panics when the element count does not match the shape.
func New(shape []int, data []float64) *Tensor {
	size := Size(shape)
	if len(data) != size {
		panic(fmt.Sprintf("tensor: shape %v needs %d values, got %d", shape, size, len(data)))
	}
	t := &Tensor{
		shape: append([]int(nil), shape...),
		data:  data,
	}
	live.Add(1)
	return t
}

// Zeros allocates a zero-filled tensor.
func Zeros(shape ...int) *Tensor {
	return New(shape, make([]float64, Size(shape)))
}

// Size returns the number of elements described by shape.
func Size(shape []int) int {
	size := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension in %v", shape))
		}
		size *= d
	}
	return size
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Data exposes the backing slice. Callers must not retain it past Release.
func (t *Tensor) Data() []float64 {
	if t.released.Load() {
		panic("tensor: use after release")
	}
	return t.data
}

// Values returns a copy of the tensor's data that outlives Release.
func (t *Tensor) Values() []float64 {
	return append([]float64(nil), t.Data()...)
}

// Ints returns the values truncated to integers, used for index tensors.
func (t *Tensor) Ints() []int {
	data := t.Data()
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = int(v)
	}
	return out
}

// Reshape returns a new tensor with a copy of the data laid out in shape.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	if Size(shape) != t.Len() {
		panic(fmt.Sprintf("tensor: cannot reshape %v into %v", t.shape, shape))
	}
	return New(shape, t.Values())
}

// Release frees the backing data. Releasing twice is a no-op.
func (t *Tensor) Release() {
	if t == nil {
		return
	}
	if t.released.Swap(true) {
		return
	}
	t.data = nil
	live.Add(-1)
}

// Released reports whether Release has been called.
func (t *Tensor) Released() bool {
	return t.released.Load()
}
