package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ArgMax reduces the last axis to the index of its maximum value.
// Ties resolve to the first index holding the maximum.
func ArgMax(t *Tensor) *Tensor {
	if t.Rank() == 0 {
		panic("tensor: argmax of scalar")
	}
	inner := t.shape[len(t.shape)-1]
	if inner == 0 {
		panic(fmt.Sprintf("tensor: argmax over empty axis of %v", t.shape))
	}
	outer := t.Len() / inner
	data := t.Data()
	out := make([]float64, outer)
	for i := 0; i < outer; i++ {
		out[i] = float64(floats.MaxIdx(data[i*inner : (i+1)*inner]))
	}
	return New(t.shape[:len(t.shape)-1], out)
}

// Scale returns a new tensor with every element multiplied by c.
func Scale(t *Tensor, c float64) *Tensor {
	out := t.Values()
	floats.Scale(c, out)
	return New(t.shape, out)
}

// Row returns a copy of row i of a tensor viewed as [rows, rest...].
func Row(t *Tensor, i int) []float64 {
	rows := t.shape[0]
	if i < 0 || i >= rows {
		panic(fmt.Sprintf("tensor: row %d out of range [0,%d)", i, rows))
	}
	width := t.Len() / rows
	return append([]float64(nil), t.Data()[i*width:(i+1)*width]...)
}

// Stack concatenates equally sized rows into a tensor of shape [len(rows), shape...].
func Stack(rows [][]float64, shape ...int) *Tensor {
	width := Size(shape)
	data := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			panic(fmt.Sprintf("tensor: row %d has %d values, want %d", i, len(row), width))
		}
		data = append(data, row...)
	}
	return New(append([]int{len(rows)}, shape...), data)
}
