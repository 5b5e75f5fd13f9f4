package tensor

// Scope tracks tensors allocated during a multi-step computation and
// releases every one of them on Close, except those handed out with Keep.
type Scope struct {
	owned []*Tensor
}

// Track registers t with the scope and returns it.
func (s *Scope) Track(t *Tensor) *Tensor {
	s.owned = append(s.owned, t)
	return t
}

// Keep removes t from the scope so it survives Close.
func (s *Scope) Keep(t *Tensor) *Tensor {
	for i, owned := range s.owned {
		if owned == t {
			s.owned = append(s.owned[:i], s.owned[i+1:]...)
			break
		}
	}
	return t
}

// Close releases all tracked tensors.
func (s *Scope) Close() {
	for _, t := range s.owned {
		t.Release()
	}
	s.owned = nil
}

// Tidy runs fn inside a fresh scope. Everything fn tracks is released when it
// returns, except the returned tensor, whose ownership moves to the caller.
func Tidy(fn func(s *Scope) *Tensor) *Tensor {
	s := &Scope{}
	defer s.Close()
	return s.Keep(fn(s))
}
