package tower

import "sync/atomic"

// publishOnce memoizes a value computed on first access. Concurrent first
// accesses may compute the value more than once; the first published result
// wins and no reader ever sees a partial value.
type publishOnce[T any] struct {
	value   atomic.Pointer[T]
	compute func() T
}

func newPublishOnce[T any](compute func() T) *publishOnce[T] {
	return &publishOnce[T]{compute: compute}
}

func (p *publishOnce[T]) get() T {
	if v := p.value.Load(); v != nil {
		return *v
	}
	v := p.compute()
	if p.value.CompareAndSwap(nil, &v) {
		return v
	}
	return *p.value.Load()
}
