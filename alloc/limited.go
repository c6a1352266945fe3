package alloc

import (
	"fmt"
	"sync"

	"github.com/wippyai/colvec"
)

// Limited caps the number of bytes an inner allocator may have outstanding.
// It is safe for concurrent use when the inner allocator is.
type Limited struct {
	inner  colvec.Allocator
	budget int
	mu     sync.Mutex
	used   int
}

var _ colvec.Allocator = (*Limited)(nil)

// NewLimited wraps inner with a budget of budget bytes.
func NewLimited(inner colvec.Allocator, budget int) *Limited {
	return &Limited{inner: inner, budget: budget}
}

// Used returns the number of bytes currently outstanding.
func (a *Limited) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Budget returns the configured byte budget.
func (a *Limited) Budget() int { return a.budget }

func (a *Limited) Allocate(l colvec.AllocLayout) ([]byte, error) {
	if err := a.charge(l.Size); err != nil {
		return nil, err
	}
	b, err := a.inner.Allocate(l)
	if err != nil {
		a.refund(l.Size)
		return nil, err
	}
	return b, nil
}

func (a *Limited) Grow(b []byte, old, next colvec.AllocLayout) ([]byte, error) {
	delta := next.Size - old.Size
	if err := a.charge(delta); err != nil {
		return nil, err
	}
	nb, err := a.inner.Grow(b, old, next)
	if err != nil {
		a.refund(delta)
		return nil, err
	}
	return nb, nil
}

func (a *Limited) Deallocate(b []byte, l colvec.AllocLayout) {
	a.inner.Deallocate(b, l)
	a.refund(l.Size)
}

func (a *Limited) charge(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n > a.budget-a.used {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrBudgetExceeded, n, a.used, a.budget)
	}
	a.used += n
	return nil
}

func (a *Limited) refund(n int) {
	a.mu.Lock()
	a.used -= n
	a.mu.Unlock()
}
