package vec

import (
	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/alloc"
)

type options struct {
	alloc colvec.Allocator
}

// Option configures a collection.
type Option func(*options)

// WithAllocator sets the allocator backing the collection. The default is
// alloc.Heap.
func WithAllocator(a colvec.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.alloc = a
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{alloc: alloc.Heap{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
