package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/alloc"
	"github.com/wippyai/colvec/alloc/linear"
	"github.com/wippyai/colvec/record"
)

type allocConfig struct {
	Name     string
	Budget   int
	MaxPages uint32
	Registry prometheus.Registerer
}

// allocConfigFrom reads the allocator settings shared by simulate and
// inspect under the given key prefix.
func allocConfigFrom(v *viper.Viper, prefix string) allocConfig {
	return allocConfig{
		Name:     v.GetString(prefix + ".allocator"),
		Budget:   v.GetInt(prefix + ".budget"),
		MaxPages: v.GetUint32(prefix + ".max-pages"),
	}
}

// newAllocator builds the allocator stack cfg names. The returned function
// releases anything the allocator holds.
func newAllocator(ctx context.Context, cfg allocConfig) (colvec.Allocator, func(), error) {
	var (
		a       colvec.Allocator
		cleanup = func() {}
	)
	switch cfg.Name {
	case "", "heap":
		a = alloc.Heap{}
	case "mmap":
		if !alloc.MmapSupported {
			return nil, nil, fmt.Errorf("allocator mmap: %w", alloc.ErrUnsupported)
		}
		a = alloc.Mmap{}
	case "linear":
		lin, err := linear.New(ctx, linear.Config{Name: "colvec", MaxPages: cfg.MaxPages})
		if err != nil {
			return nil, nil, err
		}
		a = lin
		cleanup = func() { _ = lin.Close(ctx) }
	default:
		return nil, nil, fmt.Errorf("unknown allocator %q (want heap, mmap or linear)", cfg.Name)
	}

	if cfg.Budget > 0 {
		a = alloc.NewLimited(a, cfg.Budget)
	}
	if cfg.Registry != nil {
		name := cfg.Name
		if name == "" {
			name = "heap"
		}
		a = alloc.NewMetered(a, cfg.Registry, name)
	}
	return a, cleanup, nil
}

func loadSchema(path string) (*record.Descriptor, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	return record.LoadFile(path)
}
