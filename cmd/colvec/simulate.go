package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wippyai/colvec/record"
	"github.com/wippyai/colvec/vec"
)

// growthStep records a capacity change seen while pushing.
type growthStep struct {
	Len, Capacity, Bytes int
}

type simulation struct {
	Pushed int
	Steps  []growthStep
}

func newSimulateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Push zero records into a table and report every reallocation",
		Long: `Push zero-valued records one at a time and print the capacity history.
An allocation failure stops the run and is reported.

Example:
  colvec simulate --schema particle.yaml --count 100000 --allocator linear --metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := loadSchema(v.GetString("simulate.schema"))
			if err != nil {
				return err
			}

			cfg := allocConfigFrom(v, "simulate")
			var reg *prometheus.Registry
			if v.GetBool("simulate.metrics") {
				reg = prometheus.NewRegistry()
				cfg.Registry = reg
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, cleanup, err := newAllocator(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", titleStyle.Render(d.Name), d.Layout())

			tbl := vec.NewTable(d, vec.WithAllocator(a))
			defer tbl.Release()

			sim, simErr := simulate(tbl, v.GetInt("simulate.count"))
			renderSimulation(w, d, sim)
			if reg != nil {
				if err := writeMetrics(w, reg); err != nil {
					return err
				}
			}
			return simErr
		},
	}

	flags := cmd.Flags()
	flags.String("schema", "", "Path to a record schema YAML file (required)")
	flags.Int("count", 1000, "Number of records to push")
	flags.String("allocator", "heap", "Allocator: heap, mmap or linear")
	flags.Int("budget", 0, "Byte budget for the allocator (0 means unlimited)")
	flags.Uint32("max-pages", 0, "Linear memory page limit (0 means the default)")
	flags.Bool("metrics", false, "Print allocator metrics after the run")
	for _, name := range []string{"schema", "count", "allocator", "budget", "max-pages", "metrics"} {
		_ = v.BindPFlag("simulate."+name, flags.Lookup(name))
	}
	return cmd
}

// simulate pushes count zero records, growing through TryReserve so that an
// allocation failure ends the run with an error instead of a panic.
func simulate(tbl *vec.Table, count int) (simulation, error) {
	var sim simulation
	if count < 0 {
		return sim, fmt.Errorf("negative count %d", count)
	}

	d := tbl.Descriptor()
	zero := make([][]byte, d.NumFields())
	for i, f := range d.Fields {
		zero[i] = make([]byte, f.Size)
	}

	for i := 0; i < count; i++ {
		if tbl.Len() == tbl.Capacity() {
			if err := tbl.TryReserve(1); err != nil {
				return sim, fmt.Errorf("push %d: %w", i, err)
			}
			sim.Steps = append(sim.Steps, growthStep{
				Len:      tbl.Len(),
				Capacity: tbl.Capacity(),
				Bytes:    len(tbl.Bytes()),
			})
		}
		tbl.PushRaw(zero...)
		sim.Pushed++
	}
	return sim, nil
}

func renderSimulation(w io.Writer, d *record.Descriptor, sim simulation) {
	fmt.Fprintf(w, "%10s %12s %14s\n", "LEN", "CAPACITY", "BYTES")
	for _, s := range sim.Steps {
		fmt.Fprintf(w, "%10d %12d %14d\n", s.Len, s.Capacity, s.Bytes)
	}
	if d.Footprint() == 0 {
		fmt.Fprintf(w, "pushed %d zero-size records without allocating\n", sim.Pushed)
		return
	}
	fmt.Fprintf(w, "pushed %d records, %d reallocations\n", sim.Pushed, len(sim.Steps))
}

// writeMetrics prints every gathered sample as "name{labels} value".
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(pairs)
			name := mf.GetName()
			if len(pairs) > 0 {
				name += "{" + strings.Join(pairs, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
