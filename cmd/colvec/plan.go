package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wippyai/colvec/record"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	titleStyle  = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

// planField is one row of the plan in planned order.
type planField struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int    `json:"size"`
	Align  int    `json:"align"`
	Offset int    `json:"offset"`
}

type planOutput struct {
	Name      string      `json:"name"`
	Align     int         `json:"align"`
	Footprint int         `json:"footprint"`
	Fields    []planField `json:"fields"`
}

func newPlanCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [type|size]...",
		Short: "Print the planned field order and offsets of a record",
		Long: `Plan a record given as WIT types or byte sizes, or as a schema file.

Example:
  colvec plan u8 u16 u16 u32
  colvec plan f64 'option<u8>' 3
  colvec plan --schema particle.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := planDescriptor(v.GetString("plan.schema"), args)
			if err != nil {
				return err
			}
			out := buildPlan(d)
			if v.GetBool("plan.json") {
				enc := gojson.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			renderPlan(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().String("schema", "", "Path to a record schema YAML file")
	cmd.Flags().Bool("json", false, "Write the plan as JSON")
	_ = v.BindPFlag("plan.schema", cmd.Flags().Lookup("schema"))
	_ = v.BindPFlag("plan.json", cmd.Flags().Lookup("json"))
	return cmd
}

// planDescriptor builds a descriptor from a schema file or from arguments.
// Integer arguments are opaque byte sizes; anything else is a WIT type.
func planDescriptor(schemaPath string, args []string) (*record.Descriptor, error) {
	if schemaPath != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--schema and field arguments are mutually exclusive")
		}
		return record.LoadFile(schemaPath)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("need field types or sizes, or --schema")
	}

	s := record.Schema{Name: "record", Fields: make([]record.SchemaField, len(args))}
	for i, arg := range args {
		f := record.SchemaField{Name: "f" + strconv.Itoa(i)}
		if n, err := strconv.Atoi(arg); err == nil {
			f.Size = &n
		} else {
			f.Type = arg
		}
		s.Fields[i] = f
	}
	return s.Descriptor()
}

func buildPlan(d *record.Descriptor) planOutput {
	out := planOutput{Name: d.Name, Align: d.Align, Footprint: d.Footprint()}
	for _, pf := range d.Layout().Fields() {
		f := d.Fields[pf.Index]
		out.Fields = append(out.Fields, planField{
			Index:  pf.Index,
			Name:   f.Name,
			Type:   f.TypeName(),
			Size:   pf.Size,
			Align:  f.Align,
			Offset: pf.Offset,
		})
	}
	return out
}

func renderPlan(w io.Writer, p planOutput) {
	rows := make([][]string, len(p.Fields))
	for i, f := range p.Fields {
		rows[i] = []string{
			strconv.Itoa(f.Index),
			f.Name,
			f.Type,
			strconv.Itoa(f.Size),
			strconv.Itoa(f.Align),
			strconv.Itoa(f.Offset),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("#", "FIELD", "TYPE", "SIZE", "ALIGN", "OFFSET").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, titleStyle.Render(p.Name))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "footprint %d bytes per record, align %d\n", p.Footprint, p.Align)
}
