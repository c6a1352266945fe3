package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/wippyai/colvec/vec"
)

const barWidth = 48

var (
	usedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	reservedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func newInspectCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Interactively push records and watch the field sub-arrays move",
		Long: `Open a terminal view of a table's buffer. Each field's sub-array is drawn
to scale: the used part in green, the reserved part in blue.

When stdout is not a terminal the view is printed once and the command exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := loadSchema(v.GetString("inspect.schema"))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, cleanup, err := newAllocator(ctx, allocConfigFrom(v, "inspect"))
			if err != nil {
				return err
			}
			defer cleanup()

			tbl := vec.NewTable(d, vec.WithAllocator(a))
			defer tbl.Release()

			m := newInspectModel(tbl)
			if n := v.GetInt("inspect.count"); n > 0 {
				m.push(n)
			}

			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return renderPlain(cmd.OutOrStdout(), m)
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("schema", "", "Path to a record schema YAML file (required)")
	flags.Int("count", 0, "Records to push before the view opens")
	flags.String("allocator", "heap", "Allocator: heap, mmap or linear")
	flags.Int("budget", 0, "Byte budget for the allocator (0 means unlimited)")
	flags.Uint32("max-pages", 0, "Linear memory page limit (0 means the default)")
	for _, name := range []string{"schema", "count", "allocator", "budget", "max-pages"} {
		_ = v.BindPFlag("inspect."+name, flags.Lookup(name))
	}
	return cmd
}

type promptKind int

const (
	promptNone promptKind = iota
	promptPush
	promptReserve
)

type inspectModel struct {
	err    error
	table  *vec.Table
	zero   [][]byte
	input  textinput.Model
	prompt promptKind
	moves  int
}

func newInspectModel(tbl *vec.Table) *inspectModel {
	d := tbl.Descriptor()
	zero := make([][]byte, d.NumFields())
	for i, f := range d.Fields {
		zero[i] = make([]byte, f.Size)
	}

	ti := textinput.New()
	ti.Placeholder = "count"
	ti.Width = 12
	ti.CharLimit = 12

	return &inspectModel{table: tbl, zero: zero, input: ti}
}

// push appends n zero records, stopping at the first allocation failure.
func (m *inspectModel) push(n int) {
	m.err = nil
	for i := 0; i < n; i++ {
		if m.table.Len() == m.table.Capacity() {
			if err := m.table.TryReserve(1); err != nil {
				m.err = err
				return
			}
			m.moves++
		}
		m.table.PushRaw(m.zero...)
	}
}

func (m *inspectModel) reserve(n int) {
	m.err = nil
	before := m.table.Capacity()
	if err := m.table.TryReserve(n); err != nil {
		m.err = err
		return
	}
	if m.table.Capacity() != before {
		m.moves++
	}
}

func (m *inspectModel) Init() tea.Cmd { return nil }

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.prompt != promptNone {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.closePrompt()
			return m, nil
		case "enter":
			n, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
			switch {
			case err != nil || n < 0:
				m.err = fmt.Errorf("not a count: %q", m.input.Value())
			case m.prompt == promptPush:
				m.push(n)
			default:
				m.reserve(n)
			}
			m.closePrompt()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "p":
		m.push(1)
	case "n":
		m.openPrompt(promptPush)
		return m, textinput.Blink
	case "r":
		m.openPrompt(promptReserve)
		return m, textinput.Blink
	case "c":
		m.table.Clear()
		m.err = nil
	case "x":
		m.table.Release()
		m.err = nil
	}
	return m, nil
}

func (m *inspectModel) openPrompt(k promptKind) {
	m.prompt = k
	m.input.Reset()
	m.input.Prompt = "push: "
	if k == promptReserve {
		m.input.Prompt = "reserve: "
	}
	m.input.Focus()
}

func (m *inspectModel) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
}

func (m *inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("colvec"))
	b.WriteString(" ")
	b.WriteString(m.table.Descriptor().String())
	b.WriteString("\n\n")
	b.WriteString(m.spans(true))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}
	if m.prompt != promptNone {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("p push • n push many • r reserve • c clear • x release • q quit"))
	}
	return b.String()
}

// spans renders the buffer summary and one bar per field in planned order.
func (m *inspectModel) spans(color bool) string {
	tbl := m.table
	d := tbl.Descriptor()
	plan := d.Layout()

	var b strings.Builder
	capacity := tbl.Capacity()
	capText := strconv.Itoa(capacity)
	if d.Footprint() == 0 {
		capText = "unbounded"
		capacity = 0
	}
	fmt.Fprintf(&b, "len %d  capacity %s  bytes %d  reallocations %d\n\n",
		tbl.Len(), capText, len(tbl.Bytes()), m.moves)

	total := capacity * d.Footprint()
	for _, pf := range plan.Fields() {
		start, end := plan.Span(pf.Index, capacity)
		used := start + tbl.Len()*pf.Size
		fmt.Fprintf(&b, "%-12s %s [%d, %d)\n",
			d.Fields[pf.Index].Name, bar(start, used, end, total, color), start, end)
	}
	return b.String()
}

// bar draws [start, end) of a total-byte buffer at barWidth scale, with
// [start, used) marked as filled.
func bar(start, used, end, total int, color bool) string {
	cells := make([]byte, barWidth)
	for i := range cells {
		cells[i] = ' '
	}
	if total > 0 {
		scale := func(n int) int { return n * barWidth / total }
		for i := scale(start); i < scale(end) && i < barWidth; i++ {
			cells[i] = '-'
		}
		for i := scale(start); i < scale(used) && i < barWidth; i++ {
			cells[i] = '#'
		}
	}

	s := string(cells)
	if !color {
		return "|" + s + "|"
	}
	var out strings.Builder
	out.WriteByte('|')
	for _, r := range s {
		switch r {
		case '#':
			out.WriteString(usedStyle.Render("█"))
		case '-':
			out.WriteString(reservedStyle.Render("░"))
		default:
			out.WriteRune(r)
		}
	}
	out.WriteByte('|')
	return out.String()
}

func renderPlain(w io.Writer, m *inspectModel) error {
	fmt.Fprintln(w, m.table.Descriptor().String())
	fmt.Fprintln(w)
	fmt.Fprint(w, m.spans(false))
	if m.err != nil {
		return m.err
	}
	return nil
}
