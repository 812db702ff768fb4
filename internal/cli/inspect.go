package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	qio "github.com/matzehuels/qtikit/pkg/io"
	"github.com/matzehuels/qtikit/pkg/pipeline"
)

// inspectCommand creates the inspect command, an interactive browser over
// the component graph.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Browse the component graph interactively",
		Long: `Browse the component graph of a QTI document or compact stream.

Components reached through more than one parent are listed under each of
them and marked as shared; their children are only expanded once.

Keys: ↑/↓ or j/k to move, g/G to jump, q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			doc, _, err := c.loadAny(ctx, runner, data, pipeline.Options{
				Source: args[0],
				Logger: loggerFromContext(ctx),
			})
			if err != nil {
				printProblems(err)
				return err
			}
			g, err := qio.FromComponent(doc.Root)
			if err != nil {
				return err
			}

			m := newInspectModel(g, args[0])
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// Inspector styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listSharedStyle   = lipgloss.NewStyle().Foreground(colorYellow)

	detailStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// Graph Rows
// =============================================================================

// graphRow is one line of the inspector: a node at a depth below the root.
type graphRow struct {
	Node   qio.Node
	Depth  int
	Repeat bool // already listed under an earlier parent
}

// flattenGraph lists g depth first from its root. A node reached again is
// listed without its children, which also stops at cycles.
func flattenGraph(g *qio.Graph) []graphRow {
	root, ok := g.Root()
	if !ok {
		return nil
	}
	byID := make(map[string]qio.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	children := make(map[string][]string)
	for _, e := range g.Edges {
		children[e.From] = append(children[e.From], e.To)
	}

	var rows []graphRow
	seen := make(map[string]bool)
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if seen[id] {
			rows = append(rows, graphRow{Node: byID[id], Depth: depth, Repeat: true})
			return
		}
		seen[id] = true
		rows = append(rows, graphRow{Node: byID[id], Depth: depth})
		for _, c := range children[id] {
			walk(c, depth+1)
		}
	}
	walk(root.ID, 0)
	return rows
}

// =============================================================================
// InspectModel - Interactive graph browser
// =============================================================================

// InspectModel is the bubbletea model for the inspect command.
type InspectModel struct {
	Title   string
	Rows    []graphRow
	Parents map[string]int
	Cursor  int
	Height  int
	Offset  int
}

func newInspectModel(g *qio.Graph, title string) InspectModel {
	return InspectModel{
		Title:   title,
		Rows:    flattenGraph(g),
		Parents: g.InDegree(),
		Height:  20,
	}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
		case "g", "home":
			m.Cursor = 0
		case "G", "end":
			m.Cursor = max(len(m.Rows)-1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *InspectModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty document)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))
	var list strings.Builder
	for i := m.Offset; i < end; i++ {
		list.WriteString(m.renderRow(i))
		list.WriteString("\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", m.renderDetail()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

func (m InspectModel) renderRow(i int) string {
	r := m.Rows[i]
	cursor := "  "
	if i == m.Cursor {
		cursor = "▸ "
	}
	line := cursor + strings.Repeat("  ", r.Depth) + r.Node.Kind
	if r.Node.Text != "" {
		line += " " + listDimStyle.Render(fmt.Sprintf("%q", truncateRunes(r.Node.Text, 30)))
	}
	if r.Repeat {
		line += " " + listSharedStyle.Render("(shared)")
	}

	if i == m.Cursor {
		return listSelectedStyle.Render(line)
	}
	return listNormalStyle.Render(line)
}

func (m InspectModel) renderDetail() string {
	n := m.Rows[m.Cursor].Node

	var b strings.Builder
	b.WriteString(StyleTitle.Render(n.Kind))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("id %s · %d parents", n.ID, m.Parents[n.ID])))
	b.WriteString("\n")
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(k))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(n.Attrs[k]))
	}
	if n.Text != "" {
		b.WriteString("\n\n")
		b.WriteString(StyleValue.Render(truncateRunes(n.Text, 200)))
	}
	return detailStyle.Width(40).Render(b.String())
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
