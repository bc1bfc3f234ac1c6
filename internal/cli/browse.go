package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		flags   settingsFlags
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "browse <defs|layout.json>",
		Short: "Walk a research tree layer by layer",
		Long: `Walk a research tree layer by layer in the terminal.

←/→ moves between layers, ↑/↓ between the research of a layer. The panel
below the table lists what the selected research still needs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.settings(cmd)
			if err != nil {
				return err
			}
			return c.runBrowse(cmd.Context(), args[0], s, noCache)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, s config.Settings, noCache bool) error {
	var l *graph.Layout
	if strings.HasSuffix(input, layoutSuffix) {
		var err error
		if l, err = graph.ReadLayoutFile(input); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read layout %s", input)
		}
	} else {
		res, err := c.computeLayout(ctx, input, s, noCache, false)
		if err != nil {
			return err
		}
		l = res.Layout
	}
	if len(l.ResearchNodes()) == 0 {
		printInfo("Nothing to browse: the layout has no research")
		return nil
	}
	_, err := tea.NewProgram(newBrowseModel(l), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// browseModel - Layer viewer
// =============================================================================

var (
	browseSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseFinished = lipgloss.NewStyle().Foreground(colorGreen)
	browseMissing  = lipgloss.NewStyle().Foreground(colorRed)
	browseHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// browseModel shows the research nodes of one layer at a time.
type browseModel struct {
	layout *graph.Layout
	layers [][]graph.Node // research nodes per layer, index 0 is layer 1
	layer  int
	cursor int
}

func newBrowseModel(l *graph.Layout) browseModel {
	m := browseModel{layout: l, layers: make([][]graph.Node, l.Width)}
	for x := 1; x <= l.Width; x++ {
		for _, n := range l.Layer(x) {
			if !n.Dummy {
				m.layers[x-1] = append(m.layers[x-1], n)
			}
		}
	}
	return m
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		if m.layer > 0 {
			m.layer--
		}
	case "right", "l":
		if m.layer < len(m.layers)-1 {
			m.layer++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.cursor++
	}
	m.cursor = min(m.cursor, max(len(m.layers[m.layer])-1, 0))
	return m, nil
}

// selected returns the research under the cursor.
func (m browseModel) selected() (graph.Node, bool) {
	nodes := m.layers[m.layer]
	if len(nodes) == 0 {
		return graph.Node{}, false
	}
	return nodes[m.cursor], true
}

func (m browseModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Layer %d/%d", m.layer+1, len(m.layers))
	if level := m.levelOf(m.layer + 1); level != "" {
		title += " · " + level
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ layer  ↑/↓ research  q quit"))
	b.WriteString("\n\n")

	nodes := m.layers[m.layer]
	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		done := ""
		if n.Finished {
			done = iconSuccess
		}
		rows[i] = []string{cursor, fmt.Sprint(n.Y), n.Label, n.Level.String(), done}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Row", "Research", "Level", "Done").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return browseHeader
			case row == m.cursor:
				return browseSelected
			case nodes[row].Finished:
				return browseFinished
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if n, ok := m.selected(); ok {
		b.WriteString(m.details(n))
	} else {
		b.WriteString(StyleDim.Render("  no research on this layer"))
	}
	return b.String()
}

func (m browseModel) details(n graph.Node) string {
	var b strings.Builder
	b.WriteString(StyleValue.Render(n.Label))
	if n.Source != "" {
		b.WriteString(StyleDim.Render(" (" + n.Source + ")"))
	}
	b.WriteString("\n")

	missing := m.layout.MissingPrerequisites(n.ID)
	switch {
	case n.Finished:
		b.WriteString(browseFinished.Render("  finished"))
	case len(missing) == 0:
		b.WriteString(browseFinished.Render("  available"))
	default:
		b.WriteString(browseMissing.Render(fmt.Sprintf("  needs %d: %s", len(missing), strings.Join(missing, ", "))))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  requires %d · unlocks %d",
		len(m.layout.Ancestors(n.ID)), len(m.layout.Descendants(n.ID)))))
	return b.String()
}

// levelOf names the tech level band containing layer x, if any.
func (m browseModel) levelOf(x int) string {
	for _, b := range m.layout.Bounds {
		if x >= b.Min && x <= b.Max {
			return b.Level.String()
		}
	}
	return ""
}
