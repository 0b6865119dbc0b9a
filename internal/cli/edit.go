package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/story"
)

// settleDelay defers the incremental pass after an edit by one frame, so the
// change is visible before anything moves.
const settleDelay = 16 * time.Millisecond

var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editMovedStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	editHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	editDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "edit [board.yaml]",
		Short: "Interactively change node states and watch the layout follow",
		Long: `Interactively change node states and watch the layout follow.

Keys:
  ↑/↓ j/k   select node
  s, space  cycle the node state
  e         toggle expanded
  p         toggle the side panel (bubbles for explorations)
  r         full relayout
  w         write the storyboard
  q         quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), args[0], configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "layout config file (TOML)")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, path, configPath string) error {
	b, name, err := graph.ReadStoryboardFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	cfg := layout.DefaultConfig()
	if configPath != "" {
		if cfg, err = layout.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := newEditModel(ctx, b, name, path, cfg)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if em, ok := final.(editModel); ok && em.dirty {
		printWarning("Unsaved changes to %s were discarded", path)
	}
	return nil
}

// =============================================================================
// editModel - Interactive storyboard editor
// =============================================================================

// relayoutMsg asks the model to run the incremental pass for a node.
type relayoutMsg struct{ nodeID string }

// editModel is the bubbletea model for the edit command. The board is laid
// out once on creation; every edit then defers an incremental pass by
// settleDelay.
type editModel struct {
	ctx    context.Context
	board  *story.Board
	name   string
	path   string
	cfg    layout.Config
	engine *layout.Engine

	rows   []string // node IDs, branch by branch in tree order
	cursor int
	offset int
	height int

	moved  map[string]bool // nodes moved by the last pass
	dirty  bool
	status string
}

func newEditModel(ctx context.Context, b *story.Board, name, path string, cfg layout.Config) (editModel, error) {
	// The terminal belongs to the TUI; engine warnings would corrupt it.
	eng := layout.NewEngine(layout.NewContext(b, cfg, log.New(io.Discard)))
	if _, err := eng.Layout(ctx); err != nil {
		return editModel{}, err
	}
	return editModel{
		ctx:    ctx,
		board:  b,
		name:   name,
		path:   path,
		cfg:    cfg,
		engine: eng,
		rows:   treeOrder(b),
		height: 20,
		status: "laid out",
	}, nil
}

// treeOrder lists node IDs depth-first over the branch tree.
func treeOrder(b *story.Board) []string {
	var ids []string
	var walk func(br story.Branch)
	walk = func(br story.Branch) {
		ids = append(ids, br.NodeIDs...)
		for _, child := range b.Children(br.ID) {
			walk(child)
		}
	}
	for _, root := range b.Roots() {
		walk(root)
	}
	return ids
}

func (m editModel) Init() tea.Cmd {
	return nil
}

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case relayoutMsg:
		before := m.positions()
		res, err := m.engine.NodeChanged(m.ctx, msg.nodeID)
		if errors.Is(err, layout.ErrLayoutInProgress) {
			return m, relayoutAfter(msg.nodeID)
		}
		if err != nil {
			m.status = "relayout failed: " + err.Error()
			return m, nil
		}
		m.moved = m.diff(before)
		if res.Writes > 0 {
			m.dirty = true
		}
		m.status = fmt.Sprintf("relaid out from %s: %d moved", msg.nodeID, res.Writes)

	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m editModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.offset = min(m.offset, m.cursor)
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
		return m, nil
	case "w":
		if err := graph.WriteStoryboardFile(m.board, m.name, m.path); err != nil {
			m.status = "write failed: " + err.Error()
			return m, nil
		}
		m.dirty = false
		m.status = "wrote " + m.path
		return m, nil
	case "r":
		before := m.positions()
		if _, err := m.engine.Layout(m.ctx); err != nil {
			m.status = "layout failed: " + err.Error()
			return m, nil
		}
		m.moved = m.diff(before)
		m.status = "full relayout"
		return m, nil
	}

	if len(m.rows) == 0 {
		return m, nil
	}
	id := m.rows[m.cursor]
	n, _ := m.board.Node(id)

	var patch story.NodePatch
	switch msg.String() {
	case "s", " ":
		next := n.State.Next()
		patch.State = &next
	case "e":
		patch.Expanded = story.Ptr(!n.Expanded)
	case "p":
		if n.IsExploration() {
			patch.ShowBubblesPanel = story.Ptr(!n.ShowBubblesPanel)
		} else {
			patch.ShowFloatingPanel = story.Ptr(!n.ShowFloatingPanel)
		}
	default:
		return m, nil
	}

	if err := m.board.UpdateNode(id, patch); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.dirty = true
	m.status = "changed " + id
	return m, relayoutAfter(id)
}

// relayoutAfter schedules the incremental pass for nodeID.
func relayoutAfter(nodeID string) tea.Cmd {
	return tea.Tick(settleDelay, func(time.Time) tea.Msg {
		return relayoutMsg{nodeID: nodeID}
	})
}

func (m editModel) positions() map[string]story.Point {
	out := make(map[string]story.Point, len(m.rows))
	for _, id := range m.rows {
		if n, ok := m.board.Node(id); ok {
			out[id] = n.Pos
		}
	}
	return out
}

func (m editModel) diff(before map[string]story.Point) map[string]bool {
	moved := map[string]bool{}
	for id, p := range m.positions() {
		if before[id] != p {
			moved[id] = true
		}
	}
	return moved
}

func (m editModel) View() string {
	var b strings.Builder

	title := "Storyboard"
	if m.name != "" {
		title += " · " + m.name
	}
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(editDimStyle.Render("↑/↓ select  s state  e expand  p panel  r relayout  w write  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n, _ := m.board.Node(m.rows[i])
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.ID,
			n.BranchID,
			string(n.Type),
			string(n.State),
			fmt.Sprintf("%.0f", n.Pos.X),
			fmt.Sprintf("%.0f", n.Pos.Y),
			fmt.Sprintf("%.0f×%.0f", m.cfg.Width(n), m.cfg.Height(n)),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(editDimStyle).
		Headers("", "Node", "Branch", "Type", "State", "X", "Y", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return editHeaderStyle
			}
			idx := m.offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.cursor:
				return editSelectedStyle
			case m.moved[m.rows[idx]] && (col == 5 || col == 6):
				return editMovedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(editDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.cursor+1, len(m.rows), m.status)))

	return b.String()
}
