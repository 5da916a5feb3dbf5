// Package replui implements the bubbletea chat TUI that drives phase-3
// (agentic) turns against an in-process Turn Orchestrator.
package replui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/orchestrator"
)

// TurnRunner is the TUI-facing subset of the Turn Orchestrator.
type TurnRunner interface {
	HandleTurn(ctx context.Context, req models.TurnRequest, sink orchestrator.Sink) (*models.TurnResult, error)
}

type turnMsg struct {
	result *models.TurnResult
	err    error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	runner     TurnRunner
	customerID string

	input    textinput.Model
	viewport viewport.Model
	history  []string
	pending  bool
	ready    bool
}

// New creates a chat Model bound to runner, sending turns on behalf of customerID.
func New(runner TurnRunner, customerID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about a product, or say \"order ...\""
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		runner:     runner,
		customerID: customerID,
		input:      ti,
		viewport:   vp,
		history:    []string{"Welcome to shopsage. Type a message and press Enter."},
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and drives turns against the Orchestrator.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ih := inputBoxStyle.GetFrameSize()
		_, ch := chatBoxStyle.GetFrameSize()
		reserved := 2 + ih + ch
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.pending {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.history = append(m.history, "you: "+text)
			m.input.SetValue("")
			m.pending = true
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, m.runTurn(text)
		}
	case turnMsg:
		m.pending = false
		if msg.err != nil {
			m.history = append(m.history, "error: "+msg.err.Error())
		} else {
			m.history = append(m.history, renderResult(msg.result)...)
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("shopsage")
	chat := chatBoxStyle.Render(m.viewport.View())
	status := "Ready."
	if m.pending {
		status = "Thinking..."
	}
	statusLine := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(status)
	input := inputBoxStyle.Render(m.input.View())
	return header + "\n" + chat + "\n" + input + "\n" + statusLine
}

func (m Model) runTurn(text string) tea.Cmd {
	return func() tea.Msg {
		req := models.TurnRequest{Phase: models.PhaseAgentic, Message: text, CustomerID: m.customerID}
		result, err := m.runner.HandleTurn(context.Background(), req, nil)
		return turnMsg{result: result, err: err}
	}
}

func (m Model) renderHistory() string {
	return strings.Join(m.history, "\n")
}

func renderResult(result *models.TurnResult) []string {
	lines := []string{"shopsage: " + result.ReplyText}
	for _, p := range result.Products {
		lines = append(lines, fmt.Sprintf("  - %s (%s) $%.2f", p.Product.Name, p.Product.ProductID, p.Product.Price))
	}
	if result.Order != nil {
		lines = append(lines, fmt.Sprintf("  order %s: %s, total $%.2f", result.Order.OrderID, result.Order.Status, result.Order.Total))
	}
	for _, follow := range result.FollowUpSuggestions {
		lines = append(lines, "  follow-up: "+follow)
	}
	return lines
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
