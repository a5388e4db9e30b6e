package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/crawl-engine/internal/handlers"
	"github.com/jwebster45206/crawl-engine/pkg/dungeon"
	"github.com/jwebster45206/crawl-engine/pkg/narrate"
)

const PlaceHolderText = "north / search / roll / attack ..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	state        *dungeon.Crawl
	log          []narrate.Line
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Quit confirmation state
	showQuitModal bool
}

type actionMsg struct {
	resp *handlers.CrawlResponse
	err  error
}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")) // light grey

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	enemyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	critStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	lootStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")) // gold

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	lockedDieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("220")).
			Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func tagStyle(tag string) lipgloss.Style {
	switch tag {
	case narrate.TagPlayer:
		return playerStyle
	case narrate.TagEnemy:
		return enemyStyle
	case narrate.TagCrit:
		return critStyle
	case narrate.TagLoot:
		return lootStyle
	case narrate.TagSuccess:
		return successStyle
	default:
		return systemStyle
	}
}

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, created *handlers.CrawlResponse) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		state:        created.State,
		log:          created.Log,
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: metaVp,
		ready:        false,
	}
}

// writeLogContent rebuilds the narration log for the current viewport width.
func (m *ConsoleUI) writeLogContent() {
	logWidth := m.logViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("CRAWL ENGINE") + "\n\n")
	content.WriteString("Type a command below. /help lists them all.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(logWidth-6, 1))) + "\n\n")

	for _, line := range m.log {
		wrapped := wordwrap.String(line.Message, max(logWidth-2, 10))
		content.WriteString(tagStyle(line.Tag).Render(wrapped) + "\n")
	}

	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func writeMetadata(c *dungeon.Crawl) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("RUN STATE") + "\n\n")

	content.WriteString("Run ID:\n")
	content.WriteString(c.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Floor: %d\n", c.Floor))
	content.WriteString(fmt.Sprintf("HP: %d/%d\n", c.PlayerHP, c.PlayerMaxHP))
	content.WriteString(fmt.Sprintf("Gold: %d\n", c.Gold))
	content.WriteString(fmt.Sprintf("Fragments: %d/%d\n\n", c.Fragments, dungeon.FragmentsForBoss))

	if room := c.CurrentRoom(); room != nil {
		content.WriteString("Room:\n")
		content.WriteString(room.Name + "\n")
		exits := room.OpenExits()
		names := make([]string, len(exits))
		for i, d := range exits {
			names[i] = string(d)
		}
		content.WriteString("Exits: " + strings.Join(names, ", ") + "\n")
		if room.HasStairs {
			content.WriteString("Stairs down!\n")
		}
		content.WriteString("\n")
	}

	if c.Encounter != nil {
		content.WriteString(enemyStyle.Render("COMBAT") + "\n")
		content.WriteString(fmt.Sprintf("%s: %d/%d HP\n", c.Encounter.Enemy.Name, c.Encounter.Enemy.HP, c.Encounter.Enemy.MaxHP))
		content.WriteString(fmt.Sprintf("Rolls left: %d\n", c.Encounter.RollsLeft))
		content.WriteString("Dice: " + renderDice(c.Encounter.Dice, c.Encounter.Locks) + "\n\n")
	}

	if c.Pending != nil {
		content.WriteString(critStyle.Render("DECISION") + "\n")
		if c.Pending.Boss {
			content.WriteString("Spend 3 fragments? (yes/no)\n\n")
		} else {
			content.WriteString("Use the dungeon key? (yes/no)\n\n")
		}
	}

	if len(c.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		for _, item := range c.Inventory {
			content.WriteString("• " + item + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy run ID\n")

	return content.String()
}

func renderDice(dice []int, locks []bool) string {
	parts := make([]string, len(dice))
	for i, d := range dice {
		face := strconv.Itoa(d)
		if d == 0 {
			face = "-"
		}
		if i < len(locks) && locks[i] {
			parts[i] = lockedDieStyle.Render("[" + face + "]")
		} else {
			parts[i] = " " + face + " "
		}
	}
	return strings.Join(parts, " ")
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - logWidth - 6

		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(logWidth - 4)

		m.ready = true
		m.writeLogContent()
		m.metaViewport.SetContent(writeMetadata(m.state))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			action, ok := parseAction(input)
			if !ok {
				m.err = fmt.Errorf("unknown command %q, try /help", input)
				m.writeLogContent()
				m.textarea.Reset()
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.err = nil
			return m, m.sendAction(action)
		}

	case actionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.state = msg.resp.State
			m.log = append(m.log, msg.resp.Log...)
		}
		m.writeLogContent()
		m.metaViewport.SetContent(writeMetadata(m.state))
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// parseAction maps console input to an API action request.
func parseAction(input string) (handlers.ActionRequest, bool) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return handlers.ActionRequest{}, false
	}

	cmd := fields[0]
	if cmd == "go" && len(fields) > 1 {
		cmd = fields[1]
	}

	switch cmd {
	case "north", "n":
		return handlers.ActionRequest{Action: "move", Direction: "north"}, true
	case "east", "e":
		return handlers.ActionRequest{Action: "move", Direction: "east"}, true
	case "south", "s":
		return handlers.ActionRequest{Action: "move", Direction: "south"}, true
	case "west", "w":
		return handlers.ActionRequest{Action: "move", Direction: "west"}, true
	case "yes", "y":
		return handlers.ActionRequest{Action: "confirm", Accept: true}, true
	case "no":
		return handlers.ActionRequest{Action: "confirm", Accept: false}, true
	case "search":
		return handlers.ActionRequest{Action: "search"}, true
	case "descend", "down":
		return handlers.ActionRequest{Action: "descend"}, true
	case "roll":
		return handlers.ActionRequest{Action: "roll"}, true
	case "attack":
		return handlers.ActionRequest{Action: "attack"}, true
	case "flee":
		return handlers.ActionRequest{Action: "flee"}, true
	case "lock", "unlock":
		if len(fields) < 2 {
			return handlers.ActionRequest{}, false
		}
		die, err := strconv.Atoi(fields[1])
		if err != nil || die < 1 {
			return handlers.ActionRequest{}, false
		}
		// Dice are shown 1-based; the API is 0-based.
		return handlers.ActionRequest{Action: cmd, Die: die - 1}, true
	default:
		return handlers.ActionRequest{}, false
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• north/east/south/west (or n/e/s/w) - Move
• yes / no - Answer an entry decision
• search - Search the room for loot
• descend - Take the stairs down
• roll - Roll your unlocked dice
• lock N / unlock N - Hold a die between rolls
• attack - Commit your dice
• flee - Spend an escape token
• /copy - Copy run ID to clipboard
• Ctrl+C - Quit
`
		m.log = append(m.log, narrate.Line{Message: helpText, Tag: narrate.TagSystem})
		m.writeLogContent()

	case "/copy":
		if err := clipboard.WriteAll(m.state.ID.String()); err != nil {
			m.err = fmt.Errorf("clipboard unavailable: %w", err)
		} else {
			m.log = append(m.log, narrate.Line{Message: "Run ID copied to clipboard.", Tag: narrate.TagSystem})
		}
		m.writeLogContent()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendAction(action handlers.ActionRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendAction(m.client, m.config.APIBaseURL, m.state.ID, action)
		return actionMsg{resp, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Abandon Run?"))
	content.WriteString("\n\n")
	content.WriteString("Your run is saved server-side; resume it later by setting CRAWL_ID.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}
