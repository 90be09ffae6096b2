package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/engine"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "Choose by number, or type an action..."
)

var titleCaser = cases.Title(language.English)

type historyKind int

const (
	historyNarrator historyKind = iota
	historyPlayer
	historySystem
)

type historyEntry struct {
	kind historyKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	session      *SessionResponse
	lastResult   *engine.TurnResult
	questID      string
	history      []historyEntry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Quest selection state
	showQuestModal bool
	quests         []QuestSummary
	selectedQuest  int
	loadingQuests  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResultMsg struct {
	result *engine.TurnResult
	err    error
}

type sessionMsg struct {
	session *SessionResponse
	err     error
}

type questsLoadedMsg struct {
	quests []QuestSummary
	err    error
}

type sessionCreatedMsg struct {
	session *SessionResponse
	err     error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
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

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")) // pale yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // warm red
			Bold(true)

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

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		ready:          false,
		showQuestModal: true,
		loadingQuests:  true,
		selectedQuest:  0,
	}
}

// writeChatContent rebuilds the chat viewport from the turn history for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("SAGA ENGINE") + "\n\n")
	content.WriteString("Choose from the offered options, or strike out on your own.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	for _, entry := range m.history {
		switch entry.kind {
		case historyNarrator:
			prefix := narratorStyle.Render(AgentName + ": ")
			content.WriteString(prefix + wordwrap.String(entry.text, max(chatWidth-len(AgentName)-2, 20)) + "\n\n")
		case historyPlayer:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.text, max(chatWidth-6, 20)) + "\n\n")
		case historySystem:
			content.WriteString(wordwrap.String(entry.text, max(chatWidth-2, 20)) + "\n\n")
		}
	}

	if m.lastResult != nil && len(m.lastResult.Choices) > 0 && !m.loading {
		for i, choice := range m.lastResult.Choices {
			content.WriteString(choiceStyle.Render(fmt.Sprintf("  %d. %s", i+1, choiceLabel(choice))) + "\n")
		}
		content.WriteString("\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// choiceLabel prettifies combat action identifiers for display.
func choiceLabel(choice string) string {
	if strings.Contains(choice, "_") || strings.ToLower(choice) == choice && !strings.Contains(choice, " ") {
		return titleCaser.String(strings.ReplaceAll(choice, "_", " "))
	}
	return choice
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	if m.session != nil && m.session.Player != nil {
		p := m.session.Player
		content.WriteString(p.Name + "\n")
		content.WriteString(p.ID.String()[:8] + "...\n\n")

		content.WriteString(fmt.Sprintf("Health: %d/%d\n", p.Health, p.MaxHealth))
		content.WriteString(fmt.Sprintf("Mana:   %d/%d\n", p.Mana, p.MaxMana))
		if p.CurrentLocation != "" {
			content.WriteString("At: " + p.CurrentLocation + "\n")
		}
		content.WriteString("\n")

		if len(p.Stats) > 0 {
			content.WriteString("Stats:\n")
			for k, v := range p.Stats {
				content.WriteString(fmt.Sprintf("• %s: %d\n", k, v))
			}
			content.WriteString("\n")
		}
	}

	if m.lastResult != nil {
		content.WriteString("Quest:\n")
		content.WriteString("• " + m.questID + "\n")
		content.WriteString(fmt.Sprintf("• Turn %d\n", m.lastResult.TurnNumber))
		if m.lastResult.CurrentAct != "" {
			content.WriteString("• " + titleCaser.String(m.lastResult.CurrentAct) + "\n")
		}
		content.WriteString("\n")

		if enc := m.lastResult.CombatState; enc != nil && m.lastResult.CombatOutcome == "" {
			content.WriteString(combatStyle.Render("COMBAT") + "\n")
			content.WriteString(fmt.Sprintf("You: %d/%d HP\n", enc.PlayerHealth, enc.PlayerMaxHealth))
			content.WriteString(fmt.Sprintf("AP %d  Stamina %d\n", enc.ActionPoints, enc.Stamina))
			for i, enemy := range enc.Enemies {
				if enemy.Health <= 0 {
					content.WriteString(fmt.Sprintf("%d. %s (down)\n", i+1, enemy.Name))
				} else if enemy.Fled {
					content.WriteString(fmt.Sprintf("%d. %s (fled)\n", i+1, enemy.Name))
				} else {
					content.WriteString(fmt.Sprintf("%d. %s %d HP\n", i+1, enemy.Name, enemy.Health))
				}
			}
			content.WriteString("\n")
		}
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")

	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showQuestModal {
		return m.loadQuests()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuestModal {
		return m.updateQuestModal(msg)
	}
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
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

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

			req, echo := m.buildTurnRequest(input)

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.history = append(m.history, historyEntry{kind: historyPlayer, text: echo})
			m.writeChatContent()

			return m, tea.Batch(m.submitTurn(req), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.history = append(m.history, historyEntry{
				kind: historySystem,
				text: errorStyle.Render("Error: " + msg.err.Error()),
			})
		} else {
			m.lastResult = msg.result
			m.history = append(m.history, historyEntry{kind: historyNarrator, text: msg.result.NarrativeText})
			if msg.result.QuestCompleted {
				m.history = append(m.history, historyEntry{
					kind: historySystem,
					text: titleStyle.Render("The quest is complete. Press Ctrl+C to leave the table."),
				})
			}
		}
		m.writeChatContent()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.session != nil {
			m.session = msg.session
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// buildTurnRequest maps console input onto a turn request. A leading number
// selects one of the offered choices; during combat a trailing number picks
// the enemy or feature the action applies to.
func (m *ConsoleUI) buildTurnRequest(input string) (engine.TurnRequest, string) {
	req := engine.TurnRequest{QuestID: m.questID, ChoiceIndex: -1}

	choices := []string{}
	if m.lastResult != nil {
		choices = m.lastResult.Choices
	}
	inCombat := m.lastResult != nil && m.lastResult.CombatState != nil && m.lastResult.CombatOutcome == ""

	fields := strings.Fields(input)
	selected := input
	if n, err := strconv.Atoi(fields[0]); err == nil && n >= 1 && n <= len(choices) {
		selected = choices[n-1]
		if !inCombat {
			req.ChoiceIndex = n - 1
		}
		fields = append([]string{selected}, fields[1:]...)
	}

	if inCombat {
		req.Action = combat.Action(strings.ToLower(strings.ReplaceAll(fields[0], " ", "_")))
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && n >= 1 {
				req.TargetIndex = n - 1
				req.FeatureIndex = n - 1
			}
		}
		return req, choiceLabel(string(req.Action))
	}

	req.ChoiceText = selected
	return req, selected
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
How to play:
• Pick a numbered choice, or type your own action
• In combat: attack 2 targets the second enemy
• use environment 1 works the first feature
• /help - Show this help
• Ctrl+C - Quit
`
		m.history = append(m.history, historyEntry{
			kind: historySystem,
			text: titleStyle.Render("Help:") + helpText,
		})
		m.writeChatContent()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) submitTurn(req engine.TurnRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := sendTurn(m.client, m.config.APIBaseURL, m.session.Player.ID, req)
		return turnResultMsg{result, err}
	}
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	return func() tea.Msg {
		session, err := getSession(m.client, m.config.APIBaseURL, m.session.Player.ID)
		return sessionMsg{session, err}
	}
}

func (m ConsoleUI) loadQuests() tea.Cmd {
	return func() tea.Msg {
		quests, err := listQuests(m.client, m.config.APIBaseURL)
		return questsLoadedMsg{quests, err}
	}
}

func (m ConsoleUI) startSession(questID string) tea.Cmd {
	return func() tea.Msg {
		session, err := createSession(m.client, m.config.APIBaseURL, CreateSessionRequest{
			PlayerName: m.config.PlayerName,
			Location:   m.config.Location,
			QuestID:    questID,
		})
		return sessionCreatedMsg{session, err}
	}
}

func (m ConsoleUI) updateQuestModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case questsLoadedMsg:
		m.loadingQuests = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.quests = msg.quests
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.lastResult = msg.session.Result
			m.questID = m.quests[m.selectedQuest].ID
			if msg.session.Result != nil {
				m.history = append(m.history, historyEntry{kind: historyNarrator, text: msg.session.Result.NarrativeText})
			}
			m.showQuestModal = false
			if m.width > 0 && m.height > 0 {
				m.resizePanels()
			}
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingQuests {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedQuest > 0 {
				m.selectedQuest--
			}
		case tea.KeyDown:
			if m.selectedQuest < len(m.quests)-1 {
				m.selectedQuest++
			}
		case tea.KeyEnter:
			if len(m.quests) > 0 {
				m.loading = true
				return m, m.startSession(m.quests[m.selectedQuest].ID)
			}
		}
	}

	return m, nil
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
				if m.showQuestModal {
					return m, nil
				}
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
	content.WriteString(modalTitleStyle.Render("Leave the Saga?"))
	content.WriteString("\n\n")
	content.WriteString("Your session is saved; you can rejoin it later.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep playing"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuestModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingQuests {
		content.WriteString(modalTitleStyle.Render("Loading Quests..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching the available sagas..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load quests: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Starting Quest..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Laying out the board..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Quest"))
		content.WriteString("\n\n")

		for i, q := range m.quests {
			label := fmt.Sprintf("%s (%d turns)", q.Title, q.TotalTurns)
			if i == m.selectedQuest {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + label))
			} else {
				content.WriteString(modalItemStyle.Render("  " + label))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuestModal {
		return m.renderQuestModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 10))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
