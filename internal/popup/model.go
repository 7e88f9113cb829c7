package popup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/starkeep/starkeep/internal/favorites"
	"github.com/starkeep/starkeep/internal/types"
)

type mode int

const (
	modeList mode = iota
	modeConfirmDelete
	modeEditNote
	modeConfirmClean
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	starStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	senderStyle = lipgloss.NewStyle().Bold(true)
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	noteStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	deadStyle   = lipgloss.NewStyle().Faint(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Deps wires the panel to the rest of the engine.
type Deps struct {
	Store *favorites.Store
	// Messages returns the source chat's current log, for rendering bodies.
	Messages func() []types.Message
	// ChatName labels the panel header.
	ChatName string
	// OnPreview triggers a preview run when the user asks for one.
	OnPreview func()
	// ItemsPerPage is the page size.
	ItemsPerPage int
}

// Model is the favorites panel. It lists the active chat's favorites five to
// a page, and hosts the delete, note-edit, and clean flows.
type Model struct {
	deps   Deps
	mode   mode
	pager  paginator.Model
	note   textinput.Model
	items  []types.FavoriteRecord
	cursor int
	// pendingID is the favorite the confirm or edit flow is acting on.
	pendingID string
	status    string
	quitting  bool
}

// NewModel creates the panel.
func NewModel(deps Deps) Model {
	if deps.ItemsPerPage <= 0 {
		deps.ItemsPerPage = 5
	}

	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.PerPage = deps.ItemsPerPage

	note := textinput.New()
	note.Placeholder = "note"
	note.CharLimit = 200

	m := Model{deps: deps, pager: pager, note: note}
	m.reload()
	return m
}

// reload re-derives the sorted item list from the store and clamps paging.
func (m *Model) reload() {
	m.items = m.deps.Store.List()
	m.pager.SetTotalPages(len(m.items))
	if m.pager.Page >= m.pager.TotalPages {
		m.pager.Page = m.pager.TotalPages - 1
	}
	if m.pager.Page < 0 {
		m.pager.Page = 0
	}
	start, end := m.pager.GetSliceBounds(len(m.items))
	if m.cursor >= end-start {
		m.cursor = end - start - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selected returns the record under the cursor, or nil on an empty page.
func (m *Model) selected() *types.FavoriteRecord {
	start, end := m.pager.GetSliceBounds(len(m.items))
	idx := start + m.cursor
	if idx >= end || idx >= len(m.items) {
		return nil
	}
	return &m.items[idx]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeEditNote:
		return m.updateEditNote(msg)
	case modeConfirmDelete:
		return m.updateConfirmDelete(msg)
	case modeConfirmClean:
		return m.updateConfirmClean(msg)
	}
	return m.updateList(msg)
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		start, end := m.pager.GetSliceBounds(len(m.items))
		if m.cursor < end-start-1 {
			m.cursor++
		}
	case "left", "h":
		m.pager.PrevPage()
		m.cursor = 0
	case "right", "l":
		m.pager.NextPage()
		m.cursor = 0
	case "d", "x":
		if rec := m.selected(); rec != nil {
			m.pendingID = rec.ID
			m.mode = modeConfirmDelete
		}
	case "n", "e":
		if rec := m.selected(); rec != nil {
			m.pendingID = rec.ID
			m.note.SetValue(rec.Note)
			m.mode = modeEditNote
			return m, m.note.Focus()
		}
	case "c":
		if m.invalidCount() > 0 {
			m.mode = modeConfirmClean
		} else {
			m.status = "no broken favorites"
		}
	case "p":
		if m.deps.OnPreview != nil && len(m.items) > 0 {
			m.deps.OnPreview()
			m.status = "preview requested"
		}
	}
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "enter":
		if m.deps.Store.RemoveByID(m.pendingID) {
			m.status = "favorite removed"
		}
		m.pendingID = ""
		m.mode = modeList
		m.reload()
	case "n", "esc":
		m.pendingID = ""
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateEditNote(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			if m.deps.Store.UpdateNote(m.pendingID, m.note.Value()) {
				m.status = "note saved"
			}
			m.pendingID = ""
			m.note.Blur()
			m.mode = modeList
			m.reload()
			return m, nil
		case "esc":
			m.pendingID = ""
			m.note.Blur()
			m.mode = modeList
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmClean(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "enter":
		log := m.deps.Messages()
		removed := m.deps.Store.ClearInvalid(func(rec types.FavoriteRecord) bool {
			_, ok := favorites.Resolve(rec.MessageRef, log)
			return !ok
		})
		m.status = fmt.Sprintf("removed %d broken favorite(s)", removed)
		m.mode = modeList
		m.reload()
	case "n", "esc":
		m.mode = modeList
	}
	return m, nil
}

// invalidCount counts favorites whose refs no longer resolve.
func (m *Model) invalidCount() int {
	log := m.deps.Messages()
	count := 0
	for _, rec := range m.items {
		if _, ok := favorites.Resolve(rec.MessageRef, log); !ok {
			count++
		}
	}
	return count
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Favorites — %s (%d)", m.deps.ChatName, len(m.items))))
	b.WriteString("\n\n")

	switch m.mode {
	case modeConfirmDelete:
		b.WriteString("Remove this favorite? (y/n)\n")
	case modeConfirmClean:
		b.WriteString(fmt.Sprintf("Remove %d favorite(s) pointing at deleted messages? (y/n)\n", m.invalidCount()))
	case modeEditNote:
		b.WriteString("Note (enter to save, esc to cancel):\n")
		b.WriteString(m.note.View())
		b.WriteString("\n")
	default:
		m.renderList(&b)
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select · ←/→ page · d delete · n note · c clean · p preview · q close"))
	return b.String()
}

func (m Model) renderList(b *strings.Builder) {
	if len(m.items) == 0 {
		b.WriteString(deadStyle.Render("No favorites yet."))
		b.WriteString("\n")
		return
	}

	log := m.deps.Messages()
	start, end := m.pager.GetSliceBounds(len(m.items))
	for i, rec := range m.items[start:end] {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix)
		b.WriteString(renderRecord(rec, log))
		b.WriteString("\n")
	}
	if m.pager.TotalPages > 1 {
		b.WriteString("\n")
		b.WriteString(m.pager.View())
		b.WriteString("\n")
	}
}

// renderRecord formats one favorite. A record whose ref no longer resolves
// renders a placeholder body so the entry stays visible and deletable.
func renderRecord(rec types.FavoriteRecord, log []types.Message) string {
	msg, ok := favorites.Resolve(rec.MessageRef, log)

	name := senderStyle
	if ok && msg.IsUser() {
		name = userStyle
	}

	var b strings.Builder
	b.WriteString(starStyle.Render("★"))
	b.WriteString(" ")
	b.WriteString(name.Render(rec.Sender))
	b.WriteString(fmt.Sprintf(" #%s ", rec.MessageRef))

	if ok {
		b.WriteString(excerpt(msg.Body, 60))
	} else {
		b.WriteString(deadStyle.Render("[message unavailable]"))
	}
	if rec.Note != "" {
		b.WriteString("  ")
		b.WriteString(noteStyle.Render("(" + rec.Note + ")"))
	}
	return b.String()
}

func excerpt(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
