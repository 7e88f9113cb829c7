package popup

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	mu      sync.Mutex
	current *Model
)

// Open shows the favorites panel, creating it on first use and reusing the
// same instance afterwards so paging position survives across opens. The call
// blocks until the user closes the panel.
func Open(deps Deps) error {
	mu.Lock()
	if current == nil {
		m := NewModel(deps)
		current = &m
	} else {
		current.deps = deps
		current.quitting = false
		current.status = ""
		current.mode = modeList
		current.reload()
	}
	model := *current
	mu.Unlock()

	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return err
	}

	mu.Lock()
	if m, ok := final.(Model); ok {
		current = &m
	}
	mu.Unlock()
	return nil
}
