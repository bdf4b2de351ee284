package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jni-bind/binding"
	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/errors"
	"github.com/wippyai/jni-bind/ffi"
	"github.com/wippyai/jni-bind/internal/literal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	memberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectMember modelState = iota
	stateInputArgs
	stateShowResult
)

// interactiveModel browses the declared classes and calls their members.
// Constructing an object makes it the receiver for instance members.
type interactiveModel struct {
	err      error
	sess     *session
	open     func() (*session, error)
	file     *decl.File
	filename string
	result   string
	members  []member
	input    textinput.Model
	recv     *binding.GlobalObject
	recvType *decl.Class
	selected int
	state    modelState
}

func newInteractiveModel(filename string, f *decl.File, open func() (*session, error)) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		file:     f,
		open:     open,
		state:    stateSelectMember,
	}
}

type loadedMsg struct {
	err  error
	sess *session
}

type callResultMsg struct {
	err     error
	result  string
	created *binding.GlobalObject
	class   *decl.Class
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	sess, err := m.open()
	return loadedMsg{sess: sess, err: err}
}

// refresh rebuilds the member list: constructors and statics of every
// class, then instance members of the current receiver.
func (m *interactiveModel) refresh() {
	m.members = m.members[:0]
	for _, c := range m.file.Classes {
		for _, mem := range declaredMembers(c) {
			if !mem.needsReceiver() {
				m.members = append(m.members, mem)
			}
		}
	}
	if m.recvType != nil {
		m.members = append(m.members, instanceMembers(m.recvType)...)
	}
	if m.selected >= len(m.members) {
		m.selected = 0
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			m.shutdown()
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectMember && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectMember && m.selected < len(m.members)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectMember:
				if len(m.members) == 0 {
					return m, nil
				}
				mem := m.members[m.selected]
				if len(mem.params) == 0 && !mem.isField() {
					return m, m.callMember(mem, nil)
				}
				m.prepareInput(mem)
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				args, err := literal.ParseList(m.input.Value())
				if err != nil {
					return m, func() tea.Msg { return callResultMsg{err: err} }
				}
				return m, m.callMember(m.members[m.selected], args)

			case stateShowResult:
				m.state = stateSelectMember
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectMember
			case stateShowResult:
				m.state = stateSelectMember
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.refresh()

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		if msg.created != nil {
			m.closeReceiver()
			m.recv, m.recvType = msg.created, msg.class
			m.refresh()
		}
	}

	if m.state == stateInputArgs {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) prepareInput(mem member) {
	ti := textinput.New()
	ti.Prompt = "args: "
	ti.Placeholder = mem.paramList()
	if mem.isField() {
		ti.Placeholder = "empty to read, a value to write"
	}
	ti.Width = 60
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) callMember(mem member, args []any) tea.Cmd {
	sess, recv := m.sess, m.recv
	return func() tea.Msg {
		if sess == nil {
			return callResultMsg{err: errors.NotInitialized(errors.PhaseRuntime, "runtime")}
		}
		out, created, err := sess.call(mem, recv, args)
		return callResultMsg{result: out, err: err, created: created, class: mem.class}
	}
}

func (m *interactiveModel) closeReceiver() {
	if m.recv == nil || m.sess == nil {
		return
	}
	recv := m.recv
	_ = m.sess.rt.Do(func(env ffi.Env) error { return recv.CloseIn(env) })
	m.recv, m.recvType = nil, nil
}

func (m *interactiveModel) shutdown() {
	m.closeReceiver()
	if m.sess != nil {
		_ = m.sess.close()
		m.sess = nil
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.sess == nil {
		return "Starting runtime..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("JNI Bind"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	if m.recvType != nil {
		b.WriteString(helpStyle.Render("receiver: "))
		b.WriteString(typeStyle.Render(className(m.recvType.Name)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.state {
	case stateSelectMember:
		b.WriteString("Select a member:\n\n")
		for i, mem := range m.members {
			line := m.formatMember(mem)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + mem.owner() + mem.describe()))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		mem := m.members[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", memberStyle.Render(mem.describe())))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("comma-separated literals: 1, 2.5f, 3L, 'c', \"s\", null, [1, 2]"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateShowResult:
		if len(m.members) > 0 {
			mem := m.members[m.selected]
			b.WriteString(fmt.Sprintf("Result of %s:\n\n", memberStyle.Render(mem.label())))
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatMember(mem member) string {
	var b strings.Builder
	b.WriteString(helpStyle.Render(mem.owner()))
	if mem.static() {
		b.WriteString("static ")
	}
	if mem.kind != kindConstructor {
		b.WriteString(typeStyle.Render(javaName(mem.result)))
		b.WriteString(" ")
	}
	b.WriteString(memberStyle.Render(mem.label()))
	if !mem.isField() {
		b.WriteString("(" + typeStyle.Render(mem.paramList()) + ")")
	}
	return b.String()
}

func runInteractive(filename string, f *decl.File, open func() (*session, error)) error {
	p := tea.NewProgram(newInteractiveModel(filename, f, open), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
