package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/loader"
)

// lister prints declarations. Colour follows the writer's terminal, and
// lines are cut to its width.
type lister struct {
	w     io.Writer
	width int

	class  lipgloss.Style
	kind   lipgloss.Style
	member lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	bad    lipgloss.Style
}

func newLister(w io.Writer) *lister {
	r := lipgloss.NewRenderer(w)
	l := &lister{
		w:      w,
		class:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		kind:   r.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		member: r.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#666666")),
		ok:     r.NewStyle().Foreground(lipgloss.Color("#90EE90")),
		bad:    r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			l.width = width
		}
	}
	return l
}

func (l *lister) line(s string) {
	if l.width > 0 {
		s = lipgloss.NewStyle().MaxWidth(l.width).Render(s)
	}
	fmt.Fprintln(l.w, s)
}

// list prints every class of f with its declared members.
func (l *lister) list(f *decl.File, loaders *loader.Runtime) {
	for i, c := range f.Classes {
		if i > 0 {
			fmt.Fprintln(l.w)
		}
		head := l.class.Render("class " + className(c.Name))
		if c.Parent != nil {
			head += l.dim.Render(" extends ") + className(c.Parent.Name)
		}
		if loaders != nil {
			if ld := loaders.LoaderFor(c); ld.Kind() == loader.KindCustom {
				head += l.dim.Render(" [loader " + ld.Name() + "]")
			}
		}
		l.line(head)

		for _, m := range declaredMembers(c) {
			l.line("  " + l.formatMember(m))
		}
	}
	if len(f.Loaders) > 0 {
		fmt.Fprintln(l.w)
		for _, s := range f.Loaders {
			parent := s.Parent
			if parent == "" {
				parent = "none"
			}
			l.line(l.kind.Render("loader ") + s.Name + l.dim.Render(" parent "+parent+": ") +
				strings.Join(s.Classes, ", "))
		}
	}
}

func (l *lister) formatMember(m member) string {
	var b strings.Builder
	if m.static() {
		b.WriteString(l.dim.Render("static "))
	}
	if m.kind != kindConstructor {
		b.WriteString(l.kind.Render(javaName(m.result)))
		b.WriteByte(' ')
	}
	b.WriteString(l.member.Render(m.label()))
	if !m.isField() {
		b.WriteString("(" + l.kind.Render(m.paramList()) + ")")
	}
	return b.String()
}

// verified prints the outcome of verifying one class.
func (l *lister) verified(class string, err error) {
	name := className(class)
	if err == nil {
		l.line(l.ok.Render("ok      ") + name)
		return
	}
	l.line(l.bad.Render("missing ") + name)
	for _, msg := range strings.Split(strings.TrimSpace(err.Error()), "\n") {
		l.line("  " + l.dim.Render(strings.TrimSpace(msg)))
	}
}
