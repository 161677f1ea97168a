package debug

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/xraph/crucible"
)

// ColorMode controls whether Tree colors its output.
type ColorMode int

const (
	// ColorAuto colors the output only when stdout is a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways colors unconditionally.
	ColorAlways
	// ColorNever leaves the output plain.
	ColorNever
)

func (m ColorMode) enabled() bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

var (
	warnColor   = color.New(color.FgRed, color.Bold).SprintFunc()
	markerColor = color.New(color.FgCyan).SprintFunc()
)

const legend = "\nSingletons have no scope markers.\n" +
	"<∅> = no scope (new instance each time)\n" +
	"<name> = custom scope\n"

type treeOptions struct {
	depth int
	color ColorMode
}

// Option adjusts how Tree builds and renders.
type Option func(*treeOptions)

// WithDepth limits the tree to the given depth, the origin counting as
// zero. Negative means unlimited.
func WithDepth(depth int) Option {
	return func(o *treeOptions) {
		o.depth = depth
	}
}

// WithColor overrides the terminal auto-detection.
func WithColor(mode ColorMode) Option {
	return func(o *treeOptions) {
		o.color = mode
	}
}

// Tree builds origin's dependency tree on c and renders it with scope
// markers and a legend. An origin that is neither a dependency nor an
// injected callable yields a single explanatory line.
func Tree(c *crucible.Container, origin any, opts ...Option) string {
	o := treeOptions{depth: -1, color: ColorAuto}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	root := Build(c, origin, o.depth)
	if root.Kind == KindOrigin && len(root.Children) == 0 {
		return crucible.Describe(origin) + " is neither a dependency nor is anything injected."
	}
	return renderer{colored: o.color.enabled()}.render(root)
}

// Render writes a built tree as plain text.
func Render(root *Node) string {
	return renderer{}.render(root)
}

type renderer struct {
	colored bool
}

func (r renderer) render(root *Node) string {
	var b strings.Builder
	b.WriteString(r.marker(root.Scope, ""))
	b.WriteString(r.paint(root, root.Description))
	r.walk(&b, root, "")
	b.WriteString("\n")
	b.WriteString(legend)
	return b.String()
}

func (r renderer) walk(b *strings.Builder, node *Node, prefix string) {
	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector, childPrefix := "├──", prefix+"│   "
		if last {
			connector, childPrefix = "└──", prefix+"    "
		}
		first, rest, multiline := strings.Cut(child.Description, "\n")
		b.WriteString("\n")
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(r.marker(child.Scope, " "))
		b.WriteString(r.paint(child, first))
		if multiline {
			for _, line := range strings.Split(rest, "\n") {
				b.WriteString("\n")
				if strings.TrimSpace(line) != "" {
					b.WriteString(childPrefix)
				}
				b.WriteString(line)
			}
		}
		r.walk(b, child, childPrefix)
	}
}

// marker renders a node's scope. Unscoped nodes get the empty-set marker,
// named scopes their name; singletons and scope-free nodes collapse to
// empty, which is a single space in child position to keep columns aligned.
func (r renderer) marker(scope *crucible.Scope, empty string) string {
	var m string
	switch {
	case scope == nil:
		m = "<∅> "
	case scope == crucible.Singleton() || scope == crucible.Sentinel():
		return empty
	default:
		m = "<" + scope.Name() + "> "
	}
	if r.colored {
		return markerColor(m)
	}
	return m
}

func (r renderer) paint(node *Node, text string) string {
	if !r.colored {
		return text
	}
	switch node.Kind {
	case KindCycle, KindUnknown:
		return warnColor(text)
	default:
		return text
	}
}
