package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/amirbrooks/todonow/internal/tag"
	"github.com/amirbrooks/todonow/internal/todo"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

type todoView struct {
	Line  int      `json:"line"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
	Score *int     `json:"score,omitempty"`
}

func viewOf(t *todo.Todo) todoView {
	tags := t.Tags()
	names := make([]string, len(tags))
	for i, tg := range tags {
		names[i] = tg.String()
	}
	return todoView{Line: t.Index() + 1, Text: strings.TrimSpace(t.Text()), Tags: names}
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
}

// say prints a confirmation unless --quiet is set.
func (a *app) say(format string, args ...any) {
	if a.gf.Quiet {
		return
	}
	fmt.Fprintf(a.stdout, format+"\n", args...)
}

// printTodo writes the todo line, or its JSON view under key.
func (a *app) printTodo(key string, t *todo.Todo) error {
	if a.gf.JSON {
		return writeJSON(a.stdout, map[string]any{key: viewOf(t)})
	}
	if a.gf.Plain {
		fmt.Fprintf(a.stdout, "%d\t%s\n", t.Index()+1, strings.TrimSpace(t.Text()))
		return nil
	}
	fmt.Fprintln(a.stdout, highlight(strings.TrimSpace(t.Text())))
	return nil
}

// highlight colors tags inside a todo line.
func highlight(line string) string {
	if color.NoColor {
		return line
	}
	matches := tag.FindAll(line)
	if len(matches) == 0 {
		return line
	}
	var b strings.Builder
	prev := 0
	for _, m := range matches {
		b.WriteString(line[prev:m.Span.Start])
		word := line[m.Span.Start:m.Span.End]
		if m.Tag.IsProject() {
			b.WriteString(yellow(word))
		} else {
			b.WriteString(cyan(word))
		}
		prev = m.Span.End
	}
	b.WriteString(line[prev:])
	return b.String()
}

func (a *app) printTags(names []string) error {
	if a.gf.JSON {
		if names == nil {
			names = []string{}
		}
		return writeJSON(a.stdout, map[string]any{"tags": names})
	}
	for _, n := range names {
		fmt.Fprintln(a.stdout, n)
	}
	return nil
}
