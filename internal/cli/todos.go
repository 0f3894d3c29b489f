package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/todonow/internal/tag"
)

func (a *app) todosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "todos",
		Short: "List every todo with its score against the stored contexts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tags, err := a.storedContexts()
			if err != nil {
				return err
			}
			list, err := a.openList()
			if err != nil {
				return err
			}
			todos, err := list.Todos()
			if err != nil {
				return err
			}
			targets := tag.NewSet(tags...)

			if a.gf.JSON {
				views := make([]todoView, 0, len(todos))
				for _, t := range todos {
					v := viewOf(t)
					score := t.Score(targets)
					v.Score = &score
					views = append(views, v)
				}
				return writeJSON(a.stdout, map[string]any{"todos": views, "total": len(views)})
			}
			if a.gf.Plain {
				w := newTable(a.stdout)
				fmt.Fprintln(w, "LINE\tSCORE\tTODO")
				for _, t := range todos {
					fmt.Fprintf(w, "%d\t%d\t%s\n", t.Index()+1, t.Score(targets), strings.TrimSpace(t.Text()))
				}
				return w.Flush()
			}
			for _, t := range todos {
				fmt.Fprintf(a.stdout, "%s %d\n", highlight(strings.TrimSpace(t.Text())), t.Score(targets))
			}
			fmt.Fprintf(a.stdout, "\nTodos Total: %d\n", len(todos))
			return nil
		},
	}
}
