package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/todonow/internal/store"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the current todo whenever the outline changes",
		Long: `Watch the outline file and print the current todo each time it is
written. The file is only read, so editors and other todonow commands can
keep working on it. Stop with Ctrl-C.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.showCurrent()
			return store.Watch(cmd.Context(), a.cfg.TodoFile, a.showCurrent)
		},
	}
}

// showCurrent reports problems instead of failing so watching goes on.
func (a *app) showCurrent() {
	list, err := a.openList()
	if err != nil {
		a.logger.Warn("reading outline", "err", err)
		return
	}
	cur, err := list.Current()
	if err != nil {
		a.logger.Warn("finding current todo", "err", err)
		return
	}
	if cur == nil {
		if a.gf.JSON {
			_ = writeJSON(a.stdout, map[string]any{"todo": nil})
			return
		}
		fmt.Fprintln(a.stdout, yellow("No current todo"))
		return
	}
	_ = a.printTodo("todo", cur)
}
