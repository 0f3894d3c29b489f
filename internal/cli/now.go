package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/todonow/internal/orders"
	"github.com/amirbrooks/todonow/internal/todo"
)

func (a *app) nowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Tell me what to do right now",
		Long: `Refresh the automatic contexts, then ask every order source (bedtime,
the todo list) what to do. The highest priority order wins; the order
announced last time wins over anything of equal priority.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, tags, err := a.refreshContexts()
			if err != nil {
				return err
			}
			runner := &orders.Runner{
				History: a.settings(),
				Logger:  a.logger,
				Sources: []orders.Source{
					orders.Bedtime(a.cfg.Orders.BedtimeStart, a.cfg.Orders.BedtimeEnd, a.now),
					orders.TodoList(a.openList, tags),
				},
			}
			o, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"order": o, "contexts": tags})
			}
			line := orders.Announce(o, a.now())
			if a.gf.Plain {
				fmt.Fprintln(a.stdout, line)
				return nil
			}
			stamp, desc, _ := strings.Cut(line, " ")
			fmt.Fprintf(a.stdout, "%s %s\n", green(stamp), bold(highlight(desc)))
			return nil
		},
	}
}

func (a *app) topCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the current todo, choosing one if none is current",
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
			top, err := list.TopTodo(tags)
			if err != nil {
				return err
			}
			return a.printTodo("todo", top)
		},
	}
}

func (a *app) splitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <text>",
		Short: "Put the current todo aside and start on a smaller piece of it",
		Long: `Insert <text> below the current todo as a new todo carrying the same tags,
and make it current. The original todo is ignored for orders.split_delay,
or orders.split_urgent_delay when it is @URGENT.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := joinArgs(args)
			if text == "" {
				return usagef("split: text is required")
			}
			delay, err := a.cfg.SplitDelay()
			if err != nil {
				return err
			}
			urgent, err := a.cfg.SplitUrgentDelay()
			if err != nil {
				return err
			}
			tags, err := a.storedContexts()
			if err != nil {
				return err
			}
			list, err := a.openList()
			if err != nil {
				return err
			}
			cur, err := list.SplitCurrent(tags, text, delay, urgent)
			if err != nil {
				return err
			}
			if cur == nil {
				return todo.ErrNoCurrentTodo
			}
			if !a.gf.JSON && !a.gf.Plain {
				a.say("%s Split, now working on:", green("✓"))
			}
			return a.printTodo("todo", cur)
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done",
		Short: "Mark the current todo done",
		Long: `Mark the current todo done. A todo with @REPEAT is rescheduled with
@IGNOREUNTIL; anything else moves to the log at the end of the file.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.openList()
			if err != nil {
				return err
			}
			cur, err := list.Current()
			if err != nil {
				return err
			}
			if cur == nil {
				return todo.ErrNoCurrentTodo
			}
			text := strings.TrimSpace(cur.Text())
			if err := list.MarkCurrentDone(); err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"done": text})
			}
			a.say("%s Done %s", green("✓"), text)
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo to the ,INBOX section",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := joinArgs(args)
			if text == "" {
				return usagef("add: text is required")
			}
			list, err := a.openList()
			if err != nil {
				return err
			}
			ok, err := list.AddNewTodo(text)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: no ,INBOX section in %s", todo.ErrMalformedDocument, a.cfg.TodoFile)
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"added": text})
			}
			a.say("%s Added %s", green("✓"), text)
			return nil
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments", cmd.Name())
	}
	return nil
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usagef("Usage: todonow %s", cmd.Use)
		}
		return nil
	}
}
