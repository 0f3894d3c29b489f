package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/todonow/internal/contexts"
	"github.com/amirbrooks/todonow/internal/store"
	"github.com/amirbrooks/todonow/internal/tag"
)

func (a *app) contextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context [tags...]",
		Short: "Show or replace the stored contexts",
		Long: `With no arguments, print the stored contexts. Otherwise replace them.
Names without a sigil become contexts: "home" is stored as @HOME.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				tags, err := a.storedContexts()
				if err != nil {
					return err
				}
				return a.printTags(tags)
			}
			tags := make([]string, 0, len(args))
			for _, arg := range args {
				for _, name := range strings.Split(arg, ",") {
					if n := contexts.Normalize(name); n != "" {
						tags = append(tags, n)
					}
				}
			}
			if err := a.settings().SetContexts(tags); err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"contexts": tags})
			}
			a.say("Changing contexts to: %s", strings.Join(tags, " "))
			return nil
		},
	}
}

func (a *app) autocontextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autocontext",
		Short: "Refresh the automatic context tags (time, day, location)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			before, after, err := a.refreshContexts()
			if err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"before": nonNil(before), "contexts": after})
			}
			a.say("Changing contexts from %s to %s", strings.Join(before, " "), strings.Join(after, " "))
			return nil
		},
	}
}

func (a *app) listTagsCmd(use, short string, sigil byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.openList()
			if err != nil {
				return err
			}
			names, err := list.TagNames()
			if err != nil {
				return err
			}
			return a.printTags(tag.FilterBySigil(names, sigil))
		},
	}
}

func (a *app) randomProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "randomproject",
		Short: "Keep the current contexts and focus on one random project",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			before, err := a.storedContexts()
			if err != nil {
				return err
			}
			list, err := a.openList()
			if err != nil {
				return err
			}
			names, err := list.TagNames()
			if err != nil {
				return err
			}
			projects := tag.FilterBySigil(names, tag.SigilProject)
			if len(projects) == 0 {
				return fmt.Errorf("%w: no project tags in %s", store.ErrNotFound, a.cfg.TodoFile)
			}
			after := contexts.RandomProject(before, projects, a.rnd.IntN)
			if err := a.settings().SetContexts(after); err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"before": nonNil(before), "contexts": after})
			}
			a.say("Tags changed from %s to %s", strings.Join(before, " "), strings.Join(after, " "))
			return nil
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
