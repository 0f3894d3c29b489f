package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/todonow/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show the effective configuration and where each value came from",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{
					"config_path": cfg.File,
					"config":      cfg,
					"sources":     cfg.Sources,
				})
			}
			w := newTable(a.stdout)
			fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
			for _, row := range configRows(cfg) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", row[0], row[1], cfg.Sources[row[0]])
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if cfg.File != "" {
				fmt.Fprintf(a.stdout, "\nRead %s\n", cfg.File)
			}
			return nil
		},
	}
}

func configRows(cfg *config.Config) [][2]string {
	rows := [][2]string{
		{"todo_file", cfg.TodoFile},
		{"state_dir", cfg.StateDir},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
		{"contexts.home_wifi", strings.Join(cfg.Contexts.HomeWifi, ",")},
		{"contexts.work_wifi", strings.Join(cfg.Contexts.WorkWifi, ",")},
		{"contexts.wifi_command", cfg.Contexts.WifiCommand},
		{"orders.bedtime_start", fmt.Sprint(cfg.Orders.BedtimeStart)},
		{"orders.bedtime_end", fmt.Sprint(cfg.Orders.BedtimeEnd)},
		{"orders.split_delay", cfg.Orders.SplitDelay},
		{"orders.split_urgent_delay", cfg.Orders.SplitUrgentDelay},
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}
