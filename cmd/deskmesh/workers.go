package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/config"
	"github.com/deskmesh/deskmesh/worker"
	"github.com/deskmesh/deskmesh/workplace"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "Print the configured worker hierarchy",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := capability.NewRegistry()
		if err := workplace.Register(reg); err != nil {
			return err
		}

		var root *worker.Worker
		if configPath != "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if root, err = cfg.BuildTree(reg); err != nil {
				return err
			}
		} else {
			root = workplace.Team()
		}

		printWorker(cmd, root, 0, map[*worker.Worker]bool{})
		return nil
	},
}

func printWorker(cmd *cobra.Command, w *worker.Worker, depth int, seen map[*worker.Worker]bool) {
	indent := strings.Repeat("  ", depth)

	caps := make([]string, 0, len(w.Capabilities()))
	for _, b := range w.Capabilities() {
		caps = append(caps, b.Name())
	}
	suffix := ""
	if len(caps) > 0 {
		suffix = " [" + strings.Join(caps, ", ") + "]"
	}
	if seen[w] {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s (see above)\n", indent, w.Name())
		return
	}
	seen[w] = true

	fmt.Fprintf(cmd.OutOrStdout(), "%s%s%s: %s\n", indent, w.Name(), suffix, w.Description())
	for _, c := range w.Children() {
		printWorker(cmd, c, depth+1, seen)
	}
}
