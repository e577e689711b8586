package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/notabot/internal/config"
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/registry"
	"github.com/verte-zerg/notabot/internal/results"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the challenges in play order",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "catalog", &playCatalog, fileCfg.Game.Catalog)
	reg, _, err := openRegistry(model.GameConfig{CatalogPath: playCatalog})
	if err != nil {
		return err
	}
	headers := []string{"#", "ID", "Name", "Kind", "Level", "Time", "Max", "Status"}
	rows := make([][]string, 0, reg.Count())
	for i, d := range reg.GetAll() {
		status := "ok"
		if res := reg.Status(d.ID); res.State == registry.Failed {
			status = "no unit"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", d.ID),
			d.Name,
			d.Unit,
			fmt.Sprintf("%d", d.Level),
			fmt.Sprintf("%ds", d.TimeLimit),
			fmt.Sprintf("%d", d.MaxScore),
			status,
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 4: true, 5: true, 6: true}
	for _, line := range results.FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
