package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"face-restore-studio/internal/metrics"
	"face-restore-studio/internal/workflow"
)

func newEnhanceCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "enhance <image>",
		Short: "Restore a face image without opening the window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Output.DownloadDir
			}

			file, err := ctx.policy().Load(args[0])
			if err != nil {
				return err
			}

			controller := ctx.newController()
			defer controller.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Enhancing %s (%s) via %s\n", file.Name, humanize.IBytes(uint64(file.Size())), cfg.EnhanceURL())

			if err := controller.SelectFile(file); err != nil {
				return err
			}
			state, err := controller.Await(cmd.Context())
			if err != nil {
				return err
			}
			if state.Phase != workflow.Result {
				return errors.New(state.ErrorMessage)
			}

			report := metrics.NewEvaluator().GenerateReport(state.Result.Metrics)
			fmt.Fprintln(out, renderReport(report))
			if took := state.Result.ProcessingTime(); took > 0 {
				fmt.Fprintf(out, "Processed in %s\n", took.Round(10*time.Millisecond))
			}

			if noSave {
				return nil
			}
			path, err := controller.Download(outDir, time.Now())
			if err != nil {
				return err
			}
			size := ""
			if info, err := os.Stat(path); err == nil {
				size = " (" + humanize.IBytes(uint64(info.Size())) + ")"
			}
			fmt.Fprintf(out, "Saved %s%s\n", filepath.Clean(path), size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for the restored image (default from config)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print metrics only")
	return cmd
}

func renderReport(report metrics.QualityReport) string {
	rows := make([][]string, 0, len(report.Readings)+1)
	for _, r := range report.Readings {
		rows = append(rows, []string{r.Name, r.Display, strings.ToUpper(r.Grade.String()), r.Description})
	}
	rows = append(rows, []string{"OVERALL", metrics.FormatScore(report.OverallScore), strings.ToUpper(report.QualityLevel), ""})

	return renderTable(
		[]string{"Metric", "Value", "Grade", "Meaning"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	)
}
