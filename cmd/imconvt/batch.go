package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt/internal/utils"
	"github.com/gk-tools/imconvt/pkg/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Convert every image in a folder with the same settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	addParamFlags(batchCmd)
	batchCmd.Flags().StringP("output", "o", "", "output folder (default from config)")
	batchCmd.Flags().String("prefix", "", "output file name prefix (default from config)")
	batchCmd.Flags().IntP("jobs", "j", 0, "number of workers (default from config)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params, err := resolveParams(cmd, cfg)
	if err != nil {
		return err
	}

	dir := args[0]
	files, err := listInputs(dir, cfg.InputExtensions())
	if err != nil {
		return err
	}

	outDir := cfg.Output.OutputDir
	if cmd.Flags().Changed("output") {
		outDir, _ = cmd.Flags().GetString("output")
	}
	prefix := cfg.Output.Prefix
	if cmd.Flags().Changed("prefix") {
		prefix, _ = cmd.Flags().GetString("prefix")
	}

	opts := cfg.BatchOptions()
	if jobs, _ := cmd.Flags().GetInt("jobs"); jobs > 0 {
		opts.Concurrency = jobs
	}
	opts.Logger = log.Default()
	opts.OnProgress = func(p batch.Progress) {
		log.Printf("progress: %s (%.0f%%)", p, p.Fraction()*100)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("converting %d images from %s to %s with %d workers", len(files), dir, outDir, opts.Concurrency)
	debugf("params: %s", describe(params))

	exec := batch.New(opts)
	results := exec.Run(ctx, batch.Plan(files, outDir, prefix, params))

	succeeded, failed := batch.Summary(results)
	for _, r := range results {
		if r.Status == batch.Succeeded {
			debugf("%s -> %s (%s, %s)", r.Job.Source, r.Job.Destination, formatSize(r.Width, r.Height), r.Duration)
		}
	}
	fmt.Printf("Converted %d of %d images into %s\n", succeeded, len(results), outDir)
	if failed > 0 {
		return fmt.Errorf("%d images failed", failed)
	}
	return nil
}

func listInputs(dir string, exts []string) ([]string, error) {
	if !utils.DirExists(dir) {
		return nil, fmt.Errorf("%s is not a folder", dir)
	}
	files, err := utils.ListImageFiles(dir, exts...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	return files, nil
}
