package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt"
	"github.com/gk-tools/imconvt/internal/utils"
	"github.com/gk-tools/imconvt/pkg/batch"
)

var convertCmd = &cobra.Command{
	Use:   "convert <image|url>",
	Short: "Convert a single image file or http(s) URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	addParamFlags(convertCmd)
	convertCmd.Flags().StringP("output", "o", "", "output file (default <output_dir>/<prefix><name>.<ext>)")
	convertCmd.Flags().String("preset", "", "fill a size preset, or \"auto\" to pick one from the image shape")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params, err := resolveParams(cmd, cfg)
	if err != nil {
		return err
	}

	session := imconvt.New(imconvt.Options{Preview: cfg.PreviewOptions(), Params: &params})
	defer session.Close()

	input := args[0]
	if err := session.Open(input); err != nil {
		return fmt.Errorf("loading %s: %w", input, err)
	}
	info, _ := session.Info()
	log.Printf("loaded %s (%s, %s)", input, formatSize(info.Width, info.Height), info.Mode)

	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		preset, err := applyPreset(&params, name, info.Width, info.Height)
		if err != nil {
			return err
		}
		if err := session.SetParams(params); err != nil {
			return err
		}
		log.Printf("preset %s (%s)", preset.Name, formatSize(preset.Width, preset.Height))
	}
	debugf("params: %s", describe(session.Params()))

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		prefix := cfg.Output.Prefix
		if prefix == "" {
			prefix = batch.DefaultPrefix
		}
		output = utils.GenerateOutputFilename(filepath.Base(input), cfg.Output.OutputDir, prefix, params.Output.Format.Extension())
	}

	result, err := session.Save(output)
	if err != nil {
		return fmt.Errorf("converting %s: %w", input, err)
	}

	fmt.Printf("Converted %s -> %s\n", input, output)
	fmt.Printf("Size:   %s\n", formatSize(result.Image.Width(), result.Image.Height()))
	fmt.Printf("Output: %s (%s)\n", result.Format, utils.FormatFileSize(int64(len(result.Data))))
	return nil
}
