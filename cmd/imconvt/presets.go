package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt/pkg/cropper"
	"github.com/gk-tools/imconvt/pkg/processing"
)

var presetsCmd = &cobra.Command{
	Use:   "presets [image]",
	Short: "List size presets, or suggest one for an image",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPresets,
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, p := range cropper.Presets() {
			fmt.Printf("%-32s %s (%.2f)\n", p.Name, formatSize(p.Width, p.Height), p.AspectRatio())
		}
		return nil
	}

	buf, err := processing.NewProcessor().LoadImageSmart(args[0])
	if err != nil {
		return err
	}
	info := buf.Info()
	p := cropper.AutoDetect(info.Width, info.Height)
	spec, rect := cropper.Fill(info.Width, info.Height, p)

	fmt.Printf("Image:  %s (ratio %.2f)\n", formatSize(info.Width, info.Height), info.AspectRatio)
	fmt.Printf("Preset: %s (%s)\n", p.Name, formatSize(p.Width, p.Height))
	fmt.Printf("Resize: width=%d height=%d keep_ratio=%v\n", spec.Width, spec.Height, spec.KeepRatio)
	fmt.Printf("Crop:   %d,%d,%d,%d\n", rect.X1, rect.Y1, rect.X2, rect.Y2)
	return nil
}
