package main

import (
	"fmt"
	"image"
	"log"

	"github.com/spf13/cobra"

	"github.com/gk-tools/imconvt"
	"github.com/gk-tools/imconvt/pkg/processing"
	"github.com/gk-tools/imconvt/pkg/types"
	"github.com/gk-tools/imconvt/pkg/viewport"
)

var previewCmd = &cobra.Command{
	Use:   "preview <image|url>",
	Short: "Render a preview frame as the viewport would show it",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	addParamFlags(previewCmd)
	previewCmd.Flags().StringP("output", "o", "preview.png", "output PNG file")
	previewCmd.Flags().Int("zoom", 0, "wheel steps: positive zooms in, negative zooms out")
	previewCmd.Flags().Int("pan-x", 0, "horizontal drag in canvas pixels")
	previewCmd.Flags().Int("pan-y", 0, "vertical drag in canvas pixels")
	previewCmd.Flags().Int("canvas-width", 800, "canvas width")
	previewCmd.Flags().Int("canvas-height", 600, "canvas height")
	previewCmd.Flags().String("canvas-color", "#202020", "canvas background color")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params, err := resolveParams(cmd, cfg)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	zoom, _ := f.GetInt("zoom")
	panX, _ := f.GetInt("pan-x")
	panY, _ := f.GetInt("pan-y")
	cw, _ := f.GetInt("canvas-width")
	ch, _ := f.GetInt("canvas-height")
	bgHex, _ := f.GetString("canvas-color")
	output, _ := f.GetString("output")

	bg, err := processing.ParseColor(bgHex)
	if err != nil {
		return err
	}

	session := imconvt.New(imconvt.Options{
		Preview: cfg.PreviewOptions(),
		Limits:  cfg.ViewportLimits(),
		Params:  &params,
	})
	defer session.Close()

	if err := session.Open(args[0]); err != nil {
		return err
	}
	if _, err := session.Preview(); err != nil {
		return err
	}

	view := session.Viewport()
	view.SetCanvas(image.Rect(0, 0, cw, ch))
	for ; zoom != 0; zoom -= sign(zoom) {
		view.Handle(viewport.Event{Kind: viewport.Wheel, Delta: sign(zoom)})
	}
	if panX != 0 || panY != 0 {
		view.Handle(viewport.Event{Kind: viewport.Press, Point: image.Pt(0, 0)})
		view.Handle(viewport.Event{Kind: viewport.Move, Point: image.Pt(panX, panY)})
		view.Handle(viewport.Event{Kind: viewport.Release})
	}

	frame, ok := view.Render()
	if !ok {
		return fmt.Errorf("nothing to render")
	}
	canvas := frame.Compose(cw, ch, bg)

	out := types.OutputSpec{Format: types.PNG}
	if err := processing.NewProcessor().SaveImage(canvas, output, out); err != nil {
		return err
	}

	log.Printf("preview at %.0f%% offset %v written to %s", frame.Scale*100, frame.Offset, output)
	return nil
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
