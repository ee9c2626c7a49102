package main

import (
	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/format"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		kind       string
		outFormat  string
		brightness float64
		contrast   float64
	)

	cmd := &cobra.Command{
		Use:   "convert --kind KIND [--format FORMAT] FILE",
		Short: "Convert a local file",
		Long: `Convert runs one action on a local file and prints the path of the
produced file. When --format is omitted the action default is used, if the
action has one. Brightness and contrast apply to image-enhance only and are
clamped to [0.5, 2.0].`,
		Example: `  mediaconv convert --kind image-convert --format webp photo.png
  mediaconv convert --kind video-to-audio clip.mp4
  mediaconv convert --kind image-enhance --brightness 1.2 --contrast 1.1 photo.jpg
  mediaconv convert --kind document-convert --format docx report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.dispatcher().Convert(cmd.Context(), convert.Request{
				Kind:       format.KindOf(kind),
				Input:      args[0],
				Format:     outFormat,
				Brightness: brightness,
				Contrast:   contrast,
			})
			return a.report(cmd, res)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "action to run (see \"mediaconv actions\")")
	cmd.Flags().StringVarP(&outFormat, "format", "f", "", "output format")
	cmd.Flags().Float64Var(&brightness, "brightness", 1, "brightness factor for image-enhance")
	cmd.Flags().Float64Var(&contrast, "contrast", 1, "contrast factor for image-enhance")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}
