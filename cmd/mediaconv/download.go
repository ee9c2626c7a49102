package main

import (
	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/convert"
	"github.com/maauso/mediaconv/internal/download"
	"github.com/maauso/mediaconv/internal/format"
)

func newDownloadCmd(a *app) *cobra.Command {
	var media string

	cmd := &cobra.Command{
		Use:   "download [--media audio|video] URL",
		Short: "Download audio or video from a media hosting URL",
		Long: `Download fetches a single item with yt-dlp. Audio is stored as MP3 and
video as MP4 where the source allows it. The path of the downloaded file is
printed on success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.dispatcher().Convert(cmd.Context(), convert.Request{
				Kind:   format.RemoteDownload,
				Input:  args[0],
				Format: media,
			})
			return a.report(cmd, res)
		},
	}

	cmd.Flags().StringVarP(&media, "media", "m", download.MediaVideo, "what to download: audio or video")

	return cmd
}
