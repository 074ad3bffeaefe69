package main

import (
	"github.com/spf13/cobra"
)

func newExportCommand(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <file|code>",
		Short: "Write the task as GeoJSON, KML or GPX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifacts, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, _, err := artifacts.Export(format)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "kml", "geojson, kml or gpx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newQRCodeCommand(a *app) *cobra.Command {
	var (
		output string
		size   int
	)

	cmd := &cobra.Command{
		Use:   "qrcode <file|code>",
		Short: "Write a PNG share code XCTrack can scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size > 0 {
				a.service = a.service.WithQRSize(size)
			}
			artifacts, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			png, err := artifacts.ShareCode()
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, png)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&size, "size", 0, "image size in pixels (default from config)")
	return cmd
}
