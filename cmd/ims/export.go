package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/export"
)

var exportCmd = &cobra.Command{
	Use:         "export",
	Short:       "Write a JSONL snapshot of the inventory",
	GroupID:     "system",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationRoute: "products"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		toS3, _ := cmd.Flags().GetBool("s3")
		every, _ := cmd.Flags().GetDuration("every")

		var dests []export.Destination
		if out != "" {
			dests = append(dests, export.NewFileDestination(out))
		}
		if toS3 {
			if app.cfg.ExportS3Bucket == "" {
				return fmt.Errorf("--s3 needs IMS_EXPORT_S3_BUCKET")
			}
			snapshots, _ := cmd.Flags().GetBool("snapshots")
			d, err := export.NewS3Destination(cmd.Context(), export.S3Options{
				Bucket:    app.cfg.ExportS3Bucket,
				Key:       app.cfg.ExportS3Key,
				Region:    app.cfg.ExportS3Region,
				Endpoint:  app.cfg.ExportS3Endpoint,
				Snapshots: snapshots,
			})
			if err != nil {
				return err
			}
			dests = append(dests, d)
		}

		if len(dests) == 0 {
			if every > 0 {
				return fmt.Errorf("--every needs --output or --s3")
			}
			return export.ExportJSONL(cmd.Context(), app.api, cmd.OutOrStdout())
		}

		if every > 0 {
			sched := export.NewScheduler(app.api, dests, every, app.logger)
			sched.Start(cmd.Context())
			return sched.Wait()
		}

		n, err := export.Run(cmd.Context(), app.api, dests)
		if err != nil {
			return err
		}
		for _, d := range dests {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", n, d)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().Bool("s3", false, "upload to the bucket named by IMS_EXPORT_S3_BUCKET")
	exportCmd.Flags().Bool("snapshots", false, "with --s3, also keep each export under a dated key")
	exportCmd.Flags().Duration("every", 0, "repeat at this interval until interrupted, e.g. 15m")
}
