package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qurancms/internal/blob"
	"github.com/mesh-intelligence/qurancms/internal/export"
)

func newUploadCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <collection> <slot> <file>",
		Short: "Upload a media file and print its public URL",
		Long: `Upload stores a file under the category of a collection's upload slot.

Example:
  qurancms upload surahs audio 001.mp3
  qurancms upload books thumbnail cover.png`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			slot, ok := schema.Slot(args[1])
			if !ok {
				return userError(fmt.Errorf("%s has no upload slot %q", schema.Kind.Plural(), args[1]))
			}
			objectPath, err := blob.ObjectPath(slot.Category, filepath.Base(args[2]))
			if err != nil {
				return userError(err)
			}
			file, err := os.Open(args[2])
			if err != nil {
				return userError(err)
			}
			defer file.Close()
			info, err := file.Stat()
			if err != nil {
				return userError(err)
			}

			ctx := cmd.Context()
			a, err := f.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireLogin(a.Gate()); err != nil {
				return err
			}

			progress := cmd.ErrOrStderr()
			var last blob.Progress
			for p := range a.Blobs.Upload(ctx, objectPath, file, info.Size()) {
				last = p
				if !f.jsonMode && p.Err == nil {
					fmt.Fprintf(progress, "\rUploading %s: %3d%%", info.Name(), p.Percent())
				}
			}
			if !f.jsonMode {
				fmt.Fprintln(progress)
			}
			if last.Err != nil {
				return sysError(fmt.Errorf("upload %s: %w", args[2], last.Err))
			}
			if !last.Done {
				return sysError(errors.New("upload ended without completing"))
			}

			out := cmd.OutOrStdout()
			if f.jsonMode {
				return printJSON(out, map[string]any{"url": last.URL, "path": objectPath, "size": info.Size()})
			}
			fmt.Fprintln(out, last.URL)
			return nil
		},
	}
}

func newExportCmd(f *rootFlags) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <collection>",
		Short: "Export a collection to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = schema.Kind.Plural() + ".xlsx"
			}

			ctx := cmd.Context()
			a, err := f.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			coll, err := a.Collection(schema.Kind)
			if err != nil {
				return sysError(err)
			}
			docs, err := coll.List(ctx, schema.Order)
			if err != nil {
				return sysError(fmt.Errorf("list %s: %w", schema.Kind.Plural(), err))
			}

			file, err := os.Create(outPath)
			if err != nil {
				return userError(err)
			}
			if err := export.WriteXLSX(file, schema, docs); err != nil {
				file.Close()
				return sysError(err)
			}
			if err := file.Close(); err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n", len(docs), schema.Kind.Plural(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: <collection>.xlsx)")
	return cmd
}
