package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ettle/strcase"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func newAddCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a document",
		Long: `Add creates a document from flags, one flag per field. File flags upload
media first and fill the matching URL field.

Example:
  qurancms add quote --author "Ali ibn Abi Talib" --quote "Silence is the best reply to a fool."
  qurancms add surah --surah-index 1 --surah-name الفاتحة --english-name Al-Fatiha \
    --luganda-name Olugulawo --description "The opening" --audio-file 001.mp3`,
	}
	for _, schema := range content.All() {
		cmd.AddCommand(newWriteCmd(f, schema, false))
	}
	return cmd
}

func newEditCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a document",
		Long:  "Edit changes the fields whose flags are given and keeps the others.",
	}
	for _, schema := range content.All() {
		cmd.AddCommand(newWriteCmd(f, schema, true))
	}
	return cmd
}

// fieldFlag returns the flag name of a document field.
func fieldFlag(key string) string {
	return strcase.ToKebab(key)
}

// slotFlag returns the flag name of an upload slot.
func slotFlag(slot string) string {
	return strcase.ToKebab(slot + "File")
}

// newWriteCmd builds the add or edit subcommand of one entity kind.
func newWriteCmd(f *rootFlags, schema *content.Schema, isEdit bool) *cobra.Command {
	title := strings.ToLower(schema.Title)
	cmd := &cobra.Command{
		Use:     string(schema.Kind),
		Aliases: []string{schema.Kind.Plural()},
		Short:   "Add a " + title,
		Args:    cobra.NoArgs,
	}
	if isEdit {
		cmd.Use = string(schema.Kind) + " <id>"
		cmd.Short = "Edit a " + title
		cmd.Args = cobra.ExactArgs(1)
	}

	values := make(map[string]*string, len(schema.Fields))
	for _, field := range schema.Fields {
		values[field.Key] = cmd.Flags().String(fieldFlag(field.Key), "", field.Label)
	}
	files := make(map[string]*string, len(schema.Uploads))
	for _, slot := range schema.Uploads {
		files[slot.Name] = cmd.Flags().String(slotFlag(slot.Name), "", slot.Label+" to upload")
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := f.open(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := requireLogin(a.Gate()); err != nil {
			return err
		}

		rec := &content.Recorder{}
		v, err := a.View(schema.Kind, rec)
		if err != nil {
			return sysError(err)
		}
		defer v.Close()

		var form *content.Form
		if isEdit {
			form, err = v.OpenEdit(ctx, args[0])
			if err != nil {
				return documentError(schema, args[0], err)
			}
		} else if form, err = v.OpenCreate(ctx); err != nil {
			return sysError(err)
		}

		for _, field := range schema.Fields {
			if cmd.Flags().Changed(fieldFlag(field.Key)) {
				if err := form.Set(field.Key, *values[field.Key]); err != nil {
					return userError(err)
				}
			}
		}
		for _, slot := range schema.Uploads {
			if path := *files[slot.Name]; path != "" {
				if err := uploadInto(ctx, form, rec, slot, path); err != nil {
					return err
				}
			}
		}

		id, err := form.Submit(ctx)
		if err != nil {
			return submitError(err)
		}
		toast, _ := rec.Last()
		out := cmd.OutOrStdout()
		if f.jsonMode {
			return printJSON(out, map[string]string{"id": id, "message": toast.Message})
		}
		fmt.Fprintln(out, toast.Message)
		fmt.Fprintf(out, "id: %s\n", id)
		return nil
	}
	return cmd
}

// uploadInto uploads a local file into a form slot and waits for it to
// finish.
func uploadInto(ctx context.Context, form *content.Form, rec *content.Recorder, slot content.UploadSlot, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return userError(err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return userError(err)
	}

	seen := len(rec.Toasts())
	done, err := form.StartUpload(ctx, slot.Name, filepath.Base(path), file, info.Size())
	if err != nil {
		return userError(err)
	}
	<-done
	for _, t := range rec.Toasts()[seen:] {
		if t.Level == content.LevelError {
			return sysError(errors.New(t.Message))
		}
	}
	return nil
}

// submitError classifies a rejected submit.
func submitError(err error) error {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, types.ErrInvalidData):
		return userError(err)
	default:
		return sysError(err)
	}
}
