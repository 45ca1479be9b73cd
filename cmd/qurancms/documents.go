package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func newListCmd(f *rootFlags) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the documents of a collection",
		Long: `List fetches a collection in its display order.

Example:
  qurancms list surahs
  qurancms list quotes --query patience
  qurancms list duas --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			a, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.View(schema.Kind, content.Discard)
			if err != nil {
				return sysError(err)
			}
			defer v.Close()
			if err := v.Load(cmd.Context()); err != nil {
				return sysError(fmt.Errorf("list %s: %w", schema.Kind.Plural(), err))
			}
			v.SetFilter(query)

			out := cmd.OutOrStdout()
			if f.jsonMode {
				docs := v.Visible()
				items := make([]map[string]any, 0, len(docs))
				for _, d := range docs {
					items = append(items, documentJSON(d))
				}
				return printJSON(out, items)
			}
			if v.Empty() {
				fmt.Fprintln(out, v.EmptyMessage())
				return nil
			}
			printCards(out, schema, v.Cards())
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "show only documents whose search fields contain this text")
	return cmd
}

func newGetCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print one document as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			a, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			coll, err := a.Collection(schema.Kind)
			if err != nil {
				return sysError(err)
			}
			doc, err := coll.Get(cmd.Context(), args[1])
			if err != nil {
				return documentError(schema, args[1], err)
			}
			return printJSON(cmd.OutOrStdout(), documentJSON(doc))
		},
	}
}

func newDeleteCmd(f *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a document",
		Long:  "Delete removes a document after confirmation. Use --yes to skip the prompt.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			id := args[1]
			a, err := f.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireLogin(a.Gate()); err != nil {
				return err
			}

			v, err := a.View(schema.Kind, toastPrinter{w: cmd.OutOrStdout()})
			if err != nil {
				return sysError(err)
			}
			defer v.Close()
			if err := v.RequestDelete(id); err != nil {
				return documentError(schema, id, err)
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Delete %s %s?", strings.ToLower(schema.Title), id)) {
				v.CancelDelete()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := v.ConfirmDelete(cmd.Context()); err != nil {
				return documentError(schema, id, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// confirm asks a yes/no question on stdin. Anything but y or yes is no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// documentError classifies a library error about one document.
func documentError(schema *content.Schema, id string, err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return userError(fmt.Errorf("%s %q not found", strings.ToLower(schema.Title), id))
	case errors.Is(err, types.ErrInvalidID):
		return userError(fmt.Errorf("invalid %s id %q", strings.ToLower(schema.Title), id))
	default:
		return sysError(err)
	}
}
