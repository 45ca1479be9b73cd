package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// fixture maps a collection name to the documents to add to it.
type fixture map[string][]map[string]any

func newSeedCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Add documents from a YAML fixture",
		Long: `Seed adds every document of a YAML fixture through the same validation as
the dashboard form. The fixture maps collection names to lists of documents:

  quotes:
    - author: Ibn al-Qayyim
      quote: The heart is like a bird.
  duas:
    - title: Before sleeping
      content: بِاسْمِكَ اللَّهُمَّ أَمُوتُ وَأَحْيَا`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return userError(err)
			}
			var fx fixture
			if err := yaml.Unmarshal(raw, &fx); err != nil {
				return userError(fmt.Errorf("parse %s: %w", args[0], err))
			}

			names := make([]string, 0, len(fx))
			schemas := make(map[string]*content.Schema, len(fx))
			for name := range fx {
				schema, err := lookupSchema(name)
				if err != nil {
					return err
				}
				names = append(names, name)
				schemas[name] = schema
			}
			sort.Strings(names)

			ctx := cmd.Context()
			a, err := f.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireLogin(a.Gate()); err != nil {
				return err
			}

			total := 0
			for _, name := range names {
				schema := schemas[name]
				v, err := a.View(schema.Kind, content.Discard)
				if err != nil {
					return sysError(err)
				}
				for i, record := range fx[name] {
					form, err := v.OpenCreate(ctx)
					if err != nil {
						v.Close()
						return sysError(err)
					}
					for key, value := range record {
						if err := form.Set(key, types.FormatValue(value)); err != nil {
							v.Close()
							return userError(fmt.Errorf("%s #%d: %w", name, i+1, err))
						}
					}
					if _, err := form.Submit(ctx); err != nil {
						v.Close()
						return submitError(fmt.Errorf("%s #%d: %w", name, i+1, err))
					}
					total++
				}
				v.Close()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d documents\n", total)
			return nil
		},
	}
}
