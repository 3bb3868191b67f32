package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/ppsgen/backend/internal/domain"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/pkg/spreadsheet"
	"github.com/ppsgen/backend/internal/service/generation"
	"github.com/ppsgen/backend/internal/service/hierarchy"
	"github.com/spf13/cobra"
)

func generateCmd() *cobra.Command {
	var (
		file    string
		dataset string
		owner   string
		fields  []string
		apiKey  string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Import a survey spreadsheet and batch-generate fields",
		Long: `Import a survey spreadsheet (xlsx or csv), merge it with the saved snapshot of the
same dataset, then fill the requested fields with the LLM and save the result.

Fields: ` + generatableList(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataset == "" {
				dataset = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			targets, err := parseFields(fields)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			table, err := spreadsheet.Read(file, f)
			f.Close()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			view, err := a.datasets.Import(ctx, owner, dataset, hierarchy.RecordsFromRows(table.Header, table.Rows))
			if err != nil {
				return err
			}
			fmt.Printf("Imported %s: %d items\n", color.New(color.Bold).Sprint(dataset), len(hierarchy.Items(view.Tree)))

			for _, field := range targets {
				fmt.Printf("Generating %s\n", color.New(color.FgCyan).Sprint(field))
				result, err := a.datasets.RunBatch(ctx, owner, dataset, field, apiKey, func(p generation.Progress) {
					fmt.Printf("  chunk %d/%d: %d/%d processed\n", p.Chunk, p.Chunks, p.Processed, p.Total)
				})
				if err != nil {
					return err
				}
				printTally(result)
			}

			for _, n := range a.datasets.Notifications(owner, dataset) {
				fmt.Printf("%s %s\n", color.New(color.FgYellow).Sprint("!"), n.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "survey spreadsheet (.xlsx or .csv)")
	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name (default: file name)")
	cmd.Flags().StringVar(&owner, "owner", "anonymous", "owner id")
	cmd.Flags().StringSliceVar(&fields, "field", []string{string(model.FieldEvidenceDocumentTitle)}, "field(s) to generate")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "LLM API key (overrides config)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func parseFields(names []string) ([]model.FieldName, error) {
	var out []model.FieldName
	for _, name := range names {
		field := model.FieldName(strings.TrimSpace(name))
		if _, ok := domain.LookupFieldConfig(field); !ok {
			return nil, fmt.Errorf("field %q cannot be generated (choose from %s)", name, generatableList())
		}
		out = append(out, field)
	}
	return out, nil
}

func generatableList() string {
	var names []string
	for _, f := range domain.GeneratableFields() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func printTally(r generation.Result) {
	if r.Total == 0 {
		fmt.Println("  nothing to generate")
		return
	}
	fmt.Printf("  %s %d  %s %d  (of %d)\n",
		color.New(color.FgGreen).Sprint("✓"), r.SuccessCount,
		color.New(color.FgRed).Sprint("✗"), r.FailureCount,
		r.Total)
}
