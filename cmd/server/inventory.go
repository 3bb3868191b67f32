package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func inventoryCmd() *cobra.Command {
	var (
		dataset string
		owner   string
	)

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print the grouped evidence-document inventory of a saved dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if _, err := a.datasets.Load(cmd.Context(), owner, dataset); err != nil {
				return err
			}
			groups, err := a.datasets.GroupedInventory(owner, dataset)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Println("No evidence documents yet.")
				return nil
			}

			for _, g := range groups {
				fmt.Printf("%s (%d)\n", color.New(color.Bold).Sprint(g.Type), len(g.Entries))
				for _, e := range g.Entries {
					fmt.Printf("  - %s\n", e.Title)
					fmt.Printf("    %s\n", color.New(color.Faint).Sprint(e.JoinedCodes()))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "dataset name")
	cmd.Flags().StringVar(&owner, "owner", "anonymous", "owner id")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
