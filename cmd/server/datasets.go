package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func datasetsCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List or delete saved datasets",
	}
	cmd.PersistentFlags().StringVar(&owner, "owner", "anonymous", "owner id")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the saved datasets of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			infos, err := a.datasets.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Println("No datasets.")
				return nil
			}
			for _, info := range infos {
				saved := "never"
				if info.SavedAt != nil {
					saved = info.SavedAt.Local().Format(time.DateTime)
				}
				fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint(info.DatasetName), color.New(color.Faint).Sprint("saved "+saved))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <dataset>",
		Short: "Delete a saved dataset snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.datasets.Delete(cmd.Context(), owner, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s deleted %s\n", color.New(color.FgGreen).Sprint("✓"), args[0])
			return nil
		},
	})
	return cmd
}
