package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	rootCmd := &cobra.Command{
		Use:   "ppsgen",
		Short: "PPS generator for hospital accreditation survey results",
		Long: `ppsgen turns an accreditation survey spreadsheet into a chapter/standard/criterion
tree, keeps narrative edits across re-imports, and fills improvement-plan fields with an LLM.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(inventoryCmd())
	rootCmd.AddCommand(datasetsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		klog.Flush()
		os.Exit(1)
	}
}
