package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/goshear/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of goshear",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goshear v%s\n", version.Version)
		fmt.Println("Direct Shear Test Simulator")
		fmt.Printf("Commit %s, built %s\n", version.GitCommit, version.BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
