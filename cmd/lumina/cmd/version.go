package cmd

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/version"
	"github.com/spf13/cobra"
)

// Version prints the node version
var Version = &cobra.Command{
	Use:   "version",
	Short: "Show this node's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Version)
		return nil
	},
}
