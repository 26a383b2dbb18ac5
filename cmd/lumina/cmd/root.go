package cmd

import (
	"github.com/luminaworld/lumina-go-node/config"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/version"
	"github.com/spf13/cobra"
)

var cfg *config.Config

// RootCmd is the parent of every node subcommand
var RootCmd = &cobra.Command{
	Use:   "lumina",
	Short: "Lumina Go Node",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.GetConfig()

		isTestnet, _ := cmd.Flags().GetBool("testnet")
		if isTestnet {
			types.CurrentChainID = types.ChainTestnet
			version.Version += "-testnet"
		}
	},
}
