package main

import (
	"github.com/luminaworld/lumina-go-node/cmd/lumina/cmd"
	"github.com/luminaworld/lumina-go-node/cmd/utils"
)

func main() {
	rootCmd := cmd.RootCmd
	rootCmd.PersistentFlags().StringVar(&utils.LuminaHome, "home-dir", "", "base dir (default is $HOME/.lumina)")
	rootCmd.PersistentFlags().Bool("testnet", false, "run with the testnet chain id")

	rootCmd.AddCommand(
		cmd.RunNode,
		cmd.ShowValidator,
		cmd.Version)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
