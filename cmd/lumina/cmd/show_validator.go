package cmd

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/crypto"
	"github.com/spf13/cobra"
)

// ShowValidator prints this node's producer address
var ShowValidator = &cobra.Command{
	Use:   "show_validator",
	Short: "Show this node's producer address",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadOrGenNodeKey(cfg.NodeKeyFile())
		if err != nil {
			return err
		}

		fmt.Println(crypto.PubkeyToAddress(key.PubKey()).String())
		return nil
	},
}
