package cmd

import (
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/crypto"
	"github.com/pkg/errors"
	tmos "github.com/tendermint/tendermint/libs/os"
)

type nodeKey struct {
	PrivateKey string `json:"private_key"`
}

// loadOrGenNodeKey reads the producer key from keyPath, generating and
// persisting a fresh one on first run
func loadOrGenNodeKey(keyPath string) (*crypto.PrivateKey, error) {
	if tmos.FileExists(keyPath) {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, errors.Wrap(err, "cannot read node key")
		}

		var key nodeKey
		if err := json.Unmarshal(data, &key); err != nil {
			return nil, errors.Wrap(err, "cannot parse node key")
		}

		raw := types.FromHex(key.PrivateKey, "")
		return crypto.PrivKeyFromBytes(raw)
	}

	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(nodeKey{PrivateKey: hex.EncodeToString(priv.Serialize())}, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(keyPath, data, 0600); err != nil {
		return nil, errors.Wrap(err, "cannot write node key")
	}

	return priv, nil
}
