package appdb

import (
	"testing"

	"github.com/stretchr/testify/require"
	db "github.com/tendermint/tm-db"
)

func TestLastHeightRoundtrip(t *testing.T) {
	database := db.NewMemDB()
	appDB := NewAppDB(database)

	require.EqualValues(t, 0, appDB.GetLastHeight())

	appDB.SetLastHeight(42)
	require.EqualValues(t, 42, appDB.GetLastHeight())

	// a fresh instance must read the persisted value, not the cache
	reopened := NewAppDB(database)
	require.EqualValues(t, 42, reopened.GetLastHeight())
}

func TestLastBlockHashRoundtrip(t *testing.T) {
	appDB := NewAppDB(db.NewMemDB())

	require.Nil(t, appDB.GetLastBlockHash())

	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = byte(i)
	}

	appDB.SetLastBlockHash(hash)
	require.Equal(t, hash, appDB.GetLastBlockHash())
}
