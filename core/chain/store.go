package chain

import (
	"encoding/binary"

	"github.com/pkg/errors"
	db "github.com/tendermint/tm-db"
)

const blockPrefix = byte('b')

// Store is the append-only block log keyed by height
type Store struct {
	db db.DB
}

// NewStore returns a block store over the given key-value database
func NewStore(database db.DB) *Store {
	return &Store{db: database}
}

func blockKey(height uint64) []byte {
	key := make([]byte, 9)
	key[0] = blockPrefix
	binary.BigEndian.PutUint64(key[1:], height)
	return key
}

// SaveBlock appends a block. Overwriting an existing height is refused;
// the log is append-only.
func (s *Store) SaveBlock(block *Block) error {
	key := blockKey(block.Height)

	existing, err := s.db.Get(key)
	if err != nil {
		return err
	}
	if len(existing) != 0 {
		return errors.Errorf("block %d already stored", block.Height)
	}

	data, err := block.Serialize()
	if err != nil {
		return err
	}
	return s.db.Set(key, data)
}

// GetBlock loads a block by height, nil when unknown
func (s *Store) GetBlock(height uint64) (*Block, error) {
	data, err := s.db.Get(blockKey(height))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	block, err := DeserializeBlock(data)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupted block %d", height)
	}
	return block, nil
}
