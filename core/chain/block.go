package chain

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/crypto"
	"github.com/tendermint/go-amino"
)

var blockCodec = amino.NewCodec()

// Block is one appended unit of the chain: an ordered batch of raw
// transactions with the resulting state root, signed by its producer.
// Immutable once appended.
type Block struct {
	Height     uint64
	ParentHash types.Hash
	Timestamp  int64
	Txs        [][]byte
	StateRoot  []byte
	Producer   types.Address
	Signature  []byte
}

// header is the signed portion of a block
type header struct {
	Height     uint64
	ParentHash types.Hash
	Timestamp  int64
	TxRoot     types.Hash
	StateRoot  []byte
	Producer   types.Address
}

func (b *Block) txRoot() types.Hash {
	hashes := make([][]byte, 0, len(b.Txs))
	for _, tx := range b.Txs {
		h := crypto.Keccak256Hash(tx)
		hashes = append(hashes, h.Bytes())
	}
	return crypto.Keccak256Hash(hashes...)
}

// Hash returns the keccak256 digest of the block header
func (b *Block) Hash() types.Hash {
	enc, err := blockCodec.MarshalBinaryBare(header{
		Height:     b.Height,
		ParentHash: b.ParentHash,
		Timestamp:  b.Timestamp,
		TxRoot:     b.txRoot(),
		StateRoot:  b.StateRoot,
		Producer:   b.Producer,
	})
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Sign signs the block header with the producer's key
func (b *Block) Sign(prv *crypto.PrivateKey) error {
	h := b.Hash()
	sig, err := crypto.Sign(h.Bytes(), prv)
	if err != nil {
		return err
	}
	b.Signature = sig
	return nil
}

// VerifySignature checks that the signature recovers to the declared
// producer. Producer identity is never trusted without it.
func (b *Block) VerifySignature() error {
	if len(b.Signature) != crypto.SignatureLength {
		return fmt.Errorf("invalid block signature length %d", len(b.Signature))
	}

	h := b.Hash()
	signer, err := crypto.Ecrecover(h.Bytes(), b.Signature)
	if err != nil {
		return err
	}
	if signer != b.Producer {
		return fmt.Errorf("block signed by %s, declared producer %s", signer.String(), b.Producer.String())
	}
	return nil
}

// Serialize encodes the block for storage
func (b *Block) Serialize() ([]byte, error) {
	return blockCodec.MarshalBinaryBare(b)
}

// DeserializeBlock decodes a stored block
func DeserializeBlock(data []byte) (*Block, error) {
	block := new(Block)
	if err := blockCodec.UnmarshalBinaryBare(data, block); err != nil {
		return nil, err
	}
	return block, nil
}
