package transaction

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/crypto"
	"github.com/tendermint/go-amino"
)

// TxType of transaction is determined by a single byte
type TxType byte

func (t TxType) String() string {
	return "0x" + hex.EncodeToString([]byte{byte(t)})
}

const (
	TypeTransfer        TxType = 0x01
	TypeMint            TxType = 0x02
	TypeBurn            TxType = 0x03
	TypeBridgeOut       TxType = 0x04
	TypeBridgeInConfirm TxType = 0x05
	TypeSetTransferFee  TxType = 0x06
	TypeSetMaxTransfer  TxType = 0x07
	TypeSetRole         TxType = 0x08
	TypeApprove         TxType = 0x09
)

// ErrInvalidSig is returned for malformed or missing signatures
var ErrInvalidSig = errors.New("invalid transaction signature")

// RawData is an amino-encoded transaction payload
type RawData []byte

// Transaction is the signed envelope around a typed payload
type Transaction struct {
	Nonce         uint64
	ChainID       types.ChainID
	Type          TxType
	Data          RawData
	SignatureData []byte

	decodedData Data
	sender      *types.Address
}

// Data is a typed transaction payload
type Data interface {
	String() string
	TxType() TxType
	Run(tx *Transaction, context state.Interface, bridge Bridge) Response
}

// Bridge is the surface of the bridge module exercised by bridge
// transactions
type Bridge interface {
	CheckOutbound(from types.Address, amount *big.Int) error
	InitiateOutbound(from types.Address, externalTo string, amount *big.Int) (transferID string, err error)
	ConfirmInbound(externalTxHash string, to types.Address, amount *big.Int) (applied bool, err error)
}

// Response is the structured result of checking or delivering a transaction
type Response struct {
	Code uint32            `json:"code"`
	Log  string            `json:"log,omitempty"`
	Info string            `json:"info,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

// EncodeError renders a structured error payload to JSON
func EncodeError(data interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	return string(b)
}

var txCodec = createCodec()

func createCodec() *amino.Codec {
	cdc := amino.NewCodec()
	cdc.RegisterInterface((*Data)(nil), nil)
	cdc.RegisterConcrete(TransferData{}, "transfer", nil)
	cdc.RegisterConcrete(MintData{}, "mint", nil)
	cdc.RegisterConcrete(BurnData{}, "burn", nil)
	cdc.RegisterConcrete(BridgeOutData{}, "bridgeOut", nil)
	cdc.RegisterConcrete(BridgeInConfirmData{}, "bridgeInConfirm", nil)
	cdc.RegisterConcrete(SetTransferFeeData{}, "setTransferFee", nil)
	cdc.RegisterConcrete(SetMaxTransferData{}, "setMaxTransfer", nil)
	cdc.RegisterConcrete(SetRoleData{}, "setRole", nil)
	cdc.RegisterConcrete(ApproveData{}, "approve", nil)

	return cdc
}

// sigHash is the envelope body covered by the signature
type sigHash struct {
	Nonce   uint64
	ChainID types.ChainID
	Type    TxType
	Data    RawData
}

// Serialize encodes the transaction for transport and storage
func (tx *Transaction) Serialize() ([]byte, error) {
	return txCodec.MarshalBinaryBare(tx)
}

// Hash returns the keccak256 digest of the unsigned envelope
func (tx *Transaction) Hash() types.Hash {
	enc, err := txCodec.MarshalBinaryBare(sigHash{
		Nonce:   tx.Nonce,
		ChainID: tx.ChainID,
		Type:    tx.Type,
		Data:    tx.Data,
	})
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Sign signs the transaction with the given private key
func (tx *Transaction) Sign(prv *crypto.PrivateKey) error {
	h := tx.Hash()
	sig, err := crypto.Sign(h.Bytes(), prv)
	if err != nil {
		return err
	}

	tx.SignatureData = sig
	tx.sender = nil

	return nil
}

// Sender recovers and caches the signing address
func (tx *Transaction) Sender() (types.Address, error) {
	if tx.sender != nil {
		return *tx.sender, nil
	}

	if len(tx.SignatureData) != crypto.SignatureLength {
		return types.Address{}, ErrInvalidSig
	}

	h := tx.Hash()
	sender, err := crypto.Ecrecover(h.Bytes(), tx.SignatureData)
	if err != nil {
		return types.Address{}, err
	}

	tx.sender = &sender
	return sender, nil
}

// MustSender panics if the signature does not recover
func (tx *Transaction) MustSender() types.Address {
	sender, err := tx.Sender()
	if err != nil {
		panic(err)
	}
	return sender
}

// SetDecodedData attaches the decoded payload
func (tx *Transaction) SetDecodedData(data Data) {
	tx.decodedData = data
}

// GetDecodedData returns the decoded payload
func (tx *Transaction) GetDecodedData() Data {
	return tx.decodedData
}

func (tx *Transaction) String() string {
	sender, _ := tx.Sender()

	return fmt.Sprintf("TX nonce:%d from:%s data:%s",
		tx.Nonce, sender.String(), tx.decodedData.String())
}
