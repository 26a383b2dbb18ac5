package transaction

import (
	"fmt"
)

// DecodeFromBytes decodes a transaction envelope and its typed payload
func DecodeFromBytes(buf []byte) (*Transaction, error) {
	var tx Transaction
	if err := txCodec.UnmarshalBinaryBare(buf, &tx); err != nil {
		return nil, err
	}

	if len(tx.Data) == 0 {
		return nil, fmt.Errorf("incorrect tx data")
	}

	var data Data
	switch tx.Type {
	case TypeTransfer:
		data = &TransferData{}
	case TypeMint:
		data = &MintData{}
	case TypeBurn:
		data = &BurnData{}
	case TypeBridgeOut:
		data = &BridgeOutData{}
	case TypeBridgeInConfirm:
		data = &BridgeInConfirmData{}
	case TypeSetTransferFee:
		data = &SetTransferFeeData{}
	case TypeSetMaxTransfer:
		data = &SetMaxTransferData{}
	case TypeSetRole:
		data = &SetRoleData{}
	case TypeApprove:
		data = &ApproveData{}
	default:
		return nil, fmt.Errorf("tx type %s is not registered", tx.Type)
	}

	if err := txCodec.UnmarshalBinaryBare(tx.Data, data); err != nil {
		return nil, err
	}

	tx.SetDecodedData(data)
	return &tx, nil
}

// EncodeData encodes a typed payload for embedding into an envelope
func EncodeData(data Data) (RawData, error) {
	return txCodec.MarshalBinaryBare(data)
}
