package transaction

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// BridgeInConfirmData credits tokens locked on the external chain. Only
// relayers may submit it; repeated confirmations of the same external
// transaction are no-ops.
type BridgeInConfirmData struct {
	ExternalTxHash string
	To             types.Address
	Value          string
}

// TxType returns the transaction type
func (data BridgeInConfirmData) TxType() TxType {
	return TypeBridgeInConfirm
}

func (data BridgeInConfirmData) String() string {
	return fmt.Sprintf("BRIDGE_IN ext:%s to:%s value:%s", data.ExternalTxHash, data.To.String(), data.Value)
}

// Run validates the relayer's confirmation and, in deliver mode, mints the
// inbound amount
func (data BridgeInConfirmData) Run(tx *Transaction, context state.Interface, bridge Bridge) Response {
	sender, _ := tx.Sender()

	if !helpers.IsValidBigInt(data.Value) || helpers.StringToBigInt(data.Value).Sign() != 1 {
		return Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid bridge value %q", data.Value),
			Info: EncodeError(code.NewInvalidAmount(data.Value)),
		}
	}

	if data.ExternalTxHash == "" {
		return Response{
			Code: code.DecodeError,
			Log:  "empty external transaction hash",
		}
	}

	value := helpers.StringToBigInt(data.Value)

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if !checkState.Token().IsRelayer(sender) {
			return Response{
				Code: code.Unauthorized,
				Log:  fmt.Sprintf("%s does not hold the relayer role", sender.String()),
				Info: EncodeError(code.NewUnauthorized(sender.String(), "relayer")),
			}
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)
	if !deliverState.Token.IsRelayer(sender) {
		return Response{
			Code: code.Unauthorized,
			Log:  fmt.Sprintf("%s does not hold the relayer role", sender.String()),
			Info: EncodeError(code.NewUnauthorized(sender.String(), "relayer")),
		}
	}

	applied, err := bridge.ConfirmInbound(data.ExternalTxHash, data.To, value)
	if err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{
			"tx.external_hash": data.ExternalTxHash,
			"tx.applied":       fmt.Sprintf("%t", applied),
		},
	}
}
