package transaction

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// BridgeOutData locks tokens for release on the external chain. The bridge
// routes its fee and burns the transferred amount.
type BridgeOutData struct {
	ExternalTo string
	Value      string
}

// TxType returns the transaction type
func (data BridgeOutData) TxType() TxType {
	return TypeBridgeOut
}

func (data BridgeOutData) String() string {
	return fmt.Sprintf("BRIDGE_OUT to:%s value:%s", data.ExternalTo, data.Value)
}

// Run validates the outbound transfer against the bridge limits and, in
// deliver mode, initiates it
func (data BridgeOutData) Run(tx *Transaction, context state.Interface, bridge Bridge) Response {
	sender, _ := tx.Sender()

	if !helpers.IsValidBigInt(data.Value) || helpers.StringToBigInt(data.Value).Sign() != 1 {
		return Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid bridge value %q", data.Value),
			Info: EncodeError(code.NewInvalidAmount(data.Value)),
		}
	}

	if data.ExternalTo == "" {
		return Response{
			Code: code.DecodeError,
			Log:  "empty external destination",
		}
	}

	value := helpers.StringToBigInt(data.Value)

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if checkState.Token().IsBlacklisted(sender) {
			return Response{
				Code: code.BlacklistedParty,
				Log:  fmt.Sprintf("%s is blacklisted", sender.String()),
				Info: EncodeError(code.NewBlacklistedParty(sender.String())),
			}
		}

		if err := bridge.CheckOutbound(sender, value); err != nil {
			return responseFromError(err)
		}

		return Response{Code: code.OK}
	}

	transferID, err := bridge.InitiateOutbound(sender, data.ExternalTo, value)
	if err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{
			"tx.transfer_id": transferID,
			"tx.external_to": data.ExternalTo,
		},
	}
}
