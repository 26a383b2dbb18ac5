package transaction

import (
	"fmt"
	"math/big"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// TransferData moves tokens between two accounts
type TransferData struct {
	To    types.Address
	Value string
}

// TxType returns the transaction type
func (data TransferData) TxType() TxType {
	return TypeTransfer
}

func (data TransferData) String() string {
	return fmt.Sprintf("TRANSFER to:%s value:%s", data.To.String(), data.Value)
}

func (data TransferData) basicCheck() *Response {
	if !helpers.IsValidBigInt(data.Value) || helpers.StringToBigInt(data.Value).Sign() != 1 {
		return &Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid transfer value %q", data.Value),
			Info: EncodeError(code.NewInvalidAmount(data.Value)),
		}
	}

	return nil
}

// Run checks the transfer against the token policy and, in deliver mode,
// applies it
func (data TransferData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	if response := data.basicCheck(); response != nil {
		return *response
	}

	value := helpers.StringToBigInt(data.Value)

	checkState, isCheck := context.(*state.CheckState)
	if isCheck {
		if response := checkTransferPolicy(checkState, sender, data.To, value); response != nil {
			return *response
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)
	fee, err := deliverState.Token.Transfer(sender, data.To, value)
	if err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{
			"tx.to":  data.To.String(),
			"tx.fee": fee.String(),
		},
	}
}

// checkTransferPolicy validates a prospective balance move without applying
// it. Shared by transfer and bridge-out validation.
func checkTransferPolicy(checkState *state.CheckState, sender, to types.Address, value *big.Int) *Response {
	if checkState.Token().IsBlacklisted(sender) {
		return &Response{
			Code: code.BlacklistedParty,
			Log:  fmt.Sprintf("%s is blacklisted", sender.String()),
			Info: EncodeError(code.NewBlacklistedParty(sender.String())),
		}
	}
	if checkState.Token().IsBlacklisted(to) {
		return &Response{
			Code: code.BlacklistedParty,
			Log:  fmt.Sprintf("%s is blacklisted", to.String()),
			Info: EncodeError(code.NewBlacklistedParty(to.String())),
		}
	}

	max := checkState.Token().MaxTransferAmount()
	if max.Sign() == 1 && value.Cmp(max) == 1 {
		return &Response{
			Code: code.MaxTransferExceeded,
			Log:  fmt.Sprintf("transfer of %s exceeds max transfer amount %s", value.String(), max.String()),
			Info: EncodeError(code.NewMaxTransferExceeded(value.String(), max.String())),
		}
	}

	balance := checkState.Ledger().GetBalance(sender)
	if balance.Cmp(value) == -1 {
		return &Response{
			Code: code.InsufficientBalance,
			Log:  fmt.Sprintf("insufficient balance for sender account: %s. Wanted %s", sender.String(), value.String()),
			Info: EncodeError(code.NewInsufficientBalance(sender.String(), value.String(), balance.String())),
		}
	}

	return nil
}
