package transaction

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// BurnData shrinks the supply by debiting From. When From differs from the
// sender the sender's allowance covers the burn.
type BurnData struct {
	From  types.Address
	Value string
}

// TxType returns the transaction type
func (data BurnData) TxType() TxType {
	return TypeBurn
}

func (data BurnData) String() string {
	return fmt.Sprintf("BURN from:%s value:%s", data.From.String(), data.Value)
}

// Run checks the burn (and allowance for the delegated form) and, in
// deliver mode, applies it
func (data BurnData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	if !helpers.IsValidBigInt(data.Value) || helpers.StringToBigInt(data.Value).Sign() != 1 {
		return Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid burn value %q", data.Value),
			Info: EncodeError(code.NewInvalidAmount(data.Value)),
		}
	}

	value := helpers.StringToBigInt(data.Value)
	from := data.From
	if from.IsZero() {
		from = sender
	}

	delegated := from != sender

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if delegated {
			allowance := checkState.Token().Allowance(from, sender)
			if allowance.Cmp(value) == -1 {
				return Response{
					Code: code.InsufficientAllowance,
					Log:  fmt.Sprintf("allowance of %s too low: wanted %s, have %s", sender.String(), value.String(), allowance.String()),
					Info: EncodeError(code.NewInsufficientAllowance(sender.String(), value.String(), allowance.String())),
				}
			}
		}

		balance := checkState.Ledger().GetBalance(from)
		if balance.Cmp(value) == -1 {
			return Response{
				Code: code.InsufficientBalance,
				Log:  fmt.Sprintf("insufficient balance for account: %s. Wanted %s", from.String(), value.String()),
				Info: EncodeError(code.NewInsufficientBalance(from.String(), value.String(), balance.String())),
			}
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)

	var err error
	if delegated {
		err = deliverState.Token.BurnFrom(sender, from, value)
	} else {
		err = deliverState.Token.Burn(from, value)
	}
	if err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{"tx.from": from.String()},
	}
}

// ApproveData sets the sender's allowance for a spender
type ApproveData struct {
	Spender types.Address
	Value   string
}

// TxType returns the transaction type
func (data ApproveData) TxType() TxType {
	return TypeApprove
}

func (data ApproveData) String() string {
	return fmt.Sprintf("APPROVE spender:%s value:%s", data.Spender.String(), data.Value)
}

// Run sets the allowance in deliver mode
func (data ApproveData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	if !helpers.IsValidBigInt(data.Value) {
		return Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid allowance value %q", data.Value),
			Info: EncodeError(code.NewInvalidAmount(data.Value)),
		}
	}

	if _, isCheck := context.(*state.CheckState); isCheck {
		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)
	deliverState.Token.Approve(sender, data.Spender, helpers.StringToBigInt(data.Value))

	return Response{
		Code: code.OK,
		Tags: map[string]string{"tx.spender": data.Spender.String()},
	}
}
