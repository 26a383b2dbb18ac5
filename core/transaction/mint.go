package transaction

import (
	"fmt"
	"math/big"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// MintData grows the supply in favor of the given account. The sender must
// hold the minter role.
type MintData struct {
	To    types.Address
	Value string
}

// TxType returns the transaction type
func (data MintData) TxType() TxType {
	return TypeMint
}

func (data MintData) String() string {
	return fmt.Sprintf("MINT to:%s value:%s", data.To.String(), data.Value)
}

// Run checks the mint against role, blacklist and supply cap and, in
// deliver mode, applies it
func (data MintData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	if !helpers.IsValidBigInt(data.Value) || helpers.StringToBigInt(data.Value).Sign() != 1 {
		return Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid mint value %q", data.Value),
			Info: EncodeError(code.NewInvalidAmount(data.Value)),
		}
	}

	value := helpers.StringToBigInt(data.Value)

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if !checkState.Token().IsMinter(sender) {
			return Response{
				Code: code.Unauthorized,
				Log:  fmt.Sprintf("%s does not hold the minter role", sender.String()),
				Info: EncodeError(code.NewUnauthorized(sender.String(), "minter")),
			}
		}
		if checkState.Token().IsBlacklisted(data.To) {
			return Response{
				Code: code.BlacklistedParty,
				Log:  fmt.Sprintf("%s is blacklisted", data.To.String()),
				Info: EncodeError(code.NewBlacklistedParty(data.To.String())),
			}
		}

		supply := checkState.Token().TotalSupply()
		if big.NewInt(0).Add(supply, value).Cmp(types.MaxSupply()) == 1 {
			return Response{
				Code: code.SupplyCapExceeded,
				Log:  "maximum supply reached",
				Info: EncodeError(code.NewSupplyCapExceeded(value.String(), supply.String(), types.MaxSupply().String())),
			}
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)
	if err := deliverState.Token.Mint(sender, data.To, value); err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{"tx.to": data.To.String()},
	}
}
