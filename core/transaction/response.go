package transaction

import (
	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state/ledger"
	"github.com/luminaworld/lumina-go-node/core/state/token"
)

// responseFromError maps module errors onto the response code taxonomy.
// Callers receive a structured reason, never a raw internal fault.
func responseFromError(err error) Response {
	switch e := err.(type) {
	case *ledger.InvalidAmountError:
		return Response{
			Code: code.InvalidAmount,
			Log:  e.Error(),
			Info: EncodeError(code.NewInvalidAmount(e.Amount.String())),
		}
	case *ledger.InsufficientBalanceError:
		return Response{
			Code: code.InsufficientBalance,
			Log:  e.Error(),
			Info: EncodeError(code.NewInsufficientBalance(e.Address.String(), e.Wanted.String(), e.Have.String())),
		}
	case *ledger.OverflowError:
		return Response{
			Code: code.Overflow,
			Log:  e.Error(),
			Info: EncodeError(code.NewOverflow(e.Address.String(), e.Result.String())),
		}
	case *token.UnauthorizedError:
		return Response{
			Code: code.Unauthorized,
			Log:  e.Error(),
			Info: EncodeError(code.NewUnauthorized(e.Address.String(), e.Role)),
		}
	case *token.SupplyCapError:
		return Response{
			Code: code.SupplyCapExceeded,
			Log:  e.Error(),
			Info: EncodeError(code.NewSupplyCapExceeded(e.Delta.String(), e.Supply.String(), "")),
		}
	case *token.BlacklistedError:
		return Response{
			Code: code.BlacklistedParty,
			Log:  e.Error(),
			Info: EncodeError(code.NewBlacklistedParty(e.Address.String())),
		}
	case *token.MaxTransferError:
		return Response{
			Code: code.MaxTransferExceeded,
			Log:  e.Error(),
			Info: EncodeError(code.NewMaxTransferExceeded(e.Amount.String(), e.Max.String())),
		}
	case *token.AllowanceError:
		return Response{
			Code: code.InsufficientAllowance,
			Log:  e.Error(),
			Info: EncodeError(code.NewInsufficientAllowance(e.Spender.String(), e.Wanted.String(), e.Have.String())),
		}
	case *token.FeeCeilingError:
		return Response{
			Code: code.WrongFee,
			Log:  e.Error(),
		}
	case BridgeError:
		return Response{
			Code: e.Code(),
			Log:  e.Error(),
			Info: e.Info(),
		}
	}

	return Response{
		Code: code.DecodeError,
		Log:  err.Error(),
	}
}

// BridgeError lets the bridge module carry its own response code and
// structured payload across the package boundary
type BridgeError interface {
	error
	Code() uint32
	Info() string
}
