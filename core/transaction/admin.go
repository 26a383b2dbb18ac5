package transaction

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/state/token"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// SetTransferFeeData changes the transfer fee. Owner only; the fee may not
// exceed the ceiling.
type SetTransferFeeData struct {
	FeeBps uint32
}

// TxType returns the transaction type
func (data SetTransferFeeData) TxType() TxType {
	return TypeSetTransferFee
}

func (data SetTransferFeeData) String() string {
	return fmt.Sprintf("SET_TRANSFER_FEE bps:%d", data.FeeBps)
}

// Run checks ownership and the fee ceiling and, in deliver mode, updates
// the policy
func (data SetTransferFeeData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if response := checkOwner(checkState, sender); response != nil {
			return *response
		}
		if data.FeeBps > types.MaxTransferFeeBps {
			return Response{
				Code: code.WrongFee,
				Log:  fmt.Sprintf("transfer fee %d exceeds ceiling %d", data.FeeBps, types.MaxTransferFeeBps),
			}
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)
	if err := deliverState.Token.SetTransferFee(sender, data.FeeBps); err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{"tx.fee_bps": fmt.Sprintf("%d", data.FeeBps)},
	}
}

// SetMaxTransferData changes the per-transfer cap. Owner only; zero disables
// the cap.
type SetMaxTransferData struct {
	Max string
}

// TxType returns the transaction type
func (data SetMaxTransferData) TxType() TxType {
	return TypeSetMaxTransfer
}

func (data SetMaxTransferData) String() string {
	return fmt.Sprintf("SET_MAX_TRANSFER max:%s", data.Max)
}

// Run checks ownership and, in deliver mode, updates the policy
func (data SetMaxTransferData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	if !helpers.IsValidBigInt(data.Max) || helpers.StringToBigInt(data.Max).Sign() == -1 {
		return Response{
			Code: code.InvalidAmount,
			Log:  fmt.Sprintf("invalid max transfer amount %q", data.Max),
			Info: EncodeError(code.NewInvalidAmount(data.Max)),
		}
	}

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if response := checkOwner(checkState, sender); response != nil {
			return *response
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)
	if err := deliverState.Token.SetMaxTransferAmount(sender, helpers.StringToBigInt(data.Max)); err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{"tx.max": data.Max},
	}
}

// Role designators accepted by SetRoleData
const (
	RoleMinter      = "minter"
	RoleRelayer     = "relayer"
	RoleBlacklisted = "blacklisted"
	RoleFeeExempt   = "fee_exempt"
)

// SetRoleData toggles a role or flag for an account. Owner only; every
// change is audited.
type SetRoleData struct {
	Role    string
	Address types.Address
	Enabled bool
}

// TxType returns the transaction type
func (data SetRoleData) TxType() TxType {
	return TypeSetRole
}

func (data SetRoleData) String() string {
	return fmt.Sprintf("SET_ROLE role:%s address:%s enabled:%t", data.Role, data.Address.String(), data.Enabled)
}

// Run checks ownership and the role designator and, in deliver mode,
// applies the toggle
func (data SetRoleData) Run(tx *Transaction, context state.Interface, _ Bridge) Response {
	sender, _ := tx.Sender()

	switch data.Role {
	case RoleMinter, RoleRelayer, RoleBlacklisted, RoleFeeExempt:
	default:
		return Response{
			Code: code.DecodeError,
			Log:  fmt.Sprintf("unknown role %q", data.Role),
		}
	}

	if checkState, isCheck := context.(*state.CheckState); isCheck {
		if response := checkOwner(checkState, sender); response != nil {
			return *response
		}

		return Response{Code: code.OK}
	}

	deliverState := context.(*state.State)

	var err error
	switch data.Role {
	case RoleMinter:
		err = deliverState.Token.SetMinter(sender, data.Address, data.Enabled)
	case RoleRelayer:
		err = deliverState.Token.SetRelayer(sender, data.Address, data.Enabled)
	case RoleBlacklisted:
		err = deliverState.Token.SetBlacklisted(sender, data.Address, data.Enabled)
	case RoleFeeExempt:
		err = deliverState.Token.SetFeeExempt(sender, data.Address, data.Enabled)
	}
	if err != nil {
		return responseFromError(err)
	}

	return Response{
		Code: code.OK,
		Tags: map[string]string{
			"tx.role":    data.Role,
			"tx.address": data.Address.String(),
		},
	}
}

func checkOwner(checkState *state.CheckState, sender types.Address) *Response {
	if sender != checkState.Token().Owner() {
		return &Response{
			Code: code.Unauthorized,
			Log:  fmt.Sprintf("%s is not the token owner", sender.String()),
			Info: EncodeError(code.NewUnauthorized(sender.String(), token.RoleOwner)),
		}
	}
	return nil
}
