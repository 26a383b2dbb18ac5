package transaction

import (
	"fmt"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
)

// Executor decodes, validates and runs transactions against a state view
type Executor struct {
	chainID types.ChainID
	bridge  Bridge
}

// NewExecutor returns an executor bound to the given chain id and bridge
func NewExecutor(chainID types.ChainID, bridge Bridge) *Executor {
	return &Executor{chainID: chainID, bridge: bridge}
}

// RunTx decodes rawTx and executes it against context. With a CheckState it
// validates only; with a State it applies the transaction and advances the
// sender's nonce.
func (e *Executor) RunTx(context state.Interface, rawTx []byte) Response {
	tx, err := DecodeFromBytes(rawTx)
	if err != nil {
		return Response{
			Code: code.DecodeError,
			Log:  err.Error(),
		}
	}

	return e.RunDecodedTx(context, tx)
}

// RunDecodedTx executes an already decoded transaction against context
func (e *Executor) RunDecodedTx(context state.Interface, tx *Transaction) Response {
	if tx.ChainID != e.chainID {
		return Response{
			Code: code.WrongChainID,
			Log:  fmt.Sprintf("wrong chain id: expected %d, got %d", e.chainID, tx.ChainID),
		}
	}

	if tx.GetDecodedData() == nil {
		return Response{
			Code: code.DecodeError,
			Log:  "transaction payload is not decoded",
		}
	}

	sender, err := tx.Sender()
	if err != nil {
		return Response{
			Code: code.DecodeError,
			Log:  err.Error(),
		}
	}

	var expectedNonce uint64
	checkState, isCheck := context.(*state.CheckState)
	if isCheck {
		expectedNonce = checkState.Ledger().NextNonce(sender)
	} else {
		expectedNonce = context.(*state.State).Ledger.NextNonce(sender)
	}

	if tx.Nonce != expectedNonce {
		return Response{
			Code: code.WrongNonce,
			Log:  fmt.Sprintf("wrong nonce: expected %d, got %d", expectedNonce, tx.Nonce),
			Info: EncodeError(code.NewWrongNonce(fmt.Sprintf("%d", expectedNonce), fmt.Sprintf("%d", tx.Nonce))),
		}
	}

	response := tx.GetDecodedData().Run(tx, context, e.bridge)

	if !isCheck && response.Code == code.OK {
		context.(*state.State).Ledger.SetNonce(sender, tx.Nonce)
	}

	return response
}
