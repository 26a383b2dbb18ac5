package bridge

import (
	"context"
	"math/big"

	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
)

// InboundEvent reports a bridge-relevant deposit observed on the external
// chain
type InboundEvent struct {
	ExternalTxHash string
	NativeTo       types.Address
	Amount         string
}

// OutboundResult reports the final status of a relayed outbound transfer
type OutboundResult struct {
	TransferID     string
	ExternalTxHash string
	Success        bool
}

// Observer watches the external chain. It is not implemented by this core;
// events arrive on channels so that arrival timing never couples to
// processing order.
type Observer interface {
	InboundEvents() <-chan InboundEvent
	OutboundResults() <-chan OutboundResult
}

// Submitter relays outbound transfers to the external chain. It is external
// to this core; the bridge-out event log is its work queue.
type Submitter interface {
	SubmitRelease(transferID string, nativeFrom types.Address, externalTo string, amount *big.Int) (externalTxHash string, err error)
}

// Listen consumes observer callbacks until the context is done. Callbacks
// may arrive out of order, delayed or duplicated; the idempotency keys make
// processing order-independent, so failures here are logged and never
// propagate back to the observer.
func (b *Bridge) Listen(ctx context.Context, observer Observer) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-observer.InboundEvents():
			if !ok {
				return
			}
			if !helpers.IsValidBigInt(event.Amount) {
				b.logger.Error("invalid inbound amount", "external_hash", event.ExternalTxHash, "amount", event.Amount)
				continue
			}
			if _, err := b.ConfirmInbound(event.ExternalTxHash, event.NativeTo, helpers.StringToBigInt(event.Amount)); err != nil {
				b.logger.Error("inbound confirmation failed", "external_hash", event.ExternalTxHash, "err", err)
			}
		case result, ok := <-observer.OutboundResults():
			if !ok {
				return
			}
			if err := b.ConfirmOutbound(result.TransferID, result.ExternalTxHash, result.Success); err != nil {
				if _, resolved := err.(*AlreadyResolvedError); resolved {
					continue
				}
				b.logger.Error("outbound confirmation failed", "transfer_id", result.TransferID, "err", err)
			}
		}
	}
}
