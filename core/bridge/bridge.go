package bridge

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/state/ledger"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
	"github.com/tendermint/tendermint/libs/log"
)

// Transfer directions
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Transfer statuses. Pending transitions to Confirmed or Failed exactly
// once; terminal states never transition again.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Transfer is one bridge transfer record, retained forever for audit and
// statistics
type Transfer struct {
	ID              string
	Direction       string
	ExternalTxHash  string
	NativeAddress   types.Address
	ExternalAddress string
	Amount          string
	Fee             string
	Status          string
	CreatedAt       int64
	ConfirmedAt     int64
}

// Stats is the derived view over the transfer log
type Stats struct {
	TotalTransfers uint64 `json:"total_transfers"`
	TotalVolume    string `json:"total_volume"`
	Pending        uint64 `json:"pending"`
	Confirmed      uint64 `json:"confirmed"`
	Failed         uint64 `json:"failed"`
	WindowDay      string `json:"window_day"`
	WindowUsed     string `json:"window_used"`
	DailyLimit     string `json:"daily_limit"`
}

// Bridge moves value between native balances and an external chain through
// a pending/confirm protocol. All balance mutations route through the
// ledger and token primitives; the bridge never touches balances directly.
//
// Two locks are involved. The bridge mutex serializes initiation and
// confirmation so the daily-limit read-check-write and the debit cannot
// interleave. The state lock serializes direct bridge calls against block
// production; lock order is always state lock first, bridge mutex second.
// The block producer delivers bridge transactions through Executor, which
// reaches the unexported methods while the producer already holds the
// state lock.
type Bridge struct {
	mu sync.Mutex

	state  *state.State
	store  *Store
	events events.IEventsDB
	logger log.Logger

	feeBps     uint32
	min        *big.Int
	max        *big.Int
	dailyLimit *big.Int

	// injectable for deterministic window tests
	now func() time.Time
}

// NewBridge returns a bridge over the given state and transfer log,
// configured by policy. The transfer log joins the state commit: its writes
// land together with the ledger version and are dropped with it on rollback.
func NewBridge(appState *state.State, store *Store, eventsDB events.IEventsDB, policy types.BridgePolicy, logger log.Logger) *Bridge {
	appState.AddParticipant(store)

	return &Bridge{
		state:      appState,
		store:      store,
		events:     eventsDB,
		logger:     logger,
		feeBps:     policy.FeeBps,
		min:        helpers.StringToBigInt(policy.MinTransferAmount),
		max:        helpers.StringToBigInt(policy.MaxTransferAmount),
		dailyLimit: helpers.StringToBigInt(policy.DailyLimit),
		now:        time.Now,
	}
}

// SetClock replaces the time source
func (b *Bridge) SetClock(now func() time.Time) {
	b.now = now
}

func (b *Bridge) window() string {
	return b.now().UTC().Format("2006-01-02")
}

// CheckOutbound validates an outbound transfer without applying it
func (b *Bridge) CheckOutbound(from types.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.checkOutboundLocked(from, amount)
	return err
}

func (b *Bridge) checkOutboundLocked(from types.Address, amount *big.Int) (used *big.Int, err error) {
	if amount.Cmp(b.min) == -1 || (b.max.Sign() == 1 && amount.Cmp(b.max) == 1) {
		return nil, &OutOfBoundsError{Value: amount, Min: b.min, Max: b.max}
	}

	day := b.window()
	storedDay, storedUsed, err := b.store.GetVolume()
	if err != nil {
		return nil, err
	}

	used = big.NewInt(0)
	if storedDay == day {
		used = helpers.StringToBigInt(storedUsed)
	}

	if b.dailyLimit.Sign() == 1 {
		total := big.NewInt(0).Add(used, amount)
		if total.Cmp(b.dailyLimit) == 1 {
			return nil, &DailyLimitError{Value: amount, Used: used, Limit: b.dailyLimit, Window: day}
		}
	}

	fee := helpers.Fee(amount, b.feeBps)
	needed := big.NewInt(0).Add(amount, fee)
	balance := b.state.Ledger.GetBalance(from)
	if balance.Cmp(needed) == -1 {
		return nil, &ledger.InsufficientBalanceError{Address: from, Wanted: needed, Have: balance}
	}

	return used, nil
}

// InitiateOutbound locks amount plus the bridge fee for release on the
// external chain. The fee routes to the fee account and is not refunded on
// failure; the amount itself is burned and minted back only on a failed
// external leg. Returns the transfer id for the external submitter.
func (b *Bridge) InitiateOutbound(from types.Address, externalTo string, amount *big.Int) (string, error) {
	b.state.Lock()
	defer b.state.Unlock()

	id, err := b.initiateOutbound(from, externalTo, amount)
	if err != nil {
		b.state.Rollback()
		return "", err
	}

	if _, err := b.state.Commit(); err != nil {
		b.state.Rollback()
		return "", err
	}
	return id, nil
}

func (b *Bridge) initiateOutbound(from types.Address, externalTo string, amount *big.Int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	used, err := b.checkOutboundLocked(from, amount)
	if err != nil {
		return "", err
	}

	day := b.window()
	fee := helpers.Fee(amount, b.feeBps)

	if fee.Sign() == 1 {
		if err := b.state.Ledger.Transfer(from, types.FeeAddress, fee); err != nil {
			return "", err
		}
	}
	if err := b.state.Token.Burn(from, amount); err != nil {
		if fee.Sign() == 1 {
			if rollbackErr := b.state.Ledger.Transfer(types.FeeAddress, from, fee); rollbackErr != nil {
				panic(fmt.Sprintf("failed to rollback bridge fee: %s", rollbackErr))
			}
		}
		return "", err
	}

	seq, err := b.store.NextSeq()
	if err != nil {
		return "", err
	}
	transferID := fmt.Sprintf("bt%08d", seq)

	transfer := &Transfer{
		ID:              transferID,
		Direction:       DirectionOut,
		NativeAddress:   from,
		ExternalAddress: externalTo,
		Amount:          amount.String(),
		Fee:             fee.String(),
		Status:          StatusPending,
		CreatedAt:       b.now().Unix(),
	}
	if err := b.store.SaveTransfer(transfer); err != nil {
		return "", err
	}

	if err := b.store.SetVolume(day, big.NewInt(0).Add(used, amount).String()); err != nil {
		return "", err
	}

	b.events.AddEvent(&events.BridgeOutInitiatedEvent{
		TransferID: transferID,
		NativeFrom: from,
		ExternalTo: externalTo,
		Amount:     amount.String(),
		Fee:        fee.String(),
	})

	b.logger.Info("bridge out initiated", "transfer_id", transferID, "from", from.String(), "amount", amount.String(), "fee", fee.String())

	return transferID, nil
}

// ConfirmInbound credits an inbound transfer reported by a relayer. The
// external transaction hash is the idempotency key: a repeat confirmation
// returns applied=false without re-crediting.
func (b *Bridge) ConfirmInbound(externalTxHash string, to types.Address, amount *big.Int) (bool, error) {
	b.state.Lock()
	defer b.state.Unlock()

	applied, err := b.confirmInbound(externalTxHash, to, amount)
	if err != nil {
		b.state.Rollback()
		return false, err
	}
	if !applied {
		return false, nil
	}

	if _, err := b.state.Commit(); err != nil {
		b.state.Rollback()
		return false, err
	}
	return true, nil
}

func (b *Bridge) confirmInbound(externalTxHash string, to types.Address, amount *big.Int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.store.GetInboundID(externalTxHash)
	if err != nil {
		return false, err
	}
	if existing != "" {
		b.logger.Debug("duplicate inbound confirmation", "external_hash", externalTxHash, "transfer_id", existing)
		return false, nil
	}

	if err := b.state.Token.BridgeMint(to, amount); err != nil {
		return false, err
	}

	seq, err := b.store.NextSeq()
	if err != nil {
		return false, err
	}
	transferID := fmt.Sprintf("bt%08d", seq)

	now := b.now().Unix()
	transfer := &Transfer{
		ID:             transferID,
		Direction:      DirectionIn,
		ExternalTxHash: externalTxHash,
		NativeAddress:  to,
		Amount:         amount.String(),
		Fee:            "0",
		Status:         StatusConfirmed,
		CreatedAt:      now,
		ConfirmedAt:    now,
	}
	if err := b.store.SaveTransfer(transfer); err != nil {
		return false, err
	}
	if err := b.store.SetInboundID(externalTxHash, transferID); err != nil {
		return false, err
	}

	b.events.AddEvent(&events.BridgeInConfirmedEvent{
		TransferID:     transferID,
		ExternalTxHash: externalTxHash,
		NativeTo:       to,
		Amount:         amount.String(),
	})

	b.logger.Info("bridge in confirmed", "transfer_id", transferID, "to", to.String(), "amount", amount.String())

	return true, nil
}

// ConfirmOutbound resolves a pending outbound transfer once the external
// chain reports the release. On success the record becomes Confirmed; on
// failure the burned amount is minted back to the sender (the fee is not
// refunded) and the record becomes Failed. A resolved transfer never
// transitions again.
func (b *Bridge) ConfirmOutbound(transferID, externalTxHash string, success bool) error {
	b.state.Lock()
	defer b.state.Unlock()

	refunded, err := b.confirmOutbound(transferID, externalTxHash, success)
	if err != nil {
		b.state.Rollback()
		return err
	}

	if !refunded {
		// no ledger delta on this path, only the record update
		return b.store.Flush()
	}

	if _, err := b.state.Commit(); err != nil {
		b.state.Rollback()
		return err
	}
	return nil
}

func (b *Bridge) confirmOutbound(transferID, externalTxHash string, success bool) (refunded bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	transfer, err := b.store.GetTransfer(transferID)
	if err != nil {
		return false, err
	}
	if transfer == nil || transfer.Direction != DirectionOut {
		return false, &UnknownTransferError{ID: transferID}
	}
	if transfer.Status != StatusPending {
		return false, &AlreadyResolvedError{ID: transferID, Status: transfer.Status}
	}

	if success {
		transfer.Status = StatusConfirmed
		transfer.ExternalTxHash = externalTxHash
		transfer.ConfirmedAt = b.now().Unix()
		if err := b.store.SaveTransfer(transfer); err != nil {
			return false, err
		}

		b.events.AddEvent(&events.BridgeOutConfirmedEvent{
			TransferID:     transferID,
			ExternalTxHash: externalTxHash,
		})
		b.logger.Info("bridge out confirmed", "transfer_id", transferID, "external_hash", externalTxHash)
		return false, nil
	}

	amount := helpers.StringToBigInt(transfer.Amount)

	if err := b.state.Token.BridgeMint(transfer.NativeAddress, amount); err != nil {
		return false, err
	}

	transfer.Status = StatusFailed
	transfer.ConfirmedAt = b.now().Unix()
	if err := b.store.SaveTransfer(transfer); err != nil {
		return false, err
	}

	b.events.AddEvent(&events.BridgeOutFailedEvent{
		TransferID: transferID,
		NativeFrom: transfer.NativeAddress,
		Refunded:   amount.String(),
	})

	b.logger.Info("bridge out failed, refunded", "transfer_id", transferID, "refunded", amount.String())

	return true, nil
}

// GetTransfer returns a transfer record by id, nil when unknown
func (b *Bridge) GetTransfer(transferID string) (*Transfer, error) {
	return b.store.GetTransfer(transferID)
}

// Stats derives totals over the whole transfer log
func (b *Bridge) Stats() (*Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	volume := big.NewInt(0)
	stats := &Stats{DailyLimit: b.dailyLimit.String()}

	err := b.store.IterateTransfers(func(transfer *Transfer) error {
		stats.TotalTransfers++
		volume.Add(volume, helpers.StringToBigInt(transfer.Amount))

		switch transfer.Status {
		case StatusPending:
			stats.Pending++
		case StatusConfirmed:
			stats.Confirmed++
		case StatusFailed:
			stats.Failed++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	day, used, err := b.store.GetVolume()
	if err != nil {
		return nil, err
	}
	if day != b.window() {
		used = "0"
	}

	stats.TotalVolume = volume.String()
	stats.WindowDay = b.window()
	stats.WindowUsed = used

	return stats, nil
}

// TxBridge is the bridge surface handed to the transaction executor. The
// block producer holds the state lock while delivering, so these methods
// skip it and never commit; the block commit covers their effects.
type TxBridge struct {
	Bridge *Bridge
}

// CheckOutbound validates an outbound transfer without applying it
func (tb TxBridge) CheckOutbound(from types.Address, amount *big.Int) error {
	return tb.Bridge.CheckOutbound(from, amount)
}

// InitiateOutbound initiates an outbound transfer inside a block
func (tb TxBridge) InitiateOutbound(from types.Address, externalTo string, amount *big.Int) (string, error) {
	return tb.Bridge.initiateOutbound(from, externalTo, amount)
}

// ConfirmInbound confirms an inbound transfer inside a block
func (tb TxBridge) ConfirmInbound(externalTxHash string, to types.Address, amount *big.Int) (bool, error) {
	return tb.Bridge.confirmInbound(externalTxHash, to, amount)
}
