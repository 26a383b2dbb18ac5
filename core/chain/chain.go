package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luminaworld/lumina-go-node/core/appdb"
	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/mempool"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/transaction"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/core/validators"
	"github.com/luminaworld/lumina-go-node/crypto"
	"github.com/luminaworld/lumina-go-node/helpers"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	// ErrHalted is returned after a corruption-class failure stopped
	// production
	ErrHalted = errors.New("block production halted")
	// ErrNotProducer is returned when this node is not selected for the slot
	ErrNotProducer = errors.New("not the selected producer for this slot")
	// ErrBlockAborted is returned when a delivery failure aborted the whole
	// block; the slot retries with the remaining pool
	ErrBlockAborted = errors.New("block commit aborted")
)

// InvalidProducerError rejects a block from a producer the rotation did not
// select
type InvalidProducerError struct {
	Height   uint64
	Producer types.Address
}

func (e *InvalidProducerError) Error() string {
	return fmt.Sprintf("producer %s not selected for height %d", e.Producer.String(), e.Height)
}

// Code returns the response code
func (e *InvalidProducerError) Code() uint32 { return code.InvalidProducer }

// InvalidBlockError rejects a structurally inconsistent block
type InvalidBlockError struct {
	Reason string
}

func (e *InvalidBlockError) Error() string { return e.Reason }

// Code returns the response code
func (e *InvalidBlockError) Code() uint32 { return code.InvalidBlock }

// Clock abstracts time for the production scheduler so tests advance slots
// deterministically
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewRealClock returns a Clock backed by the system time
func NewRealClock() Clock { return realClock{} }

// Blockchain drives the block slot cycle: collect pending transactions,
// validate them in submission order, apply the survivors as one unit and
// append the signed block. At most one cycle is in flight at a time.
type Blockchain struct {
	state      *state.State
	checkState *state.CheckState
	appDB      *appdb.AppDB
	blocks     *Store
	pool       *mempool.Mempool
	executor   *transaction.Executor
	validators *validators.Set
	eventsDB   events.IEventsDB
	logger     log.Logger

	signer     *crypto.PrivateKey
	signerAddr types.Address

	interval    time.Duration
	maxBlockTxs int
	clock       Clock

	mu     sync.Mutex
	halted bool
}

// NewBlockchain wires the chain core. The signer key identifies this node
// in the validator rotation.
func NewBlockchain(
	appState *state.State,
	appDB *appdb.AppDB,
	blocks *Store,
	pool *mempool.Mempool,
	executor *transaction.Executor,
	vals *validators.Set,
	eventsDB events.IEventsDB,
	signer *crypto.PrivateKey,
	interval time.Duration,
	maxBlockTxs int,
	logger log.Logger,
) *Blockchain {
	return &Blockchain{
		state:       appState,
		checkState:  state.NewCheckState(appState),
		appDB:       appDB,
		blocks:      blocks,
		pool:        pool,
		executor:    executor,
		validators:  vals,
		eventsDB:    eventsDB,
		logger:      logger,
		signer:      signer,
		signerAddr:  crypto.PubkeyToAddress(signer.PubKey()),
		interval:    interval,
		maxBlockTxs: maxBlockTxs,
		clock:       NewRealClock(),
	}
}

// SetClock replaces the production scheduler's time source
func (bc *Blockchain) SetClock(clock Clock) {
	bc.clock = clock
}

// CheckState returns the read-only state view
func (bc *Blockchain) CheckState() *state.CheckState {
	return bc.checkState
}

// InitGenesis imports the genesis document and appends the distinguished
// block 0. A no-op when the chain already has blocks.
func (bc *Blockchain) InitGenesis(appState types.AppState) error {
	existing, err := bc.blocks.GetBlock(0)
	if err != nil {
		return err
	}
	if existing != nil {
		bc.loadValidators(appState.Validators)
		return nil
	}

	if err := appState.Verify(); err != nil {
		return errors.Wrap(err, "invalid genesis")
	}

	bc.state.Lock()
	defer bc.state.Unlock()

	if err := bc.state.Import(appState); err != nil {
		return errors.Wrap(err, "genesis import")
	}

	stateRoot, err := bc.state.Commit()
	if err != nil {
		return errors.Wrap(err, "genesis commit")
	}

	bc.loadValidators(appState.Validators)

	genesis := &Block{
		Height:    0,
		Timestamp: bc.clock.Now().Unix(),
		StateRoot: stateRoot,
	}
	if err := bc.blocks.SaveBlock(genesis); err != nil {
		return err
	}
	if err := bc.eventsDB.CommitEvents(0); err != nil {
		return err
	}

	bc.appDB.SetLastHeight(0)
	bc.appDB.SetLastBlockHash(genesis.Hash().Bytes())

	bc.logger.Info("genesis committed", "owner", appState.Owner.String(), "supply", appState.Token.InitialSupply)

	return nil
}

func (bc *Blockchain) loadValidators(genesisValidators []types.Validator) {
	vals := make([]validators.Validator, 0, len(genesisValidators))
	for _, v := range genesisValidators {
		vals = append(vals, validators.Validator{
			Address: v.Address,
			Stake:   helpers.StringToBigInt(v.Stake).Uint64(),
			Active:  v.Active,
		})
	}
	bc.validators.Update(vals)
}

// SubmitTransaction validates a raw transaction against the current state
// and queues it for the next block
func (bc *Blockchain) SubmitTransaction(rawTx []byte) transaction.Response {
	response := bc.executor.RunTx(bc.checkState, rawTx)
	if response.Code != code.OK {
		return response
	}

	if err := bc.pool.Push(rawTx); err != nil {
		return transaction.Response{
			Code: code.DecodeError,
			Log:  err.Error(),
		}
	}

	return response
}

// ProduceBlock runs one full slot cycle for this node. Returns
// ErrNotProducer when the rotation selected someone else and ErrBlockAborted
// when a delivery race forced a whole-block retry.
func (bc *Blockchain) ProduceBlock() (*Block, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.halted {
		return nil, ErrHalted
	}

	height := bc.appDB.GetLastHeight() + 1
	if !bc.validators.IsProducer(height, bc.signerAddr) {
		return nil, ErrNotProducer
	}

	txs := bc.pool.Reap(bc.maxBlockTxs)

	bc.state.Lock()
	defer bc.state.Unlock()

	// Validating: drop failures from this block, report, do not retry
	var valid, dropped [][]byte
	for _, tx := range txs {
		response := bc.executor.RunTx(bc.checkState, tx)
		if response.Code != code.OK {
			bc.logger.Info("tx dropped from block", "height", height, "code", response.Code, "log", response.Log)
			dropped = append(dropped, tx)
			continue
		}
		valid = append(valid, tx)
	}
	bc.pool.Remove(dropped)

	// Committing: apply as a unit; any failure aborts the whole block and
	// the slot retries with the remaining pool. Events queued by rolled
	// back deliveries are dropped with the rest of the working set.
	eventsMark := bc.eventsDB.PendingCount()
	for _, tx := range valid {
		response := bc.executor.RunTx(bc.state, tx)
		if response.Code != code.OK {
			bc.logger.Error("delivery failed, aborting block", "height", height, "code", response.Code, "log", response.Log)
			bc.state.Rollback()
			bc.eventsDB.TruncatePending(eventsMark)
			bc.pool.Remove([][]byte{tx})
			return nil, ErrBlockAborted
		}
	}

	if err := bc.state.Check(); err != nil {
		return nil, bc.halt(errors.Wrap(err, "state invariant broken"))
	}

	stateRoot, err := bc.state.Commit()
	if err != nil {
		return nil, bc.halt(errors.Wrap(err, "state commit"))
	}

	var parentHash types.Hash
	copy(parentHash[:], bc.appDB.GetLastBlockHash())

	block := &Block{
		Height:     height,
		ParentHash: parentHash,
		Timestamp:  bc.clock.Now().Unix(),
		Txs:        valid,
		StateRoot:  stateRoot,
		Producer:   bc.signerAddr,
	}
	if err := block.Sign(bc.signer); err != nil {
		return nil, bc.halt(errors.Wrap(err, "block signing"))
	}

	if err := bc.appendBlock(block); err != nil {
		return nil, bc.halt(err)
	}

	bc.pool.Remove(valid)

	bc.logger.Info("block committed", "height", height, "txs", len(valid), "hash", block.Hash().String())

	return block, nil
}

// ApplyBlock verifies and applies a block from another producer. Rotation
// and signature failures reject the block; a state root mismatch after
// replay is corruption-class and halts production.
func (bc *Blockchain) ApplyBlock(block *Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.halted {
		return ErrHalted
	}

	height := bc.appDB.GetLastHeight() + 1
	if block.Height != height {
		return &InvalidBlockError{Reason: fmt.Sprintf("expected height %d, got %d", height, block.Height)}
	}

	var parentHash types.Hash
	copy(parentHash[:], bc.appDB.GetLastBlockHash())
	if block.ParentHash != parentHash {
		return &InvalidBlockError{Reason: fmt.Sprintf("parent hash mismatch at height %d", block.Height)}
	}

	if !bc.validators.IsProducer(block.Height, block.Producer) {
		return &InvalidProducerError{Height: block.Height, Producer: block.Producer}
	}
	if err := block.VerifySignature(); err != nil {
		return &InvalidProducerError{Height: block.Height, Producer: block.Producer}
	}

	bc.state.Lock()
	defer bc.state.Unlock()

	eventsMark := bc.eventsDB.PendingCount()
	for _, tx := range block.Txs {
		response := bc.executor.RunTx(bc.state, tx)
		if response.Code != code.OK {
			bc.state.Rollback()
			bc.eventsDB.TruncatePending(eventsMark)
			return &InvalidBlockError{Reason: fmt.Sprintf("tx rejected in block %d: %s", block.Height, response.Log)}
		}
	}

	if err := bc.state.Check(); err != nil {
		return bc.halt(errors.Wrap(err, "state invariant broken"))
	}

	stateRoot, err := bc.state.Commit()
	if err != nil {
		return bc.halt(errors.Wrap(err, "state commit"))
	}

	if string(stateRoot) != string(block.StateRoot) {
		return bc.halt(errors.Errorf("state root mismatch at height %d", block.Height))
	}

	if err := bc.appendBlock(block); err != nil {
		return bc.halt(err)
	}

	bc.pool.Remove(block.Txs)

	return nil
}

func (bc *Blockchain) appendBlock(block *Block) error {
	if err := bc.blocks.SaveBlock(block); err != nil {
		return err
	}
	if err := bc.eventsDB.CommitEvents(block.Height); err != nil {
		return err
	}

	bc.appDB.SetLastHeight(block.Height)
	bc.appDB.SetLastBlockHash(block.Hash().Bytes())

	return nil
}

// halt marks the chain stopped after a corruption-class failure. Production
// never resumes in-process.
func (bc *Blockchain) halt(err error) error {
	bc.halted = true
	bc.logger.Error("block production halted", "err", err)
	return errors.Wrap(err, "fatal")
}

// IsHalted reports whether production stopped on a fatal error
func (bc *Blockchain) IsHalted() bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	return bc.halted
}

// GetBlock returns a stored block by height, nil when unknown
func (bc *Blockchain) GetBlock(height uint64) (*Block, error) {
	return bc.blocks.GetBlock(height)
}

// LastHeight returns the height of the last committed block
func (bc *Blockchain) LastHeight() uint64 {
	return bc.appDB.GetLastHeight()
}

// Serve runs the production scheduler until the context is done. One timer
// tick drives at most one slot cycle.
func (bc *Blockchain) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-bc.clock.After(bc.interval):
			_, err := bc.ProduceBlock()
			switch {
			case err == nil, errors.Is(err, ErrNotProducer):
			case errors.Is(err, ErrBlockAborted):
				bc.logger.Info("slot retried after aborted block")
			case errors.Is(err, ErrHalted):
				return ErrHalted
			default:
				return err
			}
		}
	}
}
