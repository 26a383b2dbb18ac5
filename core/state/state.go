package state

import (
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/state/checker"
	"github.com/luminaworld/lumina-go-node/core/state/ledger"
	"github.com/luminaworld/lumina-go-node/core/state/token"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
	"github.com/luminaworld/lumina-go-node/tree"
	db "github.com/tendermint/tm-db"
)

// Interface is implemented by both the deliver state and the check view
type Interface interface {
	isValue_State()
}

// Participant is a side store whose writes must live and die with the
// versioned tree. Buffered writes are flushed on Commit and dropped on
// Rollback.
type Participant interface {
	Flush() error
	Discard()
}

// CheckState is a read-only view used during transaction validation
type CheckState struct {
	state *State
}

// NewCheckState wraps a state in its read-only view
func NewCheckState(state *State) *CheckState {
	return &CheckState{state: state}
}

func (cs *CheckState) isValue_State() {}

// Ledger returns the read-only account ledger
func (cs *CheckState) Ledger() ledger.RLedger {
	return cs.state.Ledger
}

// Token returns the read-only token module
func (cs *CheckState) Token() token.RToken {
	return cs.state.Token
}

// Export dumps the full application state in genesis form
func (cs *CheckState) Export() types.AppState {
	appState := new(types.AppState)
	cs.state.Token.Export(appState)
	cs.state.Ledger.Export(appState)

	return *appState
}

// State is the mutable application state: the account ledger and the token
// module over one versioned tree
type State struct {
	Ledger  *ledger.Ledger
	Token   *token.Token
	Checker *checker.Checker

	db             db.DB
	events         events.IEventsDB
	tree           tree.MTree
	keepLastStates int64
	participants   []Participant

	lock   sync.RWMutex
	height uint64 // atomic
}

func (s *State) isValue_State() {}

// NewState loads application state at the given height (0 for empty)
func NewState(height uint64, stateDB db.DB, ev events.IEventsDB, cacheSize int, keepLastStates int64) (*State, error) {
	iavlTree, err := tree.NewMutableTree(height, stateDB, cacheSize)
	if err != nil {
		return nil, err
	}

	ch := checker.NewChecker()
	immutable := iavlTree.GetLastImmutable()
	l := ledger.NewLedger(ch, immutable)
	tok := token.NewToken(l, ch, ev, immutable)

	return &State{
		Ledger:         l,
		Token:          tok,
		Checker:        ch,
		db:             stateDB,
		events:         ev,
		tree:           iavlTree,
		keepLastStates: keepLastStates,
		height:         height,
	}, nil
}

// Tree returns the underlying versioned tree
func (s *State) Tree() tree.MTree {
	return s.tree
}

// Height returns the last committed version
func (s *State) Height() uint64 {
	return atomic.LoadUint64(&s.height)
}

// AddParticipant registers a side store to flush on Commit and discard on
// Rollback. Must be called before the state is in use.
func (s *State) AddParticipant(p Participant) {
	s.participants = append(s.participants, p)
}

// Lock takes the state write lock. Bridge operations and block commits use
// it to serialize their ledger mutations.
func (s *State) Lock() {
	s.lock.Lock()
}

// Unlock releases the state write lock
func (s *State) Unlock() {
	s.lock.Unlock()
}

// RLock takes the state read lock
func (s *State) RLock() {
	s.lock.RLock()
}

// RUnlock releases the state read lock
func (s *State) RUnlock() {
	s.lock.RUnlock()
}

// Check verifies the supply/balance invariant accumulated since the last
// commit
func (s *State) Check() error {
	return s.Checker.Check()
}

// Commit writes dirty modules to the tree and saves a new version, then
// flushes registered side stores. The returned hash is the state root of the
// saved version. Callers must hold the state write lock.
func (s *State) Commit() ([]byte, error) {
	s.Checker.Reset()

	if err := s.Ledger.Commit(s.tree); err != nil {
		return nil, err
	}
	if err := s.Token.Commit(s.tree); err != nil {
		return nil, err
	}

	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return hash, err
	}

	immutable := s.tree.GetLastImmutable()
	s.Ledger.SetImmutableTree(immutable)
	s.Token.SetImmutableTree(immutable)

	atomic.StoreUint64(&s.height, uint64(version))

	for _, p := range s.participants {
		if err := p.Flush(); err != nil {
			return hash, err
		}
	}

	if s.keepLastStates > 0 {
		versionToDelete := version - s.keepLastStates - 1
		if versionToDelete > 0 {
			_ = s.tree.DeleteVersionIfExists(versionToDelete)
		}
	}

	return hash, nil
}

// Rollback discards all uncommitted working changes. The ledger and token
// modules are rebuilt from the last saved version; callers must hold the
// state write lock.
func (s *State) Rollback() {
	s.tree.Rollback()
	s.Checker.Reset()

	immutable := s.tree.GetLastImmutable()
	s.Ledger = ledger.NewLedger(s.Checker, immutable)
	s.Token = token.NewToken(s.Ledger, s.Checker, s.events, immutable)

	for _, p := range s.participants {
		p.Discard()
	}
}

// Import seeds the state from a verified genesis document
func (s *State) Import(appState types.AppState) error {
	s.Token.Init(appState.Owner, appState.Token)

	distributed := big.NewInt(0)
	for _, account := range appState.Accounts {
		balance := helpers.StringToBigInt(account.Balance)
		if balance.Sign() == 1 {
			if err := s.Token.InitialMint(account.Address, balance); err != nil {
				return err
			}
			distributed.Add(distributed, balance)
		}
		if account.Nonce > 0 {
			s.Ledger.SetNonce(account.Address, account.Nonce)
		}
	}

	initialSupply := helpers.StringToBigInt(appState.Token.InitialSupply)
	remainder := big.NewInt(0).Sub(initialSupply, distributed)
	if remainder.Sign() == 1 {
		if err := s.Token.InitialMint(appState.Owner, remainder); err != nil {
			return err
		}
	}

	return nil
}
