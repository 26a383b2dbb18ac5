package ledger

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cosmos/iavl"
	"github.com/luminaworld/lumina-go-node/core/state/checker"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/tree"
	"github.com/tendermint/go-amino"
)

const mainPrefix = byte('a')

// InvalidAmountError is returned for non-positive amounts
type InvalidAmountError struct {
	Amount *big.Int
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s", e.Amount.String())
}

// InsufficientBalanceError is returned when a debit is not covered
type InsufficientBalanceError struct {
	Address types.Address
	Wanted  *big.Int
	Have    *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: wanted %s, have %s", e.Address.String(), e.Wanted.String(), e.Have.String())
}

// OverflowError is returned when a credit would leave the representable range
type OverflowError struct {
	Address types.Address
	Result  *big.Int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("balance overflow for %s: %s", e.Address.String(), e.Result.String())
}

// RLedger is the read-only surface of the ledger
type RLedger interface {
	GetAccount(address types.Address) *Model
	GetNonce(address types.Address) uint64
	NextNonce(address types.Address) uint64
	GetBalance(address types.Address) *big.Int
	Export(state *types.AppState)
}

// Ledger is the keyed balance store. All balance mutations in the system go
// through Credit, Debit and Transfer; nonces advance only via SetNonce on
// successful transaction application.
type Ledger struct {
	list  map[types.Address]*Model
	dirty map[types.Address]struct{}

	db      atomic.Value
	checker *checker.Checker
	cdc     *amino.Codec

	// lock guards the model and dirty maps; opMu serializes balance
	// mutations so a transfer is never observable half-applied
	lock sync.RWMutex
	opMu sync.RWMutex
}

// NewLedger creates a ledger reading through to the given immutable tree
func NewLedger(ch *checker.Checker, db *iavl.ImmutableTree) *Ledger {
	immutableTree := atomic.Value{}
	if db != nil {
		immutableTree.Store(db)
	}
	return &Ledger{
		db:      immutableTree,
		checker: ch,
		cdc:     amino.NewCodec(),
		list:    map[types.Address]*Model{},
		dirty:   map[types.Address]struct{}{},
	}
}

func (l *Ledger) immutableTree() *iavl.ImmutableTree {
	db := l.db.Load()
	if db == nil {
		return nil
	}
	return db.(*iavl.ImmutableTree)
}

// SetImmutableTree swaps the read-through tree after a commit
func (l *Ledger) SetImmutableTree(immutableTree *iavl.ImmutableTree) {
	l.db.Store(immutableTree)
}

// Credit increases the balance of address by amount
func (l *Ledger) Credit(address types.Address, amount *big.Int) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	return l.credit(address, amount)
}

func (l *Ledger) credit(address types.Address, amount *big.Int) error {
	if amount.Sign() != 1 {
		return &InvalidAmountError{Amount: amount}
	}

	account := l.getOrNew(address)
	result := big.NewInt(0).Add(account.GetBalance(), amount)
	if result.Cmp(types.MaxBalance()) == 1 {
		return &OverflowError{Address: address, Result: result}
	}

	l.checker.AddBalance(amount)
	account.setBalance(result)

	return nil
}

// Debit decreases the balance of address by amount
func (l *Ledger) Debit(address types.Address, amount *big.Int) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	return l.debit(address, amount)
}

func (l *Ledger) debit(address types.Address, amount *big.Int) error {
	if amount.Sign() != 1 {
		return &InvalidAmountError{Amount: amount}
	}

	account := l.getOrNew(address)
	balance := account.GetBalance()
	if balance.Cmp(amount) == -1 {
		return &InsufficientBalanceError{Address: address, Wanted: big.NewInt(0).Set(amount), Have: balance}
	}

	l.checker.AddBalance(big.NewInt(0).Neg(amount))
	account.setBalance(big.NewInt(0).Sub(balance, amount))

	return nil
}

// Transfer atomically debits from and credits to. If the credit fails the
// debit is rolled back before returning; no partial application is ever
// observable.
func (l *Ledger) Transfer(from, to types.Address, amount *big.Int) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	if err := l.debit(from, amount); err != nil {
		return err
	}

	if err := l.credit(to, amount); err != nil {
		if rollbackErr := l.credit(from, amount); rollbackErr != nil {
			panic(fmt.Sprintf("cannot roll back debit of %s from %s: %s", amount.String(), from.String(), rollbackErr))
		}
		return err
	}

	return nil
}

// NextNonce returns the nonce the next transaction of address must carry.
// The nonce is not committed here.
func (l *Ledger) NextNonce(address types.Address) uint64 {
	return l.GetNonce(address) + 1
}

// GetNonce returns the current nonce of address
func (l *Ledger) GetNonce(address types.Address) uint64 {
	return l.getOrNew(address).GetNonce()
}

// SetNonce commits a nonce after successful transaction application
func (l *Ledger) SetNonce(address types.Address, nonce uint64) {
	l.getOrNew(address).setNonce(nonce)
}

// GetBalance returns a copy of the balance of address
func (l *Ledger) GetBalance(address types.Address) *big.Int {
	l.opMu.RLock()
	defer l.opMu.RUnlock()

	return l.getOrNew(address).GetBalance()
}

// GetAccount returns the account model for address, creating it if absent
func (l *Ledger) GetAccount(address types.Address) *Model {
	return l.getOrNew(address)
}

// Commit writes dirty accounts to the mutable tree in sorted key order
func (l *Ledger) Commit(db tree.MTree) error {
	for _, address := range l.getOrderedDirtyAccounts() {
		account := l.getFromMap(address)
		l.lock.Lock()
		delete(l.dirty, address)
		l.lock.Unlock()

		account.lock.Lock()
		account.isDirty = false
		account.isNew = false
		data, err := l.cdc.MarshalBinaryBare(modelData{
			Nonce:   account.Nonce,
			Balance: account.Balance.String(),
		})
		account.lock.Unlock()
		if err != nil {
			return fmt.Errorf("can't encode account at %x: %v", address[:], err)
		}

		path := append([]byte{mainPrefix}, address[:]...)
		if account.GetBalance().Sign() == 0 && account.GetNonce() == 0 {
			db.Remove(path)
			continue
		}
		db.Set(path, data)
	}

	return nil
}

func (l *Ledger) getOrderedDirtyAccounts() []types.Address {
	l.lock.RLock()
	keys := make([]types.Address, 0, len(l.dirty))
	for k := range l.dirty {
		keys = append(keys, k)
	}
	l.lock.RUnlock()

	sort.SliceStable(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Bytes(), keys[j].Bytes()) == 1
	})

	return keys
}

func (l *Ledger) get(address types.Address) *Model {
	if account := l.getFromMap(address); account != nil {
		return account
	}

	if l.immutableTree() == nil {
		return nil
	}

	path := append([]byte{mainPrefix}, address[:]...)
	_, enc := l.immutableTree().Get(path)
	if len(enc) == 0 {
		return nil
	}

	var data modelData
	if err := l.cdc.UnmarshalBinaryBare(enc, &data); err != nil {
		panic(fmt.Sprintf("failed to decode account at address %s: %s", address.String(), err))
	}

	account := &Model{
		Nonce:     data.Nonce,
		Balance:   stringToBigInt(data.Balance),
		address:   address,
		markDirty: l.markDirty,
	}

	l.setToMap(address, account)
	return account
}

func (l *Ledger) getOrNew(address types.Address) *Model {
	account := l.get(address)
	if account == nil {
		account = &Model{
			Nonce:     0,
			Balance:   big.NewInt(0),
			address:   address,
			markDirty: l.markDirty,
			isNew:     true,
		}
		l.setToMap(address, account)
	}

	return account
}

func (l *Ledger) markDirty(addr types.Address) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.dirty[addr] = struct{}{}
}

func (l *Ledger) getFromMap(address types.Address) *Model {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.list[address]
}

func (l *Ledger) setToMap(address types.Address, model *Model) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.list[address] = model
}

// Export dumps all accounts into the genesis state
func (l *Ledger) Export(state *types.AppState) {
	if l.immutableTree() == nil {
		return
	}

	l.immutableTree().IterateRange([]byte{mainPrefix}, []byte{mainPrefix + 1}, true, func(key []byte, value []byte) bool {
		addressPath := key[1:]
		if len(addressPath) != types.AddressLength {
			return false
		}

		address := types.BytesToAddress(addressPath)
		account := l.get(address)

		state.Accounts = append(state.Accounts, types.Account{
			Address: address,
			Balance: account.GetBalance().String(),
			Nonce:   account.GetNonce(),
		})

		return false
	})

	sort.SliceStable(state.Accounts, func(i, j int) bool {
		return state.Accounts[i].Address.Compare(state.Accounts[j].Address) == -1
	})
}

func stringToBigInt(s string) *big.Int {
	b, ok := big.NewInt(0).SetString(s, 10)
	if !ok {
		panic(fmt.Sprintf("cannot decode %q into big.Int", s))
	}
	return b
}
