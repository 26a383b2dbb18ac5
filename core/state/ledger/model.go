package ledger

import (
	"math/big"
	"sync"

	"github.com/luminaworld/lumina-go-node/core/types"
)

// Model is an in-memory account: balance, replay-protection nonce and
// dirty-tracking for the commit pass
type Model struct {
	Nonce   uint64
	Balance *big.Int

	address   types.Address
	markDirty func(types.Address)
	isDirty   bool
	isNew     bool

	lock sync.RWMutex
}

// modelData is the durable form of an account
type modelData struct {
	Nonce   uint64
	Balance string
}

// Address returns the address of the account
func (m *Model) Address() types.Address {
	return m.address
}

// GetNonce returns the current nonce of the account
func (m *Model) GetNonce() uint64 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.Nonce
}

// GetBalance returns a copy of the account balance
func (m *Model) GetBalance() *big.Int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return big.NewInt(0).Set(m.Balance)
}

func (m *Model) setNonce(nonce uint64) {
	m.lock.Lock()
	m.Nonce = nonce
	m.isDirty = true
	m.lock.Unlock()

	m.markDirty(m.address)
}

func (m *Model) setBalance(amount *big.Int) {
	m.lock.Lock()
	m.Balance = big.NewInt(0).Set(amount)
	m.isDirty = true
	m.lock.Unlock()

	m.markDirty(m.address)
}
