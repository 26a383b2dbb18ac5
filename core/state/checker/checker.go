package checker

import (
	"fmt"
	"math/big"
	"sync"
)

// Checker accumulates balance and supply deltas over a block and verifies
// that every unit credited to a balance is matched by a unit of supply
type Checker struct {
	delta       *big.Int
	volumeDelta *big.Int

	lock sync.RWMutex
}

// NewChecker creates a checker with zeroed deltas
func NewChecker() *Checker {
	return &Checker{
		delta:       big.NewInt(0),
		volumeDelta: big.NewInt(0),
	}
}

// AddBalance records a change of some account balance
func (c *Checker) AddBalance(value *big.Int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.delta.Add(c.delta, value)
}

// AddVolume records a change of the token total supply
func (c *Checker) AddVolume(value *big.Int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.volumeDelta.Add(c.volumeDelta, value)
}

// Reset resets checker data
func (c *Checker) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.delta = big.NewInt(0)
	c.volumeDelta = big.NewInt(0)
}

// Check verifies that balance deltas match supply deltas
func (c *Checker) Check() error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.delta.Cmp(c.volumeDelta) != 0 {
		return fmt.Errorf("invariants error: balances moved by %s, supply by %s", c.delta.String(), c.volumeDelta.String())
	}

	return nil
}
