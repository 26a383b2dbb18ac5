package mempool

import (
	"crypto/sha256"
	"errors"
	"sync"
)

// TxKeySize is the size of the transaction key index
const TxKeySize = sha256.Size

// TxKey is the fixed length array hash used as the key in maps
func TxKey(tx []byte) [TxKeySize]byte {
	return sha256.Sum256(tx)
}

var (
	// ErrTxInPool is returned on a duplicate submission
	ErrTxInPool = errors.New("tx already exists in pool")
	// ErrPoolFull is returned when the pool is at capacity
	ErrPoolFull = errors.New("pool is full")
)

// Mempool is an ordered in-memory pool for transactions before they are
// collected into a block. Submissions are kept in arrival order and deduped
// by hash.
type Mempool struct {
	mtx sync.Mutex

	txs    [][]byte
	txsMap map[[TxKeySize]byte]struct{}
	max    int
}

// NewMempool returns an empty pool capped at max transactions (0 for
// unlimited)
func NewMempool(max int) *Mempool {
	return &Mempool{
		txsMap: make(map[[TxKeySize]byte]struct{}),
		max:    max,
	}
}

// Push queues a raw transaction. Duplicates and submissions over capacity
// are rejected.
func (mem *Mempool) Push(tx []byte) error {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	key := TxKey(tx)
	if _, exists := mem.txsMap[key]; exists {
		return ErrTxInPool
	}
	if mem.max > 0 && len(mem.txs) >= mem.max {
		return ErrPoolFull
	}

	buf := make([]byte, len(tx))
	copy(buf, tx)

	mem.txs = append(mem.txs, buf)
	mem.txsMap[key] = struct{}{}

	return nil
}

// Reap returns up to max transactions in arrival order without removing
// them (0 for all)
func (mem *Mempool) Reap(max int) [][]byte {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	n := len(mem.txs)
	if max > 0 && max < n {
		n = max
	}

	out := make([][]byte, n)
	copy(out, mem.txs[:n])
	return out
}

// Remove drops the given transactions from the pool. Unknown transactions
// are ignored.
func (mem *Mempool) Remove(txs [][]byte) {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	drop := make(map[[TxKeySize]byte]struct{}, len(txs))
	for _, tx := range txs {
		drop[TxKey(tx)] = struct{}{}
	}

	kept := mem.txs[:0]
	for _, tx := range mem.txs {
		key := TxKey(tx)
		if _, ok := drop[key]; ok {
			delete(mem.txsMap, key)
			continue
		}
		kept = append(kept, tx)
	}
	mem.txs = kept
}

// Size returns the number of queued transactions
func (mem *Mempool) Size() int {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	return len(mem.txs)
}

// Flush drops all queued transactions
func (mem *Mempool) Flush() {
	mem.mtx.Lock()
	defer mem.mtx.Unlock()

	mem.txs = nil
	mem.txsMap = make(map[[TxKeySize]byte]struct{})
}
