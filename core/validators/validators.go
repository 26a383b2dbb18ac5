package validators

import (
	"errors"
	"math/big"
	"sort"
	"sync"

	"github.com/luminaworld/lumina-go-node/core/types"
)

// Validator is an identity authorized to produce blocks in proportion to
// its stake weight
type Validator struct {
	Address types.Address
	Stake   uint64
	Active  bool
}

// ErrEmptySet is returned when no active validator carries stake
var ErrEmptySet = errors.New("no active validators with stake")

// Set holds the validator set. The chain core exclusively owns it; every
// other component reads through ProducerAt.
type Set struct {
	lock       sync.RWMutex
	validators []Validator
	totalStake uint64
}

// NewSet returns a set over the given validators. Order is normalized by
// address so that selection is independent of configuration order.
func NewSet(validators []Validator) *Set {
	s := &Set{}
	s.Update(validators)
	return s
}

// Update replaces the validator set
func (s *Set) Update(validators []Validator) {
	sorted := make([]Validator, len(validators))
	copy(sorted, validators)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Address.Compare(sorted[j].Address) == -1
	})

	var total uint64
	for _, v := range sorted {
		if v.Active {
			total += v.Stake
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.validators = sorted
	s.totalStake = total
}

// Validators returns a copy of the current set
func (s *Set) Validators() []Validator {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]Validator, len(s.validators))
	copy(out, s.validators)
	return out
}

// ProducerAt selects the producer for the given height. Selection is
// deterministic and stake weighted: height is reduced modulo total stake
// and mapped onto cumulative stake ranges of the active validators.
func (s *Set) ProducerAt(height uint64) (types.Address, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.totalStake == 0 {
		return types.Address{}, ErrEmptySet
	}

	slot := new(big.Int).Mod(
		new(big.Int).SetUint64(height),
		new(big.Int).SetUint64(s.totalStake),
	).Uint64()

	var cumulative uint64
	for _, v := range s.validators {
		if !v.Active {
			continue
		}
		cumulative += v.Stake
		if slot < cumulative {
			return v.Address, nil
		}
	}

	return types.Address{}, ErrEmptySet
}

// IsProducer reports whether address is the selected producer for height
func (s *Set) IsProducer(height uint64, address types.Address) bool {
	producer, err := s.ProducerAt(height)
	if err != nil {
		return false
	}
	return producer == address
}
