package validators

import (
	"testing"

	"github.com/luminaworld/lumina-go-node/core/types"
)

func TestProducerRotationIsStakeWeighted(t *testing.T) {
	t.Parallel()

	a := types.Address{1}
	b := types.Address{2}

	set := NewSet([]Validator{
		{Address: a, Stake: 3, Active: true},
		{Address: b, Stake: 1, Active: true},
	})

	counts := map[types.Address]int{}
	for height := uint64(0); height < 400; height++ {
		producer, err := set.ProducerAt(height)
		if err != nil {
			t.Fatal(err)
		}
		counts[producer]++
	}

	if counts[a] != 300 || counts[b] != 100 {
		t.Fatalf("rotation counts a=%d b=%d, want 300/100", counts[a], counts[b])
	}
}

func TestProducerDeterministic(t *testing.T) {
	t.Parallel()

	vals := []Validator{
		{Address: types.Address{5}, Stake: 10, Active: true},
		{Address: types.Address{7}, Stake: 20, Active: true},
		{Address: types.Address{1}, Stake: 5, Active: true},
	}

	// configuration order must not matter
	first := NewSet(vals)
	second := NewSet([]Validator{vals[2], vals[0], vals[1]})

	for height := uint64(0); height < 100; height++ {
		p1, err := first.ProducerAt(height)
		if err != nil {
			t.Fatal(err)
		}
		p2, err := second.ProducerAt(height)
		if err != nil {
			t.Fatal(err)
		}
		if p1 != p2 {
			t.Fatalf("height %d: %s vs %s", height, p1.String(), p2.String())
		}
	}
}

func TestInactiveValidatorsSkipped(t *testing.T) {
	t.Parallel()

	active := types.Address{1}
	inactive := types.Address{2}

	set := NewSet([]Validator{
		{Address: active, Stake: 1, Active: true},
		{Address: inactive, Stake: 100, Active: false},
	})

	for height := uint64(0); height < 10; height++ {
		producer, err := set.ProducerAt(height)
		if err != nil {
			t.Fatal(err)
		}
		if producer != active {
			t.Fatalf("height %d selected inactive validator", height)
		}
	}
}

func TestEmptySet(t *testing.T) {
	t.Parallel()

	set := NewSet(nil)
	if _, err := set.ProducerAt(0); err != ErrEmptySet {
		t.Fatalf("expected ErrEmptySet, got %v", err)
	}
	if set.IsProducer(0, types.Address{1}) {
		t.Fatal("empty set selected a producer")
	}
}
