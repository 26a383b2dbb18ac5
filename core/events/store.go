package events

import (
	"encoding/binary"
	"sync"

	"github.com/tendermint/go-amino"
	db "github.com/tendermint/tm-db"
)

// IEventsDB is an interface of the append-only event log. PendingCount and
// TruncatePending let the block producer drop events queued by a delivery
// that was rolled back.
type IEventsDB interface {
	AddEvent(event Event)
	LoadEvents(height uint64) Events
	CommitEvents(height uint64) error
	PendingCount() int
	TruncatePending(count int)
}

type eventsStore struct {
	sync.RWMutex
	cdc     *amino.Codec
	db      db.DB
	pending Events
}

// NewEventsStore creates new events store in given DB
func NewEventsStore(db db.DB) IEventsDB {
	codec := amino.NewCodec()
	codec.RegisterInterface((*Event)(nil), nil)
	codec.RegisterConcrete(&AuditEvent{}, "audit", nil)
	codec.RegisterConcrete(&BridgeOutInitiatedEvent{}, "bridgeOutInitiated", nil)
	codec.RegisterConcrete(&BridgeInConfirmedEvent{}, "bridgeInConfirmed", nil)
	codec.RegisterConcrete(&BridgeOutConfirmedEvent{}, "bridgeOutConfirmed", nil)
	codec.RegisterConcrete(&BridgeOutFailedEvent{}, "bridgeOutFailed", nil)

	return &eventsStore{
		cdc: codec,
		db:  db,
	}
}

// AddEvent queues an event for the next commit
func (store *eventsStore) AddEvent(event Event) {
	store.Lock()
	defer store.Unlock()

	store.pending = append(store.pending, event)
}

// LoadEvents returns the events committed at the given height
func (store *eventsStore) LoadEvents(height uint64) Events {
	store.RLock()
	defer store.RUnlock()

	bytes, err := store.db.Get(uint64ToBytes(height))
	if err != nil {
		panic(err)
	}
	if len(bytes) == 0 {
		return Events{}
	}

	var items Events
	if err := store.cdc.UnmarshalBinaryBare(bytes, &items); err != nil {
		panic(err)
	}

	return items
}

// CommitEvents stores all pending events under the given height
func (store *eventsStore) CommitEvents(height uint64) error {
	store.Lock()
	defer store.Unlock()

	if len(store.pending) == 0 {
		return nil
	}

	data, err := store.cdc.MarshalBinaryBare(store.pending)
	if err != nil {
		return err
	}

	if err := store.db.Set(uint64ToBytes(height), data); err != nil {
		return err
	}

	store.pending = Events{}
	return nil
}

// PendingCount returns the number of queued events
func (store *eventsStore) PendingCount() int {
	store.RLock()
	defer store.RUnlock()

	return len(store.pending)
}

// TruncatePending drops queued events beyond the first count
func (store *eventsStore) TruncatePending(count int) {
	store.Lock()
	defer store.Unlock()

	if count < 0 {
		count = 0
	}
	if count < len(store.pending) {
		store.pending = store.pending[:count]
	}
}

func uint64ToBytes(value uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, value)
	return b
}
