package bridge

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/tendermint/go-amino"
	db "github.com/tendermint/tm-db"
)

const (
	transferPrefix = byte('t')
	inboundPrefix  = byte('x')
)

var (
	seqKey    = []byte("seq")
	volumeKey = []byte("volume")
)

// volumeRecord is the durable daily-limit window: the UTC day it covers and
// the volume already initiated within it
type volumeRecord struct {
	Day  string
	Used string
}

// Store is the append-only bridge transfer log. Records are amino encoded
// and keyed by transfer id; confirmed inbound hashes carry a secondary
// index for the idempotency guard.
//
// Writes are buffered in memory and reach the database only on Flush, so
// the log stays consistent with the versioned ledger: the state commit
// flushes the buffer, a rollback discards it.
type Store struct {
	db  db.DB
	cdc *amino.Codec

	mu      sync.Mutex
	pending map[string][]byte
}

// NewStore returns a store over the given key-value database
func NewStore(database db.DB) *Store {
	return &Store{
		db:      database,
		cdc:     amino.NewCodec(),
		pending: map[string][]byte{},
	}
}

func (s *Store) set(key, value []byte) {
	s.mu.Lock()
	s.pending[string(key)] = value
	s.mu.Unlock()
}

func (s *Store) get(key []byte) ([]byte, error) {
	s.mu.Lock()
	if value, ok := s.pending[string(key)]; ok {
		s.mu.Unlock()
		return value, nil
	}
	s.mu.Unlock()

	return s.db.Get(key)
}

// Flush writes the buffered records to the database in one synchronous
// batch and empties the buffer
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	keys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := batch.Set([]byte(key), s.pending[key]); err != nil {
			return err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return err
	}

	s.pending = map[string][]byte{}
	return nil
}

// Discard drops the buffered records without writing them
func (s *Store) Discard() {
	s.mu.Lock()
	s.pending = map[string][]byte{}
	s.mu.Unlock()
}

// SaveTransfer writes a transfer record
func (s *Store) SaveTransfer(transfer *Transfer) error {
	data, err := s.cdc.MarshalBinaryBare(transfer)
	if err != nil {
		return err
	}
	s.set(append([]byte{transferPrefix}, transfer.ID...), data)
	return nil
}

// GetTransfer loads a transfer record by id, nil when unknown
func (s *Store) GetTransfer(id string) (*Transfer, error) {
	data, err := s.get(append([]byte{transferPrefix}, id...))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	transfer := new(Transfer)
	if err := s.cdc.UnmarshalBinaryBare(data, transfer); err != nil {
		return nil, errors.Wrapf(err, "corrupted transfer record %s", id)
	}
	return transfer, nil
}

// GetInboundID resolves an external transaction hash to the transfer it
// confirmed, "" when unused
func (s *Store) GetInboundID(externalTxHash string) (string, error) {
	data, err := s.get(append([]byte{inboundPrefix}, externalTxHash...))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetInboundID records the external transaction hash of a confirmed inbound
// transfer
func (s *Store) SetInboundID(externalTxHash, transferID string) error {
	s.set(append([]byte{inboundPrefix}, externalTxHash...), []byte(transferID))
	return nil
}

// NextSeq increments and returns the transfer sequence counter
func (s *Store) NextSeq() (uint64, error) {
	data, err := s.get(seqKey)
	if err != nil {
		return 0, err
	}

	var seq uint64
	if len(data) == 8 {
		seq = binary.BigEndian.Uint64(data)
	}
	seq++

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	s.set(seqKey, buf)

	return seq, nil
}

// GetVolume loads the daily-limit window, empty when never written
func (s *Store) GetVolume() (day string, used string, err error) {
	data, err := s.get(volumeKey)
	if err != nil {
		return "", "", err
	}
	if len(data) == 0 {
		return "", "0", nil
	}

	record := new(volumeRecord)
	if err := s.cdc.UnmarshalBinaryBare(data, record); err != nil {
		return "", "", errors.Wrap(err, "corrupted volume record")
	}
	return record.Day, record.Used, nil
}

// SetVolume stores the daily-limit window
func (s *Store) SetVolume(day string, used string) error {
	data, err := s.cdc.MarshalBinaryBare(&volumeRecord{Day: day, Used: used})
	if err != nil {
		return err
	}
	s.set(volumeKey, data)
	return nil
}

// IterateTransfers calls fn for every transfer record, buffered records
// included. Buffered records supersede their stored versions; records that
// exist only in the buffer come after the stored ones, in key order.
func (s *Store) IterateTransfers(fn func(transfer *Transfer) error) error {
	s.mu.Lock()
	overlay := make(map[string][]byte, len(s.pending))
	for key, value := range s.pending {
		if len(key) > 0 && key[0] == transferPrefix {
			overlay[key] = value
		}
	}
	s.mu.Unlock()

	decode := func(data []byte) error {
		transfer := new(Transfer)
		if err := s.cdc.UnmarshalBinaryBare(data, transfer); err != nil {
			return errors.Wrap(err, "corrupted transfer record")
		}
		return fn(transfer)
	}

	it, err := s.db.Iterator([]byte{transferPrefix}, []byte{transferPrefix + 1})
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		data := it.Value()
		if buffered, ok := overlay[string(it.Key())]; ok {
			data = buffered
			delete(overlay, string(it.Key()))
		}
		if err := decode(data); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return err
	}

	rest := make([]string, 0, len(overlay))
	for key := range overlay {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	for _, key := range rest {
		if err := decode(overlay[key]); err != nil {
			return err
		}
	}

	return nil
}
