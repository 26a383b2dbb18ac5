package bridge

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/tendermint/tendermint/libs/log"
	db "github.com/tendermint/tm-db"
)

var (
	owner = types.Address{0xaa}
	alice = types.Address{1}
	bob   = types.Address{2}
)

func newTestBridge(t *testing.T, policy types.BridgePolicy) (*Bridge, *state.State) {
	t.Helper()

	s, err := state.NewState(0, db.NewMemDB(), events.NewEventsStore(db.NewMemDB()), 1024, 0)
	if err != nil {
		t.Fatal(err)
	}

	s.Token.Init(owner, types.TokenPolicy{MaxTransferAmount: "0"})
	if err := s.Token.InitialMint(alice, big.NewInt(100000)); err != nil {
		t.Fatal(err)
	}

	s.Lock()
	_, err = s.Commit()
	s.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	b := NewBridge(s, NewStore(db.NewMemDB()), events.NewEventsStore(db.NewMemDB()), policy, log.NewNopLogger())
	return b, s
}

func defaultPolicy() types.BridgePolicy {
	return types.BridgePolicy{
		FeeBps:            0,
		MinTransferAmount: "10",
		MaxTransferAmount: "50000",
		DailyLimit:        "0",
	}
}

func TestOutboundDebitsAndBurns(t *testing.T) {
	t.Parallel()

	policy := defaultPolicy()
	policy.FeeBps = 100
	b, s := newTestBridge(t, policy)

	supplyBefore := s.Token.TotalSupply()

	id, err := b.InitiateOutbound(alice, "0xext-addr", big.NewInt(1000))
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty transfer id")
	}

	// 1000 burned plus 10 fee routed
	if got := s.Ledger.GetBalance(alice); got.Cmp(big.NewInt(98990)) != 0 {
		t.Fatalf("sender balance %s, want 98990", got)
	}
	if got := s.Ledger.GetBalance(types.FeeAddress); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("fee balance %s, want 10", got)
	}

	wantSupply := big.NewInt(0).Sub(supplyBefore, big.NewInt(1000))
	if got := s.Token.TotalSupply(); got.Cmp(wantSupply) != 0 {
		t.Fatalf("supply %s, want %s", got, wantSupply)
	}

	transfer, err := b.GetTransfer(id)
	if err != nil {
		t.Fatal(err)
	}
	if transfer.Status != StatusPending || transfer.Direction != DirectionOut {
		t.Fatalf("transfer %s %s, want pending out", transfer.Status, transfer.Direction)
	}
}

func TestOutboundBounds(t *testing.T) {
	t.Parallel()
	b, _ := newTestBridge(t, defaultPolicy())

	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(5)); err == nil {
		t.Fatal("below-min transfer accepted")
	} else if _, ok := err.(*OutOfBoundsError); !ok {
		t.Fatalf("expected OutOfBoundsError, got %v", err)
	}

	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(60000)); err == nil {
		t.Fatal("above-max transfer accepted")
	} else if _, ok := err.(*OutOfBoundsError); !ok {
		t.Fatalf("expected OutOfBoundsError, got %v", err)
	}
}

func TestFailedOutboundRefunds(t *testing.T) {
	t.Parallel()

	policy := defaultPolicy()
	policy.FeeBps = 100
	b, s := newTestBridge(t, policy)

	balanceBefore := s.Ledger.GetBalance(alice)

	id, err := b.InitiateOutbound(alice, "0xext", big.NewInt(1000))
	if err != nil {
		t.Fatal(err)
	}

	if err := b.ConfirmOutbound(id, "", false); err != nil {
		t.Fatal(err)
	}

	// amount restored, fee kept
	want := big.NewInt(0).Sub(balanceBefore, big.NewInt(10))
	if got := s.Ledger.GetBalance(alice); got.Cmp(want) != 0 {
		t.Fatalf("balance after refund %s, want %s", got, want)
	}

	transfer, err := b.GetTransfer(id)
	if err != nil {
		t.Fatal(err)
	}
	if transfer.Status != StatusFailed {
		t.Fatalf("status %s, want failed", transfer.Status)
	}

	// supply invariant holds through burn and refund mint
	diff := big.NewInt(0).Sub(s.Token.TotalMinted(), s.Token.TotalBurned())
	if s.Token.TotalSupply().Cmp(diff) != 0 {
		t.Fatal("supply invariant broken after refund")
	}
}

func TestConfirmOutboundTerminal(t *testing.T) {
	t.Parallel()
	b, _ := newTestBridge(t, defaultPolicy())

	id, err := b.InitiateOutbound(alice, "0xext", big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}

	if err := b.ConfirmOutbound(id, "0xhash", true); err != nil {
		t.Fatal(err)
	}

	// a resolved transfer never transitions again
	err = b.ConfirmOutbound(id, "0xother", false)
	if _, ok := err.(*AlreadyResolvedError); !ok {
		t.Fatalf("expected AlreadyResolvedError, got %v", err)
	}

	err = b.ConfirmOutbound("bt99999999", "0xhash", true)
	if _, ok := err.(*UnknownTransferError); !ok {
		t.Fatalf("expected UnknownTransferError, got %v", err)
	}
}

func TestInboundIdempotent(t *testing.T) {
	t.Parallel()
	b, s := newTestBridge(t, defaultPolicy())

	applied, err := b.ConfirmInbound("0xext-hash", bob, big.NewInt(500))
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("first confirmation not applied")
	}

	applied, err = b.ConfirmInbound("0xext-hash", bob, big.NewInt(500))
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Fatal("duplicate confirmation re-applied")
	}

	// credited exactly once
	if got := s.Ledger.GetBalance(bob); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance %s, want 500", got)
	}
}

func TestDailyLimitRace(t *testing.T) {
	t.Parallel()

	policy := defaultPolicy()
	policy.DailyLimit = "1500"
	b, _ := newTestBridge(t, policy)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.InitiateOutbound(alice, "0xext", big.NewInt(1000))
		}(i)
	}
	wg.Wait()

	var ok, limited int
	for _, err := range errs {
		switch err.(type) {
		case nil:
			ok++
		case *DailyLimitError:
			limited++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || limited != 1 {
		t.Fatalf("ok=%d limited=%d, want exactly one of each", ok, limited)
	}

	stats, err := b.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.WindowUsed != "1000" {
		t.Fatalf("window used %s, want 1000", stats.WindowUsed)
	}
}

func TestDailyLimitWindowResets(t *testing.T) {
	t.Parallel()

	policy := defaultPolicy()
	policy.DailyLimit = "1000"
	b, _ := newTestBridge(t, policy)

	now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return now })

	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}

	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(100)); err == nil {
		t.Fatal("over-limit transfer accepted")
	}

	// next UTC day opens a fresh window
	now = now.Add(2 * time.Hour)
	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	b, _ := newTestBridge(t, defaultPolicy())

	out1, err := b.InitiateOutbound(alice, "0xext", big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(200)); err != nil {
		t.Fatal(err)
	}
	if err := b.ConfirmOutbound(out1, "0xhash", true); err != nil {
		t.Fatal(err)
	}
	if _, err := b.ConfirmInbound("0xin", bob, big.NewInt(300)); err != nil {
		t.Fatal(err)
	}

	stats, err := b.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalTransfers != 3 {
		t.Fatalf("total %d, want 3", stats.TotalTransfers)
	}
	if stats.TotalVolume != "600" {
		t.Fatalf("volume %s, want 600", stats.TotalVolume)
	}
	if stats.Pending != 1 || stats.Confirmed != 2 || stats.Failed != 0 {
		t.Fatalf("pending=%d confirmed=%d failed=%d", stats.Pending, stats.Confirmed, stats.Failed)
	}
}

func TestRollbackDiscardsOutboundRecord(t *testing.T) {
	t.Parallel()
	b, s := newTestBridge(t, defaultPolicy())

	// an outbound applied inside a block that is later rolled back must
	// leave no trace: no transfer record, no volume, no burned balance
	s.Lock()
	id, err := b.initiateOutbound(alice, "0xext", big.NewInt(600))
	if err != nil {
		s.Unlock()
		t.Fatal(err)
	}
	s.Rollback()
	s.Unlock()

	transfer, err := b.GetTransfer(id)
	if err != nil {
		t.Fatal(err)
	}
	if transfer != nil {
		t.Fatalf("orphan transfer %s survived rollback", transfer.ID)
	}

	stats, err := b.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.WindowUsed != "0" {
		t.Fatalf("window used %s after rollback, want 0", stats.WindowUsed)
	}
	if stats.TotalTransfers != 0 {
		t.Fatalf("total transfers %d after rollback, want 0", stats.TotalTransfers)
	}
	if got := s.Ledger.GetBalance(alice); got.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("balance %s after rollback, want 100000", got)
	}

	// the sequence counter rolls back with the record
	id2, err := b.InitiateOutbound(alice, "0xext", big.NewInt(600))
	if err != nil {
		t.Fatal(err)
	}
	if id2 != id {
		t.Fatalf("transfer id %s after rollback, want %s", id2, id)
	}
}

func TestRollbackDiscardsInboundIndex(t *testing.T) {
	t.Parallel()
	b, s := newTestBridge(t, defaultPolicy())

	// a rolled back inbound confirmation must not leave the idempotency
	// key behind, or the credit would be swallowed forever
	s.Lock()
	applied, err := b.confirmInbound("0xin-hash", bob, big.NewInt(500))
	if err != nil {
		s.Unlock()
		t.Fatal(err)
	}
	if !applied {
		s.Unlock()
		t.Fatal("first confirmation not applied")
	}
	s.Rollback()
	s.Unlock()

	if got := s.Ledger.GetBalance(bob); got.Sign() != 0 {
		t.Fatalf("balance %s after rollback, want 0", got)
	}

	applied, err = b.ConfirmInbound("0xin-hash", bob, big.NewInt(500))
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("confirmation after rollback not applied")
	}
	if got := s.Ledger.GetBalance(bob); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance %s, want 500", got)
	}
}

func TestConfirmOutboundSurvivesLaterRollback(t *testing.T) {
	t.Parallel()
	b, s := newTestBridge(t, defaultPolicy())

	id, err := b.InitiateOutbound(alice, "0xext", big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ConfirmOutbound(id, "0xhash", true); err != nil {
		t.Fatal(err)
	}

	// an unrelated rollback must not drop the resolved record
	s.Lock()
	s.Rollback()
	s.Unlock()

	transfer, err := b.GetTransfer(id)
	if err != nil {
		t.Fatal(err)
	}
	if transfer == nil || transfer.Status != StatusConfirmed {
		t.Fatalf("transfer %+v, want confirmed", transfer)
	}
}

// flakySeqDB fails reads of the sequence counter on demand
type flakySeqDB struct {
	*db.MemDB
	fail bool
}

func (f *flakySeqDB) Get(key []byte) ([]byte, error) {
	if f.fail && string(key) == "seq" {
		return nil, errors.New("backing store read failed")
	}
	return f.MemDB.Get(key)
}

func TestStoreFailureRollsBackLedger(t *testing.T) {
	t.Parallel()

	s, err := state.NewState(0, db.NewMemDB(), events.NewEventsStore(db.NewMemDB()), 1024, 0)
	if err != nil {
		t.Fatal(err)
	}
	s.Token.Init(owner, types.TokenPolicy{MaxTransferAmount: "0"})
	if err := s.Token.InitialMint(alice, big.NewInt(100000)); err != nil {
		t.Fatal(err)
	}
	s.Lock()
	_, err = s.Commit()
	s.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	flaky := &flakySeqDB{MemDB: db.NewMemDB()}
	b := NewBridge(s, NewStore(flaky), events.NewEventsStore(db.NewMemDB()), defaultPolicy(), log.NewNopLogger())

	supplyBefore := s.Token.TotalSupply()

	// the counter read happens after the burn; the failed operation must
	// not leave the debit behind
	flaky.fail = true
	if _, err := b.InitiateOutbound(alice, "0xext", big.NewInt(1000)); err == nil {
		t.Fatal("expected store failure")
	}

	if got := s.Ledger.GetBalance(alice); got.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("balance %s after failed operation, want 100000", got)
	}
	if got := s.Token.TotalSupply(); got.Cmp(supplyBefore) != 0 {
		t.Fatalf("supply %s after failed operation, want %s", got, supplyBefore)
	}

	flaky.fail = false
	id, err := b.InitiateOutbound(alice, "0xext", big.NewInt(1000))
	if err != nil {
		t.Fatal(err)
	}
	transfer, err := b.GetTransfer(id)
	if err != nil {
		t.Fatal(err)
	}
	if transfer == nil || transfer.Status != StatusPending {
		t.Fatalf("transfer %+v, want pending", transfer)
	}
}

type testObserver struct {
	inbound chan InboundEvent
	results chan OutboundResult
}

func (o *testObserver) InboundEvents() <-chan InboundEvent    { return o.inbound }
func (o *testObserver) OutboundResults() <-chan OutboundResult { return o.results }

func TestListenProcessesCallbacks(t *testing.T) {
	t.Parallel()
	b, s := newTestBridge(t, defaultPolicy())

	id, err := b.InitiateOutbound(alice, "0xext", big.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}

	observer := &testObserver{
		inbound: make(chan InboundEvent),
		results: make(chan OutboundResult),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Listen(ctx, observer)
		close(done)
	}()

	// duplicated and out-of-order callbacks must be harmless
	observer.results <- OutboundResult{TransferID: id, ExternalTxHash: "0xhash", Success: true}
	observer.results <- OutboundResult{TransferID: id, ExternalTxHash: "0xhash", Success: false}
	observer.inbound <- InboundEvent{ExternalTxHash: "0xin", NativeTo: bob, Amount: "250"}
	observer.inbound <- InboundEvent{ExternalTxHash: "0xin", NativeTo: bob, Amount: "250"}

	cancel()
	<-done

	transfer, err := b.GetTransfer(id)
	if err != nil {
		t.Fatal(err)
	}
	if transfer.Status != StatusConfirmed {
		t.Fatalf("status %s, want confirmed", transfer.Status)
	}
	if got := s.Ledger.GetBalance(bob); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("balance %s, want 250", got)
	}
}
