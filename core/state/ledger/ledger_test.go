package ledger

import (
	"math/big"
	"testing"

	"github.com/luminaworld/lumina-go-node/core/state/checker"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/tree"
	db "github.com/tendermint/tm-db"
)

func newTestLedger(t *testing.T) (*Ledger, tree.MTree) {
	t.Helper()

	mTree, err := tree.NewMutableTree(0, db.NewMemDB(), 1024)
	if err != nil {
		t.Fatal(err)
	}

	return NewLedger(checker.NewChecker(), mTree.GetLastImmutable()), mTree
}

func TestCreditAndDebit(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	addr := types.Address{1}

	if err := l.Credit(addr, big.NewInt(100)); err != nil {
		t.Fatal(err)
	}
	if l.GetBalance(addr).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance is %s, want 100", l.GetBalance(addr))
	}

	if err := l.Debit(addr, big.NewInt(40)); err != nil {
		t.Fatal(err)
	}
	if l.GetBalance(addr).Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("balance is %s, want 60", l.GetBalance(addr))
	}
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	addr := types.Address{1}

	if err := l.Credit(addr, big.NewInt(0)); err == nil {
		t.Fatal("expected InvalidAmount for zero credit")
	}
	if err := l.Credit(addr, big.NewInt(-5)); err == nil {
		t.Fatal("expected InvalidAmount for negative credit")
	}
}

func TestCreditOverflow(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	addr := types.Address{1}

	if err := l.Credit(addr, types.MaxBalance()); err != nil {
		t.Fatal(err)
	}
	err := l.Credit(addr, big.NewInt(1))
	if _, ok := err.(*OverflowError); !ok {
		t.Fatalf("expected OverflowError, got %v", err)
	}
	if l.GetBalance(addr).Cmp(types.MaxBalance()) != 0 {
		t.Fatal("failed credit changed the balance")
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	addr := types.Address{1}

	if err := l.Credit(addr, big.NewInt(10)); err != nil {
		t.Fatal(err)
	}
	err := l.Debit(addr, big.NewInt(11))
	if _, ok := err.(*InsufficientBalanceError); !ok {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
}

func TestTransferRollsBackOnCreditFailure(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	from := types.Address{1}
	to := types.Address{2}

	if err := l.Credit(from, big.NewInt(500)); err != nil {
		t.Fatal(err)
	}
	if err := l.Credit(to, types.MaxBalance()); err != nil {
		t.Fatal(err)
	}

	err := l.Transfer(from, to, big.NewInt(500))
	if _, ok := err.(*OverflowError); !ok {
		t.Fatalf("expected OverflowError, got %v", err)
	}

	if l.GetBalance(from).Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("debit was not rolled back, balance %s", l.GetBalance(from))
	}
	if l.GetBalance(to).Cmp(types.MaxBalance()) != 0 {
		t.Fatal("recipient balance changed on failed transfer")
	}
}

func TestTransferConservesValue(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	from := types.Address{1}
	to := types.Address{2}

	if err := l.Credit(from, big.NewInt(1000)); err != nil {
		t.Fatal(err)
	}
	if err := l.Transfer(from, to, big.NewInt(300)); err != nil {
		t.Fatal(err)
	}

	sum := big.NewInt(0).Add(l.GetBalance(from), l.GetBalance(to))
	if sum.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("value not conserved: sum %s", sum)
	}
}

func TestNonce(t *testing.T) {
	t.Parallel()
	l, _ := newTestLedger(t)
	addr := types.Address{1}

	if l.NextNonce(addr) != 1 {
		t.Fatalf("fresh account next nonce is %d, want 1", l.NextNonce(addr))
	}

	// NextNonce must not advance the committed nonce
	if l.GetNonce(addr) != 0 {
		t.Fatal("NextNonce advanced the nonce")
	}

	l.SetNonce(addr, 1)
	if l.NextNonce(addr) != 2 {
		t.Fatalf("next nonce is %d, want 2", l.NextNonce(addr))
	}
}

func TestCommitAndReload(t *testing.T) {
	t.Parallel()
	l, mTree := newTestLedger(t)
	addr := types.Address{7}

	if err := l.Credit(addr, big.NewInt(12345)); err != nil {
		t.Fatal(err)
	}
	l.SetNonce(addr, 3)

	if err := l.Commit(mTree); err != nil {
		t.Fatal(err)
	}
	if _, _, err := mTree.SaveVersion(); err != nil {
		t.Fatal(err)
	}

	reloaded := NewLedger(checker.NewChecker(), mTree.GetLastImmutable())
	if reloaded.GetBalance(addr).Cmp(big.NewInt(12345)) != 0 {
		t.Fatalf("reloaded balance is %s, want 12345", reloaded.GetBalance(addr))
	}
	if reloaded.GetNonce(addr) != 3 {
		t.Fatalf("reloaded nonce is %d, want 3", reloaded.GetNonce(addr))
	}
}
