package events

import (
	"testing"

	"github.com/luminaworld/lumina-go-node/core/types"
	db "github.com/tendermint/tm-db"
)

func TestIEventsDB(t *testing.T) {
	store := NewEventsStore(db.NewMemDB())

	store.AddEvent(&AuditEvent{
		Setting: "transfer_fee_bps",
		Old:     "0",
		New:     "100",
		Admin:   types.HexToAddress("Lx04bea23efb744dc93b4fda4c20bf4a21c6e195f1"),
	})
	store.AddEvent(&BridgeOutInitiatedEvent{
		TransferID: "b1",
		NativeFrom: types.HexToAddress("Lx18467bbb64a8edf890201d526c35957d82be3d95"),
		ExternalTo: "0xabc",
		Amount:     "1000000",
		Fee:        "1000",
	})
	if err := store.CommitEvents(12); err != nil {
		t.Fatal(err)
	}

	store.AddEvent(&BridgeOutFailedEvent{
		TransferID: "b1",
		NativeFrom: types.HexToAddress("Lx18467bbb64a8edf890201d526c35957d82be3d95"),
		Refunded:   "1000000",
	})
	if err := store.CommitEvents(14); err != nil {
		t.Fatal(err)
	}

	loadEvents := store.LoadEvents(12)
	if len(loadEvents) != 2 {
		t.Fatalf("count of events not equal 2, got %d", len(loadEvents))
	}
	if loadEvents[0].Type() != TypeAuditEvent {
		t.Fatalf("event type is not audit, got %s", loadEvents[0].Type())
	}
	if loadEvents[1].Type() != TypeBridgeOutInitiatedEvent {
		t.Fatalf("event type is not bridge out, got %s", loadEvents[1].Type())
	}

	out := loadEvents[1].(*BridgeOutInitiatedEvent)
	if out.Amount != "1000000" || out.TransferID != "b1" {
		t.Fatalf("event payload mismatch: %+v", out)
	}

	loadEvents = store.LoadEvents(14)
	if len(loadEvents) != 1 {
		t.Fatalf("count of events not equal 1, got %d", len(loadEvents))
	}
	if loadEvents[0].Type() != TypeBridgeOutFailedEvent {
		t.Fatalf("event type is not bridge failed, got %s", loadEvents[0].Type())
	}

	if len(store.LoadEvents(13)) != 0 {
		t.Fatal("unexpected events at height 13")
	}
}

func TestTruncatePending(t *testing.T) {
	store := NewEventsStore(db.NewMemDB())

	store.AddEvent(&AuditEvent{Setting: "transfer_fee_bps", Old: "0", New: "50"})
	mark := store.PendingCount()
	if mark != 1 {
		t.Fatalf("pending count %d, want 1", mark)
	}

	store.AddEvent(&BridgeOutInitiatedEvent{TransferID: "b1", Amount: "100"})
	store.AddEvent(&BridgeOutInitiatedEvent{TransferID: "b2", Amount: "200"})

	// events queued past the mark belong to a rolled back delivery
	store.TruncatePending(mark)
	if got := store.PendingCount(); got != 1 {
		t.Fatalf("pending count %d after truncate, want 1", got)
	}

	if err := store.CommitEvents(3); err != nil {
		t.Fatal(err)
	}
	committed := store.LoadEvents(3)
	if len(committed) != 1 {
		t.Fatalf("count of events not equal 1, got %d", len(committed))
	}
	if committed[0].Type() != TypeAuditEvent {
		t.Fatalf("event type is not audit, got %s", committed[0].Type())
	}
}
