package transaction

import (
	"math/big"
	"testing"

	"github.com/luminaworld/lumina-go-node/core/code"
	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/state"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/crypto"
	db "github.com/tendermint/tm-db"
)

type nopBridge struct{}

func (nopBridge) CheckOutbound(types.Address, *big.Int) error { return nil }
func (nopBridge) InitiateOutbound(types.Address, string, *big.Int) (string, error) {
	return "transfer-1", nil
}
func (nopBridge) ConfirmInbound(string, types.Address, *big.Int) (bool, error) {
	return true, nil
}

type testEnv struct {
	state    *state.State
	check    *state.CheckState
	executor *Executor
	ownerKey *crypto.PrivateKey
	owner    types.Address
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := state.NewState(0, db.NewMemDB(), events.NewEventsStore(db.NewMemDB()), 1024, 0)
	if err != nil {
		t.Fatal(err)
	}

	ownerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	owner := crypto.PubkeyToAddress(ownerKey.PubKey())

	s.Token.Init(owner, types.TokenPolicy{
		MaxTransferAmount: "0",
		Minters:           []types.Address{owner},
	})
	if err := s.Token.InitialMint(owner, big.NewInt(1000000)); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		state:    s,
		check:    state.NewCheckState(s),
		executor: NewExecutor(types.ChainMainnet, nopBridge{}),
		ownerKey: ownerKey,
		owner:    owner,
	}
}

func makeTx(t *testing.T, key *crypto.PrivateKey, nonce uint64, chainID types.ChainID, data Data) []byte {
	t.Helper()

	encoded, err := EncodeData(data)
	if err != nil {
		t.Fatal(err)
	}

	tx := Transaction{
		Nonce:   nonce,
		ChainID: chainID,
		Type:    data.TxType(),
		Data:    encoded,
	}
	if err := tx.Sign(key); err != nil {
		t.Fatal(err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestSignRecoverRoundtrip(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	want := crypto.PubkeyToAddress(key.PubKey())

	encoded, err := EncodeData(TransferData{To: types.Address{1}, Value: "5"})
	if err != nil {
		t.Fatal(err)
	}
	tx := Transaction{Nonce: 1, ChainID: types.ChainMainnet, Type: TypeTransfer, Data: encoded}
	if err := tx.Sign(key); err != nil {
		t.Fatal(err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}

	sender, err := decoded.Sender()
	if err != nil {
		t.Fatal(err)
	}
	if sender != want {
		t.Fatalf("recovered %s, want %s", sender.String(), want.String())
	}

	payload, ok := decoded.GetDecodedData().(*TransferData)
	if !ok {
		t.Fatalf("unexpected payload type %T", decoded.GetDecodedData())
	}
	if payload.Value != "5" {
		t.Fatalf("payload value %s, want 5", payload.Value)
	}
}

func TestRunTxWrongChainID(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	raw := makeTx(t, env.ownerKey, 1, types.ChainTestnet, TransferData{To: types.Address{1}, Value: "5"})

	response := env.executor.RunTx(env.check, raw)
	if response.Code != code.WrongChainID {
		t.Fatalf("code %d, want %d", response.Code, code.WrongChainID)
	}
}

func TestRunTxWrongNonce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	raw := makeTx(t, env.ownerKey, 7, types.ChainMainnet, TransferData{To: types.Address{1}, Value: "5"})

	response := env.executor.RunTx(env.check, raw)
	if response.Code != code.WrongNonce {
		t.Fatalf("code %d, want %d", response.Code, code.WrongNonce)
	}
}

func TestTransferDeliverAdvancesNonce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	to := types.Address{0x10}
	raw := makeTx(t, env.ownerKey, 1, types.ChainMainnet, TransferData{To: to, Value: "500"})

	if response := env.executor.RunTx(env.check, raw); response.Code != code.OK {
		t.Fatalf("check failed: %d %s", response.Code, response.Log)
	}
	response := env.executor.RunTx(env.state, raw)
	if response.Code != code.OK {
		t.Fatalf("deliver failed: %d %s", response.Code, response.Log)
	}

	if got := env.state.Ledger.GetBalance(to); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("recipient balance %s, want 500", got)
	}
	if got := env.state.Ledger.GetNonce(env.owner); got != 1 {
		t.Fatalf("sender nonce %d, want 1", got)
	}

	// replay must be rejected
	if response := env.executor.RunTx(env.state, raw); response.Code != code.WrongNonce {
		t.Fatalf("replay code %d, want %d", response.Code, code.WrongNonce)
	}
}

func TestTransferFeeRouting(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	feeTx := makeTx(t, env.ownerKey, 1, types.ChainMainnet, SetTransferFeeData{FeeBps: 100})
	if response := env.executor.RunTx(env.state, feeTx); response.Code != code.OK {
		t.Fatalf("set fee failed: %d %s", response.Code, response.Log)
	}

	to := types.Address{0x11}
	raw := makeTx(t, env.ownerKey, 2, types.ChainMainnet, TransferData{To: to, Value: "500"})
	response := env.executor.RunTx(env.state, raw)
	if response.Code != code.OK {
		t.Fatalf("deliver failed: %d %s", response.Code, response.Log)
	}

	if got := env.state.Ledger.GetBalance(to); got.Cmp(big.NewInt(495)) != 0 {
		t.Fatalf("recipient balance %s, want 495", got)
	}
	if got := env.state.Ledger.GetBalance(types.FeeAddress); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("fee balance %s, want 5", got)
	}
	if response.Tags["tx.fee"] != "5" {
		t.Fatalf("fee tag %q, want 5", response.Tags["tx.fee"])
	}
}

func TestMintRequiresMinterRole(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	strangerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	raw := makeTx(t, strangerKey, 1, types.ChainMainnet, MintData{To: types.Address{1}, Value: "10"})
	if response := env.executor.RunTx(env.check, raw); response.Code != code.Unauthorized {
		t.Fatalf("code %d, want %d", response.Code, code.Unauthorized)
	}

	raw = makeTx(t, env.ownerKey, 1, types.ChainMainnet, MintData{To: types.Address{1}, Value: "10"})
	if response := env.executor.RunTx(env.state, raw); response.Code != code.OK {
		t.Fatalf("deliver failed: %d %s", response.Code, response.Log)
	}
}

func TestApproveThenDelegatedBurn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	spenderKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	spender := crypto.PubkeyToAddress(spenderKey.PubKey())

	approve := makeTx(t, env.ownerKey, 1, types.ChainMainnet, ApproveData{Spender: spender, Value: "300"})
	if response := env.executor.RunTx(env.state, approve); response.Code != code.OK {
		t.Fatalf("approve failed: %d %s", response.Code, response.Log)
	}

	supplyBefore := env.state.Token.TotalSupply()

	burn := makeTx(t, spenderKey, 1, types.ChainMainnet, BurnData{From: env.owner, Value: "200"})
	if response := env.executor.RunTx(env.state, burn); response.Code != code.OK {
		t.Fatalf("delegated burn failed: %d %s", response.Code, response.Log)
	}

	want := big.NewInt(0).Sub(supplyBefore, big.NewInt(200))
	if got := env.state.Token.TotalSupply(); got.Cmp(want) != 0 {
		t.Fatalf("supply %s, want %s", got, want)
	}
	if got := env.state.Token.Allowance(env.owner, spender); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("allowance %s, want 100", got)
	}

	// allowance is exhausted after one more 200
	burn = makeTx(t, spenderKey, 2, types.ChainMainnet, BurnData{From: env.owner, Value: "200"})
	if response := env.executor.RunTx(env.state, burn); response.Code != code.InsufficientAllowance {
		t.Fatalf("code %d, want %d", response.Code, code.InsufficientAllowance)
	}
}

func TestSetRoleOwnerOnly(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	strangerKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	target := types.Address{0x22}

	raw := makeTx(t, strangerKey, 1, types.ChainMainnet, SetRoleData{Role: RoleRelayer, Address: target, Enabled: true})
	if response := env.executor.RunTx(env.check, raw); response.Code != code.Unauthorized {
		t.Fatalf("code %d, want %d", response.Code, code.Unauthorized)
	}

	raw = makeTx(t, env.ownerKey, 1, types.ChainMainnet, SetRoleData{Role: RoleRelayer, Address: target, Enabled: true})
	if response := env.executor.RunTx(env.state, raw); response.Code != code.OK {
		t.Fatalf("deliver failed: %d %s", response.Code, response.Log)
	}
	if !env.state.Token.IsRelayer(target) {
		t.Fatal("relayer role not set")
	}
}

func TestBridgeInRequiresRelayer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	raw := makeTx(t, env.ownerKey, 1, types.ChainMainnet, BridgeInConfirmData{
		ExternalTxHash: "0xdeadbeef",
		To:             types.Address{1},
		Value:          "50",
	})
	if response := env.executor.RunTx(env.check, raw); response.Code != code.Unauthorized {
		t.Fatalf("code %d, want %d", response.Code, code.Unauthorized)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := DecodeFromBytes([]byte{0xde, 0xad, 0xbe, 0xef}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestInvalidAmountRejected(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, value := range []string{"", "0", "-5", "1.5", "abc"} {
		raw := makeTx(t, env.ownerKey, 1, types.ChainMainnet, TransferData{To: types.Address{1}, Value: value})
		if response := env.executor.RunTx(env.check, raw); response.Code != code.InvalidAmount {
			t.Fatalf("value %q: code %d, want %d", value, response.Code, code.InvalidAmount)
		}
	}
}
