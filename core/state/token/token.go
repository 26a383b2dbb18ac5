package token

import (
	"fmt"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cosmos/iavl"
	"github.com/luminaworld/lumina-go-node/core/events"
	"github.com/luminaworld/lumina-go-node/core/state/checker"
	"github.com/luminaworld/lumina-go-node/core/state/ledger"
	"github.com/luminaworld/lumina-go-node/core/types"
	"github.com/luminaworld/lumina-go-node/helpers"
	"github.com/luminaworld/lumina-go-node/tree"
	"github.com/tendermint/go-amino"
)

const (
	mainPrefix      = byte('t')
	allowancePrefix = byte('w')
)

// Role names used in authorization errors and audit events
const (
	RoleOwner   = "owner"
	RoleMinter  = "minter"
	RoleRelayer = "relayer"
)

// UnauthorizedError is returned when the caller lacks a required role
type UnauthorizedError struct {
	Address types.Address
	Role    string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s does not hold the %s role", e.Address.String(), e.Role)
}

// SupplyCapError is returned when a mint would exceed the supply cap
type SupplyCapError struct {
	Delta  *big.Int
	Supply *big.Int
}

func (e *SupplyCapError) Error() string {
	return fmt.Sprintf("minting %s over supply %s exceeds cap %s", e.Delta.String(), e.Supply.String(), types.MaxSupply().String())
}

// BlacklistedError is returned when a blacklisted address takes part in an
// operation
type BlacklistedError struct {
	Address types.Address
}

func (e *BlacklistedError) Error() string {
	return fmt.Sprintf("%s is blacklisted", e.Address.String())
}

// MaxTransferError is returned for transfers above the single-transfer cap
type MaxTransferError struct {
	Amount *big.Int
	Max    *big.Int
}

func (e *MaxTransferError) Error() string {
	return fmt.Sprintf("transfer of %s exceeds max transfer amount %s", e.Amount.String(), e.Max.String())
}

// AllowanceError is returned when a delegated burn is not covered
type AllowanceError struct {
	Spender types.Address
	Wanted  *big.Int
	Have    *big.Int
}

func (e *AllowanceError) Error() string {
	return fmt.Sprintf("allowance of %s too low: wanted %s, have %s", e.Spender.String(), e.Wanted.String(), e.Have.String())
}

// FeeCeilingError is returned when a fee above the hard ceiling is configured
type FeeCeilingError struct {
	Bps uint32
}

func (e *FeeCeilingError) Error() string {
	return fmt.Sprintf("fee %d bps exceeds ceiling %d bps", e.Bps, types.MaxTransferFeeBps)
}

// data is the durable policy record of the native token
type data struct {
	TotalMinted       string
	TotalBurned       string
	TransferFeeBps    uint32
	MaxTransferAmount string
	Owner             types.Address
	Blacklist         []types.Address
	FeeExempt         []types.Address
	Minters           []types.Address
	Relayers          []types.Address
}

// RToken is the read-only surface of the token module
type RToken interface {
	TotalSupply() *big.Int
	TotalMinted() *big.Int
	TotalBurned() *big.Int
	TransferFeeBps() uint32
	MaxTransferAmount() *big.Int
	Owner() types.Address
	IsBlacklisted(address types.Address) bool
	IsFeeExempt(address types.Address) bool
	IsMinter(address types.Address) bool
	IsRelayer(address types.Address) bool
	Allowance(owner, spender types.Address) *big.Int
	Export(state *types.AppState)
}

// Token wraps the ledger with supply-cap enforcement, role-gated minting and
// burning, the blacklist, the fee policy and the single-transfer cap. The
// supply invariant totalSupply == totalMinted - totalBurned holds after
// every operation.
type Token struct {
	ledger  *ledger.Ledger
	checker *checker.Checker
	events  events.IEventsDB

	db  atomic.Value
	cdc *amino.Codec

	totalMinted       *big.Int
	totalBurned       *big.Int
	transferFeeBps    uint32
	maxTransferAmount *big.Int
	owner             types.Address
	blacklist         map[types.Address]struct{}
	feeExempt         map[types.Address]struct{}
	minters           map[types.Address]struct{}
	relayers          map[types.Address]struct{}

	allowances      map[allowanceKey]*big.Int
	dirtyAllowances map[allowanceKey]struct{}
	isDirty         bool
	loaded          bool

	lock sync.RWMutex
}

type allowanceKey struct {
	owner   types.Address
	spender types.Address
}

// NewToken creates the token module over the given ledger
func NewToken(l *ledger.Ledger, ch *checker.Checker, ev events.IEventsDB, db *iavl.ImmutableTree) *Token {
	immutableTree := atomic.Value{}
	if db != nil {
		immutableTree.Store(db)
	}
	return &Token{
		ledger:            l,
		checker:           ch,
		events:            ev,
		db:                immutableTree,
		cdc:               amino.NewCodec(),
		totalMinted:       big.NewInt(0),
		totalBurned:       big.NewInt(0),
		maxTransferAmount: big.NewInt(0),
		blacklist:         map[types.Address]struct{}{},
		feeExempt:         map[types.Address]struct{}{},
		minters:           map[types.Address]struct{}{},
		relayers:          map[types.Address]struct{}{},
		allowances:        map[allowanceKey]*big.Int{},
		dirtyAllowances:   map[allowanceKey]struct{}{},
	}
}

func (t *Token) immutableTree() *iavl.ImmutableTree {
	db := t.db.Load()
	if db == nil {
		return nil
	}
	return db.(*iavl.ImmutableTree)
}

// SetImmutableTree swaps the read-through tree after a commit
func (t *Token) SetImmutableTree(immutableTree *iavl.ImmutableTree) {
	t.db.Store(immutableTree)
}

func (t *Token) load() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.loadLocked()
}

func (t *Token) loadLocked() {
	if t.loaded {
		return
	}
	t.loaded = true

	if t.immutableTree() == nil {
		return
	}

	_, enc := t.immutableTree().Get([]byte{mainPrefix})
	if len(enc) == 0 {
		return
	}

	var d data
	if err := t.cdc.UnmarshalBinaryBare(enc, &d); err != nil {
		panic(fmt.Sprintf("failed to decode token policy: %s", err))
	}

	t.totalMinted = helpers.StringToBigInt(d.TotalMinted)
	t.totalBurned = helpers.StringToBigInt(d.TotalBurned)
	t.transferFeeBps = d.TransferFeeBps
	t.maxTransferAmount = helpers.StringToBigInt(d.MaxTransferAmount)
	t.owner = d.Owner
	for _, a := range d.Blacklist {
		t.blacklist[a] = struct{}{}
	}
	for _, a := range d.FeeExempt {
		t.feeExempt[a] = struct{}{}
	}
	for _, a := range d.Minters {
		t.minters[a] = struct{}{}
	}
	for _, a := range d.Relayers {
		t.relayers[a] = struct{}{}
	}
}

// Init seeds the policy from genesis. Called exactly once, before any
// operation.
func (t *Token) Init(owner types.Address, policy types.TokenPolicy) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.loaded = true
	t.owner = owner
	t.transferFeeBps = policy.TransferFeeBps
	t.maxTransferAmount = helpers.StringToBigInt(policy.MaxTransferAmount)
	for _, a := range policy.Blacklist {
		t.blacklist[a] = struct{}{}
	}
	for _, a := range policy.FeeExempt {
		t.feeExempt[a] = struct{}{}
	}
	for _, a := range policy.Minters {
		t.minters[a] = struct{}{}
	}
	for _, a := range policy.Relayers {
		t.relayers[a] = struct{}{}
	}
	t.isDirty = true
}

// TotalSupply returns totalMinted - totalBurned
func (t *Token) TotalSupply() *big.Int {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	return big.NewInt(0).Sub(t.totalMinted, t.totalBurned)
}

// TotalMinted returns the cumulative minted amount
func (t *Token) TotalMinted() *big.Int {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	return big.NewInt(0).Set(t.totalMinted)
}

// TotalBurned returns the cumulative burned amount
func (t *Token) TotalBurned() *big.Int {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	return big.NewInt(0).Set(t.totalBurned)
}

// TransferFeeBps returns the transfer fee in basis points
func (t *Token) TransferFeeBps() uint32 {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.transferFeeBps
}

// MaxTransferAmount returns the single-transfer cap (zero means uncapped)
func (t *Token) MaxTransferAmount() *big.Int {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	return big.NewInt(0).Set(t.maxTransferAmount)
}

// Owner returns the administrative owner address
func (t *Token) Owner() types.Address {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.owner
}

// IsBlacklisted reports whether address is blacklisted
func (t *Token) IsBlacklisted(address types.Address) bool {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	_, ok := t.blacklist[address]
	return ok
}

// IsFeeExempt reports whether address is exempt from transfer fees
func (t *Token) IsFeeExempt(address types.Address) bool {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	_, ok := t.feeExempt[address]
	return ok
}

// IsMinter reports whether address holds the minter role
func (t *Token) IsMinter(address types.Address) bool {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	_, ok := t.minters[address]
	return ok
}

// IsRelayer reports whether address holds the bridge relayer role
func (t *Token) IsRelayer(address types.Address) bool {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	_, ok := t.relayers[address]
	return ok
}

// Mint credits amount to the given address and grows the supply. Only
// minter-role holders may mint; the cap and the blacklist are enforced.
func (t *Token) Mint(minter, to types.Address, amount *big.Int) error {
	t.load()

	if !t.IsMinter(minter) {
		return &UnauthorizedError{Address: minter, Role: RoleMinter}
	}
	if t.IsBlacklisted(to) {
		return &BlacklistedError{Address: to}
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	return t.mintLocked(to, amount)
}

// InitialMint credits the genesis supply without a role check. Used only
// while importing genesis state.
func (t *Token) InitialMint(to types.Address, amount *big.Int) error {
	t.load()

	t.lock.Lock()
	defer t.lock.Unlock()

	return t.mintLocked(to, amount)
}

// BridgeMint credits an inbound bridge transfer or an outbound refund. The
// caller authorizes it; the cap and the blacklist still apply.
func (t *Token) BridgeMint(to types.Address, amount *big.Int) error {
	t.load()

	if t.IsBlacklisted(to) {
		return &BlacklistedError{Address: to}
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	return t.mintLocked(to, amount)
}

func (t *Token) mintLocked(to types.Address, amount *big.Int) error {
	supply := big.NewInt(0).Sub(t.totalMinted, t.totalBurned)
	if big.NewInt(0).Add(supply, amount).Cmp(types.MaxSupply()) == 1 {
		return &SupplyCapError{Delta: big.NewInt(0).Set(amount), Supply: supply}
	}

	if err := t.ledger.Credit(to, amount); err != nil {
		return err
	}

	t.totalMinted.Add(t.totalMinted, amount)
	t.checker.AddVolume(amount)
	t.isDirty = true

	return nil
}

// Burn debits amount from the given address and shrinks the supply
func (t *Token) Burn(from types.Address, amount *big.Int) error {
	t.load()

	t.lock.Lock()
	defer t.lock.Unlock()

	return t.burnLocked(from, amount)
}

func (t *Token) burnLocked(from types.Address, amount *big.Int) error {
	if err := t.ledger.Debit(from, amount); err != nil {
		return err
	}

	t.totalBurned.Add(t.totalBurned, amount)
	t.checker.AddVolume(big.NewInt(0).Neg(amount))
	t.isDirty = true

	return nil
}

// BurnFrom burns from the owner's balance using the spender's allowance
func (t *Token) BurnFrom(spender, from types.Address, amount *big.Int) error {
	t.load()

	t.lock.Lock()
	defer t.lock.Unlock()

	allowance := t.allowanceLocked(from, spender)
	if allowance.Cmp(amount) == -1 {
		return &AllowanceError{Spender: spender, Wanted: big.NewInt(0).Set(amount), Have: allowance}
	}

	if err := t.burnLocked(from, amount); err != nil {
		return err
	}

	t.setAllowanceLocked(from, spender, big.NewInt(0).Sub(allowance, amount))
	return nil
}

// Approve sets the allowance of spender over owner's balance
func (t *Token) Approve(owner, spender types.Address, amount *big.Int) {
	t.load()

	t.lock.Lock()
	defer t.lock.Unlock()

	t.setAllowanceLocked(owner, spender, big.NewInt(0).Set(amount))
}

// Allowance returns the remaining allowance of spender over owner's balance
func (t *Token) Allowance(owner, spender types.Address) *big.Int {
	t.load()

	t.lock.RLock()
	defer t.lock.RUnlock()

	return t.allowanceLocked(owner, spender)
}

func (t *Token) allowanceLocked(owner, spender types.Address) *big.Int {
	key := allowanceKey{owner: owner, spender: spender}
	if a, ok := t.allowances[key]; ok {
		return big.NewInt(0).Set(a)
	}

	if t.immutableTree() == nil {
		return big.NewInt(0)
	}

	_, enc := t.immutableTree().Get(allowancePath(owner, spender))
	if len(enc) == 0 {
		return big.NewInt(0)
	}

	value := big.NewInt(0).SetBytes(enc)
	t.allowances[key] = value
	return big.NewInt(0).Set(value)
}

func (t *Token) setAllowanceLocked(owner, spender types.Address, amount *big.Int) {
	key := allowanceKey{owner: owner, spender: spender}
	t.allowances[key] = amount
	t.dirtyAllowances[key] = struct{}{}
}

// Transfer moves amount from one party to another, applying the fee policy.
// The fee is computed on the gross amount and routed to the protocol fee
// account; the recipient receives amount - fee. Fee-exempt parties move the
// full amount.
func (t *Token) Transfer(from, to types.Address, amount *big.Int) (fee *big.Int, err error) {
	t.load()

	if amount.Sign() != 1 {
		return nil, &ledger.InvalidAmountError{Amount: amount}
	}
	if t.IsBlacklisted(from) {
		return nil, &BlacklistedError{Address: from}
	}
	if t.IsBlacklisted(to) {
		return nil, &BlacklistedError{Address: to}
	}

	max := t.MaxTransferAmount()
	if max.Sign() == 1 && amount.Cmp(max) == 1 {
		return nil, &MaxTransferError{Amount: big.NewInt(0).Set(amount), Max: max}
	}

	fee = big.NewInt(0)
	if t.TransferFeeBps() > 0 && !t.IsFeeExempt(from) && !t.IsFeeExempt(to) {
		fee = helpers.Fee(amount, t.TransferFeeBps())
	}

	// check the gross amount up front so the two ledger moves below cannot
	// fail halfway through for lack of funds
	if t.ledger.GetBalance(from).Cmp(amount) == -1 {
		return nil, &ledger.InsufficientBalanceError{
			Address: from,
			Wanted:  big.NewInt(0).Set(amount),
			Have:    t.ledger.GetBalance(from),
		}
	}

	net := big.NewInt(0).Sub(amount, fee)
	if fee.Sign() == 1 {
		if err := t.ledger.Transfer(from, types.FeeAddress, fee); err != nil {
			return nil, err
		}
	}
	if err := t.ledger.Transfer(from, to, net); err != nil {
		if fee.Sign() == 1 {
			if rollbackErr := t.ledger.Transfer(types.FeeAddress, from, fee); rollbackErr != nil {
				panic(fmt.Sprintf("cannot roll back fee transfer of %s: %s", fee.String(), rollbackErr))
			}
		}
		return nil, err
	}

	return fee, nil
}

// SetTransferFee updates the transfer fee. Owner only; capped at the hard
// ceiling; audited.
func (t *Token) SetTransferFee(sender types.Address, bps uint32) error {
	t.load()

	if sender != t.Owner() {
		return &UnauthorizedError{Address: sender, Role: RoleOwner}
	}
	if bps > types.MaxTransferFeeBps {
		return &FeeCeilingError{Bps: bps}
	}

	t.lock.Lock()
	old := t.transferFeeBps
	t.transferFeeBps = bps
	t.isDirty = true
	t.lock.Unlock()

	t.events.AddEvent(&events.AuditEvent{
		Setting: "transfer_fee_bps",
		Old:     fmt.Sprintf("%d", old),
		New:     fmt.Sprintf("%d", bps),
		Admin:   sender,
	})
	return nil
}

// SetMaxTransferAmount updates the single-transfer cap. Owner only; audited.
func (t *Token) SetMaxTransferAmount(sender types.Address, max *big.Int) error {
	t.load()

	if sender != t.Owner() {
		return &UnauthorizedError{Address: sender, Role: RoleOwner}
	}

	t.lock.Lock()
	old := t.maxTransferAmount
	t.maxTransferAmount = big.NewInt(0).Set(max)
	t.isDirty = true
	t.lock.Unlock()

	t.events.AddEvent(&events.AuditEvent{
		Setting: "max_transfer_amount",
		Old:     old.String(),
		New:     max.String(),
		Admin:   sender,
	})
	return nil
}

// SetBlacklisted toggles the blacklist entry for address. Owner only; audited.
func (t *Token) SetBlacklisted(sender, address types.Address, blacklisted bool) error {
	return t.toggleRole(sender, address, blacklisted, "blacklist", t.blacklist)
}

// SetFeeExempt toggles the fee exemption for address. Owner only; audited.
func (t *Token) SetFeeExempt(sender, address types.Address, exempt bool) error {
	return t.toggleRole(sender, address, exempt, "fee_exempt", t.feeExempt)
}

// SetMinter toggles the minter role for address. Owner only; audited.
func (t *Token) SetMinter(sender, address types.Address, minter bool) error {
	return t.toggleRole(sender, address, minter, "minters", t.minters)
}

// SetRelayer toggles the bridge relayer role for address. Owner only; audited.
func (t *Token) SetRelayer(sender, address types.Address, relayer bool) error {
	return t.toggleRole(sender, address, relayer, "relayers", t.relayers)
}

func (t *Token) toggleRole(sender, address types.Address, member bool, setting string, set map[types.Address]struct{}) error {
	t.load()

	if sender != t.Owner() {
		return &UnauthorizedError{Address: sender, Role: RoleOwner}
	}

	t.lock.Lock()
	_, was := set[address]
	if member {
		set[address] = struct{}{}
	} else {
		delete(set, address)
	}
	t.isDirty = true
	t.lock.Unlock()

	t.events.AddEvent(&events.AuditEvent{
		Setting: setting + ":" + address.String(),
		Old:     fmt.Sprintf("%t", was),
		New:     fmt.Sprintf("%t", member),
		Admin:   sender,
	})
	return nil
}

// Commit writes the dirty policy record and allowances to the mutable tree
func (t *Token) Commit(db tree.MTree) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.isDirty {
		t.isDirty = false
		enc, err := t.cdc.MarshalBinaryBare(data{
			TotalMinted:       t.totalMinted.String(),
			TotalBurned:       t.totalBurned.String(),
			TransferFeeBps:    t.transferFeeBps,
			MaxTransferAmount: t.maxTransferAmount.String(),
			Owner:             t.owner,
			Blacklist:         sortedAddresses(t.blacklist),
			FeeExempt:         sortedAddresses(t.feeExempt),
			Minters:           sortedAddresses(t.minters),
			Relayers:          sortedAddresses(t.relayers),
		})
		if err != nil {
			return fmt.Errorf("can't encode token policy: %v", err)
		}
		db.Set([]byte{mainPrefix}, enc)
	}

	keys := make([]allowanceKey, 0, len(t.dirtyAllowances))
	for k := range t.dirtyAllowances {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if c := keys[i].owner.Compare(keys[j].owner); c != 0 {
			return c == -1
		}
		return keys[i].spender.Compare(keys[j].spender) == -1
	})

	for _, key := range keys {
		delete(t.dirtyAllowances, key)
		value := t.allowances[key]
		path := allowancePath(key.owner, key.spender)
		if value.Sign() == 0 {
			db.Remove(path)
			continue
		}
		db.Set(path, value.Bytes())
	}

	return nil
}

// Export dumps the token policy into the genesis state
func (t *Token) Export(state *types.AppState) {
	t.load()
	t.lock.RLock()
	defer t.lock.RUnlock()

	state.Owner = t.owner
	state.Token = types.TokenPolicy{
		InitialSupply:     big.NewInt(0).Sub(t.totalMinted, t.totalBurned).String(),
		TransferFeeBps:    t.transferFeeBps,
		MaxTransferAmount: t.maxTransferAmount.String(),
		Blacklist:         sortedAddresses(t.blacklist),
		FeeExempt:         sortedAddresses(t.feeExempt),
		Minters:           sortedAddresses(t.minters),
		Relayers:          sortedAddresses(t.relayers),
	}
}

func allowancePath(owner, spender types.Address) []byte {
	path := append([]byte{allowancePrefix}, owner[:]...)
	return append(path, spender[:]...)
}

func sortedAddresses(set map[types.Address]struct{}) []types.Address {
	list := make([]types.Address, 0, len(set))
	for a := range set {
		list = append(list, a)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Compare(list[j]) == -1
	})
	return list
}
