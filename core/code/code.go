package code

import (
	"strconv"
)

// Codes for transaction checks and delivers responses
const (
	// general
	OK            uint32 = 0
	WrongNonce    uint32 = 101
	DecodeError   uint32 = 102
	WrongChainID  uint32 = 103
	InvalidAmount uint32 = 104
	Unauthorized  uint32 = 105

	// ledger
	InsufficientBalance uint32 = 201
	Overflow            uint32 = 202

	// token
	SupplyCapExceeded   uint32 = 301
	BlacklistedParty    uint32 = 302
	MaxTransferExceeded uint32 = 303
	WrongFee            uint32 = 304
	InsufficientAllowance uint32 = 305

	// chain
	InvalidProducer uint32 = 401
	InvalidBlock    uint32 = 402

	// bridge
	DailyLimitExceeded      uint32 = 501
	TransferOutOfBounds     uint32 = 502
	DuplicateConfirmation   uint32 = 503
	UnknownTransfer         uint32 = 504
	TransferAlreadyResolved uint32 = 505
	ExternalFailureRefunded uint32 = 506
)

type wrongNonce struct {
	Code     string `json:"code,omitempty"`
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

// NewWrongNonce returns a structured payload for a nonce mismatch
func NewWrongNonce(expected, got string) *wrongNonce {
	return &wrongNonce{Code: strconv.Itoa(int(WrongNonce)), Expected: expected, Got: got}
}

type insufficientBalance struct {
	Code         string `json:"code,omitempty"`
	Sender       string `json:"sender,omitempty"`
	NeededValue  string `json:"needed_value,omitempty"`
	CurrentValue string `json:"current_value,omitempty"`
}

// NewInsufficientBalance returns a structured payload for an uncovered debit
func NewInsufficientBalance(sender, neededValue, currentValue string) *insufficientBalance {
	return &insufficientBalance{Code: strconv.Itoa(int(InsufficientBalance)), Sender: sender, NeededValue: neededValue, CurrentValue: currentValue}
}

type invalidAmount struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
}

// NewInvalidAmount returns a structured payload for a non-positive amount
func NewInvalidAmount(value string) *invalidAmount {
	return &invalidAmount{Code: strconv.Itoa(int(InvalidAmount)), Value: value}
}

type overflow struct {
	Code    string `json:"code,omitempty"`
	Address string `json:"address,omitempty"`
	Value   string `json:"value,omitempty"`
}

// NewOverflow returns a structured payload for a balance overflow
func NewOverflow(address, value string) *overflow {
	return &overflow{Code: strconv.Itoa(int(Overflow)), Address: address, Value: value}
}

type unauthorized struct {
	Code    string `json:"code,omitempty"`
	Address string `json:"address,omitempty"`
	Role    string `json:"role,omitempty"`
}

// NewUnauthorized returns a structured payload for a missing role
func NewUnauthorized(address, role string) *unauthorized {
	return &unauthorized{Code: strconv.Itoa(int(Unauthorized)), Address: address, Role: role}
}

type supplyCapExceeded struct {
	Code      string `json:"code,omitempty"`
	Delta     string `json:"delta,omitempty"`
	Supply    string `json:"supply,omitempty"`
	MaxSupply string `json:"max_supply,omitempty"`
}

// NewSupplyCapExceeded returns a structured payload for a mint above the cap
func NewSupplyCapExceeded(delta, supply, maxSupply string) *supplyCapExceeded {
	return &supplyCapExceeded{Code: strconv.Itoa(int(SupplyCapExceeded)), Delta: delta, Supply: supply, MaxSupply: maxSupply}
}

type blacklistedParty struct {
	Code    string `json:"code,omitempty"`
	Address string `json:"address,omitempty"`
}

// NewBlacklistedParty returns a structured payload for a blacklisted party
func NewBlacklistedParty(address string) *blacklistedParty {
	return &blacklistedParty{Code: strconv.Itoa(int(BlacklistedParty)), Address: address}
}

type maxTransferExceeded struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
	Max   string `json:"max,omitempty"`
}

// NewMaxTransferExceeded returns a structured payload for an oversized transfer
func NewMaxTransferExceeded(value, max string) *maxTransferExceeded {
	return &maxTransferExceeded{Code: strconv.Itoa(int(MaxTransferExceeded)), Value: value, Max: max}
}

type insufficientAllowance struct {
	Code         string `json:"code,omitempty"`
	Spender      string `json:"spender,omitempty"`
	NeededValue  string `json:"needed_value,omitempty"`
	CurrentValue string `json:"current_value,omitempty"`
}

// NewInsufficientAllowance returns a structured payload for an uncovered burnFrom
func NewInsufficientAllowance(spender, neededValue, currentValue string) *insufficientAllowance {
	return &insufficientAllowance{Code: strconv.Itoa(int(InsufficientAllowance)), Spender: spender, NeededValue: neededValue, CurrentValue: currentValue}
}

type dailyLimitExceeded struct {
	Code   string `json:"code,omitempty"`
	Value  string `json:"value,omitempty"`
	Used   string `json:"used,omitempty"`
	Limit  string `json:"limit,omitempty"`
	Window string `json:"window,omitempty"`
}

// NewDailyLimitExceeded returns a structured payload for an over-limit bridge volume
func NewDailyLimitExceeded(value, used, limit, window string) *dailyLimitExceeded {
	return &dailyLimitExceeded{Code: strconv.Itoa(int(DailyLimitExceeded)), Value: value, Used: used, Limit: limit, Window: window}
}

type transferOutOfBounds struct {
	Code  string `json:"code,omitempty"`
	Value string `json:"value,omitempty"`
	Min   string `json:"min,omitempty"`
	Max   string `json:"max,omitempty"`
}

// NewTransferOutOfBounds returns a structured payload for a bridge amount outside limits
func NewTransferOutOfBounds(value, min, max string) *transferOutOfBounds {
	return &transferOutOfBounds{Code: strconv.Itoa(int(TransferOutOfBounds)), Value: value, Min: min, Max: max}
}
