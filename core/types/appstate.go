package types

import (
	"fmt"
	"math/big"
)

// AppState is the genesis description of the whole application state
type AppState struct {
	Note       string       `json:"note"`
	Owner      Address      `json:"owner"`
	Accounts   []Account    `json:"accounts,omitempty"`
	Validators []Validator  `json:"validators"`
	Token      TokenPolicy  `json:"token"`
	Bridge     BridgePolicy `json:"bridge"`
}

// Account is the genesis form of a ledger account
type Account struct {
	Address Address `json:"address"`
	Balance string  `json:"balance"`
	Nonce   uint64  `json:"nonce"`
}

// Validator is the genesis form of a block producer
type Validator struct {
	Address Address `json:"address"`
	Stake   string  `json:"stake"`
	Active  bool    `json:"active"`
}

// TokenPolicy is the genesis form of the native token configuration.
// Relayers live here because the relayer role is held by the token module
// alongside the other role sets.
type TokenPolicy struct {
	InitialSupply     string    `json:"initial_supply"`
	TransferFeeBps    uint32    `json:"transfer_fee_bps"`
	MaxTransferAmount string    `json:"max_transfer_amount"`
	Blacklist         []Address `json:"blacklist,omitempty"`
	FeeExempt         []Address `json:"fee_exempt,omitempty"`
	Minters           []Address `json:"minters,omitempty"`
	Relayers          []Address `json:"relayers,omitempty"`
}

// BridgePolicy is the genesis form of the bridge configuration
type BridgePolicy struct {
	FeeBps            uint32 `json:"fee_bps"`
	MinTransferAmount string `json:"min_transfer_amount"`
	MaxTransferAmount string `json:"max_transfer_amount"`
	DailyLimit        string `json:"daily_limit"`
}

// Verify performs basic consistency checks on the genesis state
func (s *AppState) Verify() error {
	if s.Owner.IsZero() {
		return fmt.Errorf("owner address is not set")
	}

	if len(s.Validators) < 1 {
		return fmt.Errorf("there should be at least one validator")
	}

	validators := map[Address]struct{}{}
	for _, val := range s.Validators {
		if _, exists := validators[val.Address]; exists {
			return fmt.Errorf("duplicated validator %s", val.Address.String())
		}
		validators[val.Address] = struct{}{}

		if !isValidBigInt(val.Stake) {
			return fmt.Errorf("stake of validator %s is not valid", val.Address.String())
		}
	}

	accounts := map[Address]struct{}{}
	total := big.NewInt(0)
	for _, acc := range s.Accounts {
		if _, exists := accounts[acc.Address]; exists {
			return fmt.Errorf("duplicated account %s", acc.Address.String())
		}
		accounts[acc.Address] = struct{}{}

		if !isValidBigInt(acc.Balance) {
			return fmt.Errorf("balance of account %s is not valid", acc.Address.String())
		}
		balance, _ := big.NewInt(0).SetString(acc.Balance, 10)
		total.Add(total, balance)
	}

	if !isValidBigInt(s.Token.InitialSupply) {
		return fmt.Errorf("initial supply is not valid")
	}
	supply, _ := big.NewInt(0).SetString(s.Token.InitialSupply, 10)
	if supply.Cmp(MaxSupply()) == 1 {
		return fmt.Errorf("initial supply %s exceeds max supply %s", supply, MaxSupply())
	}
	if total.Cmp(supply) == 1 {
		return fmt.Errorf("sum of genesis balances %s exceeds initial supply %s", total, supply)
	}

	if s.Token.TransferFeeBps > MaxTransferFeeBps {
		return fmt.Errorf("transfer fee %d exceeds ceiling %d", s.Token.TransferFeeBps, MaxTransferFeeBps)
	}
	if !isValidBigInt(s.Token.MaxTransferAmount) {
		return fmt.Errorf("max transfer amount is not valid")
	}

	for _, field := range []string{s.Bridge.MinTransferAmount, s.Bridge.MaxTransferAmount, s.Bridge.DailyLimit} {
		if !isValidBigInt(field) {
			return fmt.Errorf("bridge limit %q is not valid", field)
		}
	}
	if s.Bridge.FeeBps > MaxTransferFeeBps {
		return fmt.Errorf("bridge fee %d exceeds ceiling %d", s.Bridge.FeeBps, MaxTransferFeeBps)
	}

	return nil
}

func isValidBigInt(s string) bool {
	if s == "" {
		return false
	}
	b, ok := big.NewInt(0).SetString(s, 10)
	if !ok {
		return false
	}
	return b.Sign() != -1
}
