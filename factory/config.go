/*
Package factory provides JSON to Go marketplace configuration conversion.

PURPOSE:
  Turns a JSON marketplace definition into a wired engine: security fee
  rate, administrative identity, token precision, and seed balances. This
  lets an operator stand up a deployment (or a demo) without code changes.

JSON SCHEMA:
  {
    "admin": "0xAdmin",
    "security_fee_percent": 5,
    "token_decimals": 8,
    "balances": [
      {"account": "0xAlice", "amount": "100"},
      {"account": "0xBob",   "amount": "2.5"}
    ]
  }

  "amount" is whole tokens as a decimal string; it is converted to smallest
  units with exact decimal arithmetic (rental.ParseUnits).

USAGE:
  cfg, err := factory.Parse(jsonBytes)
  engine, ledger, err := cfg.Build(ctx, store)

SEE ALSO:
  - rental/units.go: Whole-token string conversion
  - cmd/server: Loads a config file at startup
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dev-Oud/RentalDapp/rental"
	"github.com/Dev-Oud/RentalDapp/token"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of a marketplace configuration.
type ConfigJSON struct {
	Admin              string        `json:"admin"`
	SecurityFeePercent uint64        `json:"security_fee_percent"`
	TokenDecimals      int32         `json:"token_decimals"`
	Balances           []BalanceJSON `json:"balances"`
}

// BalanceJSON seeds one account with whole tokens.
type BalanceJSON struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// Config is a validated marketplace configuration.
type Config struct {
	Admin       rental.Identity
	SecurityFee uint64
	Decimals    int32
	Balances    map[rental.Identity]uint64
}

// Parse validates a JSON marketplace definition.
func Parse(data []byte) (*Config, error) {
	var raw ConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}
	if raw.Admin == "" {
		return nil, &rental.ValidationError{Field: "admin", Reason: "empty"}
	}
	if raw.SecurityFeePercent > rental.MaxSecurityFee {
		return nil, &rental.ValidationError{Field: "security_fee_percent", Reason: "exceeds 100"}
	}
	decimals := raw.TokenDecimals
	if decimals == 0 {
		decimals = rental.DefaultDecimals
	}
	if decimals < 0 || decimals > 18 {
		return nil, &rental.ValidationError{Field: "token_decimals", Reason: "outside 0-18"}
	}

	cfg := &Config{
		Admin:       rental.Identity(raw.Admin),
		SecurityFee: raw.SecurityFeePercent,
		Decimals:    decimals,
		Balances:    make(map[rental.Identity]uint64, len(raw.Balances)),
	}
	for _, b := range raw.Balances {
		if b.Account == "" {
			return nil, &rental.ValidationError{Field: "balances.account", Reason: "empty"}
		}
		units, err := rental.ParseUnits(b.Amount, decimals)
		if err != nil {
			return nil, fmt.Errorf("balance for %s: %w", b.Account, err)
		}
		cfg.Balances[rental.Identity(b.Account)] = units
	}
	return cfg, nil
}

// Build wires a token ledger and an engine on top of the given store,
// minting the seed balances and applying the configured fee rate.
func (c *Config) Build(ctx context.Context, store rental.Store) (*rental.Engine, *token.Ledger, error) {
	ledger := token.NewLedger()
	for account, units := range c.Balances {
		if err := ledger.Mint(account, units); err != nil {
			return nil, nil, err
		}
	}

	engine := rental.New(store, ledger, c.Admin)
	if err := engine.SetSecurityFee(ctx, c.Admin, c.SecurityFee); err != nil {
		return nil, nil, err
	}
	return engine, ledger, nil
}
