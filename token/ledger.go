/*
Package token is an in-process fungible-token ledger.

PURPOSE:
  A concrete stand-in for the marketplace's external token-transfer
  capability: account balances, spend allowances granted to the engine, and
  a single escrow pot. It implements rental.TransferCapability, so the
  booking engine's money movement is observable and testable end to end.

SEMANTICS (mirroring a standard fungible-token contract):
  - Mint credits an account (supply creation; admin/faucet concern).
  - Approve grants the engine permission to pull up to N units.
  - TransferFrom pulls from a payer into escrow, consuming allowance.
  - TransferTo pays out of escrow.
  Every transfer is atomic: balance, allowance, and escrow change together
  under one lock, or not at all.

CONSERVATION:
  Sum of all balances plus the escrow pot equals total minted supply at all
  times. Tests assert this across arbitrary book/refund/check-in sequences.
*/
package token

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/Dev-Oud/RentalDapp/rental"
)

// Ledger holds balances, allowances, and the escrow pot.
type Ledger struct {
	mu         sync.Mutex
	balances   map[rental.Identity]uint64
	allowances map[rental.Identity]uint64
	escrow     uint64
	supply     uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[rental.Identity]uint64),
		allowances: make(map[rental.Identity]uint64),
	}
}

// Mint credits an account with freshly created units.
func (l *Ledger) Mint(account rental.Identity, amount uint64) error {
	if account == "" {
		return &rental.ValidationError{Field: "account", Reason: "empty"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	supply, carry := bits.Add64(l.supply, amount, 0)
	if carry != 0 {
		return rental.ErrArithmeticOverflow
	}
	l.supply = supply
	l.balances[account] += amount
	return nil
}

// Approve grants the engine permission to pull up to amount from owner.
// Replaces any previous allowance.
func (l *Ledger) Approve(owner rental.Identity, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[owner] = amount
}

// BalanceOf returns an account's balance.
func (l *Ledger) BalanceOf(account rental.Identity) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Allowance returns how much the engine may still pull from owner.
func (l *Ledger) Allowance(owner rental.Identity) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner]
}

// Escrow returns the amount currently held in the escrow pot.
func (l *Ledger) Escrow() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrow
}

// TotalSupply returns the total minted supply.
func (l *Ledger) TotalSupply() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply
}

// TransferFrom moves amount from payer into escrow. Fails without partial
// effect when the payer's allowance or balance cannot cover the amount.
func (l *Ledger) TransferFrom(_ context.Context, payer rental.Identity, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[payer] < amount {
		return fmt.Errorf("allowance %d below %d for %s: %w",
			l.allowances[payer], amount, payer, rental.ErrTransferRejected)
	}
	if l.balances[payer] < amount {
		return &rental.InsufficientFundsError{
			Payer:     payer,
			Available: l.balances[payer],
			Required:  amount,
		}
	}
	l.allowances[payer] -= amount
	l.balances[payer] -= amount
	l.escrow += amount
	return nil
}

// TransferTo pays amount out of escrow. The engine's invariants guarantee
// escrow always covers its payouts; a shortfall here means corrupted state
// and is reported, never papered over.
func (l *Ledger) TransferTo(_ context.Context, payee rental.Identity, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.escrow < amount {
		return fmt.Errorf("escrow %d below payout %d to %s: %w",
			l.escrow, amount, payee, rental.ErrTransferRejected)
	}
	l.escrow -= amount
	l.balances[payee] += amount
	return nil
}
