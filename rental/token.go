package rental

import "context"

// =============================================================================
// TRANSFER CAPABILITY - The external token
// =============================================================================

// TransferCapability is the external fungible-token interface the engine
// escrows through. The engine is conceptually the escrow holder: TransferFrom
// pulls into escrow, TransferTo pays out of it.
//
// The capability either atomically moves funds or reports failure with no
// partial transfer. Allowance mechanics, if any, are between the payer and
// the token; the engine only sees success or failure. The engine never calls
// the capability twice for the same logical operation and never mutates the
// Store before a pull reports success.
//
// Failure kinds: ErrInsufficientFunds when the payer cannot cover the
// amount, ErrTransferRejected for anything else.
type TransferCapability interface {
	// TransferFrom moves amount from payer into escrow.
	TransferFrom(ctx context.Context, payer Identity, amount uint64) error

	// TransferTo moves amount out of escrow to payee.
	TransferTo(ctx context.Context, payee Identity, amount uint64) error
}
