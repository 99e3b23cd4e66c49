package rebalancing

import "errors"

// Sentinel errors for the allocation engine. Callers match with errors.Is;
// the wrapped messages carry the offending values.
var (
	// ErrInvalidAssets marks a malformed asset list: empty or duplicate
	// names, negative current values, or targets outside 0..100.
	ErrInvalidAssets = errors.New("invalid asset list")

	// ErrUnallocatableContribution is returned when money was contributed or
	// withdrawn but no asset has a positive target percentage, so the engine
	// has nowhere to put it.
	ErrUnallocatableContribution = errors.New("unallocatable contribution")

	// ErrInsufficientSellable is returned when a withdrawal is larger than
	// the combined value of the assets that are allowed to be sold.
	ErrInsufficientSellable = errors.New("insufficient sellable balance")
)
