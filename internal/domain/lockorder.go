package domain

import "slices"

// LockOrder returns the distinct account ids in the global lock order (ascending).
// Every operation that locks more than one account must lock in this order.
func LockOrder(ids ...int64) []int64 {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)

	return slices.Compact(ordered)
}
