package mathhelp

import "golang.org/x/exp/constraints"

// BetweenInc reports whether f lies in the closed range spanned by p and q, in either order.
func BetweenInc[T constraints.Integer | constraints.Float](f, p, q T) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

// BetweenHalfOpen reports whether lo <= f < hi.
func BetweenHalfOpen[T constraints.Integer | constraints.Float](f, lo, hi T) bool {
	return lo <= f && f < hi
}

func Pow2(n uint) int {
	return 1 << n
}

// Clamp snaps f into [lo, hi].
func Clamp[T constraints.Ordered](f, lo, hi T) T {
	if f > hi {
		return hi
	}
	if f < lo {
		return lo
	}
	return f
}
