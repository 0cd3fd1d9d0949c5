package model

import "slices"

// Rank orders businesses in place: records matching the searched postal code
// come first, then by score descending. Equal keys keep their relative order.
func Rank(businesses []Business) {
	slices.SortStableFunc(businesses, func(a, b Business) int {
		if a.PostalCodeMatch != b.PostalCodeMatch {
			if a.PostalCodeMatch {
				return -1
			}
			return 1
		}
		return b.Score - a.Score
	})
}
