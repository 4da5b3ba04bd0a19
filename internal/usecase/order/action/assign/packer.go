package assign

import (
	"math"
	"sort"

	"yandex-team.ru/candydelivery/internal/entity"
)

// Pack selects the longest prefix of candidates, ordered by ascending weight
// and then id, whose running weight stays within capacity.
// Once the running weight exceeds capacity every heavier candidate is dropped,
// even one that would fit alone.
func Pack(candidates []entity.Order, capacity float64) []entity.Order {
	if len(candidates) == 0 {
		return []entity.Order{}
	}

	sorted := byWeight(candidates)

	limit := hundredths(capacity)
	var sum int64

	res := []entity.Order{}
	for _, o := range sorted {
		sum += hundredths(o.Weight)
		if sum > limit {
			break
		}
		res = append(res, o)
	}

	return res
}

// Fits reports whether the total weight of every group is within capacity.
func Fits(capacity float64, groups ...[]entity.Order) bool {
	var sum int64
	for _, orders := range groups {
		for _, o := range orders {
			sum += hundredths(o.Weight)
		}
	}

	return sum <= hundredths(capacity)
}

// byWeight returns a copy of orders sorted by ascending weight, then id.
func byWeight(orders []entity.Order) []entity.Order {
	sorted := make([]entity.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight < sorted[j].Weight
		}
		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}

// Weights carry two decimals; summing them as integers keeps
// 3.33+3.33+3.34 exactly at 10.
func hundredths(w float64) int64 {
	return int64(math.Round(w * 100))
}
