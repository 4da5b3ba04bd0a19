package courier

import (
	"sort"
	"time"

	"yandex-team.ru/candydelivery/internal/entity"
)

const (
	maxRating    = 5
	ratingWindow = float64(time.Hour / time.Second)
)

// Earnings sums the reward of every completed batch using the courier type
// the batch was created with.
func Earnings(batches []entity.Batch) (int64, error) {
	var total int64
	for i := range batches {
		e, err := batches[i].Earnings()
		if err != nil {
			return 0, err
		}
		total += e
	}

	return total, nil
}

// Rating scores the courier from 0 to 5 by the fastest region.
//
// Orders are grouped by region and sorted by completion time. The first
// completion in a region is measured from its batch creation, every next one
// from the previous completion in that region. The smallest per-region
// average service time t gives (3600 - t) / 3600 * 5, with t capped at one
// hour. Returns nil when no order in batches is completed.
func Rating(batches []entity.Batch, orders []entity.Order) *float64 {
	createdAt := make(map[uint64]time.Time, len(batches))
	for _, b := range batches {
		createdAt[b.ID] = b.CreatedAt
	}

	byRegion := map[int32][]entity.Order{}
	for _, o := range orders {
		if !o.IsCompleted() || o.BatchID == nil {
			continue
		}
		if _, ok := createdAt[*o.BatchID]; !ok {
			continue
		}
		byRegion[o.Region] = append(byRegion[o.Region], o)
	}

	if len(byRegion) == 0 {
		return nil
	}

	var best float64
	first := true
	for _, completed := range byRegion {
		sort.Slice(completed, func(i, j int) bool {
			ti, tj := *completed[i].CompletedTime, *completed[j].CompletedTime
			if !ti.Equal(tj) {
				return ti.Before(tj)
			}
			return completed[i].ID < completed[j].ID
		})

		var sum time.Duration
		prev := createdAt[*completed[0].BatchID]
		for _, o := range completed {
			sum += o.CompletedTime.Sub(prev)
			prev = *o.CompletedTime
		}

		avg := sum.Seconds() / float64(len(completed))
		if first || avg < best {
			best, first = avg, false
		}
	}

	if best < 0 {
		best = 0
	}
	if best > ratingWindow {
		best = ratingWindow
	}

	rating := (ratingWindow - best) / ratingWindow * maxRating
	return &rating
}
