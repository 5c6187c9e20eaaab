// Package batch splits a paginated export into numbered batches and fetches
// them one at a time.
package batch

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoBatchesSelected is returned when a selection is empty.
	ErrNoBatchesSelected = errors.New("no batches selected")

	// ErrBatchOutOfRange is returned for batch numbers outside 1..TotalBatches.
	ErrBatchOutOfRange = errors.New("batch number out of range")
)

// Descriptor describes one batch of an export. Record numbers are 1-based
// and inclusive.
type Descriptor struct {
	BatchNumber int `json:"batchNumber"`
	StartRecord int `json:"startRecord"`
	EndRecord   int `json:"endRecord"`
	Count       int `json:"count"`
}

// TotalBatches returns ceil(totalItems / batchSize), or 0 when either value
// is not positive.
func TotalBatches(totalItems, batchSize int) int {
	if totalItems <= 0 || batchSize <= 0 {
		return 0
	}
	return (totalItems + batchSize - 1) / batchSize
}

// Describe returns the descriptor for batch n.
func Describe(n, totalItems, batchSize int) (Descriptor, error) {
	total := TotalBatches(totalItems, batchSize)
	if n < 1 || n > total {
		return Descriptor{}, fmt.Errorf("%w: %d (have %d)", ErrBatchOutOfRange, n, total)
	}

	start := (n-1)*batchSize + 1
	end := min(n*batchSize, totalItems)
	return Descriptor{
		BatchNumber: n,
		StartRecord: start,
		EndRecord:   end,
		Count:       end - start + 1,
	}, nil
}

// Plan returns the descriptors of every batch in ascending order.
func Plan(totalItems, batchSize int) []Descriptor {
	total := TotalBatches(totalItems, batchSize)
	plan := make([]Descriptor, 0, total)
	for n := 1; n <= total; n++ {
		d, _ := Describe(n, totalItems, batchSize)
		plan = append(plan, d)
	}
	return plan
}

// Sequence returns the batch numbers 1..total.
func Sequence(total int) []int {
	seq := make([]int, 0, max(total, 0))
	for n := 1; n <= total; n++ {
		seq = append(seq, n)
	}
	return seq
}

// NormalizeSelection sorts and de-duplicates an operator's batch selection
// and checks every number against the plan.
func NormalizeSelection(selected []int, totalBatches int) ([]int, error) {
	if len(selected) == 0 {
		return nil, ErrNoBatchesSelected
	}

	seen := make(map[int]bool, len(selected))
	out := make([]int, 0, len(selected))
	for _, n := range selected {
		if n < 1 || n > totalBatches {
			return nil, fmt.Errorf("%w: %d (have %d)", ErrBatchOutOfRange, n, totalBatches)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}

	sort.Ints(out)
	return out, nil
}
