// Package candidate implements a bounded top-K collector keyed by candidate
// text, as used by the n-gram predictor to gather word candidates without
// ever holding more than capacity entries at once.
package candidate

import (
	"math"
	"sort"
)

// Candidate is a scored prediction emitted by the n-gram model.
type Candidate struct {
	Text       string
	Confidence uint8
}

// Queue is a bounded top-K collector. The zero value is not usable; use
// NewQueue.
type Queue struct {
	entries  []Candidate
	capacity int
}

// NewQueue returns a Queue that retains at most capacity entries. A
// capacity below 1 is treated as 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{capacity: capacity}
}

// Push records a (text, confidence) observation. A NaN confidence is
// dropped silently. Confidence is clamped to [0,1] and quantized to a u8
// bucket (0..254) so ordering is deterministic across floating point
// noise. If text is already present, the max of the two confidences wins.
// Once the queue is at capacity, a new entry only displaces the current
// minimum, and only if it is strictly greater.
func (q *Queue) Push(text string, confidence float64) {
	if math.IsNaN(confidence) {
		return
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	quantized := uint8(float64(math.MaxUint8-1) * confidence)

	for i := range q.entries {
		if q.entries[i].Text == text {
			if quantized > q.entries[i].Confidence {
				q.entries[i].Confidence = quantized
			}
			q.sort()
			return
		}
	}

	if len(q.entries) < q.capacity {
		q.entries = append(q.entries, Candidate{Text: text, Confidence: quantized})
		q.sort()
		return
	}

	last := len(q.entries) - 1
	if quantized > q.entries[last].Confidence {
		q.entries[last] = Candidate{Text: text, Confidence: quantized}
		q.sort()
	}
}

// sort keeps entries ordered by confidence descending, so entries[len-1]
// is always the current minimum and IntoSortedVec needs no extra work.
func (q *Queue) sort() {
	sort.SliceStable(q.entries, func(i, j int) bool {
		return q.entries[i].Confidence > q.entries[j].Confidence
	})
}

// IntoSortedVec returns the queue's entries in confidence-descending order.
// Its length never exceeds the queue's capacity.
func (q *Queue) IntoSortedVec() []Candidate {
	out := make([]Candidate, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len reports the number of entries currently held.
func (q *Queue) Len() int {
	return len(q.entries)
}
