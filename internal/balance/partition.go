package balance

import (
	"sort"

	"hotel-supply-backend/internal/models"
)

// Stream is one partition of an item/location log.
type Stream struct {
	Tag  uint // models.MainStream or the bundle item id
	Txns []models.Transaction
}

func (s Stream) IsMain() bool {
	return s.Tag == models.MainStream
}

// StreamResult is a stream's replayed balance.
type StreamResult struct {
	Tag uint
	Result
}

// Partition groups rows of one item at one location by stream tag. The main
// stream comes first, bundle streams follow in tag order.
func Partition(txns []models.Transaction) []Stream {
	byTag := make(map[uint][]models.Transaction)
	for _, t := range txns {
		byTag[t.StreamTag] = append(byTag[t.StreamTag], t)
	}
	tags := make([]uint, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	streams := make([]Stream, 0, len(tags))
	for _, tag := range tags {
		streams = append(streams, Stream{Tag: tag, Txns: byTag[tag]})
	}
	return streams
}

// Breakdown replays each stream independently.
func Breakdown(txns []models.Transaction, size int, cutoff Cutoff) []StreamResult {
	streams := Partition(txns)
	out := make([]StreamResult, 0, len(streams))
	for _, s := range streams {
		out = append(out, StreamResult{Tag: s.Tag, Result: Replay(s.Txns, size, cutoff)})
	}
	return out
}

// Consolidate is the item/location balance: the sum of every stream's replay.
// A count in one stream never resets quantities contributed through another.
func Consolidate(txns []models.Transaction, size int, cutoff Cutoff) int {
	total := 0
	for _, r := range Breakdown(txns, size, cutoff) {
		total += r.Units
	}
	return total
}

// GroupByItem splits a location's rows per item.
func GroupByItem(txns []models.Transaction) map[uint][]models.Transaction {
	out := make(map[uint][]models.Transaction)
	for _, t := range txns {
		out[t.ItemID] = append(out[t.ItemID], t)
	}
	return out
}
