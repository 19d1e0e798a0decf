package engine

import (
	"sync"

	"github.com/tinygambit/tinygambit/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// entriesPerBucket matches one cache line when entries are 16 bytes.
const entriesPerBucket = 4

// numShards is the number of independently-lockable partitions of the table.
// A small power of two keeps per-shard contention low without wasting memory
// on per-shard slack; 8 is enough for the worker counts this engine spawns.
const numShards = 8

// ttEntry is one 16-byte slot: an 8-byte verification key and an 8-byte
// packed data word (score, move, depth, age, bound, PV flag).
type ttEntry struct {
	key  uint64
	data uint64
}

const (
	dataScoreShift = 48 // int16
	dataMoveShift  = 32 // uint16
	dataDepthShift = 24 // int8
	dataAgeShift   = 16 // uint8
	dataBoundShift = 14 // 2 bits
	dataPVShift    = 13 // 1 bit
)

func packData(score int16, move board.Move, depth int8, age uint8, flag TTFlag, isPV bool) uint64 {
	pv := uint64(0)
	if isPV {
		pv = 1
	}
	return uint64(uint16(score))<<dataScoreShift |
		uint64(uint16(move))<<dataMoveShift |
		uint64(uint8(depth))<<dataDepthShift |
		uint64(age)<<dataAgeShift |
		uint64(flag)<<dataBoundShift |
		pv<<dataPVShift
}

func unpackScore(data uint64) int16 { return int16(data >> dataScoreShift) }
func unpackMove(data uint64) board.Move {
	return board.Move(uint16(data >> dataMoveShift))
}
func unpackDepth(data uint64) int8  { return int8(data >> dataDepthShift) }
func unpackAge(data uint64) uint8   { return uint8(data >> dataAgeShift) }
func unpackFlag(data uint64) TTFlag { return TTFlag((data >> dataBoundShift) & 0x3) }
func unpackPV(data uint64) bool     { return (data>>dataPVShift)&0x1 != 0 }

// TTEntry is the decoded, caller-facing view of a probed slot.
type TTEntry struct {
	BestMove board.Move
	Score    int16
	Depth    int8
	Flag     TTFlag
	IsPV     bool
}

// ttShard is one independently-mutexed partition of buckets.
type ttShard struct {
	mu      sync.Mutex
	buckets []ttBucket
	mask    uint64
}

type ttBucket struct {
	entries [entriesPerBucket]ttEntry
}

// TranspositionTable is a sharded, bucketed hash table of search results.
// Each shard guards its own slice of buckets with a short-held mutex so
// concurrent Lazy SMP workers can probe and store without serializing on a
// single lock; a lost update under contention is acceptable, a torn entry
// is not, so every read/write of an entry happens while its shard is held.
type TranspositionTable struct {
	shards [numShards]ttShard
	age    uint8
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}

	totalBytes := uint64(sizeMB) * 1024 * 1024
	bucketsTotal := roundDownToPowerOf2(totalBytes / uint64(entriesPerBucket*16))
	if bucketsTotal < numShards {
		bucketsTotal = numShards
	}
	bucketsPerShard := roundDownToPowerOf2(bucketsTotal / numShards)
	if bucketsPerShard == 0 {
		bucketsPerShard = 1
	}

	for i := range tt.shards {
		tt.shards[i].buckets = make([]ttBucket, bucketsPerShard)
		tt.shards[i].mask = bucketsPerShard - 1
	}

	return tt
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2 (0 if n == 0).
func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// shardFor mixes the high bits of the key to pick a shard, and the low bits
// (after removing the shard selector) to pick a bucket within it.
func (tt *TranspositionTable) shardFor(hash uint64) (*ttShard, uint64) {
	shard := &tt.shards[(hash>>61)%numShards]
	return shard, hash & shard.mask
}

// Probe looks up a position in the transposition table. Returns the first
// entry in the addressed bucket whose key matches, else ok=false.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	shard, idx := tt.shardFor(hash)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	bucket := &shard.buckets[idx]
	for i := range bucket.entries {
		e := &bucket.entries[i]
		if e.key == hash && e.data != 0 {
			return TTEntry{
				BestMove: unpackMove(e.data),
				Score:    unpackScore(e.data),
				Depth:    unpackDepth(e.data),
				Flag:     unpackFlag(e.data),
				IsPV:     unpackPV(e.data),
			}, true
		}
	}
	return TTEntry{}, false
}

// Store saves a position in the transposition table. Within the addressed
// bucket: overwrite a matching key when not shallower or when stale: else
// fill any empty slot; else evict the slot of lowest quality, where quality
// is depth minus how many generations old the slot's entry is.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move, isPV bool) {
	shard, idx := tt.shardFor(hash)
	data := packData(int16(score), bestMove, int8(depth), tt.age, flag, isPV)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	bucket := &shard.buckets[idx]

	for i := range bucket.entries {
		e := &bucket.entries[i]
		if e.key == hash {
			existingAge := unpackAge(e.data)
			existingDepth := unpackDepth(e.data)
			if existingAge != tt.age || int8(depth) >= existingDepth {
				e.key = hash
				e.data = data
			}
			return
		}
	}

	for i := range bucket.entries {
		e := &bucket.entries[i]
		if e.data == 0 {
			e.key = hash
			e.data = data
			return
		}
	}

	worst := 0
	worstQuality := 1 << 30
	for i := range bucket.entries {
		e := &bucket.entries[i]
		age := unpackAge(e.data)
		d := int(unpackDepth(e.data))
		quality := d - int(tt.age-age)
		if quality < worstQuality {
			worstQuality = quality
			worst = i
		}
	}
	bucket.entries[worst].key = hash
	bucket.entries[worst].data = data
}

// NewSearch increments the age counter for a new search. Called once by
// the main thread before workers are spawned.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties every shard.
func (tt *TranspositionTable) Clear() {
	for i := range tt.shards {
		shard := &tt.shards[i]
		shard.mu.Lock()
		for j := range shard.buckets {
			shard.buckets[j] = ttBucket{}
		}
		shard.mu.Unlock()
	}
	tt.age = 0
}

// HashFull returns the permille (parts per thousand) of the table that is
// used by the current search generation, sampled from the first shard.
func (tt *TranspositionTable) HashFull() int {
	shard := &tt.shards[0]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	sampleSize := 250
	if len(shard.buckets) < sampleSize {
		sampleSize = len(shard.buckets)
	}
	if sampleSize == 0 {
		return 0
	}

	used := 0
	total := 0
	for i := 0; i < sampleSize; i++ {
		for _, e := range shard.buckets[i].entries {
			total++
			if e.data != 0 && unpackAge(e.data) == tt.age {
				used++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return (used * 1000) / total
}

// Size returns the total number of entry slots across all shards.
func (tt *TranspositionTable) Size() uint64 {
	var total uint64
	for i := range tt.shards {
		total += uint64(len(tt.shards[i].buckets) * entriesPerBucket)
	}
	return total
}

// AdjustScoreFromTT adjusts a mate score read from the table back to the
// current ply's frame of reference.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT canonicalizes a mate score relative to the root before
// storing it, so that a probe at a different ply can recover the correct
// mate distance.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
