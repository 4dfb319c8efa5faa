package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
	"github.com/slitherlab/slither/pkg/metrics"
)

// Treap-based, in-memory Index implementation.
//
// The BST comparator orders keys so that in-order traversal yields the
// leaderboard from best to worst: score DESC, then AchievedAt ASC, then
// PlayerID ASC. Subtree sizes are maintained on every rotation, so counting
// the entries ranked before a given score is O(log n).

// key is the total order a node is positioned by.
type key struct {
	score      int
	achievedAt int64 // unix millis
	playerID   string
}

// less reports whether a ranks earlier than b, per the listing order the
// entry type defines.
func less(a, b key) bool {
	return a.entry().RankedBefore(b.entry())
}

// entry projects a key back to the fields the ordering helpers compare.
func (k key) entry() model.LeaderboardEntry {
	return model.LeaderboardEntry{
		PlayerID:   k.playerID,
		Score:      k.score,
		AchievedAt: time.UnixMilli(k.achievedAt).UTC(),
	}
}

// record stores the metadata for a player's best alongside its treap key.
type record struct {
	key         key
	username    string
	snakeLength int
}

type node struct {
	key   key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, k key) *node {
	if n == nil {
		return &node{key: k, prio: rand.Uint64(), size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k == n.key {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	} else if less(k, n.key) {
		n.left = deleteNode(n.left, k)
	} else {
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// countGreater counts nodes whose score is strictly greater than score.
// Entries with an equal score sort after every greater one, so a single
// descent with subtree sizes suffices.
func countGreater(n *node, score int) int {
	count := 0
	for n != nil {
		if n.key.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTop appends up to limit keys in listing order.
func collectTop(n *node, limit int, out *[]key) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.key)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}

// TreapIndex is the live ranked index serving top and rank reads. It mirrors
// the durable leaderboard table and is rebuilt from it at startup.
type TreapIndex struct {
	mu       sync.RWMutex
	root     *node
	byPlayer map[string]record

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapIndex constructs an empty index and starts its background metrics
// updater.
func NewTreapIndex(ctx context.Context, opts ...Option) *TreapIndex {
	idx := &TreapIndex{
		byPlayer:              make(map[string]record),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.startMetricsUpdater(ctx)
	return idx
}

// Close stops the background metrics updater.
func (s *TreapIndex) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Seed loads entries in bulk, replacing the current contents. Used once at
// startup to rebuild the index from the durable store.
func (s *TreapIndex) Seed(ctx context.Context, entries []model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = nil
	s.byPlayer = make(map[string]record, len(entries))
	for _, e := range entries {
		k := key{score: e.Score, achievedAt: e.AchievedAt.UTC().UnixMilli(), playerID: e.PlayerID}
		if old, ok := s.byPlayer[e.PlayerID]; ok {
			if !e.Beats(old.key.entry()) {
				continue
			}
			s.root = deleteNode(s.root, old.key)
		}
		s.byPlayer[e.PlayerID] = record{key: k, username: e.Username, snakeLength: e.SnakeLength}
		s.root = insert(s.root, k)
	}
	metrics.UpdateIndexPlayers(len(s.byPlayer))
	return nil
}

// UpdateIfHigher implements Index.UpdateIfHigher in O(log n) expected time.
func (s *TreapIndex) UpdateIfHigher(ctx context.Context, e model.LeaderboardEntry) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	k := key{score: e.Score, achievedAt: e.AchievedAt.UTC().UnixMilli(), playerID: e.PlayerID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byPlayer[e.PlayerID]; ok {
		if !e.Beats(old.key.entry()) {
			// Ties keep the incumbent entry, timestamp included.
			return false, nil
		}
		s.root = deleteNode(s.root, old.key)
	}
	s.byPlayer[e.PlayerID] = record{key: k, username: e.Username, snakeLength: e.SnakeLength}
	s.root = insert(s.root, k)
	metrics.UpdateIndexPlayers(len(s.byPlayer))
	return true, nil
}

// Top implements Index.Top. Ranks are positional, 1..len(result), so tied
// scores still occupy distinct positions in listing order.
func (s *TreapIndex) Top(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]key, 0, n)
	collectTop(s.root, n, &keys)

	out := make([]Entry, 0, len(keys))
	for i, k := range keys {
		out = append(out, Entry{Rank: i + 1, LeaderboardEntry: s.entryFor(k)})
	}
	return out, nil
}

// RankOf implements Index.RankOf in O(log n): one plus the number of strictly
// greater scores, so players with equal scores share a rank.
func (s *TreapIndex) RankOf(ctx context.Context, playerID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordIndexQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byPlayer[playerID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:             countGreater(s.root, rec.key.score) + 1,
		LeaderboardEntry: s.entryFor(rec.key),
	}, nil
}

// Count implements Index.Count.
func (s *TreapIndex) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPlayer)
}

// entryFor rebuilds a full entry from a treap key. Callers hold the lock.
func (s *TreapIndex) entryFor(k key) model.LeaderboardEntry {
	rec := s.byPlayer[k.playerID]
	e := k.entry()
	e.Username = rec.username
	e.SnakeLength = rec.snakeLength
	return e
}

func (s *TreapIndex) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateIndexPlayers(s.Count(ctx))
			}
		}
	}()
}
