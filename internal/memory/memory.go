// Package memory implements the conversation memory store: keyed,
// bounded turn history with per-key serialization.
//
// The store is partitioned into shards keyed by a hash of the
// conversation key, so concurrent requests on different conversations
// never contend on a global lock, while appends on the same key are
// atomic with respect to the turn sequence.
package memory

import (
	"encoding/json"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/adarshp14/AgentInsights/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultWindow is the per-conversation turn cap; oldest turns are
	// evicted first once it is exceeded.
	DefaultWindow = 20

	// DefaultAnswerCap bounds the stored answer length in characters.
	DefaultAnswerCap = 1200

	shardCount = 32
)

// conversation owns one key's state. Guarded by its shard's mutex.
type conversation struct {
	Turns        []models.Turn `json:"turns"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActive   time.Time     `json:"last_active"`
	MessageCount int           `json:"message_count"`
}

type shard struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

// Store is the in-process conversation memory. Durability is opt-in:
// with a snapshot directory configured, Close flushes state to a JSON
// file which New reloads on the next start. Without one the store is
// process-local only.
type Store struct {
	shards    [shardCount]*shard
	window    int
	answerCap int

	snapshotPath string
	saveMu       sync.Mutex
}

// Option configures the store.
type Option func(*Store)

// WithWindow sets the per-conversation turn cap.
func WithWindow(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithAnswerCap sets the stored-answer character cap.
func WithAnswerCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.answerCap = n
		}
	}
}

// WithSnapshotDir enables snapshot persistence in dir. The directory is
// created if missing; on failure persistence is disabled with a warning
// rather than failing construction.
func WithSnapshotDir(dir string) Option {
	return func(s *Store) {
		if dir == "" {
			return
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Cannot create snapshot dir, memory persistence disabled")
			return
		}
		s.snapshotPath = filepath.Join(dir, "conversations.json")
	}
}

// New creates a conversation memory store.
func New(opts ...Option) *Store {
	s := &Store{
		window:    DefaultWindow,
		answerCap: DefaultAnswerCap,
	}
	for i := range s.shards {
		s.shards[i] = &shard{conversations: make(map[string]*conversation)}
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshotPath != "" {
		s.loadSnapshot()
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Append records a completed exchange. The answer is truncated to the
// store's cap before it is stored; retrieved passages and tool
// arguments are never persisted here.
func (s *Store) Append(conversationKey string, turn models.Turn) {
	turn.Answer = truncate(turn.Answer, s.answerCap)
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	sh := s.shardFor(conversationKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	conv, ok := sh.conversations[conversationKey]
	if !ok {
		conv = &conversation{CreatedAt: time.Now().UTC()}
		sh.conversations[conversationKey] = conv
	}
	conv.Turns = append(conv.Turns, turn)
	if len(conv.Turns) > s.window {
		conv.Turns = conv.Turns[len(conv.Turns)-s.window:]
	}
	conv.LastActive = time.Now().UTC()
	conv.MessageCount++
}

// Recent returns up to limit most recent turns, oldest first. A copy is
// returned; callers never observe later mutations.
func (s *Store) Recent(conversationKey string, limit int) []models.Turn {
	sh := s.shardFor(conversationKey)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	conv, ok := sh.conversations[conversationKey]
	if !ok || len(conv.Turns) == 0 {
		return nil
	}
	turns := conv.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}

// Turns returns the full window for a conversation.
func (s *Store) Turns(conversationKey string) []models.Turn {
	return s.Recent(conversationKey, 0)
}

// Info returns session metadata for a conversation key.
func (s *Store) Info(conversationKey string) (models.ConversationInfo, bool) {
	sh := s.shardFor(conversationKey)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	conv, ok := sh.conversations[conversationKey]
	if !ok {
		return models.ConversationInfo{}, false
	}
	return models.ConversationInfo{
		Key:          conversationKey,
		CreatedAt:    conv.CreatedAt,
		LastActive:   conv.LastActive,
		MessageCount: conv.MessageCount,
		TurnCount:    len(conv.Turns),
	}, true
}

// Stats reports cache size and the active conversation keys, sorted for
// stable output.
func (s *Store) Stats() models.MemoryStats {
	stats := models.MemoryStats{Keys: []string{}}
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key, conv := range sh.conversations {
			stats.Conversations++
			stats.Turns += len(conv.Turns)
			stats.Keys = append(stats.Keys, key)
		}
		sh.mu.RUnlock()
	}
	sort.Strings(stats.Keys)
	return stats
}

// ClearConversation drops one conversation's state.
func (s *Store) ClearConversation(conversationKey string) {
	sh := s.shardFor(conversationKey)
	sh.mu.Lock()
	delete(sh.conversations, conversationKey)
	sh.mu.Unlock()
}

// Clear purges all conversation state.
func (s *Store) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.conversations = make(map[string]*conversation)
		sh.mu.Unlock()
	}
}

// PruneIdle evicts conversations whose last activity is older than
// maxIdle and returns how many were removed.
func (s *Store) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxIdle)
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, conv := range sh.conversations {
			if conv.LastActive.Before(cutoff) {
				delete(sh.conversations, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Dur("max_idle", maxIdle).Msg("Pruned idle conversations")
	}
	return removed
}

// Close flushes the snapshot when persistence is enabled.
func (s *Store) Close() error {
	if s.snapshotPath == "" {
		return nil
	}
	s.saveSnapshot()
	return nil
}

// ── Snapshot Persistence ─────────────────────────────────────

func (s *Store) saveSnapshot() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snap := make(map[string]*conversation)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for key, conv := range sh.conversations {
			cp := *conv
			cp.Turns = append([]models.Turn(nil), conv.Turns...)
			snap[key] = &cp
		}
		sh.mu.RUnlock()
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal memory snapshot")
		return
	}

	// Write-then-rename keeps the snapshot readable if we crash mid-write.
	tmp := s.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Error().Err(err).Str("path", tmp).Msg("Failed to write memory snapshot")
		return
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		log.Error().Err(err).Str("path", s.snapshotPath).Msg("Failed to finalize memory snapshot")
	}
}

func (s *Store) loadSnapshot() {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.snapshotPath).Msg("Cannot read memory snapshot")
		}
		return
	}
	var snap map[string]*conversation
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Str("path", s.snapshotPath).Msg("Corrupt memory snapshot, starting empty")
		return
	}
	for key, conv := range snap {
		sh := s.shardFor(key)
		sh.mu.Lock()
		sh.conversations[key] = conv
		sh.mu.Unlock()
	}
	log.Info().Int("conversations", len(snap)).Str("path", s.snapshotPath).Msg("Memory snapshot loaded")
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
