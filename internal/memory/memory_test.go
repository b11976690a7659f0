package memory_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adarshp14/AgentInsights/internal/memory"
	"github.com/adarshp14/AgentInsights/pkg/models"
)

func TestAppendAndRecent(t *testing.T) {
	store := memory.New()

	store.Append("org1:conv1", models.Turn{Question: "q1", Answer: "a1", QueryType: models.QueryDirect})
	store.Append("org1:conv1", models.Turn{Question: "q2", Answer: "a2", QueryType: models.QueryRetrieval})

	turns := store.Recent("org1:conv1", 10)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Question != "q1" || turns[1].Question != "q2" {
		t.Errorf("turns out of order: %q, %q", turns[0].Question, turns[1].Question)
	}
	if turns[1].QueryType != models.QueryRetrieval {
		t.Errorf("expected retrieval query type, got %s", turns[1].QueryType)
	}
}

func TestRecentLimit(t *testing.T) {
	store := memory.New()
	for i := 0; i < 5; i++ {
		store.Append("k", models.Turn{Question: fmt.Sprintf("q%d", i), Answer: "a"})
	}

	turns := store.Recent("k", 2)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Question != "q3" || turns[1].Question != "q4" {
		t.Errorf("expected most recent turns, got %q, %q", turns[0].Question, turns[1].Question)
	}
}

func TestWindowEviction(t *testing.T) {
	store := memory.New(memory.WithWindow(3))
	for i := 0; i < 10; i++ {
		store.Append("k", models.Turn{Question: fmt.Sprintf("q%d", i), Answer: "a"})
	}

	turns := store.Turns("k")
	if len(turns) != 3 {
		t.Fatalf("expected window of 3, got %d", len(turns))
	}
	if turns[0].Question != "q7" {
		t.Errorf("expected oldest turn q7, got %q", turns[0].Question)
	}

	info, ok := store.Info("k")
	if !ok {
		t.Fatal("expected conversation info")
	}
	if info.MessageCount != 10 {
		t.Errorf("expected message count 10, got %d", info.MessageCount)
	}
	if info.TurnCount != 3 {
		t.Errorf("expected turn count 3, got %d", info.TurnCount)
	}
}

func TestAnswerTruncation(t *testing.T) {
	store := memory.New(memory.WithAnswerCap(10))
	store.Append("k", models.Turn{Question: "q", Answer: strings.Repeat("x", 100)})

	turns := store.Turns("k")
	if len(turns[0].Answer) != 10 {
		t.Errorf("expected answer truncated to 10 chars, got %d", len(turns[0].Answer))
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	store := memory.New()
	store.Append("k", models.Turn{Question: "q", Answer: "a"})

	turns := store.Recent("k", 0)
	turns[0].Question = "mutated"

	again := store.Recent("k", 0)
	if again[0].Question != "q" {
		t.Errorf("store state mutated through returned slice")
	}
}

func TestUnknownKey(t *testing.T) {
	store := memory.New()
	if turns := store.Recent("missing", 5); turns != nil {
		t.Errorf("expected nil for unknown key, got %v", turns)
	}
	if _, ok := store.Info("missing"); ok {
		t.Error("expected no info for unknown key")
	}
}

func TestClearConversation(t *testing.T) {
	store := memory.New()
	store.Append("keep", models.Turn{Question: "q", Answer: "a"})
	store.Append("drop", models.Turn{Question: "q", Answer: "a"})

	store.ClearConversation("drop")

	if store.Recent("drop", 0) != nil {
		t.Error("cleared conversation still has turns")
	}
	if len(store.Recent("keep", 0)) != 1 {
		t.Error("unrelated conversation was cleared")
	}
}

func TestClearAll(t *testing.T) {
	store := memory.New()
	store.Append("a", models.Turn{Question: "q", Answer: "a"})
	store.Append("b", models.Turn{Question: "q", Answer: "a"})

	store.Clear()

	stats := store.Stats()
	if stats.Conversations != 0 || stats.Turns != 0 {
		t.Errorf("expected empty store after clear, got %+v", stats)
	}
}

func TestStats(t *testing.T) {
	store := memory.New()
	store.Append("b", models.Turn{Question: "q", Answer: "a"})
	store.Append("a", models.Turn{Question: "q", Answer: "a"})
	store.Append("a", models.Turn{Question: "q2", Answer: "a"})

	stats := store.Stats()
	if stats.Conversations != 2 {
		t.Errorf("expected 2 conversations, got %d", stats.Conversations)
	}
	if stats.Turns != 3 {
		t.Errorf("expected 3 turns, got %d", stats.Turns)
	}
	if len(stats.Keys) != 2 || stats.Keys[0] != "a" || stats.Keys[1] != "b" {
		t.Errorf("expected sorted keys [a b], got %v", stats.Keys)
	}
}

func TestPruneIdle(t *testing.T) {
	store := memory.New()
	store.Append("stale", models.Turn{Question: "q", Answer: "a"})

	time.Sleep(20 * time.Millisecond)
	store.Append("fresh", models.Turn{Question: "q", Answer: "a"})

	removed := store.PruneIdle(10 * time.Millisecond)
	if removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}
	if store.Recent("stale", 0) != nil {
		t.Error("stale conversation survived pruning")
	}
	if store.Recent("fresh", 0) == nil {
		t.Error("fresh conversation was pruned")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store := memory.New(memory.WithSnapshotDir(dir))
	store.Append("org1:conv1", models.Turn{Question: "q1", Answer: "a1", QueryType: models.QueryToolUse})
	store.Append("org1:conv1", models.Turn{Question: "q2", Answer: "a2"})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded := memory.New(memory.WithSnapshotDir(dir))
	turns := reloaded.Turns("org1:conv1")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns after reload, got %d", len(turns))
	}
	if turns[0].Question != "q1" || turns[0].QueryType != models.QueryToolUse {
		t.Errorf("unexpected first turn after reload: %+v", turns[0])
	}

	info, ok := reloaded.Info("org1:conv1")
	if !ok || info.MessageCount != 2 {
		t.Errorf("expected message count 2 after reload, got %+v", info)
	}
}

func TestSnapshotMissingFileStartsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	store := memory.New(memory.WithSnapshotDir(dir))
	if stats := store.Stats(); stats.Conversations != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := memory.New(memory.WithWindow(200))
	var wg sync.WaitGroup
	for k := 0; k < 8; k++ {
		key := fmt.Sprintf("conv-%d", k)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.Append(key, models.Turn{Question: fmt.Sprintf("q%d", i), Answer: "a"})
			}
		}()
	}
	wg.Wait()

	stats := store.Stats()
	if stats.Conversations != 8 {
		t.Fatalf("expected 8 conversations, got %d", stats.Conversations)
	}
	if stats.Turns != 400 {
		t.Errorf("expected 400 turns, got %d", stats.Turns)
	}
	for k := 0; k < 8; k++ {
		turns := store.Turns(fmt.Sprintf("conv-%d", k))
		for i, turn := range turns {
			if turn.Question != fmt.Sprintf("q%d", i) {
				t.Fatalf("conv-%d turn %d out of order: %q", k, i, turn.Question)
			}
		}
	}
}
