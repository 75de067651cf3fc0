package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"briefcast/internal/content"
	"briefcast/internal/pipeline"
)

// chainAdapters returns one permissive fake per stage so an item can
// traverse the whole chain.
func chainAdapters(langs ...string) []pipeline.Adapter {
	kinds := []pipeline.Kind{
		pipeline.KindTranslate,
		pipeline.KindSynthesize,
		pipeline.KindPackage,
		pipeline.KindUploadAudio,
		pipeline.KindUploadMetadata,
		pipeline.KindHook,
	}
	adapters := make([]pipeline.Adapter, 0, len(kinds))
	for _, kind := range kinds {
		adapters = append(adapters, newFakeAdapter(kind, langs...))
	}
	return adapters
}

func newEngine(t *testing.T, store *content.Store, maxSteps int, adapters ...pipeline.Adapter) *pipeline.Engine {
	t.Helper()
	executor, err := pipeline.NewExecutor(store, "ko", adapters, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := pipeline.NewEngine(store, executor, "ko", maxSteps, filepath.Join(t.TempDir(), "run.lock"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestProcessItemTraversesWholeChain(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageReviewed)

	engine := newEngine(t, store, 10, chainAdapters("en", "ja")...)
	report, err := engine.ProcessItem(context.Background(), "a1")
	if err != nil {
		t.Fatalf("ProcessItem: %v", err)
	}

	if report.FinalStage != content.StagePublished {
		t.Fatalf("final stage = %s, want published", report.FinalStage)
	}
	if len(report.Transitions) != 6 {
		t.Fatalf("transitions = %d, want 6", len(report.Transitions))
	}
	for _, transition := range report.Transitions {
		if !transition.Success {
			t.Fatalf("transition %s -> %s failed", transition.From, transition.To)
		}
	}

	source, _ := store.Get(context.Background(), "a1", "ko")
	if source.Stage != content.StagePublished {
		t.Fatalf("canonical stage = %s", source.Stage)
	}
}

func TestProcessItemStopsAtFailedStage(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageReviewed)

	adapters := chainAdapters("en")
	adapters[1].(*fakeAdapter).fail["en"] = true // synthesis fails

	engine := newEngine(t, store, 10, adapters...)
	report, err := engine.ProcessItem(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}

	if report.FinalStage != content.StageTranslated {
		t.Fatalf("final stage = %s, want translated", report.FinalStage)
	}
	last := report.Transitions[len(report.Transitions)-1]
	if last.Success {
		t.Fatal("last transition should be the failed synthesis step")
	}
	if last.From != content.StageTranslated || last.To != content.StageAudioReady {
		t.Fatalf("last transition = %s -> %s", last.From, last.To)
	}
}

func TestProcessItemHonorsStepCap(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageReviewed)

	engine := newEngine(t, store, 2, chainAdapters("en")...)
	report, err := engine.ProcessItem(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Transitions) != 2 {
		t.Fatalf("transitions = %d, want 2", len(report.Transitions))
	}
	if report.FinalStage != content.StageAudioReady {
		t.Fatalf("final stage = %s, want audio-ready", report.FinalStage)
	}
}

func TestProcessItemTerminalItem(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StagePublished)

	engine := newEngine(t, store, 10, chainAdapters("en")...)
	report, err := engine.ProcessItem(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Transitions) != 0 {
		t.Fatal("terminal item must not attempt transitions")
	}
	if report.FinalStage != content.StagePublished {
		t.Fatalf("final stage = %s", report.FinalStage)
	}
}

func TestProcessAllIsolatesItemFailures(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageReviewed)
	seedSource(t, store, "a2", content.StageReviewed)

	adapters := chainAdapters("en")
	translate := adapters[0].(*fakeAdapter)
	translate.fail["en"] = true // a1 and a2 both stall at translation

	engine := newEngine(t, store, 10, adapters...)
	report, err := engine.ProcessAll(context.Background())
	if err != nil {
		t.Fatalf("ProcessAll: %v", err)
	}
	if len(report.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(report.Items))
	}
	// Both were attempted despite the failures.
	if translate.callCount("en") != 2 {
		t.Fatalf("translate ran %d times, want 2", translate.callCount("en"))
	}
}

func TestProcessAllSkipsPublishedItems(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StagePublished)
	seedSource(t, store, "a2", content.StageReviewed)

	engine := newEngine(t, store, 10, chainAdapters("en")...)
	report, err := engine.ProcessAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(report.Items))
	}
	if report.Items[0].ArticleID != "a2" {
		t.Fatalf("processed %s, want a2", report.Items[0].ArticleID)
	}
	if report.Items[0].FinalStage != content.StagePublished {
		t.Fatalf("a2 final stage = %s", report.Items[0].FinalStage)
	}
}

func TestProcessAllRefusesWhileRunLockHeld(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "a1", content.StageReviewed)

	lockPath := filepath.Join(t.TempDir(), "run.lock")
	executor, err := pipeline.NewExecutor(store, "ko", chainAdapters("en"), 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := pipeline.NewEngine(store, executor, "ko", 10, lockPath, nil)
	if err != nil {
		t.Fatal(err)
	}

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("holding run lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = held.Unlock() }()

	_, err = engine.ProcessAll(context.Background())
	if !errors.Is(err, pipeline.ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
}

func TestProcessAllOrdersOldestFirst(t *testing.T) {
	store := mustOpenStore(t)
	seedSource(t, store, "older", content.StageReviewed)
	time.Sleep(5 * time.Millisecond)
	seedSource(t, store, "newer", content.StageReviewed)

	engine := newEngine(t, store, 1, chainAdapters("en")...)
	report, err := engine.ProcessAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 2 {
		t.Fatalf("items = %d", len(report.Items))
	}
	if report.Items[0].ArticleID != "older" {
		t.Fatalf("first item = %s, want older", report.Items[0].ArticleID)
	}
}
