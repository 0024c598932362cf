package hotreload

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
)

// testWatcher wires a Watcher to plain channels so tests can feed events
// without touching the filesystem.
func testWatcher(reload func([]string), opts ...Option) (*Watcher, chan fsnotify.Event, chan error) {
	w := &Watcher{
		reload:   reload,
		debounce: 10 * time.Millisecond,
		log:      logr.Discard(),
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	events := make(chan fsnotify.Event, 16)
	errs := make(chan error, 1)
	go w.run(events, errs)
	return w, events, errs
}

type reloadRecorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *reloadRecorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	r.calls = append(r.calls, sorted)
}

func (r *reloadRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDebounceCoalescesBurst(t *testing.T) {
	rec := &reloadRecorder{}
	_, events, _ := testWatcher(rec.record)
	defer close(events)

	events <- fsnotify.Event{Name: "a.go", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "b.go", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "a.go", Op: fsnotify.Write}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	want := [][]string{{"a.go", "b.go"}}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Errorf("reload calls (-want +got):\n%s", diff)
	}
}

func TestSeparateBurstsFireSeparately(t *testing.T) {
	rec := &reloadRecorder{}
	_, events, _ := testWatcher(rec.record)
	defer close(events)

	events <- fsnotify.Event{Name: "a.go", Op: fsnotify.Write}
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })

	events <- fsnotify.Event{Name: "b.go", Op: fsnotify.Write}
	waitFor(t, func() bool { return len(rec.snapshot()) == 2 })

	want := [][]string{{"a.go"}, {"b.go"}}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Errorf("reload calls (-want +got):\n%s", diff)
	}
}

func TestExtensionFilter(t *testing.T) {
	rec := &reloadRecorder{}
	_, events, _ := testWatcher(rec.record, WithExtensions(".go"))
	defer close(events)

	events <- fsnotify.Event{Name: "ignore.tmp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "keep.go", Op: fsnotify.Write}

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	want := [][]string{{"keep.go"}}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Errorf("reload calls (-want +got):\n%s", diff)
	}
}

func TestChmodIgnored(t *testing.T) {
	rec := &reloadRecorder{}
	_, events, _ := testWatcher(rec.record)
	defer close(events)

	events <- fsnotify.Event{Name: "a.go", Op: fsnotify.Chmod}
	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("chmod-only burst triggered reload: %v", got)
	}
}
