package dispatch

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testItem struct {
	mu      sync.Mutex
	Results map[string]any
}

func newTestItem() *testItem {
	return &testItem{Results: make(map[string]any)}
}

func (i *testItem) set(key string, val any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Results[key] = val
}

func (i *testItem) get(key string) (any, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.Results[key]
	return v, ok
}

func stepSet(key string, val any) Step[testItem] {
	return func(_ context.Context, item *testItem) error {
		item.set(key, val)
		return nil
	}
}

func stepError(_ context.Context, _ *testItem) error {
	return errors.New("sink unavailable")
}

// stepCopy reads a value written by an earlier stage.
func stepCopy(from, to string) Step[testItem] {
	return func(_ context.Context, item *testItem) error {
		v, ok := item.get(from)
		if !ok {
			return errors.New(from + " not set")
		}
		item.set(to, v)
		return nil
	}
}

func TestPipeline_Process(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[testItem]
		expected map[string]any
	}{
		{
			name:     "single step",
			stages:   []Stage[testItem]{NewStage("archive", stepSet("key", "reports/a.json"))},
			expected: map[string]any{"key": "reports/a.json"},
		},
		{
			name: "two steps in one stage",
			stages: []Stage[testItem]{
				NewStage("sinks", stepSet("x", 1), stepSet("y", 2)),
			},
			expected: map[string]any{"x": 1, "y": 2},
		},
		{
			name: "later stage sees earlier results",
			stages: []Stage[testItem]{
				NewStage("archive", stepSet("key", "k")),
				NewStage("publish", stepCopy("key", "published")),
			},
			expected: map[string]any{"key": "k", "published": "k"},
		},
		{
			name: "step error does not stop later stages",
			stages: []Stage[testItem]{
				NewStage("archive", stepError),
				NewStage("notify", stepSet("ok", true)),
			},
			expected: map[string]any{"ok": true},
		},
		{
			name:     "empty stages are skipped",
			stages:   []Stage[testItem]{NewStage[testItem]("none"), NewStage("notify", stepSet("ok", true))},
			expected: map[string]any{"ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			item := newTestItem()
			in := make(chan *testItem, 1)
			in <- item
			close(in)

			NewPipeline(zerolog.Nop(), tt.stages...).Process(ctx, in)

			if !reflect.DeepEqual(item.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", item.Results, tt.expected)
			}
		})
	}
}

func TestPipeline_ApplyJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPipeline(zerolog.New(&buf),
		NewStage("sinks", stepError, stepSet("a", 1)),
		NewStage("notify", stepError),
	)

	err := p.Apply(context.Background(), newTestItem())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), "sink unavailable"); got != 2 {
		t.Errorf("joined error has %d failures, want 2: %v", got, err)
	}
	if !strings.Contains(buf.String(), `"stage":"notify"`) {
		t.Errorf("missing stage in log: %s", buf.String())
	}
}

func TestPipeline_Empty(t *testing.T) {
	if !NewPipeline[testItem](zerolog.Nop()).Empty() {
		t.Error("pipeline without stages should be empty")
	}
	if !NewPipeline(zerolog.Nop(), NewStage[testItem]("none")).Empty() {
		t.Error("pipeline with only empty stages should be empty")
	}
	if NewPipeline(zerolog.Nop(), NewStage("one", stepError)).Empty() {
		t.Error("pipeline with a step should not be empty")
	}
}

func TestNewPipeline_LogsActiveStages(t *testing.T) {
	var buf bytes.Buffer
	NewPipeline(zerolog.New(&buf).Level(zerolog.DebugLevel),
		NewStage("store", stepSet("a", 1)),
		NewStage[testItem]("announce"),
	)

	if !strings.Contains(buf.String(), `"stages":["store"]`) {
		t.Errorf("expected only the store stage in log: %s", buf.String())
	}
}
