package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/ctabridge/pkg/endpoint"
	"github.com/matzehuels/ctabridge/pkg/errors"
	"github.com/matzehuels/ctabridge/pkg/normalize"
)

func staticFetch(tree normalize.Tree, err error) func(context.Context) (normalize.Tree, error) {
	return func(context.Context) (normalize.Tree, error) { return tree, err }
}

func TestWatchModelRefreshCycle(t *testing.T) {
	tree := map[string]any{"ctatt": map[string]any{"tmst": "20240301 08:00:00"}}
	m := NewWatchModel(context.Background(), "train arrivals", time.Minute, staticFetch(tree, nil))

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned nil command")
	}
	msg := cmd()
	res, ok := msg.(watchResult)
	if !ok {
		t.Fatalf("Init command produced %T, want watchResult", msg)
	}

	next, tick := m.Update(res)
	m = next.(WatchModel)
	if m.loading {
		t.Error("model still loading after result")
	}
	if m.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", m.refreshes)
	}
	if tick == nil {
		t.Fatal("result should schedule the next tick")
	}

	next, cmd = m.Update(watchTick{gen: m.gen})
	m = next.(WatchModel)
	if !m.loading || cmd == nil {
		t.Error("tick should start a refresh")
	}

	view := m.View()
	for _, want := range []string{"train arrivals", "ctatt", "tmst", "refreshing"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestWatchModelKeepsLastTreeOnError(t *testing.T) {
	tree := map[string]any{"prd": "ok"}
	m := NewWatchModel(context.Background(), "bus predictions", time.Minute, nil)

	next, _ := m.Update(watchResult{tree: tree, at: time.Now()})
	m = next.(WatchModel)
	next, _ = m.Update(watchResult{err: errors.New(errors.ErrCodeNetwork, "upstream unreachable"), at: time.Now()})
	m = next.(WatchModel)

	view := m.View()
	if !strings.Contains(view, "upstream unreachable") {
		t.Errorf("View() missing error:\n%s", view)
	}
	if !strings.Contains(view, "prd") {
		t.Errorf("View() should keep the last good tree:\n%s", view)
	}
}

func TestWatchModelCountsSelectedEntries(t *testing.T) {
	tests := []struct {
		name string
		tree normalize.Tree
		want string
	}{
		{"list", []any{map[string]any{"rt": "Red"}, map[string]any{"rt": "Blue"}}, "2 in ctatt.eta"},
		{"single element", map[string]any{"rt": "Red"}, "1 in ctatt.eta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWatchModel(context.Background(), "train arrivals", time.Minute, nil)
			m.Select = "ctatt.eta"
			next, _ := m.Update(watchResult{tree: tt.tree, at: time.Now()})
			m = next.(WatchModel)
			if view := m.View(); !strings.Contains(view, tt.want) {
				t.Errorf("View() missing %q:\n%s", tt.want, view)
			}
		})
	}
}

func TestWatchModelManualRefreshDropsStaleTick(t *testing.T) {
	m := NewWatchModel(context.Background(), "alerts", time.Minute, staticFetch(map[string]any{}, nil))
	next, _ := m.Update(watchResult{tree: map[string]any{}, at: time.Now()})
	m = next.(WatchModel)
	staleGen := m.gen

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(WatchModel)
	if cmd == nil || !m.loading {
		t.Fatal("r should start a refresh")
	}

	next, _ = m.Update(watchResult{tree: map[string]any{}, at: time.Now()})
	m = next.(WatchModel)

	_, cmd = m.Update(watchTick{gen: staleGen})
	if cmd != nil {
		t.Error("stale tick should be ignored")
	}
}

func TestWatchModelQuit(t *testing.T) {
	m := NewWatchModel(context.Background(), "alerts", time.Minute, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestWatchModelScroll(t *testing.T) {
	list := make([]any, 30)
	for i := range list {
		list[i] = "stop"
	}
	m := NewWatchModel(context.Background(), "stops", time.Minute, nil)
	next, _ := m.Update(watchResult{tree: list, at: time.Now()})
	m = next.(WatchModel)
	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 16})
	m = next.(WatchModel)

	if m.Height != 10 {
		t.Errorf("Height = %d, want 10", m.Height)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(WatchModel)
	if m.Offset != 1 {
		t.Errorf("Offset = %d, want 1", m.Offset)
	}
	if strings.Contains(m.View(), "[0]") {
		t.Error("scrolled view should not show the first element")
	}
}

func TestWatchTarget(t *testing.T) {
	tests := []struct {
		args       []string
		wantDomain endpoint.Domain
		wantKey    string
		wantErr    errors.Code
	}{
		{[]string{"bus", "predictions"}, endpoint.Bus, "predictions", ""},
		{[]string{"trainStops"}, endpoint.TrainStops, endpoint.StopsEndpoint, ""},
		{[]string{"train"}, "", "", errors.ErrCodeInvalidInput},
		{[]string{"metra", "x"}, "", "", errors.ErrCodeUnknownEndpoint},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			d, k, err := watchTarget(tt.args)
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if d != tt.wantDomain || k != tt.wantKey {
				t.Errorf("watchTarget() = %s %s, want %s %s", d, k, tt.wantDomain, tt.wantKey)
			}
		})
	}
}

func TestWatchRejectsBadInterval(t *testing.T) {
	_, _, err := execute(t, "watch", "bus", "predictions", "--every", "0s")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
