package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/photo-cleaner/internal/engine"
	"github.com/kozaktomas/photo-cleaner/internal/media"
)

// memoryLibrary serves gradient images. Assets sharing a pattern are exact
// duplicates; rising and falling gradients are far apart.
type memoryLibrary struct {
	mu        sync.Mutex
	assets    []media.Asset
	rising    map[string]bool
	deleteErr error
	deleted   []string
	gate      chan struct{} // when set, Decode waits for it to close
}

func newMemoryLibrary() *memoryLibrary {
	return &memoryLibrary{rising: make(map[string]bool)}
}

func (m *memoryLibrary) add(id string, size int64, rising bool) {
	m.assets = append(m.assets, media.Asset{ID: id, Kind: media.KindImage, Size: size})
	m.rising[id] = rising
}

func (m *memoryLibrary) ListAssets(_ context.Context, kind media.Kind) ([]media.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind != media.KindImage {
		return nil, nil
	}
	return append([]media.Asset(nil), m.assets...), nil
}

func (m *memoryLibrary) ByteSize(_ context.Context, asset media.Asset) int64 {
	return asset.EstimatedSize()
}

func (m *memoryLibrary) RequestDeletion(_ context.Context, assets []media.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, a := range assets {
		m.deleted = append(m.deleted, a.ID)
		for i, existing := range m.assets {
			if existing.ID == a.ID {
				m.assets = append(m.assets[:i], m.assets[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *memoryLibrary) AuthorizationState(context.Context) media.AuthState {
	return media.AuthAuthorized
}

func (m *memoryLibrary) RequestAuthorization(context.Context) (media.AuthState, error) {
	return media.AuthAuthorized, nil
}

func (m *memoryLibrary) Decode(ctx context.Context, asset media.Asset, _, _ int) (image.Image, error) {
	m.mu.Lock()
	rising, ok := m.rising[asset.ID]
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("unknown asset")
	}
	img := image.NewGray(image.Rect(0, 0, 90, 80))
	for y := range 80 {
		for x := range 90 {
			v := uint8(x * 2)
			if !rising {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img, nil
}

// newTestHandler returns a handler over a library holding two duplicates
// ("a", "b") and one distinct photo ("c").
func newTestHandler(t *testing.T) (*AnalysisHandler, *engine.Engine, *memoryLibrary) {
	t.Helper()
	lib := newMemoryLibrary()
	lib.add("a", 300, true)
	lib.add("b", 200, true)
	lib.add("c", 100, false)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(lib, lib, engine.Options{Logger: logger})
	return NewAnalysisHandler(eng, logger), eng, lib
}

// runAnalysis authorizes the engine and runs it to completion.
func runAnalysis(t *testing.T, eng *engine.Engine) *engine.Result {
	t.Helper()
	if _, err := eng.RequestAuthorization(context.Background()); err != nil {
		t.Fatalf("RequestAuthorization failed: %v", err)
	}
	result, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result
}

// waitForState polls the engine until it reaches the state.
func waitForState(t *testing.T, eng *engine.Engine, state engine.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for eng.State() != state {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not reach state %s (still %s)", state, eng.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
