package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/pokegrid/pkg/pokeapi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves a fixed listing and per-URL details with optional
// delays, so tests control completion order.
type fakeUpstream struct {
	mu        sync.Mutex
	listing   *pokeapi.NamedResourceList
	listErr   error
	details   map[string]*pokeapi.Pokemon
	detailErr map[string]error
	delays    map[string]time.Duration
	offsets   []string
	completed []string
}

func newFakeUpstream(names ...string) *fakeUpstream {
	f := &fakeUpstream{
		listing:   &pokeapi.NamedResourceList{Results: []pokeapi.NamedResource{}},
		details:   map[string]*pokeapi.Pokemon{},
		detailErr: map[string]error{},
		delays:    map[string]time.Duration{},
	}
	for i, name := range names {
		u := fmt.Sprintf("https://pokeapi.test/pokemon/%d/", i+1)
		img := fmt.Sprintf("u%d", i+1)
		f.listing.Results = append(f.listing.Results, pokeapi.NamedResource{Name: name, URL: u})
		f.details[u] = &pokeapi.Pokemon{ID: i + 1, Name: name, Sprites: &pokeapi.Sprites{FrontDefault: &img}}
	}
	return f
}

func (f *fakeUpstream) ListPokemon(_ context.Context, offset string) (*pokeapi.NamedResourceList, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listing, nil
}

func (f *fakeUpstream) GetPokemon(ctx context.Context, url string) (*pokeapi.Pokemon, error) {
	f.mu.Lock()
	delay := f.delays[url]
	err := f.detailErr[url]
	p := f.details[url]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.completed = append(f.completed, url)
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return p, nil
}

func TestPage_ZipsByIndex(t *testing.T) {
	up := newFakeUpstream("bulbasaur", "ivysaur", "venusaur")
	// Reverse completion order: the first detail finishes last.
	up.delays["https://pokeapi.test/pokemon/1/"] = 60 * time.Millisecond
	up.delays["https://pokeapi.test/pokemon/2/"] = 30 * time.Millisecond

	cards, err := NewAggregator(up).Page(context.Background(), "40")
	require.NoError(t, err)

	want := []Card{
		{Name: "bulbasaur", ImageURL: "u1"},
		{Name: "ivysaur", ImageURL: "u2"},
		{Name: "venusaur", ImageURL: "u3"},
	}
	if diff := cmp.Diff(want, cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"40"}, up.offsets)
	assert.Equal(t, "https://pokeapi.test/pokemon/3/", up.completed[0], "details should run concurrently")
}

func TestPage_NullSprite(t *testing.T) {
	up := newFakeUpstream("missingno")
	up.details["https://pokeapi.test/pokemon/1/"].Sprites.FrontDefault = nil

	cards, err := NewAggregator(up).Page(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []Card{{Name: "missingno", ImageURL: ""}}, cards)
}

func TestPage_EmptyListing(t *testing.T) {
	up := newFakeUpstream()

	cards, err := NewAggregator(up).Page(context.Background(), "100000")
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestPage_ListingFailure(t *testing.T) {
	up := newFakeUpstream("bulbasaur")
	up.listErr = errors.New("boom")

	cards, err := NewAggregator(up).Page(context.Background(), "0")
	require.Error(t, err)
	assert.Nil(t, cards)
	assert.Contains(t, err.Error(), "fetch listing")
	assert.Empty(t, up.completed, "no detail fetch after listing failure")
}

func TestPage_AllOrNothing(t *testing.T) {
	up := newFakeUpstream("bulbasaur", "ivysaur", "venusaur")
	shapeErr := &pokeapi.UpstreamError{ErrorClass: pokeapi.ErrorClassShape, Err: pokeapi.ErrShapeMismatch}
	up.detailErr["https://pokeapi.test/pokemon/2/"] = shapeErr

	cards, err := NewAggregator(up).Page(context.Background(), "0")
	require.Error(t, err)
	assert.Nil(t, cards)
	assert.ErrorIs(t, err, pokeapi.ErrShapeMismatch)
	assert.Contains(t, err.Error(), `"ivysaur"`)
}

func TestPage_FailureCancelsSiblings(t *testing.T) {
	up := newFakeUpstream("bulbasaur", "ivysaur")
	up.delays["https://pokeapi.test/pokemon/1/"] = 5 * time.Second
	up.detailErr["https://pokeapi.test/pokemon/2/"] = errors.New("down")

	start := time.Now()
	_, err := NewAggregator(up).Page(context.Background(), "0")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "slow sibling should observe cancellation")
}
