package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/model"
)

type stubUnit struct{}

func (stubUnit) Init() tea.Cmd { return nil }

func (u stubUnit) Update(tea.Msg) (challenge.Unit, tea.Cmd) { return u, nil }

func (stubUnit) View() string { return "stub" }

func stubFactory(challenge.Config) challenge.Unit { return stubUnit{} }

func descriptors(ids ...int) []model.ChallengeDescriptor {
	out := make([]model.ChallengeDescriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.ChallengeDescriptor{
			ID:        id,
			Name:      "challenge",
			TimeLimit: 10,
			MaxScore:  100,
			Unit:      "stub",
		})
	}
	return out
}

func stubLoaders() map[string]challenge.Loader {
	return map[string]challenge.Loader{"stub": challenge.Static(stubFactory)}
}

func TestNewKeepsOrderAndLooksUp(t *testing.T) {
	r, err := New(descriptors(3, 1, 2), stubLoaders())
	require.NoError(t, err)

	assert.Equal(t, 3, r.Count())
	all := r.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, []int{3, 1, 2}, []int{all[0].ID, all[1].ID, all[2].ID})

	d, ok := r.GetByID(1)
	require.True(t, ok)
	assert.Equal(t, 1, d.ID)

	_, ok = r.GetByID(42)
	assert.False(t, ok)

	d, ok = r.At(0)
	require.True(t, ok)
	assert.Equal(t, 3, d.ID)
	_, ok = r.At(3)
	assert.False(t, ok)
	_, ok = r.At(-1)
	assert.False(t, ok)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New(descriptors(1, 2, 1), stubLoaders())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Contains(t, err.Error(), "entries 1")
	assert.Contains(t, err.Error(), "3")
}

func TestNewRejectsInvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*model.ChallengeDescriptor)
	}{
		{name: "zero id", mut: func(d *model.ChallengeDescriptor) { d.ID = 0 }},
		{name: "blank name", mut: func(d *model.ChallengeDescriptor) { d.Name = "  " }},
		{name: "no time limit", mut: func(d *model.ChallengeDescriptor) { d.TimeLimit = 0 }},
		{name: "negative max score", mut: func(d *model.ChallengeDescriptor) { d.MaxScore = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := descriptors(1)
			tt.mut(&ds[0])
			_, err := New(ds, stubLoaders())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDescriptor))
		})
	}
}

func TestGetAllReturnsCopy(t *testing.T) {
	r, err := New(descriptors(1), stubLoaders())
	require.NoError(t, err)
	all := r.GetAll()
	all[0].Name = "mutated"
	d, _ := r.GetByID(1)
	assert.Equal(t, "challenge", d.Name)
}

func TestResolveReady(t *testing.T) {
	r, err := New(descriptors(1), stubLoaders())
	require.NoError(t, err)

	assert.Equal(t, Pending, r.Status(1).State)
	res := r.Resolve(context.Background(), 1)
	require.Equal(t, Ready, res.State)
	require.NotNil(t, res.Factory)
	assert.Equal(t, Ready, r.Status(1).State)
}

func TestResolveUnknownKindFails(t *testing.T) {
	ds := descriptors(1)
	ds[0].Unit = "pong"
	r, err := New(ds, stubLoaders())
	require.NoError(t, err)

	res := r.Status(1)
	assert.Equal(t, Failed, res.State)
	assert.True(t, errors.Is(res.Err, ErrUnknownUnit))
	assert.Equal(t, Failed, r.Resolve(context.Background(), 1).State)
}

func TestResolveMissingIDFails(t *testing.T) {
	r, err := New(descriptors(1), stubLoaders())
	require.NoError(t, err)
	res := r.Resolve(context.Background(), 9)
	assert.Equal(t, Failed, res.State)
	assert.True(t, errors.Is(res.Err, ErrNotFound))
}

func TestResolveLoaderErrorAndPanicFail(t *testing.T) {
	loaders := map[string]challenge.Loader{
		"broken": func(context.Context) (challenge.Factory, error) { return nil, errors.New("boom") },
		"panics": func(context.Context) (challenge.Factory, error) { panic("bad unit") },
		"empty":  func(context.Context) (challenge.Factory, error) { return nil, nil },
	}
	ds := descriptors(1, 2, 3)
	ds[0].Unit = "broken"
	ds[1].Unit = "panics"
	ds[2].Unit = "empty"
	r, err := New(ds, loaders)
	require.NoError(t, err)

	for _, id := range []int{1, 2, 3} {
		res := r.Resolve(context.Background(), id)
		assert.Equal(t, Failed, res.State, "id %d", id)
		assert.Error(t, res.Err)
	}
}

func TestResolveRunsLoaderOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	loaders := map[string]challenge.Loader{
		"stub": func(context.Context) (challenge.Factory, error) {
			calls.Add(1)
			<-release
			return stubFactory, nil
		},
	}
	r, err := New(descriptors(1), loaders)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Resolution, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), 1)
		}(i)
	}
	close(release)
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, Ready, res.State)
	}
	r.Resolve(context.Background(), 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDefaultCatalogLoads(t *testing.T) {
	ds, err := DefaultCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, ds)

	r, err := New(ds, nil)
	require.NoError(t, err)
	assert.Equal(t, len(ds), r.Count())
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("challenges:\n  - id: 1\n    nmae: typo\n"))
	require.Error(t, err)
}

func TestLoadCatalogRejectsEmpty(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader(""))
	require.EqualError(t, err, "catalog is empty")
	_, err = LoadCatalog(strings.NewReader("challenges: []\n"))
	require.Error(t, err)
}

func TestLoadCatalogDuplicatesFailAtRegistry(t *testing.T) {
	body := `challenges:
  - {id: 4, name: A, time_limit: 5, max_score: 100, unit: stub}
  - {id: 4, name: B, time_limit: 5, max_score: 100, unit: stub}
`
	ds, err := LoadCatalog(strings.NewReader(body))
	require.NoError(t, err)
	_, err = New(ds, stubLoaders())
	require.ErrorIs(t, err, ErrDuplicateID)
}
