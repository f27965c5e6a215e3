package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vardrill/domain/core"
	"vardrill/domain/drill"
)

type MockHistory struct {
	mock.Mock
	location string
	handler  func(HistoryState)
}

func (m *MockHistory) PushState(state HistoryState, url string) {
	m.Called(state, url)
	m.location = url
}

func (m *MockHistory) ReplaceState(state HistoryState, url string) {
	m.Called(state, url)
	m.location = url
}

func (m *MockHistory) OnPopState(handler func(HistoryState)) func() {
	m.Called()
	m.handler = handler
	return func() { m.handler = nil }
}

func (m *MockHistory) Location() string { return m.location }

func newMockHistory(location string) *MockHistory {
	m := &MockHistory{location: location}
	m.On("PushState", mock.Anything, mock.Anything).Return()
	m.On("ReplaceState", mock.Anything, mock.Anything).Return()
	m.On("OnPopState").Return()
	return m
}

func machine(values ...string) drill.FilterParams {
	return drill.FilterParams{Source: drill.SourceBoxplot, Factor: "Machine", Values: drill.Values(values...)}
}

func shift(values ...string) drill.FilterParams {
	return drill.FilterParams{Source: drill.SourcePareto, Factor: "Shift", Values: drill.Values(values...)}
}

func TestNavigator_WithoutHistory(t *testing.T) {
	nav := New(nil, Options{EnableHistory: true, EnableURLSync: true})
	defer nav.Close()

	removed, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, nav.Stack().Depth())
	assert.Equal(t, drill.Values("A"), nav.Filters()["Machine"])
}

func TestNavigator_DrillPushesHistory(t *testing.T) {
	h := newMockHistory("http://localhost/app?tab=box")
	nav := New(h, Options{EnableHistory: true, EnableURLSync: true})
	defer nav.Close()

	h.AssertNumberOfCalls(t, "ReplaceState", 1)

	_, err := nav.Drill(machine("A", "B"))
	require.NoError(t, err)

	h.AssertNumberOfCalls(t, "PushState", 1)
	h.AssertCalled(t, "PushState",
		HistoryState{DrillFilters: drill.FilterMap{"Machine": drill.Values("A", "B")}},
		"http://localhost/app?tab=box&Machine=A%2CB")
}

func TestNavigator_ToggleRemovesAndPushes(t *testing.T) {
	h := newMockHistory("http://localhost/app")
	nav := New(h, Options{EnableHistory: true})
	defer nav.Close()

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	removed, err := nav.Drill(machine("A"))
	require.NoError(t, err)

	assert.True(t, removed)
	assert.Empty(t, nav.Stack())
	h.AssertNumberOfCalls(t, "PushState", 2)
}

func TestNavigator_PopStateDoesNotPush(t *testing.T) {
	h := newMockHistory("http://localhost/app")
	nav := New(h, Options{EnableHistory: true})
	defer nav.Close()

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	require.NotNil(t, h.handler)

	var notified []drill.FilterStack
	nav.Subscribe(func(s drill.FilterStack) { notified = append(notified, s) })

	h.handler(HistoryState{DrillFilters: drill.FilterMap{
		"Shift":   drill.Values("Night"),
		"Machine": drill.Values("B"),
	}})

	h.AssertNumberOfCalls(t, "PushState", 1)
	h.AssertNumberOfCalls(t, "ReplaceState", 1)

	stack := nav.Stack()
	require.Len(t, stack, 2)
	assert.Equal(t, "Machine", stack[0].Factor)
	assert.Equal(t, "Shift", stack[1].Factor)
	for _, a := range stack {
		assert.Equal(t, drill.SourceHistory, a.Source)
		assert.Equal(t, drill.ActionFilter, a.Kind)
	}
	require.Len(t, notified, 1)
}

func TestNavigator_IgnoresPopStateDuringOwnWrite(t *testing.T) {
	h := &MockHistory{location: "http://localhost/app"}
	h.On("OnPopState").Return()
	h.On("ReplaceState", mock.Anything, mock.Anything).Return()
	h.On("PushState", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		h.handler(HistoryState{DrillFilters: drill.FilterMap{}})
	}).Return()

	nav := New(h, Options{EnableHistory: true})
	defer nav.Close()

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	assert.Equal(t, drill.Values("A"), nav.Filters()["Machine"])
}

func TestNavigator_EmbedModeSuppressesWrites(t *testing.T) {
	h := newMockHistory("http://localhost/app?embed=1&Machine=A")
	nav := New(h, Options{EnableHistory: true, EnableURLSync: true})
	defer nav.Close()

	assert.True(t, nav.EmbedMode())
	assert.Equal(t, drill.Values("A"), nav.Filters()["Machine"])

	_, err := nav.Drill(shift("Day"))
	require.NoError(t, err)
	nav.Back()
	nav.Clear()

	h.AssertNotCalled(t, "PushState", mock.Anything, mock.Anything)
	h.AssertNotCalled(t, "ReplaceState", mock.Anything, mock.Anything)
}

func TestNavigator_InitialFiltersFromURL(t *testing.T) {
	h := newMockHistory("http://localhost/app?Machine=A,B&embed=0&Shift=Night")
	nav := New(h, Options{EnableURLSync: true})
	defer nav.Close()

	assert.False(t, nav.EmbedMode())
	ordered := nav.OrderedFilters()
	require.Len(t, ordered, 2)
	assert.Equal(t, "Machine", ordered[0].Factor)
	assert.Equal(t, []string{"A", "B"}, drill.Keys(ordered[0].Values))
	assert.Equal(t, "Shift", ordered[1].Factor)
	for _, a := range nav.Stack() {
		assert.Equal(t, drill.SourceURL, a.Source)
	}
	// URL sync alone never registers for popstate.
	h.AssertNotCalled(t, "OnPopState")
}

func TestNavigator_URLSyncWithoutHistoryReplaces(t *testing.T) {
	h := newMockHistory("http://localhost/app?Machine=A")
	nav := New(h, Options{EnableURLSync: true})
	defer nav.Close()

	nav.RemoveFactor("Machine")
	_, err := nav.Drill(shift("Day"))
	require.NoError(t, err)

	h.AssertNotCalled(t, "PushState", mock.Anything, mock.Anything)
	h.AssertNumberOfCalls(t, "ReplaceState", 2)
	assert.Equal(t, "http://localhost/app?Shift=Day", h.Location())
}

func TestNavigator_ClearIsIdempotent(t *testing.T) {
	h := newMockHistory("http://localhost/app")
	nav := New(h, Options{EnableHistory: true})
	defer nav.Close()

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	_, err = nav.Drill(shift("Day"))
	require.NoError(t, err)

	nav.Clear()
	nav.Clear()

	assert.Empty(t, nav.Stack())
	assert.Empty(t, nav.Filters())
	h.AssertNumberOfCalls(t, "PushState", 3)
}

func TestNavigator_NavigateTo(t *testing.T) {
	nav := New(nil, Options{})

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	_, err = nav.Drill(shift("Day"))
	require.NoError(t, err)
	first := nav.Stack()[0].ID

	require.NoError(t, nav.NavigateTo(first))
	assert.Len(t, nav.Stack(), 1)

	err = nav.NavigateTo(core.ActionID("missing"))
	assert.True(t, core.IsNotFoundError(err))

	require.NoError(t, nav.NavigateTo(core.RootActionID))
	assert.Empty(t, nav.Stack())
}

func TestNavigator_HighlightLeavesFiltersAlone(t *testing.T) {
	nav := New(nil, Options{})
	idx := 7

	action, err := nav.Highlight(drill.FilterParams{Source: drill.SourceIChart, Factor: "Outcome", RowIndex: &idx})
	require.NoError(t, err)

	assert.Equal(t, drill.ActionHighlight, action.Kind)
	assert.Len(t, nav.Stack(), 1)
	assert.Empty(t, nav.Filters())
}

func TestNavigator_SetFilterValues(t *testing.T) {
	nav := New(nil, Options{})

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	_, err = nav.Drill(shift("Day"))
	require.NoError(t, err)

	require.NoError(t, nav.SetFilterValues("Machine", drill.Values("B", "C")))
	stack := nav.Stack()
	assert.Equal(t, "Machine", stack[0].Factor)
	assert.Equal(t, []string{"B", "C"}, drill.Keys(stack[0].Values))

	require.NoError(t, nav.SetFilterValues("Machine", nil))
	assert.Len(t, nav.Stack(), 1)
}

func TestNavigator_RebaseDropsMissingColumns(t *testing.T) {
	h := newMockHistory("http://localhost/app")
	nav := New(h, Options{EnableHistory: true, EnableURLSync: true})
	defer nav.Close()

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	_, err = nav.Drill(shift("Day"))
	require.NoError(t, err)

	dropped := nav.Rebase([]string{"Shift", "Weight"})
	assert.Equal(t, []string{"Machine"}, dropped)
	assert.Equal(t, "http://localhost/app?Shift=Day", h.Location())
	h.AssertNumberOfCalls(t, "PushState", 2)
	h.AssertNumberOfCalls(t, "ReplaceState", 2)

	assert.Nil(t, nav.Rebase([]string{"Shift"}))
}

func TestNavigator_SubscribeAndClose(t *testing.T) {
	h := newMockHistory("http://localhost/app")
	nav := New(h, Options{EnableHistory: true})

	calls := 0
	unsubscribe := nav.Subscribe(func(drill.FilterStack) { calls++ })
	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)
	unsubscribe()
	nav.Back()
	assert.Equal(t, 1, calls)

	nav.Close()
	assert.Nil(t, h.handler)
}

func TestNavigator_Breadcrumbs(t *testing.T) {
	nav := New(nil, Options{RootLabel: "Everything"})

	_, err := nav.Drill(machine("A"))
	require.NoError(t, err)

	crumbs := nav.Breadcrumbs()
	require.Len(t, crumbs, 2)
	assert.Equal(t, "Everything", crumbs[0].Label)
	assert.Equal(t, "Machine: A", crumbs[1].Label)
	assert.True(t, crumbs[1].IsActive)
}
