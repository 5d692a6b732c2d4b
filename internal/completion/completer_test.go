package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Autocomplete(ctx context.Context, req client.AutocompleteRequest) ([]string, error) {
	args := m.Called(ctx, req)
	completions, _ := args.Get(0).([]string)
	return completions, args.Error(1)
}

func newTestCompleter(t *testing.T, api API) *Completer {
	t.Helper()
	c := NewCompleter(api)
	t.Cleanup(c.Close)
	return c
}

func TestCompleteResolvesFirstCandidate(t *testing.T) {
	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, client.AutocompleteRequest{
		Before:    "x = foo.ba",
		After:     "\n",
		Language:  "python",
		MaxTokens: DefaultMaxTokens,
		TopK:      DefaultTopK,
	}).Return([]string{"```python\nfoo.bar()\n```", "ignored"}, nil).Once()

	c := newTestCompleter(t, api)
	s, ok := c.Complete(context.Background(), Request{Before: "x = foo.ba", After: "\n", Language: "python"})
	assert.True(t, ok)
	assert.Equal(t, "r()", s.Text)
	assert.Equal(t, "```python\nfoo.bar()\n```", s.Raw)
	api.AssertExpectations(t)
}

func TestCompleteAppliesDefaultsAndCaps(t *testing.T) {
	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, mock.MatchedBy(func(req client.AutocompleteRequest) bool {
		return req.Language == DefaultLanguage &&
			req.MaxTokens == DefaultMaxTokens &&
			req.TopK == DefaultTopK &&
			len([]rune(req.Before)) == maxBefore &&
			len([]rune(req.After)) == maxAfter &&
			strings.HasSuffix(req.Before, "end")
	})).Return([]string{"()"}, nil).Once()

	c := newTestCompleter(t, api)
	_, ok := c.Complete(context.Background(), Request{
		Before: strings.Repeat("é", 2000) + "end",
		After:  strings.Repeat("ü", 900),
	})
	assert.True(t, ok)
	api.AssertExpectations(t)
}

func TestCompleteEmptyListIsNoSuggestion(t *testing.T) {
	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, mock.Anything).Return([]string{}, nil)

	c := newTestCompleter(t, api)
	_, ok := c.Complete(context.Background(), Request{Before: "x"})
	assert.False(t, ok)
}

func TestCompleteFailureIsNoSuggestion(t *testing.T) {
	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, mock.Anything).Return(nil, &client.TransportError{Status: 500, Body: "boom"})

	c := newTestCompleter(t, api)
	_, ok := c.Complete(context.Background(), Request{Before: "x"})
	assert.False(t, ok)
}

func TestCompleteFullyOverlappingCandidateIsNoSuggestion(t *testing.T) {
	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, mock.Anything).Return([]string{"return"}, nil)

	c := newTestCompleter(t, api)
	_, ok := c.Complete(context.Background(), Request{Before: "\treturn"})
	assert.False(t, ok)
}

func TestCompleteCancelledBeforeRequest(t *testing.T) {
	api := new(MockAPI)
	c := newTestCompleter(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := c.Complete(ctx, Request{Before: "x"})
	assert.False(t, ok)
	api.AssertNotCalled(t, "Autocomplete", mock.Anything, mock.Anything)
}

func TestCompleteDiscardsLateResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return([]string{"late"}, nil)

	c := newTestCompleter(t, api)
	_, ok := c.Complete(ctx, Request{Before: "x"})
	assert.False(t, ok)

	// A late result must not be cached either.
	api2 := new(MockAPI)
	api2.On("Autocomplete", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))
	c.api = api2
	_, ok = c.Complete(context.Background(), Request{Before: "x"})
	assert.False(t, ok)
}

func TestCompleteCachesResults(t *testing.T) {
	api := new(MockAPI)
	api.On("Autocomplete", mock.Anything, mock.Anything).Return([]string{"bar()"}, nil).Once()

	c := newTestCompleter(t, api)
	req := Request{Before: "foo.", Language: "go"}
	first, ok := c.Complete(context.Background(), req)
	assert.True(t, ok)
	second, ok := c.Complete(context.Background(), req)
	assert.True(t, ok)
	assert.Equal(t, first, second)
	api.AssertNumberOfCalls(t, "Autocomplete", 1)
}
