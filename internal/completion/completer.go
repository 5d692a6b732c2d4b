package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/logger"
	"github.com/jellydator/ttlcache/v3"
)

const (
	DefaultLanguage  = "plain"
	DefaultMaxTokens = 128
	DefaultTopK      = 1

	maxBefore = 1000
	maxAfter  = 500
	cacheTTL  = 30 * time.Second
	cacheSize = 256
)

// API requests raw completions for a cursor context.
type API interface {
	Autocomplete(ctx context.Context, req client.AutocompleteRequest) ([]string, error)
}

// Request is the cursor context of one inline completion.
type Request struct {
	Before    string
	After     string
	Language  string
	MaxTokens int
	TopK      int
}

// Suggestion is a completion ready to display at the cursor.
type Suggestion struct {
	Text string
	Raw  string
}

// Completer fetches inline completions. Failures never surface as errors:
// they degrade to no suggestion.
type Completer struct {
	api         API
	cache       *ttlcache.Cache[string, Suggestion]
	localLogger *logger.Logger
}

func NewCompleter(api API) *Completer {
	c := ttlcache.New[string, Suggestion](
		ttlcache.WithTTL[string, Suggestion](cacheTTL),
		ttlcache.WithCapacity[string, Suggestion](cacheSize),
		ttlcache.WithDisableTouchOnHit[string, Suggestion](),
	)
	go c.Start()
	return &Completer{
		api:         api,
		cache:       c,
		localLogger: logger.NewLogger("completion"),
	}
}

// Close stops the cache expiration loop.
func (c *Completer) Close() {
	c.cache.Stop()
}

// Complete returns the suggestion for req, or false when there is nothing
// to show. ctx is checked before and after the round trip; a result that
// arrives after ctx is done is discarded.
func (c *Completer) Complete(ctx context.Context, req Request) (Suggestion, bool) {
	if ctx.Err() != nil {
		return Suggestion{}, false
	}

	apiReq := c.normalize(req)
	key := cacheKey(apiReq)
	if item := c.cache.Get(key); item != nil {
		return item.Value(), true
	}

	completions, err := c.api.Autocomplete(ctx, apiReq)
	if ctx.Err() != nil {
		c.localLogger.Info("Discarding late completion")
		return Suggestion{}, false
	}
	if err != nil {
		c.localLogger.Warn("Autocomplete failed:", err)
		return Suggestion{}, false
	}
	if len(completions) == 0 {
		return Suggestion{}, false
	}

	text := Resolve(completions[0], req.Before)
	if text == "" {
		return Suggestion{}, false
	}
	suggestion := Suggestion{Text: text, Raw: completions[0]}
	c.cache.Set(key, suggestion, ttlcache.DefaultTTL)
	return suggestion, true
}

func (c *Completer) normalize(req Request) client.AutocompleteRequest {
	out := client.AutocompleteRequest{
		Before:    string(tail(req.Before, maxBefore)),
		After:     head(req.After, maxAfter),
		Language:  req.Language,
		MaxTokens: req.MaxTokens,
		TopK:      req.TopK,
	}
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.TopK <= 0 {
		out.TopK = DefaultTopK
	}
	return out
}

func cacheKey(req client.AutocompleteRequest) string {
	return fmt.Sprintf("%s\x00%d\x00%d\x00%s\x00%s", req.Language, req.MaxTokens, req.TopK, req.Before, req.After)
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
