package lazyload

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPLoader fetches renditions over HTTP. The body is drained so the CDN
// finishes producing (and caching) the rendition.
type HTTPLoader struct {
	Client *http.Client
}

// Load implements [Loader]. The request runs on its own goroutine.
func (loader HTTPLoader) Load(ctx context.Context, url string, done func(error)) {
	client := loader.Client
	if client == nil {
		client = http.DefaultClient
	}

	go func() {
		done(fetch(ctx, client, url))
	}()
}

func fetch(ctx context.Context, client *http.Client, url string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("lazyload: build request: %w", err)
	}

	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("lazyload: fetch %s: %w", url, err)
	}
	defer response.Body.Close()

	if _, err := io.Copy(io.Discard, response.Body); err != nil {
		return fmt.Errorf("lazyload: read %s: %w", url, err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("lazyload: fetch %s: status %d", url, response.StatusCode)
	}
	return nil
}

// ImmediateObserver reports every element as fully visible at once. It is
// used where there is no viewport, such as prefetching renditions from the CLI.
type ImmediateObserver struct{}

// Observe implements [Observer].
func (ImmediateObserver) Observe(callback func(Entry)) Subscription {
	callback(Entry{Intersecting: true, Ratio: 1})
	return noopSubscription{}
}

type noopSubscription struct{}

func (noopSubscription) Dispose() {}
