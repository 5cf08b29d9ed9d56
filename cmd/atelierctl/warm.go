// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/atelier/internal/core/render"
	"github.com/taibuivan/atelier/internal/delivery/lazyload"
)

// warmResult is the terminal state of one prefetched rendition.
type warmResult struct {
	url   string
	state lazyload.State
	err   error
}

func newWarmCommand(state *cli) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
	)

	command := &cobra.Command{
		Use:   "warm <page-path>",
		Short: "Prefetch the renditions and placeholders of every zone on a page",
		Long: `Render every assigned zone on the page and fetch each final rendition
and its blur-up placeholder once, so the CDN has produced and cached them
before the first visitor arrives.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			zones, err := app.Zones.ListPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var urls []string
			seen := make(map[string]bool)
			for _, slot := range zones {
				view, err := app.Render.RenderZone(cmd.Context(), slot.PagePath, slot.Name, render.Options{})
				if err != nil {
					return err
				}
				if view == nil {
					continue
				}
				for _, url := range []string{view.Markup.Src, view.Markup.Placeholder} {
					if url != "" && !seen[url] {
						seen[url] = true
						urls = append(urls, url)
					}
				}
			}

			client := &http.Client{Timeout: timeout}
			results := warm(cmd.Context(), urls, lazyload.HTTPLoader{Client: client}, concurrency)

			failed := 0
			out := cmd.OutOrStdout()
			for _, result := range results {
				fmt.Fprintf(out, "%-8s %s\n", result.state, result.url)
				if result.state != lazyload.StateSettled {
					failed++
					state.logger.Warn("warm_failed", slog.String("url", result.url), slog.Any("error", result.err))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d renditions failed to warm", failed, len(results))
			}
			return nil
		},
	}
	command.Flags().IntVar(&concurrency, "concurrency", 4, "parallel fetches")
	command.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-fetch timeout")
	return command
}

// warm drives one lazy-load controller per url to a terminal state. Results
// keep the order of urls.
func warm(ctx context.Context, urls []string, loader lazyload.Loader, concurrency int) []warmResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]warmResult, len(urls))
	slots := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		slots <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-slots }()
			results[i] = warmOne(ctx, url, loader)
		}()
	}

	wg.Wait()
	return results
}

func warmOne(ctx context.Context, url string, loader lazyload.Loader) warmResult {
	done := make(chan lazyload.State, 1)

	controller := lazyload.New(url, lazyload.ImmediateObserver{}, loader, lazyload.Options{
		Crossfade: time.Millisecond,
		OnChange: func(state lazyload.State) {
			if state == lazyload.StateSettled || state == lazyload.StateFailed {
				done <- state
			}
		},
	})
	controller.Mount(ctx)
	defer controller.Unmount()

	select {
	case state := <-done:
		return warmResult{url: url, state: state, err: controller.Err()}
	case <-ctx.Done():
		return warmResult{url: url, state: controller.State(), err: ctx.Err()}
	}
}
