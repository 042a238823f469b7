// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeComponent(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.tsx")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeBuild replaces the esbuild invocation with a counter.
func fakeBuild(b *Bundler, calls *atomic.Int64) {
	b.buildFn = func(ctx context.Context, entry string) (string, error) {
		calls.Add(1)
		return "var __AGENTUI_COMPONENT__ = {};", nil
	}
}

func TestBundleCachesByContent(t *testing.T) {
	path := writeComponent(t, "export default { Weather: () => null }")

	var calls atomic.Int64
	b := New()
	fakeBuild(b, &calls)

	ctx := context.Background()
	first, err := b.Bundle(ctx, "weather_app", path)
	require.NoError(t, err)
	second, err := b.Bundle(ctx, "weather_app", path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
	assert.Contains(t, first, "window.__AGUI_weather_app")
}

func TestBundleRebuildsOnContentChange(t *testing.T) {
	path := writeComponent(t, "export default {}")

	var calls atomic.Int64
	b := New()
	fakeBuild(b, &calls)

	ctx := context.Background()
	_, err := b.Bundle(ctx, "app", path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("export default { Changed: 1 }"), 0o644))
	_, err = b.Bundle(ctx, "app", path)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestBundleKeyIncludesGraphName(t *testing.T) {
	path := writeComponent(t, "export default {}")

	var calls atomic.Int64
	b := New()
	fakeBuild(b, &calls)

	ctx := context.Background()
	a, err := b.Bundle(ctx, "app_a", path)
	require.NoError(t, err)
	c, err := b.Bundle(ctx, "app-b", path)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
	assert.Contains(t, a, "window.__AGUI_app_a")
	assert.Contains(t, c, "window.__AGUI_app_b")
}

func TestBundleMissingComponent(t *testing.T) {
	b := New()

	_, err := b.Bundle(context.Background(), "app", "/nonexistent/index.tsx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBundleFailureNotCached(t *testing.T) {
	path := writeComponent(t, "export default {}")

	var calls atomic.Int64
	b := New()
	b.buildFn = func(ctx context.Context, entry string) (string, error) {
		calls.Add(1)
		return "", &BuildError{Output: "syntax error", Err: errors.New("esbuild failed")}
	}

	ctx := context.Background()
	_, err := b.Bundle(ctx, "app", path)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "syntax error", buildErr.Output)

	// The failure must not be served from cache.
	_, err = b.Bundle(ctx, "app", path)
	require.Error(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestInvalidateForcesRebuild(t *testing.T) {
	path := writeComponent(t, "export default {}")

	var calls atomic.Int64
	b := New()
	fakeBuild(b, &calls)

	ctx := context.Background()
	_, err := b.Bundle(ctx, "app", path)
	require.NoError(t, err)

	b.Invalidate()

	_, err = b.Bundle(ctx, "app", path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestConcurrentBundleSharesOneBuild(t *testing.T) {
	path := writeComponent(t, "export default {}")

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	b := New()
	b.buildFn = func(ctx context.Context, entry string) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		return "var __AGENTUI_COMPONENT__ = {};", nil
	}

	ctx := context.Background()
	results := make([]string, 5)
	errs := make([]error, 5)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = b.Bundle(ctx, "app", path)
	}()

	<-started
	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = b.Bundle(ctx, "app", path)
		}(i)
	}
	close(release)
	wg.Wait()

	for i := 0; i < 5; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestBuildSurvivesWinnerCancel(t *testing.T) {
	path := writeComponent(t, "export default {}")

	started := make(chan struct{})
	release := make(chan struct{})
	var buildCtxErr error

	b := New()
	b.buildFn = func(ctx context.Context, entry string) (string, error) {
		close(started)
		<-release
		buildCtxErr = ctx.Err()
		return "var __AGENTUI_COMPONENT__ = {};", nil
	}

	winnerCtx, cancelWinner := context.WithCancel(context.Background())

	var winnerErr, waiterErr error
	var waiterOut string
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, winnerErr = b.Bundle(winnerCtx, "app", path)
	}()

	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		waiterOut, waiterErr = b.Bundle(context.Background(), "app", path)
	}()

	// The winning client disconnects mid-build; the shared flight must
	// keep going so the waiter still gets a bundle.
	cancelWinner()
	close(release)
	wg.Wait()

	assert.NoError(t, buildCtxErr)
	require.NoError(t, winnerErr)
	require.NoError(t, waiterErr)
	assert.Contains(t, waiterOut, "window.__AGUI_app")
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "weather_app", SanitizeName("weather_app"))
	assert.Equal(t, "weather_app", SanitizeName("weather-app"))
	assert.Equal(t, "my_graph_2", SanitizeName("my.graph/2"))
}

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	path := writeComponent(t, "export default {}")

	var calls atomic.Int64
	b := New()
	fakeBuild(b, &calls)

	ctx := context.Background()
	_, err := b.Bundle(ctx, "app", path)
	require.NoError(t, err)

	w, err := NewWatcher(b, path)
	require.NoError(t, err)
	defer w.Close()

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(wctx)
	}()

	require.NoError(t, os.WriteFile(path, []byte("export default { V: 2 }"), 0o644))

	// Content changed, so a rebuild happens regardless of watcher timing;
	// the watcher additionally clears stale entries for the old content.
	assert.Eventually(t, func() bool {
		out, err := b.Bundle(ctx, "app", path)
		return err == nil && out != ""
	}, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))

	cancel()
	<-done
}
