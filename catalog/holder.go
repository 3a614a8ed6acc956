package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/pkg/metrics"
)

// Holder 持有当前目录快照，支持整体原子替换。
// 请求开始时取一次 Load()，之后即使发生替换也继续使用原快照。
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder 创建 Holder，c 可以为 nil（稍后 Store）。
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	if c != nil {
		h.Store(c)
	}
	return h
}

// Load 返回当前快照，未设置时返回 nil。
func (h *Holder) Load() *Catalog { return h.current.Load() }

// Store 替换当前快照，c 为 nil 时忽略。
func (h *Holder) Store(c *Catalog) {
	if c == nil {
		return
	}
	h.current.Store(c)
	metrics.SetCatalog(c.Len(), c.EmbeddedCount())
}

// ReloadFunc 重新构建目录快照。
type ReloadFunc func(ctx context.Context) (*Catalog, error)

// Reload 调用 fn 构建新快照并替换；失败时保留旧快照。
func (h *Holder) Reload(ctx context.Context, fn ReloadFunc) error {
	c, err := fn(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInternalError, "catalog: reload returned no catalog")
	}
	h.Store(c)
	return nil
}

// DefaultDebounce 是文件变更后触发重载前的等待时间，合并编辑器的连续写入。
const DefaultDebounce = 250 * time.Millisecond

// Watch 监听 path 所在目录，path 被写入 / 替换后重新加载目录，直到 ctx 结束。
// 监听目录而不是文件本身，以覆盖“写临时文件再 rename”的替换方式。
// 重载失败只记录日志，旧快照继续服务。
func (h *Holder) Watch(ctx context.Context, path string, fn ReloadFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: create watcher: %w", err)
	}
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("catalog: watch %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(DefaultDebounce)
				} else {
					timer.Reset(DefaultDebounce)
				}
				fire = timer.C
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn().Err(err).Str("path", path).Msg("catalog: watcher error")
			case <-fire:
				fire = nil
				start := time.Now()
				if err := h.Reload(ctx, fn); err != nil {
					logging.Error().Err(err).Str("path", path).Msg("catalog: reload failed, keeping previous snapshot")
					continue
				}
				c := h.Load()
				logging.Info().Str("path", path).Int("items", c.Len()).Int("embedded", c.EmbeddedCount()).
					Dur("took", time.Since(start)).Msg("catalog: reloaded")
			}
		}
	}()
	return nil
}
