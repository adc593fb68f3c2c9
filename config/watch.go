package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变化并重新加载。监听的是所在目录，
// 这样编辑器"写临时文件再 rename"的保存方式也能被捕获。
type Watcher struct {
	Path     string
	Debounce time.Duration
	// OnError 接收加载失败或 fsnotify 错误；为 nil 时忽略。
	OnError func(error)

	fw *fsnotify.Watcher
}

// NewWatcher 立即注册 fsnotify 监听，返回后文件变化即不会丢失。
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{Path: filepath.Clean(path), Debounce: debounce, fw: fw}, nil
}

// Run 阻塞直到 ctx 结束；每次文件稳定变化后加载配置并回调。
// 加载或校验失败时不回调，保留调用方当前配置。
func (w *Watcher) Run(ctx context.Context, onUpdate func(AppConfig)) error {
	defer w.fw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.Path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.Debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				w.reportErr(err)
				continue
			}
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.reportErr(err)
		}
	}
}

func (w *Watcher) reportErr(err error) {
	if w.OnError != nil {
		w.OnError(err)
	}
}
