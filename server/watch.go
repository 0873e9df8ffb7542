package server

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch re-templates index.html whenever it changes on disk. It returns
// when ctx is done. It is a no-op for the embedded assets.
func (s *Server) Watch(ctx context.Context) error {
	if s.opts.AssetsDir == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.opts.AssetsDir); err != nil {
		return fmt.Errorf("watch %s: %w", s.opts.AssetsDir, err)
	}
	s.logger.Info("watching assets", "dir", s.opts.AssetsDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isIndexFile(event.Name) || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.reloadPage(); err != nil {
				// Keep serving the previous page until the file is valid again.
				s.logger.Warn("reload index.html", "err", err)
				continue
			}
			s.logger.Info("reloaded index.html")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("asset watcher", "err", err)
		}
	}
}
