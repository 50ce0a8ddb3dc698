package acl

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch reloads the policy whenever one of its files changes, until ctx is done
func (p *Policy) Watch(ctx context.Context) error {
	files := map[string]bool{}
	for _, f := range []string{p.cfg.Model, p.cfg.Policy, p.cfg.Rules} {
		if f != "" {
			files[filepath.Clean(f)] = true
		}
	}
	if len(files) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// editors replace files, so watch the directories
	dirs := map[string]bool{}
	for f := range files {
		d := filepath.Dir(f)
		if dirs[d] {
			continue
		}
		if err := watcher.Add(d); err != nil {
			watcher.Close()
			return err
		}
		dirs[d] = true
	}

	go p.watch(ctx, watcher, files)
	return nil
}

func (p *Policy) watch(ctx context.Context, watcher *fsnotify.Watcher, files map[string]bool) {
	defer watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Infof("Policy files are changed, reload. Event: %s", event)
			if err := p.Reload(); err != nil {
				log.Errorf("Failed to reload policy, keeping the previous one: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("Error to watch policy files. Error: %s", err)
		}
	}
}
