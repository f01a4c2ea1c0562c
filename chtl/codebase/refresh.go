package codebase

import (
	"context"
	"io/fs"
	"time"
)

// Change is a file Refresh recompiled or dropped.
type Change struct {
	Path string
	// File is nil when the file was removed from disk.
	File *FileInfo
}

// Refresh brings the files read from disk up to date: new and modified
// .chtl files are recompiled and deleted ones are dropped. Files whose text
// came from UpdateFile belong to the editor and are left alone.
func (c *Codebase) Refresh() []Change {
	var changes []Change
	seen := make(map[string]bool)

	c.walk(func(path string, d fs.DirEntry) {
		seen[path] = true
		st, err := d.Info()
		if err != nil {
			return
		}
		if known := c.GetFile(path); known != nil {
			if known.ModTime.IsZero() || !st.ModTime().After(known.ModTime) {
				return
			}
		}
		f, err := c.scanFile(path, st.ModTime())
		if err != nil {
			log.Warningf("rescan %s: %v", path, err)
			return
		}
		changes = append(changes, Change{Path: path, File: f})
	})

	for _, path := range c.Paths() {
		if f := c.GetFile(path); f != nil && !seen[path] && !f.ModTime.IsZero() {
			c.RemoveFile(path)
			changes = append(changes, Change{Path: path})
		}
	}
	return changes
}

// Watch refreshes the codebase every interval until ctx is done, passing
// each change to fn.
func (c *Codebase) Watch(ctx context.Context, interval time.Duration, fn func(Change)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for _, ch := range c.Refresh() {
			fn(ch)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
