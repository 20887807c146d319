package jsonl

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steveyegge/workitems/internal/debug"
	"github.com/steveyegge/workitems/internal/types"
)

// staleTempAge is how old a write's temp file must be before New treats it
// as left over from a crashed process. Live writes finish far sooner.
const staleTempAge = time.Minute

// removeStaleTemps deletes "<project>.jsonl.tmp.*" files in dir whose
// modification time is older than maxAge. It returns the names removed.
func removeStaleTemps(dir string, maxAge time.Duration, now time.Time) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.Contains(name, fileExt+".tmp.") {
			continue
		}
		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			debug.Logf("jsonl: remove stale temp %s: %v\n", name, err)
			continue
		}
		removed = append(removed, name)
	}
	return removed
}

// dedupe collapses repeated ids, as left behind by a hand merge of two
// copies of a project file. The newest version (by UpdatedAt, later line on
// ties) wins and takes the position of the first occurrence.
func dedupe(items []*types.WorkItem) ([]*types.WorkItem, int) {
	index := make(map[string]int, len(items))
	out := items[:0:0]
	dropped := 0
	for _, item := range items {
		i, seen := index[item.ID]
		if !seen {
			index[item.ID] = len(out)
			out = append(out, item)
			continue
		}
		dropped++
		if !item.UpdatedAt.Before(out[i].UpdatedAt) {
			out[i] = item
		}
	}
	return out, dropped
}
