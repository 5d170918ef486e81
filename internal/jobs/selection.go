package jobs

import (
	"path"
	"strings"

	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/github"
	"github.com/sevigo/codesage/internal/llm"
)

// DefaultMaxFiles caps a batch review when the repository sets no max_files.
const DefaultMaxFiles = 5

// selectFiles picks the files that go into one batch review. Recognised
// source files come first in pull request order, then the remaining slots are
// filled with other changed files. Removed and excluded files are never picked.
func selectFiles(files []github.ChangedFile, cfg *core.RepoConfig) []github.ChangedFile {
	limit := DefaultMaxFiles
	if cfg != nil && cfg.MaxFiles > 0 {
		limit = cfg.MaxFiles
	}

	var code, other []github.ChangedFile
	for _, f := range files {
		if f.Status == "removed" || excluded(f.Filename, cfg) {
			continue
		}
		if llm.IsCodeExtension(path.Ext(f.Filename)) {
			code = append(code, f)
		} else {
			other = append(other, f)
		}
	}

	selected := make([]github.ChangedFile, 0, limit)
	for _, group := range [][]github.ChangedFile{code, other} {
		for _, f := range group {
			if len(selected) == limit {
				return selected
			}
			selected = append(selected, f)
		}
	}
	return selected
}

func excluded(filename string, cfg *core.RepoConfig) bool {
	if cfg == nil {
		return false
	}

	ext := strings.ToLower(path.Ext(filename))
	for _, e := range cfg.ExcludeExts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if ext == e {
			return true
		}
	}

	for _, dir := range cfg.ExcludeDirs {
		dir = strings.Trim(dir, "/")
		if dir == "" {
			continue
		}
		if strings.HasPrefix(filename, dir+"/") || strings.Contains(filename, "/"+dir+"/") {
			return true
		}
	}
	return false
}
