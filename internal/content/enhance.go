package content

import (
	"strings"

	"github.com/ngenohkevin/tagdeck/internal/entry"
)

// EnhanceDirectoryContent filters and annotates a raw listing and queues
// its files for thumbnail generation. Hidden entries are dropped unless
// configured otherwise, directories are dropped when showDirs is false and
// a positive limit caps the result.
func (m *Manager) EnhanceDirectoryContent(raw []entry.DirectoryEntry, isCloudLocation, showDirs bool, limit int) EnhanceResult {
	sep := m.provider.DirSeparator()
	workerAvailable := m.cfg.EnableWS && m.provider.IsWorkerAvailable()
	thumbsAllowed := !m.cfg.WebMode &&
		!m.provider.HaveObjectStoreSupport() &&
		!m.provider.HaveWebDavSupport() &&
		!isCloudLocation &&
		m.genThumbnails(sep)

	res := EnhanceResult{Entries: make([]entry.DirectoryEntry, 0, len(raw))}
	for _, e := range raw {
		if !m.cfg.ShowUnixHiddenEntries && strings.HasPrefix(e.Name, ".") {
			continue
		}
		if !showDirs && !e.IsFile {
			continue
		}
		if limit > 0 && len(res.Entries) >= limit {
			break
		}

		enhanced := entry.Enhance(e, m.cfg.TagDelimiter, sep)
		res.Entries = append(res.Entries, enhanced)

		if !thumbsAllowed || !enhanced.IsFile {
			continue
		}
		switch {
		case workerAvailable && entry.IsWorkerThumbFormat(enhanced.Extension):
			res.WorkerList = append(res.WorkerList, enhanced.Path)
		case entry.IsThumbFormat(enhanced.Extension):
			res.PerFileList = append(res.PerFileList, enhanced.Path)
		}
	}
	return res
}

// genThumbnails reports whether thumbnails are wanted for the current
// directory. Never inside the meta folder.
func (m *Manager) genThumbnails(sep string) bool {
	current := m.Path()
	if current == "" || entry.IsInMetaFolder(current, sep, m.cfg.MetaFolder) {
		return false
	}
	return m.cfg.ThumbnailsEnabled()
}
