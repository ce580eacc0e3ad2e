// Package entry defines the directory entry and sidecar metadata model
// shared by the listing providers and the directory content manager.
package entry

import "time"

// Perspective identifiers
const (
	PerspectiveUnspecified = "unspecified"
	PerspectiveGrid        = "grid"
	PerspectiveList        = "list"
	PerspectiveKanban      = "kanban"
	PerspectiveGallery     = "gallery"
)

// Tag types
const (
	TagTypePlain   = "plain"
	TagTypeSidecar = "sidecar"
)

// Tag is a label attached to an entry, either parsed from its name or
// read from its sidecar file.
type Tag struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// EntryMeta is the per-entry sidecar content
type EntryMeta struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
}

// DirectoryEntry represents one file system object inside a directory.
// Identity is Path.
type DirectoryEntry struct {
	Path         string     `json:"path"`
	Name         string     `json:"name"`
	IsFile       bool       `json:"isFile"`
	Size         int64      `json:"size"`
	LastModified time.Time  `json:"lmdt"`
	Extension    string     `json:"extension,omitempty"`
	Tags         []Tag      `json:"tags,omitempty"`
	ThumbPath    string     `json:"thumbPath,omitempty"`
	Meta         *EntryMeta `json:"meta,omitempty"`
}

// OrderVisibilitySettings is one slot in a manually ordered view
type OrderVisibilitySettings struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name"`
}

// CustomOrder holds independent manual orderings for files and folders
type CustomOrder struct {
	Files   []OrderVisibilitySettings `json:"files,omitempty"`
	Folders []OrderVisibilitySettings `json:"folders,omitempty"`
}

// DirectoryMeta is the sidecar metadata of a directory
type DirectoryMeta struct {
	ID          string       `json:"id"`
	Perspective string       `json:"perspective,omitempty"`
	Color       string       `json:"color,omitempty"`
	Description string       `json:"description,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	CustomOrder *CustomOrder `json:"customOrder,omitempty"`
}

// Clone returns a deep copy of the meta
func (m *DirectoryMeta) Clone() *DirectoryMeta {
	if m == nil {
		return nil
	}
	out := *m
	out.Tags = append([]Tag(nil), m.Tags...)
	if m.CustomOrder != nil {
		out.CustomOrder = &CustomOrder{
			Files:   append([]OrderVisibilitySettings(nil), m.CustomOrder.Files...),
			Folders: append([]OrderVisibilitySettings(nil), m.CustomOrder.Folders...),
		}
	}
	return &out
}
