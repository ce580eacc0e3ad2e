package location

// Type is the kind of storage a location is rooted at
type Type string

const (
	TypeLocal  Type = "local"
	TypeCloud  Type = "cloud"
	TypeWebDAV Type = "webdav"
)

// Location is a root the directory tree is opened from
type Location struct {
	UUID string `json:"uuid" yaml:"uuid"`
	// NewUUID, when set on edit, replaces UUID.
	NewUUID            string   `json:"newuuid,omitempty" yaml:"-"`
	Type               Type     `json:"type" yaml:"type"`
	Name               string   `json:"name" yaml:"name"`
	Path               string   `json:"path" yaml:"path"`
	Paths              []string `json:"paths,omitempty" yaml:"paths"`
	MaxLoops           int      `json:"maxLoops,omitempty" yaml:"max_loops"`
	IgnorePatternPaths []string `json:"ignorePatternPaths,omitempty" yaml:"ignore_patterns"`
	WatchForChanges    bool     `json:"watchForChanges" yaml:"watch_for_changes"`
	IsReadOnly         bool     `json:"isReadOnly" yaml:"read_only"`
	IsDefault          bool     `json:"isDefault" yaml:"default"`
	DisableIndexing    bool     `json:"disableIndexing" yaml:"disable_indexing"`
	// PersistTagsInSidecarFile overrides the global setting when set.
	PersistTagsInSidecarFile *bool `json:"persistTagsInSidecarFile,omitempty" yaml:"persist_tags_in_sidecar"`

	// Object store settings (cloud locations)
	Bucket          string `json:"bucketName,omitempty" yaml:"bucket"`
	Region          string `json:"region,omitempty" yaml:"region"`
	Endpoint        string `json:"endpointURL,omitempty" yaml:"endpoint"`
	AccessKeyID     string `json:"accessKeyId,omitempty" yaml:"access_key_id"`
	SecretAccessKey string `json:"secretAccessKey,omitempty" yaml:"secret_access_key"`
}

// IsCloud reports whether the location is backed by an object store
func (l *Location) IsCloud() bool {
	return l != nil && l.Type == TypeCloud
}

// Clone returns a copy that shares no slices with l
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := *l
	out.Paths = append([]string(nil), l.Paths...)
	out.IgnorePatternPaths = append([]string(nil), l.IgnorePatternPaths...)
	if l.PersistTagsInSidecarFile != nil {
		v := *l.PersistTagsInSidecarFile
		out.PersistTagsInSidecarFile = &v
	}
	return &out
}
