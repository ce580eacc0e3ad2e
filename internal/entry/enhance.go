package entry

import "strings"

// Extension returns the lower-cased extension of a file name, without the dot.
// Dotfiles without a further dot have no extension.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// ExtractTags parses tags embedded in a name, e.g. "report[draft 2024].pdf".
func ExtractTags(name string, isFile bool, delimiter string) []string {
	base := name
	if isFile {
		if ext := Extension(name); ext != "" {
			base = name[:len(name)-len(ext)-1]
		}
	}
	begin := strings.LastIndex(base, "[")
	end := strings.LastIndex(base, "]")
	if begin < 0 || end < begin {
		return nil
	}
	if delimiter == "" {
		delimiter = " "
	}
	var tags []string
	for _, t := range strings.Split(base[begin+1:end], delimiter) {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Enhance annotates a raw listing entry with its extension and tags.
// Name tags come first, followed by sidecar tags.
func Enhance(raw DirectoryEntry, tagDelimiter, sep string) DirectoryEntry {
	e := raw
	if e.Name == "" {
		e.Name = BaseName(e.Path, sep)
	}
	if e.IsFile {
		e.Extension = Extension(e.Name)
	} else {
		e.Extension = ""
	}

	var tags []Tag
	for _, title := range ExtractTags(e.Name, e.IsFile, tagDelimiter) {
		tags = append(tags, Tag{Title: title, Type: TagTypePlain})
	}
	if e.Meta != nil {
		for _, t := range e.Meta.Tags {
			t.Type = TagTypeSidecar
			tags = append(tags, t)
		}
	}
	e.Tags = tags
	return e
}
