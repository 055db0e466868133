package schema

// genericKey is the finding key used when a violation has no usable
// instance path.
const genericKey = "request"

// Finding is a single field-level validation complaint. Key is the dotted
// path to the offending field; for a missing required field or a disallowed
// extra field it is that field's name appended to the parent path.
type Finding struct {
	Key     string         `json:"key"`
	Message string         `json:"message"`
	Rule    string         `json:"rule,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

func joinPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

// formatKey keys a format violation by instance path, falling back to the
// format name when the path is empty.
func formatKey(path, format string) string {
	if path != "" {
		return path
	}
	if format != "" {
		return format
	}
	return genericKey
}
