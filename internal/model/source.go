package model

// Path represents a file system path.
type Path string

// File represents a source file on disk.
type File struct {
	FullPath  Path   `yaml:"full_path"`
	ShortPath Path   `yaml:"short_path"`
	Hash      string `yaml:"hash,omitempty"`
}

// Source is a file selected for checking.
type Source struct {
	Origin *File `yaml:"origin"`
}

// DisplayPath returns the short path when known, the full path otherwise.
func (s Source) DisplayPath() Path {
	if s.Origin == nil {
		return ""
	}

	if s.Origin.ShortPath != "" {
		return s.Origin.ShortPath
	}

	return s.Origin.FullPath
}
