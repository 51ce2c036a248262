package modrinth

// project is the subset of GET /project/{id} that modman reads.
type project struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type version struct {
	ID            string       `json:"id"`
	ProjectID     string       `json:"project_id"`
	Name          string       `json:"name"`
	VersionNumber string       `json:"version_number"`
	VersionType   string       `json:"version_type"`
	DatePublished string       `json:"date_published"`
	Files         []file       `json:"files"`
	Dependencies  []dependency `json:"dependencies"`
}

type file struct {
	Hashes   map[string]string `json:"hashes"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
}

type dependency struct {
	VersionID      string `json:"version_id"`
	ProjectID      string `json:"project_id"`
	FileName       string `json:"file_name"`
	DependencyType string `json:"dependency_type"`
}

// primaryFile returns the file flagged primary, or the first file.
func (v *version) primaryFile() (file, bool) {
	for _, f := range v.Files {
		if f.Primary {
			return f, true
		}
	}
	if len(v.Files) == 0 {
		return file{}, false
	}
	return v.Files[0], true
}
