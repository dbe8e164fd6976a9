package source

// File is the YAML form of a sources list.
type File struct {
	Sources []Entry `yaml:"sources"`
}

type Entry struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled"`
	Timeout int    `yaml:"timeout"` // seconds
}

func (e Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}
