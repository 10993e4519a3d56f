package seed

// File is the top-level structure of a storages seed file.
type File struct {
	Storages []Entry `yaml:"storages"`
}

// Entry is one storage to import.
type Entry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}
