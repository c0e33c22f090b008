package types

type Repo struct {
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// FileRecord is a file read from a repository. Content stays in its encoded
// form; Sha is the version token a later write has to present.
type FileRecord struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Sha      string `json:"sha"`
}

type WriteRequest struct {
	Path    string
	Content []byte
	Message string
	// Sha is empty when the file is being created.
	Sha string
}
