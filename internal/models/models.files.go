// FilePath: internal/models/models.files.go
package models

// FileItem is one entry of a per-directory device listing. Size is the
// device's display string, kept verbatim.
type FileItem struct {
	Name       string `json:"name"`
	Size       string `json:"size"`
	Type       string `json:"type"`
	ModifiedAt string `json:"modifiedAt"`
}

const (
	FileTypeFile   = "file"
	FileTypeFolder = "folder"
)
