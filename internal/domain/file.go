package domain

import "time"

// FileRecord describes one uploaded file in a collection's storage prefix.
type FileRecord struct {
	FileName     string    `json:"file_name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// FileListResponse is the paginated response of the file listing endpoint.
// LastEvalKey is the page token for the next page; empty when exhausted.
type FileListResponse struct {
	Files       []FileRecord `json:"files"`
	LastEvalKey string       `json:"last_eval_key,omitempty"`
}
