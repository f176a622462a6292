package index

import "time"

type FileStatus string

const (
	StatusPending FileStatus = "pending"
	StatusIndexed FileStatus = "indexed"
	StatusFailed  FileStatus = "failed"
	StatusSkipped FileStatus = "skipped"
)

type IndexedFile struct {
	ID           int64      `json:"id"`
	Path         string     `json:"path"`
	ContentHash  string     `json:"content_hash"`
	Encoding     string     `json:"encoding"`
	Language     string     `json:"language"`
	Status       FileStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	IndexedAt    time.Time  `json:"indexed_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Symbol struct {
	ID         int64  `json:"id"`
	FileID     int64  `json:"file_id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Signature  string `json:"signature,omitempty"`
	LineStart  int    `json:"line_start"`
	LineEnd    int    `json:"line_end"`
	IsExported bool   `json:"is_exported"`
}

type Stats struct {
	TotalFiles    int       `json:"total_files"`
	IndexedFiles  int       `json:"indexed_files"`
	FailedFiles   int       `json:"failed_files"`
	SkippedFiles  int       `json:"skipped_files"`
	TotalSymbols  int       `json:"total_symbols"`
	LastIndexedAt time.Time `json:"last_indexed_at"`
}

type Job struct {
	Path     string
	Priority JobPriority
}

type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)
