package models

import "time"

// DocumentRecord describes one uploaded file pending association with a student write.
type DocumentRecord struct {
	OriginalName string    `json:"original_name"`
	StoragePath  string    `json:"storage_path"`
	SizeBytes    int64     `json:"size_bytes"`
	MimeType     string    `json:"mime_type"`
	Checksum     string    `json:"checksum"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// StagingSet accumulates the documents written during one write request.
// It is owned by a single request and consumed once by the write procedure.
type StagingSet struct {
	records []DocumentRecord
}

// Add appends a staged document.
func (s *StagingSet) Add(record DocumentRecord) {
	s.records = append(s.records, record)
}

// Records returns a copy of the staged documents in upload order.
func (s *StagingSet) Records() []DocumentRecord {
	if s == nil {
		return nil
	}
	out := make([]DocumentRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports how many documents are staged.
func (s *StagingSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Paths lists the storage locations of the staged documents.
func (s *StagingSet) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, len(s.records))
	for _, record := range s.records {
		paths = append(paths, record.StoragePath)
	}
	return paths
}
