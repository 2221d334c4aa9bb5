// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ChunkIngestTask represents one accepted upload batch waiting for
// background embedding and indexing. The raw chunk payload lives in the
// object archive under ObjectName; the message itself stays small.
type ChunkIngestTask struct {
	BatchID       string `json:"batch_id"`
	ObjectName    string `json:"object_name"`
	ChunkCount    int    `json:"chunk_count"`
	SchemaVersion string `json:"schema_version"`
	SubmittedBy   string `json:"submitted_by"`
}
