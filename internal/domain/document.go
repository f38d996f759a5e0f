package domain

// Document is an input item for the retrieval pipeline: raw text plus
// optional identity and metadata. Its vector is always derived by the
// pipeline, never supplied by the caller.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}
