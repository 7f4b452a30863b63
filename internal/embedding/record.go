package embedding

// Metadata is the descriptive part of an embedding record. The same shape is
// written to the metadata-only export and imported into the evidence table.
type Metadata struct {
	Text          string `json:"text"`
	Description   string `json:"description"`
	Source        string `json:"source"`
	GUID          string `json:"guid"`
	PublishedDate string `json:"publishedDate"`
}

type Record struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
	Metadata  Metadata  `json:"metadata"`
}

type MetadataRecord struct {
	ID       string   `json:"id"`
	Metadata Metadata `json:"metadata"`
}
