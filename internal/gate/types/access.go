package types

// EmbeddingsCaptureRequest carries probe embeddings already extracted by the
// uploader.  Filename is optional; the server generates one when empty.
type EmbeddingsCaptureRequest struct {
	Filename   string      `json:"filename,omitempty"`
	Embeddings [][]float32 `json:"embeddings"`
}

type VerdictDTO struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

type CaptureResponse struct {
	OK         bool         `json:"ok"`
	Filename   string       `json:"filename"`
	Granted    bool         `json:"granted"`
	Names      []string     `json:"names"`
	Verdicts   []VerdictDTO `json:"verdicts"`
	Command    string       `json:"command"`
	Delivered  bool         `json:"delivered"`
	Warnings   []string     `json:"warnings,omitempty"`
	ServerTime string       `json:"server_time"`
}

type AccessRecordDTO struct {
	ID              int64    `json:"id"`
	Filename        string   `json:"filename"`
	CapturedAt      string   `json:"captured_at"`
	RecognizedNames []string `json:"recognized_names"`
	Granted         bool     `json:"granted"`
}

type AccessHistoryResponse struct {
	OK      bool              `json:"ok"`
	Records []AccessRecordDTO `json:"records"`
}
