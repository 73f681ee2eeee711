package payloads

// CoverMirrorPayload задача на скачивание обложки книги и загрузку ее вариантов в S3.
type CoverMirrorPayload struct {
	RequestID string `json:"request_id"`
	ISBN      string `json:"isbn"`
	SourceURL string `json:"source_url"`
}
