package types

// ProcessSummary is the canonical list entry for a remote process.
type ProcessSummary struct {
	// Stable identifier, unique within one fetch.
	// example: p1
	ID string `json:"id" example:"p1"`
	// Human-friendly name; falls back to the id when upstream omits it.
	// example: Widget
	DisplayName string `json:"displayName" example:"Widget"`
}

// ProcessDetail is a single process fetched by id, with every upstream
// attribute preserved.
type ProcessDetail struct {
	ProcessSummary
	// Remaining upstream fields, untouched.
	Attributes map[string]any `json:"attributes,omitempty"`
}

// PreviewImage is the rendered preview for a process. Data is opaque
// (usually SVG markup).
type PreviewImage struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Empty reports whether the preview carries no payload.
func (p PreviewImage) Empty() bool { return len(p.Data) == 0 }
