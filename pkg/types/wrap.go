package types

// SectionKey identifies one of the four logical regions of a WRAP document.
type SectionKey string

const (
	SectionA SectionKey = "A" // session notes and metadata
	SectionB SectionKey = "B" // flashcards
	SectionC SectionKey = "C" // spaced-review schedule
	SectionD SectionKey = "D" // machine-readable JSON tracker
)

// SectionKeys lists all section keys in document order.
var SectionKeys = []SectionKey{SectionA, SectionB, SectionC, SectionD}

// WrapDocument is the pipeline input: the raw end-of-session report plus,
// after segmentation, the per-section slices and any frontmatter scalars.
type WrapDocument struct {
	// Raw is the original document text, frontmatter included.
	Raw string `json:"raw"`

	// Sections maps section keys to the raw text assigned to them.
	// Degenerate input yields {A: raw} and nothing else.
	Sections map[SectionKey]string `json:"sections,omitempty"`

	// Frontmatter holds scalar keys from a leading YAML block, if any.
	Frontmatter map[string]string `json:"frontmatter,omitempty"`

	// Confidence is the format-detection score assigned by the segmenter.
	Confidence int `json:"confidence"`

	// SegmentedBy records which strategy produced Sections:
	// "headers", "inline", "llm", or "fallback".
	SegmentedBy string `json:"segmented_by,omitempty"`
}

// IsWrap reports whether the format-detection score cleared the threshold
// for treating the input as a WRAP document.
func (d *WrapDocument) IsWrap() bool {
	return d.Confidence >= 2
}

// Section returns the raw text for a key, or "" when absent.
func (d *WrapDocument) Section(key SectionKey) string {
	if d.Sections == nil {
		return ""
	}
	return d.Sections[key]
}
