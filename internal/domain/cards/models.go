package cards

// PageText is one page of source text, produced by page extraction.
type PageText struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}

// Chunk is a token-bounded group of consecutive pages treated as one
// extraction unit. Confidence is 1.0 for normally packed chunks and
// lowered for oversized single-page chunks.
type Chunk struct {
	ChunkID     string `json:"chunkId"`
	PageNumbers []int  `json:"pageNumbers"`
	Text        string `json:"text"`
	TokenCount  int    `json:"tokenCount"`
	Confidence  float64 `json:"confidence"`
}

type ProblemType string

const (
	ProblemMultipleChoice ProblemType = "multiple_choice"
	ProblemDescriptive    ProblemType = "descriptive"
	ProblemCalculation    ProblemType = "calculation"
	ProblemUnknown        ProblemType = "unknown"
)

// ParseProblemType maps a model-emitted type string onto the enum,
// falling back to unknown for anything unrecognized.
func ParseProblemType(s string) ProblemType {
	switch ProblemType(s) {
	case ProblemMultipleChoice, ProblemDescriptive, ProblemCalculation:
		return ProblemType(s)
	default:
		return ProblemUnknown
	}
}

// CandidateProblem is a provisional question/answer/explanation record
// extracted from the source, not yet confidence-filtered into a Card.
// AnswerText and ExplanationText may be empty until enrichment runs.
type CandidateProblem struct {
	ID              string      `json:"id"`
	ProblemText     string      `json:"problemText"`
	AnswerText      string      `json:"answerText,omitempty"`
	ExplanationText string      `json:"explanationText,omitempty"`
	ProblemType     ProblemType `json:"problemType"`
	Confidence      float64     `json:"confidence"`
	PageNumber      int         `json:"pageNumber"`
	ChunkID         string      `json:"chunkId"`
}

// HasAnswer reports whether the candidate already carries an answer and
// therefore does not need enrichment.
func (p CandidateProblem) HasAnswer() bool {
	return trimmed(p.AnswerText) != ""
}

// ProcessingType records which pipeline produced a card.
type ProcessingType string

const (
	ProcessingSinglePDF ProcessingType = "enhanced_single_pdf"
	ProcessingDualOCR   ProcessingType = "dual_pdf_ocr"
)

// CardMetadata is provenance carried alongside a generated card.
type CardMetadata struct {
	ProblemID       string         `json:"problem_id"`
	ConfidenceScore float64        `json:"confidence_score"`
	AnswerText      string         `json:"answer_text"`
	ExplanationText string         `json:"explanation_text"`
	ProcessingModel string         `json:"processing_model"`
	ProcessingType  ProcessingType `json:"processing_type"`
}

// Card is the final persistable front/back flashcard payload. The caller
// owns persistence; this service only produces the records.
type Card struct {
	FrontContent Document     `json:"front_content"`
	BackContent  Document     `json:"back_content"`
	SourceRef    string       `json:"source_ref"`
	SourcePage   int          `json:"source_page"`
	Metadata     CardMetadata `json:"metadata"`
}

// BatchUploadResult is the ephemeral record of one uploaded image within
// an OCR batch. It lives only until the batch's extraction call returns.
type BatchUploadResult struct {
	PageNumber int
	URI        string
	MimeType   string
}

// AlignedEntry is one question/answer/explanation triple produced by the
// dual-source aligner, keyed by question-set page number.
type AlignedEntry struct {
	PageNumber      int    `json:"pageNumber"`
	QuestionText    string `json:"questionText"`
	AnswerText      string `json:"answerText"`
	ExplanationText string `json:"explanationText,omitempty"`
}

// ExtractedPage is one page of OCR output.
type ExtractedPage struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}
