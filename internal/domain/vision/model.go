package vision

import "errors"

var (
	ErrModelUnavailable = errors.New("model service unavailable")
	ErrInvalidImage     = errors.New("unsupported or corrupt image")
	ErrNoDoctors        = errors.New("no consulting doctors configured")
)

// UnknownClass is reported when the classifier gives no usable top-1.
const UnknownClass = "unknown"

type DiseasePrediction struct {
	PredictedClass string  `json:"predicted_class"`
	Confidence     float64 `json:"confidence"`
	Doctor         string  `json:"doctor"`
	AIResponse     string  `json:"ai_response"`
	Upload         string  `json:"upload,omitempty"`
}

type FetalDetection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

type FetalResult struct {
	Detections []FetalDetection `json:"detections"`
	Image      string           `json:"image"`
}

// Upload is an image submitted for analysis.
type Upload struct {
	FileName  string
	PatientID string
	Data      []byte
}
