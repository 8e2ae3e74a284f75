package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/healthguard/assistant/internal/platform/blobstore"
	"github.com/healthguard/assistant/internal/platform/inference"
)

type Classifier interface {
	Classify(ctx context.Context, image []byte, contentType string) (*inference.Classification, error)
}

type Detector interface {
	Detect(ctx context.Context, image []byte, contentType string, conf float64) (*inference.Detection, error)
}

type Service struct {
	classifier Classifier
	detector   Detector
	blobs      blobstore.BlobStore
	doctors    []string
	pick       func(n int) int
	logger     zerolog.Logger
}

func NewService(classifier Classifier, detector Detector, blobs blobstore.BlobStore, doctors []string, logger zerolog.Logger) *Service {
	return &Service{
		classifier: classifier,
		detector:   detector,
		blobs:      blobs,
		doctors:    doctors,
		pick:       rand.IntN,
		logger:     logger.With().Str("component", "vision").Logger(),
	}
}

// PredictDisease stores the scan, classifies it and names a consulting
// doctor at random.
func (s *Service) PredictDisease(ctx context.Context, up Upload) (*DiseasePrediction, error) {
	if len(s.doctors) == 0 {
		return nil, ErrNoDoctors
	}
	if ct := http.DetectContentType(up.Data); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, ct)
	}

	meta, data, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		OriginalName: up.FileName,
		PatientID:    up.PatientID,
		Category:     "disease-scan",
	}, bytes.NewReader(up.Data))
	if err != nil {
		return nil, fmt.Errorf("store scan: %w", err)
	}

	cls, err := s.classifier.Classify(ctx, data, meta.ContentType)
	if err != nil {
		s.logger.Error().Err(err).Str("upload", meta.Name).Msg("disease classification failed")
		return nil, modelError("classify", err)
	}

	name, conf := UnknownClass, 0.0
	if cls.Top1 != nil {
		conf = cls.Top1Conf
		if n := cls.Names.Lookup(*cls.Top1); n != "" {
			name = n
		}
	}

	doctor := s.doctors[s.pick(len(s.doctors))]
	s.logger.Info().
		Str("upload", meta.Name).
		Str("patient_id", up.PatientID).
		Str("class", name).
		Float64("confidence", conf).
		Msg("disease scan classified")

	return &DiseasePrediction{
		PredictedClass: name,
		Confidence:     math.Round(conf*1e4) / 1e4,
		Doctor:         doctor,
		AIResponse: fmt.Sprintf("Based on the analysis, the predicted class is '%s' with a confidence of %.2f. "+
			"Please consult a medical professional for a proper diagnosis. Consultation provided by *%s*.", name, conf, doctor),
		Upload: meta.Name,
	}, nil
}

// DetectFetal runs the detector and returns the detections with an
// annotated copy of the image.
func (s *Service) DetectFetal(ctx context.Context, up Upload) (*FetalResult, error) {
	img, err := decodeImage(up.Data)
	if err != nil {
		return nil, err
	}

	meta, data, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		OriginalName: up.FileName,
		PatientID:    up.PatientID,
		Category:     "fetal-ultrasound",
	}, bytes.NewReader(up.Data))
	if err != nil {
		return nil, fmt.Errorf("store ultrasound: %w", err)
	}

	det, err := s.detector.Detect(ctx, data, meta.ContentType, inference.DefaultDetectConfidence)
	if err != nil {
		s.logger.Error().Err(err).Str("upload", meta.Name).Msg("fetal detection failed")
		return nil, modelError("detect", err)
	}

	detections := make([]FetalDetection, 0, len(det.Boxes))
	for _, b := range det.Boxes {
		detections = append(detections, FetalDetection{Class: className(det.Names, b.Class), Confidence: b.Conf})
	}

	annotated, err := annotate(img, det.Boxes, det.Names)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("upload", meta.Name).
		Str("patient_id", up.PatientID).
		Int("detections", len(detections)).
		Msg("fetal scan analysed")
	return &FetalResult{Detections: detections, Image: annotated}, nil
}

// modelError marks transport failures as ErrModelUnavailable. Errors the
// model server reported itself pass through.
func modelError(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrModelUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
