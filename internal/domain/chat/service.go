package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/healthguard/assistant/internal/domain/records"
	"github.com/healthguard/assistant/pkg/outcome"
	"github.com/healthguard/assistant/pkg/pagination"
)

const (
	PatientTypeExisting = "existing"

	emptyMessageReply = "Please type a message to continue."
	faultPrefix       = "Sorry, something went wrong: "
	redactedFault     = "internal error"
)

// RecordSource is the chat pipeline's view of the record store.
type RecordSource interface {
	ResolvePatient(ctx context.Context, patientID string) outcome.Result[*records.PatientDetail]
	Roster(ctx context.Context) outcome.Result[[]*records.Staff]
}

// Replier produces generated text for a prompt. It must not fail.
type Replier interface {
	Reply(ctx context.Context, prompt string) string
}

// Stage names where a message was answered.
type Stage string

const (
	StageFAQ       Stage = "faq"
	StageSymptom   Stage = "symptom"
	StageGenerated Stage = "generated"
	StageRejected  Stage = "rejected"
	StageFailed    Stage = "failed"
)

type Request struct {
	Message     string
	PatientID   string
	PatientType string
}

type Response struct {
	Status int
	Text   string
	Stage  Stage
}

type Service struct {
	records      RecordSource
	gen          Replier
	history      HistoryStore
	log          LogRepository
	exposeErrors bool
	logger       zerolog.Logger
	now          func() time.Time
}

// NewService wires the chat pipeline. log may be nil to skip persistence.
func NewService(src RecordSource, gen Replier, history HistoryStore, log LogRepository, exposeErrors bool, logger zerolog.Logger) *Service {
	return &Service{
		records:      src,
		gen:          gen,
		history:      history,
		log:          log,
		exposeErrors: exposeErrors,
		logger:       logger.With().Str("component", "chat").Logger(),
		now:          time.Now,
	}
}

// Handle answers one chat message. It never returns an error: faults become
// a 500 response carrying the disclaimer.
func (s *Service) Handle(ctx context.Context, req Request) (res Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("patient_id", req.PatientID).Msg("chat pipeline panicked")
			res = s.fault(fmt.Errorf("%v", r))
		}
	}()

	msg := strings.TrimSpace(req.Message)
	patientID := strings.TrimSpace(req.PatientID)
	if msg == "" {
		return Response{Status: http.StatusBadRequest, Text: emptyMessageReply, Stage: StageRejected}
	}

	patientType := strings.ToLower(strings.TrimSpace(req.PatientType))
	if patientType == "" {
		patientType = PatientTypeExisting
	}

	patient, staff, err := s.gather(ctx, patientID, patientType == PatientTypeExisting)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID).Msg("patient lookup failed")
		return s.fault(err)
	}

	answer, stage := s.answer(ctx, msg, patientID, patient, staff)
	if err := ctx.Err(); err != nil {
		// A reply the caller never received is not persisted.
		s.logger.Warn().Err(err).Str("patient_id", patientID).Str("stage", string(stage)).Msg("chat request abandoned")
		return s.fault(err)
	}
	text := answer + Disclaimer

	if patientID != "" {
		s.remember(ctx, patientID, msg, text)
	}

	s.logger.Info().
		Str("patient_id", patientID).
		Str("stage", string(stage)).
		Bool("patient_context", patient != nil).
		Msg("chat answered")
	return Response{Status: http.StatusOK, Text: text, Stage: stage}
}

// gather reads the patient and the staff roster concurrently. Only a patient
// store fault is returned; everything else degrades to empty values.
func (s *Service) gather(ctx context.Context, patientID string, existing bool) (*records.PatientDetail, []*records.Staff, error) {
	var (
		patientRes outcome.Result[*records.PatientDetail]
		rosterRes  outcome.Result[[]*records.Staff]
		g          errgroup.Group
	)
	if existing && patientID != "" {
		g.Go(func() error {
			defer recoverInto(&patientRes)
			patientRes = s.records.ResolvePatient(ctx, patientID)
			return nil
		})
	}
	g.Go(func() error {
		defer recoverInto(&rosterRes)
		rosterRes = s.records.Roster(ctx)
		return nil
	})
	_ = g.Wait()

	var patient *records.PatientDetail
	switch patientRes.Kind {
	case outcome.KindOK:
		patient = patientRes.Value
	case outcome.KindUnavailable:
		s.logger.Warn().Err(patientRes.Err).Str("patient_id", patientID).Msg("record store unavailable, answering without patient context")
	case outcome.KindFault:
		return nil, nil, patientRes.Err
	}

	if !rosterRes.IsOK() {
		s.logger.Warn().Err(rosterRes.Err).Str("kind", rosterRes.Kind.String()).Msg("staff roster unavailable")
	}
	return patient, rosterRes.ValueOr(nil), nil
}

// recoverInto turns a panic in a fan-out goroutine into a Fault result so it
// reaches the request goroutine.
func recoverInto[T any](res *outcome.Result[T]) {
	if r := recover(); r != nil {
		*res = outcome.Fault[T](fmt.Errorf("panic: %v", r))
	}
}

func (s *Service) answer(ctx context.Context, msg, patientID string, patient *records.PatientDetail, staff []*records.Staff) (string, Stage) {
	if a, ok := MatchFAQ(msg); ok {
		return a, StageFAQ
	}
	if a, ok := MatchSymptoms(msg); ok {
		return a, StageSymptom
	}

	var history []Exchange
	if patientID != "" {
		h, err := s.history.Recent(ctx, patientID)
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("history read failed")
		}
		history = h
	}

	in := PromptInput{Message: msg, Staff: RosterFromStaff(staff), History: history}
	if patient != nil {
		in.Patient = NewPatientContext(&patient.Patient)
	}
	return s.gen.Reply(ctx, BuildPrompt(in)), StageGenerated
}

// remember updates the history ring and the chat log. Failures are logged
// only; the reply has already been produced.
func (s *Service) remember(ctx context.Context, patientID, msg, text string) {
	if err := s.history.Push(ctx, patientID, Exchange{Question: msg, Answer: text}); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("history push failed")
	}
	if s.log == nil {
		return
	}
	rec := &Record{PatientID: patientID, UserMessage: msg, BotResponse: text, Timestamp: s.now().UTC()}
	if err := s.log.Append(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("chat log append failed")
	}
}

func (s *Service) fault(err error) Response {
	detail := redactedFault
	if s.exposeErrors && err != nil {
		detail = err.Error()
	}
	return Response{
		Status: http.StatusInternalServerError,
		Text:   faultPrefix + detail + Disclaimer,
		Stage:  StageFailed,
	}
}

// Search returns the patient's chat log entries matching keyword.
func (s *Service) Search(ctx context.Context, patientID, keyword string, page pagination.Params) ([]*Record, error) {
	if s.log == nil {
		return []*Record{}, nil
	}
	return s.log.Search(ctx, strings.TrimSpace(patientID), strings.TrimSpace(keyword), page)
}
