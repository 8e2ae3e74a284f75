package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/healthguard/assistant/internal/platform/llm"
)

// PreferredModels is tried in order against the models the service reports.
var PreferredModels = []string{"llama3:instruct", "llama3:latest", "llama2:latest", "mistral:latest"}

// DefaultModel is used when none of PreferredModels is loaded. The call may
// still fail, in which case the reply falls back to canned text.
const DefaultModel = "llama3:latest"

const (
	EmptyReply = "I couldn't generate a response right now."

	fallbackAppointment  = "To book an appointment, please call our reception at +91-9876543211."
	fallbackEmergency    = "For emergencies, please go to the emergency department immediately or call +91-9876543210."
	fallbackPrescription = "For prescription queries, please contact your doctor or pharmacy."
	fallbackGeneric      = "I'm here to help with hospital services and medical information. How can I assist you today?"
)

// Generator turns a prompt into reply text. Reply never fails.
type Generator struct {
	client llm.Client
	group  singleflight.Group
	budget time.Duration
	logger zerolog.Logger
}

func NewGenerator(client llm.Client, logger zerolog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logger.With().Str("component", "generator").Logger(),
	}
}

// WithBudget bounds model discovery and completion together. Zero leaves
// the caller's context as the only limit.
func (g *Generator) WithBudget(d time.Duration) *Generator {
	g.budget = d
	return g
}

func (g *Generator) Reply(ctx context.Context, prompt string) string {
	if g.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.budget)
		defer cancel()
	}

	model, err := g.selectModel(ctx)
	if err != nil {
		g.logger.Warn().Err(err).Msg("model discovery failed, using fallback reply")
		return FallbackReply(prompt)
	}

	text, err := g.client.Complete(ctx, model, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Str("model", model).Msg("completion failed, using fallback reply")
		return FallbackReply(prompt)
	}
	if strings.TrimSpace(text) == "" {
		g.logger.Warn().Str("model", model).Msg("model returned an empty reply")
		return EmptyReply
	}

	g.logger.Debug().Str("model", model).Int("reply_len", len(text)).Msg("reply generated")
	return text
}

// selectModel lists the loaded models. Concurrent callers share one listing
// call, which is detached from any single caller's cancellation; each caller
// still stops waiting when its own context ends.
func (g *Generator) selectModel(ctx context.Context) (string, error) {
	ch := g.group.DoChan("models", func() (any, error) {
		return g.client.ListModels(context.WithoutCancel(ctx))
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.Err != nil {
		return "", res.Err
	}

	models := res.Val.([]string)
	shared := res.Shared
	model := pickModel(models)
	g.logger.Debug().Strs("available", models).Str("model", model).Bool("shared", shared).Msg("model selected")
	return model, nil
}

func pickModel(available []string) string {
	loaded := make(map[string]struct{}, len(available))
	for _, m := range available {
		loaded[m] = struct{}{}
	}
	for _, m := range PreferredModels {
		if _, ok := loaded[m]; ok {
			return m
		}
	}
	return DefaultModel
}

// FallbackReply picks a canned reply by scanning the prompt, which includes
// the persona text as well as the user's message.
func FallbackReply(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "appointment"):
		return fallbackAppointment
	case strings.Contains(p, "emergency"):
		return fallbackEmergency
	case strings.Contains(p, "prescription"):
		return fallbackPrescription
	default:
		return fallbackGeneric
	}
}
