package imagegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"imageeditor/internal/infra"
)

// Recorder receives ladder outcomes. The metrics collector implements it.
type Recorder interface {
	RecordAttempt(stage string, ok bool)
	RecordResult(outcome string, stage string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAttempt(string, bool) {}

func (nopRecorder) RecordResult(string, string, time.Duration) {}

// Options configures an Invoker.
type Options struct {
	APIKey    string
	Generator ContentGenerator
	Logger    *infra.Logger
	Metrics   Recorder

	// MaxPixels bounds the declared size of each input image. Zero means
	// DefaultMaxPixels.
	MaxPixels int64
	// Timeout bounds a whole Edit, every ladder call included. Zero means no
	// deadline beyond the caller's context.
	Timeout   time.Duration
}

// Invoker sends edit requests to the model, walking the fallback ladder
// when a call fails. It never panics or returns a non-*Error failure.
type Invoker struct {
	apiKey    string
	generator ContentGenerator
	logger    *infra.Logger
	metrics   Recorder
	maxPixels int64
	timeout   time.Duration
}

var _ Editor = (*Invoker)(nil)

// NewInvoker constructs an Invoker. A blank APIKey or nil Generator is
// accepted; every Edit then fails with KindConfiguration.
func NewInvoker(opts Options) *Invoker {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Invoker{
		apiKey:    strings.TrimSpace(opts.APIKey),
		generator: opts.Generator,
		logger:    infra.OrDiscard(opts.Logger),
		metrics:   metrics,
		maxPixels: opts.MaxPixels,
		timeout:   opts.Timeout,
	}
}

// Edit decodes the request images, builds the enhanced instruction and calls
// the model. Failures are *Error values of kind KindConfiguration,
// KindInvalidImageFormat or KindNoImageReturned.
func (inv *Invoker) Edit(ctx context.Context, req EditRequest) (Result, error) {
	start := time.Now()
	log := infra.LoggerFrom(ctx, inv.logger)

	if inv.apiKey == "" || inv.generator == nil {
		log.Error().Msg("imagegen: no API key configured")
		return inv.fail(NewError(KindConfiguration, "Missing API key. Please configure GOOGLE_API_KEY.", nil), StageInit, start)
	}

	images := req.Images()
	instruction := BuildInstruction(req.Instruction, len(images))
	log.Info().
		Int("prompt_length", len(req.Instruction)).
		Int("image_count", len(images)).
		Str("model", ModelName).
		Msg("imagegen: processing edit request")

	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(instruction))
	for i, img := range images {
		if !img.Decoded() {
			decoded, err := DecodeWithLimit(img, inv.maxPixels)
			if err != nil {
				log.Warn().Err(err).Int("image_index", i).Msg("imagegen: failed to decode image")
				return inv.fail(err, StageInit, start)
			}
			img = decoded
		}
		log.Info().
			Int("image_index", i).
			Str("format", img.Format).
			Str("mode", img.Mode).
			Int("width", img.Width).
			Int("height", img.Height).
			Msg("imagegen: opened image")

		data, err := EncodeTransport(img)
		if err != nil {
			return inv.fail(NewError(KindInvalidImageFormat, InvalidImageDetail, err), StageInit, start)
		}
		parts = append(parts, genai.NewPartFromBytes(data, TransportMIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	resp, stage, attempts, err := inv.run(ctx, contents)
	if err != nil {
		log.Error().Err(err).Int("attempts", attempts).Msg("imagegen: every model call failed")
		return inv.fail(NewError(KindNoImageReturned, "AI did not return an image", err), stage, start)
	}

	data, mimeType, ok := firstInlineImage(resp)
	if !ok {
		log.Warn().Str("stage", stage.String()).Msg("imagegen: model did not return image data")
		return inv.fail(NewError(KindNoImageReturned, "AI did not return an image", nil), stage, start)
	}

	elapsed := time.Since(start)
	inv.metrics.RecordResult("success", stage.String(), elapsed)
	log.Info().
		Str("stage", stage.String()).
		Int("attempts", attempts).
		Int("bytes", len(data)).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("imagegen: model returned an image")

	return Result{Data: data, MIMEType: mimeType, Stage: stage, Attempts: attempts}, nil
}

// run walks the ladder until a call succeeds or the ladder is exhausted. On
// success the returned stage is the one whose call succeeded.
func (inv *Invoker) run(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, Stage, int, error) {
	log := infra.LoggerFrom(ctx, inv.logger)

	var lastErr error
	attempts := 0
	for stage := StageInit.next(); !stage.Terminal(); stage = stage.next() {
		attempts++
		resp, err := inv.call(ctx, stage, contents)
		inv.metrics.RecordAttempt(stage.String(), err == nil)
		if err == nil {
			log.Info().Str("stage", stage.String()).Msg("imagegen: model call succeeded")
			return resp, stage, attempts, nil
		}
		lastErr = err
		log.Warn().Err(err).Str("stage", stage.String()).Msg("imagegen: model call failed")
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("imagegen: edit deadline reached, skipping remaining tiers")
			break
		}
	}
	return nil, StageFailed, attempts, lastErr
}

func (inv *Invoker) call(ctx context.Context, stage Stage, contents []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("model call panicked: %v", r)
		}
	}()
	return inv.generator.GenerateContent(ctx, ModelName, contents, stage.config())
}

func (inv *Invoker) fail(err error, stage Stage, start time.Time) (Result, error) {
	inv.metrics.RecordResult(string(KindOf(err)), stage.String(), time.Since(start))
	return Result{Stage: StageFailed}, err
}

// firstInlineImage returns the first inline payload of the first candidate.
func firstInlineImage(resp *genai.GenerateContentResponse) ([]byte, string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, "", false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil, "", false
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, true
		}
	}
	return nil, "", false
}
