package handlers

import (
	"encoding/json"
	"net/http"

	"imageeditor/internal/imagegen"
	"imageeditor/internal/infra"
	"imageeditor/internal/intake"
)

// App holds the dependencies shared by every handler.
type App struct {
	Editor    imagegen.Editor
	Logger    *infra.Logger
	MaxMemory int64

	editImage      *intake.Normalizer
	multipleImages *intake.Normalizer
	designGenerate *intake.Normalizer
}

func NewApp(editor imagegen.Editor, logger *infra.Logger, maxMemory int64) *App {
	if maxMemory <= 0 {
		maxMemory = intake.DefaultMaxMemory
	}
	logger = infra.OrDiscard(logger)
	return &App{
		Editor:    editor,
		Logger:    logger,
		MaxMemory: maxMemory,
		editImage: &intake.Normalizer{
			ImageFields:  []string{"file"},
			PromptFields: []string{"prompt"},
			MaxImages:    1,
			MaxMemory:    maxMemory,
			Logger:       logger,
		},
		multipleImages: &intake.Normalizer{
			ImageFields:  []string{"files"},
			PromptFields: []string{"prompt"},
			MaxImages:    2,
			MaxMemory:    maxMemory,
			Logger:       logger,
		},
		designGenerate: &intake.Normalizer{
			ImageFields:     intake.ImageAliases,
			SecondaryFields: intake.SecondaryAliases,
			PromptFields:    intake.PromptAliases,
			MaxImages:       2,
			MaxMemory:       maxMemory,
			Logger:          logger,
		},
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (a *App) error(w http.ResponseWriter, code int, detail string) {
	a.json(w, code, errorResponse{Detail: detail})
}

// editError writes the client-facing detail for err. Wrapped causes stay in
// the log.
func (a *App) editError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(imagegen.KindOf(err))
	log := infra.LoggerFrom(r.Context(), a.Logger)
	ev := log.Warn()
	if code >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Int("status", code).Str("kind", string(imagegen.KindOf(err))).Msg("edit request failed")
	a.error(w, code, imagegen.Detail(err))
}

func statusFor(kind imagegen.Kind) int {
	switch kind {
	case imagegen.KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case imagegen.KindMalformedForm,
		imagegen.KindMissingImage,
		imagegen.KindMissingPrompt,
		imagegen.KindInvalidImageEncoding,
		imagegen.KindInvalidImageFormat,
		imagegen.KindTooManyImages:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
