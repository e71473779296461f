package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"imageeditor/internal/imagegen"
	"imageeditor/internal/infra"
	"imageeditor/internal/intake"
)

// EditImage accepts exactly one "file" and a "prompt".
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	a.edit(w, r, a.editImage)
}

// EditMultipleImages accepts one or two "files" parts and a "prompt". The
// second file is sent to the model as a reference image.
func (a *App) EditMultipleImages(w http.ResponseWriter, r *http.Request) {
	a.edit(w, r, a.multipleImages)
}

// DesignGenerate is the tolerant variant used by the design front end. It
// resolves the image and prompt under several field names.
func (a *App) DesignGenerate(w http.ResponseWriter, r *http.Request) {
	a.edit(w, r, a.designGenerate)
}

func (a *App) edit(w http.ResponseWriter, r *http.Request, n *intake.Normalizer) {
	req, err := n.Normalize(r)
	if err != nil {
		a.editError(w, r, err)
		return
	}

	res, err := a.Editor.Edit(r.Context(), req)
	if err != nil {
		a.editError(w, r, err)
		return
	}

	infra.LoggerFrom(r.Context(), a.Logger).Info().
		Str("stage", res.Stage.String()).
		Int("attempts", res.Attempts).
		Int("bytes", len(res.Data)).
		Msg("returning edited image")

	w.Header().Set("Content-Type", responseMIMEType(res.MIMEType))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func responseMIMEType(mimeType string) string {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return mimeType
	}
	return imagegen.TransportMIMEType
}
