package imagegen

import (
	"context"
	"image"

	"google.golang.org/genai"
)

// ModelName is the Gemini model every edit is sent to.
const ModelName = "gemini-2.5-flash-image-preview"

// UploadedImage is an image received from a client. Image, Format, Mode,
// Width and Height are filled in by Decode.
type UploadedImage struct {
	Data         []byte
	Filename     string
	DeclaredType string

	Image  image.Image
	Format string
	Mode   string
	Width  int
	Height int
}

// Decoded reports whether Decode has run successfully on the image.
func (u UploadedImage) Decoded() bool {
	return u.Image != nil
}

// EditRequest is a normalized edit request. Instruction may be blank.
type EditRequest struct {
	Primary     UploadedImage
	Secondary   *UploadedImage
	Instruction string

	// Field names the normalizer matched, kept for logging.
	ImageField  string
	PromptField string
}

// Images returns the request images in the order they are sent to the model.
func (r EditRequest) Images() []UploadedImage {
	if r.Secondary == nil {
		return []UploadedImage{r.Primary}
	}
	return []UploadedImage{r.Primary, *r.Secondary}
}

// Result is a successfully generated image.
type Result struct {
	Data     []byte
	MIMEType string
	Stage    Stage
	Attempts int
}

// ContentGenerator is the model call the invoker depends on. *genai.Models
// satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Editor turns an EditRequest into a generated image.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) (Result, error)
}
