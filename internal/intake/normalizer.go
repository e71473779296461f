// Package intake turns inbound multipart requests into imagegen.EditRequest
// values. Clients name their fields inconsistently, so every role (image,
// secondary image, prompt) is bound by scanning an ordered alias list.
package intake

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"

	"imageeditor/internal/imagegen"
	"imageeditor/internal/infra"
)

// DefaultMaxMemory is the multipart memory cap used when none is configured.
const DefaultMaxMemory int64 = 32 << 20

// Alias lists in priority order.
var (
	ImageAliases     = []string{"file", "image", "upload"}
	SecondaryAliases = []string{"file2", "image2", "reference"}
	PromptAliases    = []string{"prompt", "text", "description"}
)

const unsupportedMediaTypeDetail = "Unsupported content type. Please use multipart/form-data with 'file' and 'prompt' fields."

// Normalizer extracts an EditRequest from a multipart request.
type Normalizer struct {
	ImageFields     []string
	SecondaryFields []string
	PromptFields    []string

	// MaxImages caps the number of images accepted in total. Extra file parts
	// under the bound image field count towards it. Zero means 2.
	MaxImages int
	MaxMemory int64
	Logger    *infra.Logger
}

// Normalize validates the content type, parses the form and binds the image,
// optional secondary image and prompt. Errors are *imagegen.Error values.
// The instruction is not trimmed and may be empty.
func (n *Normalizer) Normalize(r *http.Request) (imagegen.EditRequest, error) {
	log := infra.LoggerFrom(r.Context(), n.Logger)

	contentType := r.Header.Get("Content-Type")
	log.Info().Str("content_type", contentType).Msg("intake: received edit request")
	if !IsMultipart(contentType) {
		log.Error().Str("content_type", contentType).Msg("intake: unsupported content type")
		return imagegen.EditRequest{}, imagegen.NewError(imagegen.KindUnsupportedMediaType, unsupportedMediaTypeDetail, nil)
	}

	form, err := ParseForm(r, n.maxMemory())
	if err != nil {
		log.Error().Err(err).Msg("intake: failed to parse multipart form")
		return imagegen.EditRequest{}, imagegen.NewError(imagegen.KindMalformedForm, "Error processing form data", err)
	}
	defer form.Close()

	keys := form.Keys()
	log.Info().Strs("form_keys", keys).Msg("intake: parsed form")

	imageField, ok := form.FirstPresent(n.ImageFields)
	if !ok {
		log.Error().Strs("available_keys", keys).Msg("intake: missing image file")
		return imagegen.EditRequest{}, imagegen.NewError(imagegen.KindMissingImage, "Missing image file", nil)
	}
	log.Info().Str("field", imageField).Msg("intake: found image")

	promptField, ok := form.FirstPresent(n.PromptFields)
	if !ok {
		log.Error().Strs("available_keys", keys).Msg("intake: missing prompt")
		return imagegen.EditRequest{}, imagegen.NewError(imagegen.KindMissingPrompt, "Missing prompt", nil)
	}
	log.Info().Str("field", promptField).Msg("intake: found prompt")

	images, err := form.Images(imageField)
	if err != nil {
		log.Error().Err(err).Str("field", imageField).Msg("intake: image field is not a readable file")
		return imagegen.EditRequest{}, err
	}

	if secondaryField, ok := form.FirstPresent(n.SecondaryFields); ok {
		extra, err := form.Images(secondaryField)
		if err != nil {
			log.Error().Err(err).Str("field", secondaryField).Msg("intake: secondary image field is not a readable file")
			return imagegen.EditRequest{}, err
		}
		log.Info().Str("field", secondaryField).Msg("intake: found secondary image")
		images = append(images, extra...)
	}

	if limit := n.maxImages(); len(images) > limit {
		return imagegen.EditRequest{}, imagegen.NewError(imagegen.KindTooManyImages,
			fmt.Sprintf("Too many images: got %d, at most %d are supported", len(images), limit), nil)
	}

	prompt, err := form.Text(promptField)
	if err != nil {
		log.Error().Err(err).Str("field", promptField).Msg("intake: failed to read prompt")
		return imagegen.EditRequest{}, imagegen.NewError(imagegen.KindMalformedForm, "Error processing form data", err)
	}

	req := imagegen.EditRequest{
		Primary:     images[0],
		Instruction: prompt,
		ImageField:  imageField,
		PromptField: promptField,
	}
	if len(images) > 1 {
		req.Secondary = &images[1]
	}

	for i, img := range images {
		log.Info().
			Int("image_index", i).
			Str("filename", img.Filename).
			Int("size", len(img.Data)).
			Msg("intake: read image")
	}
	log.Debug().Str("prompt", prompt).Msg("intake: prompt")

	return req, nil
}

func (n *Normalizer) maxMemory() int64 {
	if n.MaxMemory > 0 {
		return n.MaxMemory
	}
	return DefaultMaxMemory
}

func (n *Normalizer) maxImages() int {
	if n.MaxImages > 0 {
		return n.MaxImages
	}
	return 2
}

// IsMultipart reports whether contentType declares multipart/form-data.
func IsMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "multipart/form-data"
}

// Form is a parsed multipart form viewed as field name to parts.
type Form struct {
	form *multipart.Form
}

// ParseForm parses r as multipart/form-data. Callers must Close the form.
func ParseForm(r *http.Request, maxMemory int64) (*Form, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}
	return &Form{form: r.MultipartForm}, nil
}

// Close removes temporary files backing the form.
func (f *Form) Close() error {
	return f.form.RemoveAll()
}

// Keys returns the sorted names of every text and file field.
func (f *Form) Keys() []string {
	seen := make(map[string]struct{}, len(f.form.Value)+len(f.form.File))
	for k := range f.form.Value {
		seen[k] = struct{}{}
	}
	for k := range f.form.File {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether name is present as a text or file field.
func (f *Form) Has(name string) bool {
	if _, ok := f.form.File[name]; ok {
		return true
	}
	_, ok := f.form.Value[name]
	return ok
}

// FirstPresent returns the first of names present in the form.
func (f *Form) FirstPresent(names []string) (string, bool) {
	for _, name := range names {
		if f.Has(name) {
			return name, true
		}
	}
	return "", false
}

// Images reads every file part under name. A field that only carries text
// is not byte-like and fails with KindInvalidImageEncoding.
func (f *Form) Images(name string) ([]imagegen.UploadedImage, error) {
	headers := f.form.File[name]
	if len(headers) == 0 {
		return nil, imagegen.NewError(imagegen.KindInvalidImageEncoding, "Uploaded image is not in bytes format", nil)
	}
	images := make([]imagegen.UploadedImage, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, imagegen.NewError(imagegen.KindInvalidImageEncoding, "Error reading file", err)
		}
		images = append(images, imagegen.UploadedImage{
			Data:         data,
			Filename:     fh.Filename,
			DeclaredType: fh.Header.Get("Content-Type"),
		})
	}
	return images, nil
}

// Text returns the first text value under name, or the content of the first
// file part when the field was sent as a file.
func (f *Form) Text(name string) (string, error) {
	if values := f.form.Value[name]; len(values) > 0 {
		return values[0], nil
	}
	if headers := f.form.File[name]; len(headers) > 0 {
		data, err := readFile(headers[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", fh.Filename, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", fh.Filename, err)
	}
	return data, nil
}
