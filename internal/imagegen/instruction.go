package imagegen

import "fmt"

const (
	singleImageTemplate = "Edit this image to %s. Return the modified image."
	multiImageTemplate  = "Using the two provided images, %s. The first image is the one to edit and the second image is a reference. Return only the modified image."
)

// BuildInstruction wraps the caller's instruction in the template matching
// the number of images sent with it. The instruction is used verbatim.
func BuildInstruction(instruction string, imageCount int) string {
	if imageCount > 1 {
		return fmt.Sprintf(multiImageTemplate, instruction)
	}
	return fmt.Sprintf(singleImageTemplate, instruction)
}
