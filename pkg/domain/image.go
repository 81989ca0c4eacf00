package domain

import (
	"fmt"
	"time"
)

const DefaultImageSize = 256

var SupportedImageSizes = []int{256, 512, 1024}

// ImageSizeLabel renders a square dimension the way the image API expects it.
func ImageSizeLabel(size int) string {
	return fmt.Sprintf("%dx%d", size, size)
}

type ImagePrompt struct {
	ID        int64
	SourceID  string
	Prompt    string
	Size      int
	CreatedAt time.Time
}
