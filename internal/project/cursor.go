package project

import (
	"fmt"

	"picksort/internal/store"
)

// windowRadius is how many neighbors Window exposes on each side for the
// shell's image preloading.
const windowRadius = 3

// Cursor tracks the active image within an ordered image list.
type Cursor struct {
	images []*store.Image
	index  int
}

// NewCursor positions a cursor on the first image. An empty list yields a
// cursor whose Current returns nil.
func NewCursor(images []*store.Image) *Cursor {
	return &Cursor{images: images}
}

// Current returns the active image, nil when the project has none.
func (c *Cursor) Current() *store.Image {
	if len(c.images) == 0 {
		return nil
	}
	return c.images[c.index]
}

// Next advances to the following image. Returns false at the end.
func (c *Cursor) Next() bool {
	if c.index+1 >= len(c.images) {
		return false
	}
	c.index++
	return true
}

// Previous steps back one image. Returns false at the start.
func (c *Cursor) Previous() bool {
	if c.index == 0 || len(c.images) == 0 {
		return false
	}
	c.index--
	return true
}

// JumpTo positions the cursor on the image with the given id.
func (c *Cursor) JumpTo(imageID int64) error {
	for i, image := range c.images {
		if image.ID == imageID {
			c.index = i
			return nil
		}
	}
	return fmt.Errorf("image %d not in cursor", imageID)
}

// JumpToLatestScored positions the cursor on the image with the given id when
// it is set, staying put when latestID is 0 (nothing scored yet).
func (c *Cursor) JumpToLatestScored(latestID int64) error {
	if latestID == 0 {
		return nil
	}
	return c.JumpTo(latestID)
}

// Progress reports the one-based position and total image count.
func (c *Cursor) Progress() (current, total int) {
	if len(c.images) == 0 {
		return 0, 0
	}
	return c.index + 1, len(c.images)
}

// Window returns up to windowRadius neighbors on each side of the current
// image, current included, for preloading. Not contractual ordering beyond
// list order.
func (c *Cursor) Window() []*store.Image {
	if len(c.images) == 0 {
		return nil
	}
	lo := c.index - windowRadius
	if lo < 0 {
		lo = 0
	}
	hi := c.index + windowRadius + 1
	if hi > len(c.images) {
		hi = len(c.images)
	}
	return c.images[lo:hi]
}
