package utils

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BoundingBox is an axis-aligned box in absolute pixel units. Width and
// Height are never negative; a zero-area box is valid.
type BoundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromCorners builds a BoundingBox from left/top/right/bottom coordinates,
// swapping them when given in reverse order.
func FromCorners(left, top, right, bottom int) BoundingBox {
	if left > right {
		left, right = right, left
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	return BoundingBox{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// FromRect converts an image.Rectangle.
func FromRect(r image.Rectangle) BoundingBox {
	r = r.Canon()
	return BoundingBox{Left: r.Min.X, Top: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Right returns the exclusive right edge.
func (b BoundingBox) Right() int { return b.Left + b.Width }

// Bottom returns the exclusive bottom edge.
func (b BoundingBox) Bottom() int { return b.Top + b.Height }

// Empty reports whether the box has zero area.
func (b BoundingBox) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right(), b.Bottom())
}

// Corners returns [left, top, right, bottom].
func (b BoundingBox) Corners() [4]int {
	return [4]int{b.Left, b.Top, b.Right(), b.Bottom()}
}

// Union returns the smallest box covering both b and o. An empty box with no
// origin is treated as the identity.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if b == (BoundingBox{}) {
		return o
	}
	if o == (BoundingBox{}) {
		return b
	}
	return FromCorners(
		min(b.Left, o.Left),
		min(b.Top, o.Top),
		max(b.Right(), o.Right()),
		max(b.Bottom(), o.Bottom()),
	)
}

// UnionAll folds Union over boxes.
func UnionAll(boxes []BoundingBox) BoundingBox {
	var out BoundingBox
	for _, b := range boxes {
		out = out.Union(b)
	}
	return out
}

// CropImageRect crops an image to the given rectangle.
func CropImageRect(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return imaging.New(0, 0, color.Transparent)
	}
	return imaging.Crop(img, rect)
}

// CropImageBox crops an image using a pixel BoundingBox.
func CropImageBox(img image.Image, box BoundingBox) image.Image {
	return CropImageRect(img, box.Rect())
}

// Grayscale returns a grayscale copy of img, the variant fed to recognition.
func Grayscale(img image.Image) image.Image {
	return imaging.Grayscale(img)
}
