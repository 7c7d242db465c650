package preprocess

import (
	"image"
	"image/color"
)

const (
	// adaptiveWindow is the side of the square neighborhood each pixel is
	// compared against. Must be odd.
	adaptiveWindow = 15
	// adaptiveBias shifts the local mean so faint paper texture stays
	// background instead of flickering into ink.
	adaptiveBias = 10
)

// adaptiveThreshold binarizes against the local mean, computed over a
// adaptiveWindow square via an integral image. Output pixels are 0 (ink)
// or 255 (paper) only. Local thresholding holds up where a global split
// fails: aged newsprint rarely has uniform background across a page.
func adaptiveThreshold(img *image.Gray) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	// integral[y][x] holds the sum over the rectangle [0,x) x [0,y)
	integral := make([]uint64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y)
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	half := adaptiveWindow / 2
	for y := 0; y < h; y++ {
		y0 := max(0, y-half)
		y1 := min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0 := max(0, x-half)
			x1 := min(w-1, x+half)

			area := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*stride+x1+1] -
				integral[y0*stride+x1+1] -
				integral[(y1+1)*stride+x0] +
				integral[y0*stride+x0]

			v := uint64(img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y)
			// v > mean - bias, kept in integer form
			if v*area+uint64(adaptiveBias)*area > sum {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// closeSpeckles runs a 3x3 morphological closing over the paper (white)
// regions of a binary image, which erases isolated ink specks smaller than
// the kernel while leaving strokes intact.
func closeSpeckles(img *image.Gray) *image.Gray {
	return erodeWhite(dilateWhite(img))
}

// dilateWhite grows white regions by taking the 3x3 maximum.
func dilateWhite(img *image.Gray) *image.Gray {
	return neighborhoodExtreme(img, func(best, v uint8) bool { return v > best })
}

// erodeWhite shrinks white regions by taking the 3x3 minimum.
func erodeWhite(img *image.Gray) *image.Gray {
	return neighborhoodExtreme(img, func(best, v uint8) bool { return v < best })
}

func neighborhoodExtreme(img *image.Gray, better func(best, v uint8) bool) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			best := img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y
			for dy := -1; dy <= 1; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					if v := img.GrayAt(img.Rect.Min.X+xx, img.Rect.Min.Y+yy).Y; better(best, v) {
						best = v
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: best})
		}
	}
	return out
}
