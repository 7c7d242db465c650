package preprocess

import (
	"image"
	"image/color"
)

// medianFilter applies a 3x3 median, smoothing scanner grain while keeping
// stroke edges sharp. Border pixels use their in-bounds neighborhood.
func medianFilter(img *image.Gray) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
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
					window[n] = img.GrayAt(img.Rect.Min.X+xx, img.Rect.Min.Y+yy).Y
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median(window[:n])})
		}
	}
	return out
}

// median sorts the window in place and returns the middle value.
func median(window []uint8) uint8 {
	for i := 1; i < len(window); i++ {
		for j := i; j > 0 && window[j] < window[j-1]; j-- {
			window[j], window[j-1] = window[j-1], window[j]
		}
	}
	return window[len(window)/2]
}

// adjustContrast scales intensity away from the image mean. A factor of 1.0
// leaves the image unchanged, below 1.0 flattens it, above 1.0 deepens it.
func adjustContrast(img *image.Gray, factor float64) *image.Gray {
	mean := meanIntensity(img)
	return mapPixels(img, func(v uint8) uint8 {
		return clampByte(mean + (float64(v)-mean)*factor)
	})
}

// adjustBrightness scales intensity toward white. A factor of 1.0 leaves the
// image unchanged.
func adjustBrightness(img *image.Gray, factor float64) *image.Gray {
	return mapPixels(img, func(v uint8) uint8 {
		return clampByte(float64(v) * factor)
	})
}

// sharpen blends the image away from a box-blurred copy. A factor of 1.0
// leaves the image unchanged, above 1.0 exaggerates edges.
func sharpen(img *image.Gray, factor float64) *image.Gray {
	blurred := boxBlur(img)
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			orig := float64(img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y)
			soft := float64(blurred.GrayAt(x, y).Y)
			out.SetGray(x, y, color.Gray{Y: clampByte(soft+(orig-soft)*factor)})
		}
	}
	return out
}

// boxBlur applies a 3x3 mean filter.
func boxBlur(img *image.Gray) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0
			n := 0
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
					sum += int(img.GrayAt(img.Rect.Min.X+xx, img.Rect.Min.Y+yy).Y)
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(sum/n)})
		}
	}
	return out
}

// meanIntensity returns the average pixel value.
func meanIntensity(img *image.Gray) float64 {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += uint64(img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y)
		}
	}
	return float64(sum) / float64(w*h)
}

// mapPixels applies fn to every pixel, producing a zero-origin copy.
func mapPixels(img *image.Gray, fn func(uint8) uint8) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetGray(x, y, color.Gray{Y: fn(img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y)})
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
