package preprocess

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// minSkewDegrees is the tilt below which rotation is skipped. Resampling an
// already-straight page only softens glyph edges.
const minSkewDegrees = 0.5

// deskew estimates the dominant tilt of the page and rotates by its
// negation. Pages within minSkewDegrees of straight are returned unchanged.
func deskew(img *image.Gray) *image.Gray {
	angle := estimateSkew(img)
	if math.Abs(angle) < minSkewDegrees {
		return img
	}
	return rotate(img, -angle)
}

// estimateSkew returns the tilt of the minimum-area bounding rectangle of
// the foreground (ink) pixels, in degrees, normalized to (-45, 45]. Returns
// 0 when there is no usable foreground.
func estimateSkew(img *image.Gray) float64 {
	points := foregroundExtremes(img)
	if len(points) < 3 {
		return 0
	}
	hull := convexHull(points)
	if len(hull) < 3 {
		return 0
	}
	return minAreaRectAngle(hull)
}

type point struct {
	x, y float64
}

// foregroundExtremes collects the leftmost and rightmost ink pixel of each
// row. The convex hull of these extremes equals the hull of all ink pixels,
// at a fraction of the point count.
func foregroundExtremes(img *image.Gray) []point {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	threshold := otsuThreshold(img)

	points := make([]point, 0, 2*h)
	for y := 0; y < h; y++ {
		left := -1
		right := -1
		for x := 0; x < w; x++ {
			if img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y < threshold {
				if left < 0 {
					left = x
				}
				right = x
			}
		}
		if left < 0 {
			continue
		}
		points = append(points, point{float64(left), float64(y)})
		if right != left {
			points = append(points, point{float64(right), float64(y)})
		}
	}
	return points
}

// otsuThreshold picks the global ink/paper split that maximizes
// between-class variance.
func otsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	total := w * h
	if total == 0 {
		return 128
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[img.GrayAt(img.Rect.Min.X+x, img.Rect.Min.Y+y).Y]++
		}
	}

	var sum float64
	for v, count := range hist {
		sum += float64(v) * float64(count)
	}

	var sumBelow, weightBelow float64
	best := 0.0
	threshold := uint8(128)
	for v := 0; v < 256; v++ {
		weightBelow += float64(hist[v])
		if weightBelow == 0 {
			continue
		}
		weightAbove := float64(total) - weightBelow
		if weightAbove == 0 {
			break
		}
		sumBelow += float64(v) * float64(hist[v])

		meanBelow := sumBelow / weightBelow
		meanAbove := (sum - sumBelow) / weightAbove
		variance := weightBelow * weightAbove * (meanBelow - meanAbove) * (meanBelow - meanAbove)
		if variance > best {
			best = variance
			threshold = uint8(v + 1)
		}
	}
	return threshold
}

// convexHull computes the hull with Andrew's monotone chain. Collinear
// points are dropped.
func convexHull(points []point) []point {
	if len(points) < 3 {
		return points
	}
	sorted := make([]point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].x != sorted[j].x {
			return sorted[i].x < sorted[j].x
		}
		return sorted[i].y < sorted[j].y
	})

	var lower []point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func cross(o, a, b point) float64 {
	return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
}

// minAreaRectAngle runs rotating calipers over the hull edges and returns
// the orientation of the long side of the smallest enclosing rectangle,
// in degrees within (-45, 45].
func minAreaRectAngle(hull []point) float64 {
	bestArea := math.MaxFloat64
	bestAngle := 0.0

	for i := range hull {
		p1 := hull[i]
		p2 := hull[(i+1)%len(hull)]
		edge := math.Atan2(p2.y-p1.y, p2.x-p1.x)
		sin, cos := math.Sincos(-edge)

		minU, maxU := math.MaxFloat64, -math.MaxFloat64
		minV, maxV := math.MaxFloat64, -math.MaxFloat64
		for _, p := range hull {
			u := cos*p.x - sin*p.y
			v := sin*p.x + cos*p.y
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		width := maxU - minU
		height := maxV - minV
		area := width * height
		if area < bestArea {
			bestArea = area
			bestAngle = edge
			if height > width {
				// Long side runs perpendicular to this edge
				bestAngle = edge + math.Pi/2
			}
		}
	}

	deg := bestAngle * 180 / math.Pi
	for deg > 45 {
		deg -= 90
	}
	for deg <= -45 {
		deg += 90
	}
	return deg
}

// rotate turns the image content by degrees about its center, keeping the
// original dimensions. Uncovered corners fill with paper white. Sampling is
// bilinear.
func rotate(img *image.Gray, degrees float64) *image.Gray {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx := float64(w) / 2
	cy := float64(h) / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			// Inverse mapping: rotate the destination point back
			sx := cos*dx + sin*dy + cx
			sy := -sin*dx + cos*dy + cy
			out.SetGray(x, y, color.Gray{Y: sampleBilinear(img, sx, sy)})
		}
	}
	return out
}

// sampleBilinear reads a fractional coordinate, returning white outside the
// image.
func sampleBilinear(img *image.Gray, x, y float64) uint8 {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	if x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return 255
	}

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	v00 := float64(img.GrayAt(img.Rect.Min.X+x0, img.Rect.Min.Y+y0).Y)
	v10 := float64(img.GrayAt(img.Rect.Min.X+x1, img.Rect.Min.Y+y0).Y)
	v01 := float64(img.GrayAt(img.Rect.Min.X+x0, img.Rect.Min.Y+y1).Y)
	v11 := float64(img.GrayAt(img.Rect.Min.X+x1, img.Rect.Min.Y+y1).Y)

	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return clampByte(top + (bottom-top)*fy)
}
