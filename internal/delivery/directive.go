// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package delivery

import (
	"math"
	"strconv"
	"strings"
)

// CropStrategy controls how the CDN fits the original into the target box.
type CropStrategy string

const (
	CropExactFill         CropStrategy = "exact-fill"
	CropProportionalScale CropStrategy = "proportional-scale"
	CropFixedFocal        CropStrategy = "fixed-crop-with-focal-point"
)

// FocalStrategy controls where the CDN centres a crop.
type FocalStrategy string

const (
	FocalNone           FocalStrategy = "none"
	FocalPrimarySubject FocalStrategy = "detect-primary-subject"
	FocalAllSubjects    FocalStrategy = "detect-all-subjects"
)

// Negotiation is the only format and quality policy: the CDN picks per client.
const Negotiation = "auto"

// DefaultWidth is used when neither the purpose nor the caller gives a size.
const DefaultWidth = 1200

// Directive is the fully resolved set of transformation parameters for one render.
// Zero Width or Height means "unspecified, scale proportionally".
type Directive struct {
	Width   int           `json:"width,omitempty"`
	Height  int           `json:"height,omitempty"`
	Crop    CropStrategy  `json:"crop"`
	Focal   FocalStrategy `json:"focal"`
	Format  string        `json:"format"`
	Quality string        `json:"quality"`
}

// rule is one row of the purpose table.
type rule struct {
	width, height int
	crop          CropStrategy
	focal         FocalStrategy
}

var rules = map[Purpose]rule{
	PurposeHero:       {1920, 1080, CropExactFill, FocalAllSubjects},
	PurposeGallery:    {800, 600, CropFixedFocal, FocalAllSubjects},
	PurposeThumbnail:  {300, 300, CropFixedFocal, FocalPrimarySubject},
	PurposeBackground: {1920, 1080, CropExactFill, FocalNone},
	PurposePrint:      {2400, 0, CropProportionalScale, FocalNone},
}

/*
ResolveDirective maps a purpose and optional explicit dimensions to a directive.

Explicit dimensions replace the purpose defaults but never its crop or focal
strategy. For boxed purposes a single explicit dimension keeps the default
aspect ratio. Non-positive dimensions count as unspecified.

Parameters:
  - purpose: Purpose (unknown values take the fallback rule)
  - width: int (0 = unspecified)
  - height: int (0 = unspecified)

Returns:
  - Directive: always valid; this function cannot fail
*/
func ResolveDirective(purpose Purpose, width, height int) Directive {
	width, height = max(width, 0), max(height, 0)

	if r, ok := rules[purpose]; ok {
		if r.height == 0 {
			return newDirective(firstPositive(width, r.width), height, r.crop, r.focal)
		}
		w, h := fitBox(width, height, r.width, r.height)
		return newDirective(w, h, r.crop, r.focal)
	}

	if purpose == PurposePortfolio {
		switch {
		case width > 0 && height > 0:
			return newDirective(width, height, CropFixedFocal, FocalAllSubjects)
		case width > 0 || height > 0:
			return newDirective(width, height, CropProportionalScale, FocalNone)
		default:
			return newDirective(DefaultWidth, 0, CropProportionalScale, FocalNone)
		}
	}

	// Fallback for unrecognised purposes.
	switch {
	case width > 0 && height > 0:
		return newDirective(width, height, CropExactFill, FocalNone)
	case width > 0:
		return newDirective(width, 0, CropProportionalScale, FocalNone)
	default:
		return newDirective(DefaultWidth, 0, CropProportionalScale, FocalNone)
	}
}

func newDirective(width, height int, crop CropStrategy, focal FocalStrategy) Directive {
	return Directive{
		Width:   width,
		Height:  height,
		Crop:    crop,
		Focal:   focal,
		Format:  Negotiation,
		Quality: Negotiation,
	}
}

// fitBox applies explicit dimensions to a default box, deriving a missing
// side from the default aspect ratio.
func fitBox(width, height, defaultWidth, defaultHeight int) (int, int) {
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, scale(width, defaultHeight, defaultWidth)
	case height > 0:
		return scale(height, defaultWidth, defaultHeight), height
	default:
		return defaultWidth, defaultHeight
	}
}

// Aspect returns Width/Height, or 0 when either side is unspecified.
func (d Directive) Aspect() float64 {
	if d.Width <= 0 || d.Height <= 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// Proportional reports whether the directive scales without cropping.
func (d Directive) Proportional() bool {
	return d.Crop == CropProportionalScale
}

// Overrides are per-zone presentation hints that take precedence over the
// purpose defaults and the caller's explicit dimensions.
type Overrides struct {
	Width       *int   `json:"width,omitempty"`
	Height      *int   `json:"height,omitempty"`
	ObjectFit   string `json:"object_fit,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o.Width == nil && o.Height == nil && o.ObjectFit == "" && o.AspectRatio == ""
}

/*
WithOverrides applies zone presentation overrides to a resolved directive.

A single overridden side keeps the directive's current aspect ratio when it
crops. An aspect ratio override recomputes the height from the width (or the
width from the height) and turns a proportional directive into a crop, since
a ratio cannot be honoured without cropping.
*/
func (d Directive) WithOverrides(o Overrides) Directive {
	aspect := d.Aspect()

	switch {
	case o.Width != nil && *o.Width > 0 && o.Height != nil && *o.Height > 0:
		d.Width, d.Height = *o.Width, *o.Height
	case o.Width != nil && *o.Width > 0:
		d.Width = *o.Width
		if aspect > 0 && !d.Proportional() {
			d.Height = derive(d.Width, 1/aspect)
		}
	case o.Height != nil && *o.Height > 0:
		d.Height = *o.Height
		if aspect > 0 && !d.Proportional() {
			d.Width = derive(d.Height, aspect)
		}
	}

	ratio, ok := ParseAspectRatio(o.AspectRatio)
	if !ok {
		return d
	}

	switch {
	case d.Width > 0 && (o.Height == nil || o.Width != nil):
		d.Height = derive(d.Width, 1/ratio)
	case d.Height > 0:
		d.Width = derive(d.Height, ratio)
	default:
		d.Width = DefaultWidth
		d.Height = derive(d.Width, 1/ratio)
	}

	if d.Proportional() {
		d.Crop, d.Focal = CropFixedFocal, FocalAllSubjects
	}
	return d
}

// Aspect ratios outside these bounds are rejected as operator typos.
const (
	MinAspectRatio = 0.01
	MaxAspectRatio = 100.0
)

// ParseAspectRatio accepts "16:9", "4/3" or a decimal such as "1.5". Both
// sides and the ratio must be finite and positive, and the ratio must lie
// within [MinAspectRatio, MaxAspectRatio].
func ParseAspectRatio(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var ratio float64
	if left, right, found := strings.Cut(strings.ReplaceAll(value, "/", ":"), ":"); found {
		w, errW := strconv.ParseFloat(strings.TrimSpace(left), 64)
		h, errH := strconv.ParseFloat(strings.TrimSpace(right), 64)
		if errW != nil || errH != nil || !finitePositive(w) || !finitePositive(h) {
			return 0, false
		}
		ratio = w / h
	} else {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		ratio = parsed
	}

	if !finitePositive(ratio) || ratio < MinAspectRatio || ratio > MaxAspectRatio {
		return 0, false
	}
	return ratio, true
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// derive scales a side by factor, never returning less than one pixel.
func derive(side int, factor float64) int {
	return max(int(math.Round(float64(side)*factor)), 1)
}

// scale returns value*numerator/denominator rounded to the nearest pixel.
func scale(value, numerator, denominator int) int {
	return int(math.Round(float64(value) * float64(numerator) / float64(denominator)))
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
