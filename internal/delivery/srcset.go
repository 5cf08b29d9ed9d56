// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package delivery

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// DefaultBreakpoints are the candidate widths used when the caller gives none.
var DefaultBreakpoints = []int{320, 640, 768, 1024, 1280, 1536, 1920}

// Candidate is one entry of a responsive candidate set.
type Candidate struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

// Descriptor renders the candidate as "<url> <width>w".
func (c Candidate) Descriptor() string {
	return c.URL + " " + strconv.Itoa(c.Width) + "w"
}

// NormalizeBreakpoints drops non-positive and duplicate widths and sorts the
// rest ascending. An empty result falls back to [DefaultBreakpoints].
func NormalizeBreakpoints(breakpoints []int) []int {
	cleaned := make([]int, 0, len(breakpoints))
	for _, width := range breakpoints {
		if width > 0 {
			cleaned = append(cleaned, width)
		}
	}

	if len(cleaned) == 0 {
		return slices.Clone(DefaultBreakpoints)
	}

	slices.Sort(cleaned)
	return slices.Compact(cleaned)
}

/*
BuildCandidateSet returns the srcset value for source rendered for purpose.

Parameters:
  - source: storage key or external URL
  - purpose: drives crop and the height of each candidate
  - breakpoints: candidate widths; nil uses [DefaultBreakpoints]

Returns:
  - string: "<url> <w>w, <url> <w>w, ..." ascending, or "" when source
    cannot be transformed
*/
func (builder *Builder) BuildCandidateSet(source string, purpose Purpose, breakpoints []int) string {
	return JoinCandidates(builder.Candidates(source, purpose, breakpoints))
}

// Candidates is the structured form of [Builder.BuildCandidateSet].
func (builder *Builder) Candidates(source string, purpose Purpose, breakpoints []int) []Candidate {
	return builder.CandidatesFor(ParseLocator(source), ResolveDirective(purpose, 0, 0), breakpoints)
}

// CandidatesFor builds one candidate per breakpoint from a base directive.
// Heights follow the base aspect ratio for cropping directives and are
// omitted for proportional ones.
func (builder *Builder) CandidatesFor(locator Locator, base Directive, breakpoints []int) []Candidate {
	if !builder.transformable(locator) {
		return nil
	}

	aspect := base.Aspect()
	widths := NormalizeBreakpoints(breakpoints)
	candidates := make([]Candidate, 0, len(widths))

	for _, width := range widths {
		directive := base
		directive.Width = width
		directive.Height = 0
		if aspect > 0 && !base.Proportional() {
			directive.Height = int(math.Round(float64(width) / aspect))
		}

		candidates = append(candidates, Candidate{
			URL:   builder.BuildLocatorURL(locator, directive),
			Width: width,
		})
	}

	return candidates
}

// JoinCandidates renders candidates as a srcset attribute value.
func JoinCandidates(candidates []Candidate) string {
	parts := make([]string, len(candidates))
	for i, candidate := range candidates {
		parts[i] = candidate.Descriptor()
	}
	return strings.Join(parts, ", ")
}
