// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package delivery

import (
	"html"
	"strconv"
	"strings"
)

// DefaultSizes is the sizes hint used when the caller gives none.
const DefaultSizes = "100vw"

// Loading is the loading-priority flag of an image element.
type Loading string

const (
	LoadingEager Loading = "eager"
	LoadingLazy  Loading = "lazy"
)

// RenderInput is everything the render layer knows about one image slot.
type RenderInput struct {
	Source      Locator
	Purpose     Purpose
	Width       int
	Height      int
	Overrides   Overrides
	Sizes       string
	Priority    bool
	Alt         string
	Breakpoints []int
}

// Markup is the contract the delivery pipeline owes the render layer.
type Markup struct {
	Src         string    `json:"src"`
	SrcSet      string    `json:"srcset,omitempty"`
	Sizes       string    `json:"sizes"`
	Loading     Loading   `json:"loading"`
	Placeholder string    `json:"placeholder"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	ObjectFit   string    `json:"object_fit,omitempty"`
	Alt         string    `json:"alt"`
	Directive   Directive `json:"directive"`
}

/*
Render resolves the directive for input and produces the complete markup.

Zone overrides win over the caller's explicit dimensions, which win over the
purpose defaults. A foreign source renders with an empty srcset and uses
itself as the placeholder.
*/
func (builder *Builder) Render(input RenderInput) Markup {
	directive := ResolveDirective(input.Purpose, input.Width, input.Height).WithOverrides(input.Overrides)

	sizes := strings.TrimSpace(input.Sizes)
	if sizes == "" {
		sizes = DefaultSizes
	}

	loading := LoadingLazy
	if input.Priority {
		loading = LoadingEager
	}

	return Markup{
		Src:         builder.BuildLocatorURL(input.Source, directive),
		SrcSet:      JoinCandidates(builder.CandidatesFor(input.Source, directive, input.Breakpoints)),
		Sizes:       sizes,
		Loading:     loading,
		Placeholder: builder.placeholderFor(input.Source),
		Width:       directive.Width,
		Height:      directive.Height,
		ObjectFit:   input.Overrides.ObjectFit,
		Alt:         input.Alt,
		Directive:   directive,
	}
}

// HTML renders the markup as an <img> element. The placeholder is exposed as
// a data attribute for the client-side lazy controller.
func (m Markup) HTML() string {
	var sb strings.Builder
	sb.WriteString("<img")
	attr(&sb, "src", m.Src)
	if m.SrcSet != "" {
		attr(&sb, "srcset", m.SrcSet)
		attr(&sb, "sizes", m.Sizes)
	}
	if m.Width > 0 {
		attr(&sb, "width", strconv.Itoa(m.Width))
	}
	if m.Height > 0 {
		attr(&sb, "height", strconv.Itoa(m.Height))
	}
	attr(&sb, "loading", string(m.Loading))
	if m.Loading == LoadingEager {
		attr(&sb, "fetchpriority", "high")
	}
	attr(&sb, "alt", m.Alt)
	if m.ObjectFit != "" {
		attr(&sb, "style", "object-fit: "+m.ObjectFit)
	}
	attr(&sb, "data-placeholder", m.Placeholder)
	sb.WriteString(">")
	return sb.String()
}

func attr(sb *strings.Builder, name, value string) {
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(html.EscapeString(value))
	sb.WriteByte('"')
}
