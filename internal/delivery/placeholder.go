// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package delivery

// PlaceholderWidth is the width of the blur-up stand-in.
const PlaceholderWidth = 10

// placeholderDirective is the tiny proportional rendition shown blurred while
// the final image loads.
var placeholderDirective = newDirective(PlaceholderWidth, 0, CropProportionalScale, FocalNone)

// BuildPlaceholder returns a low-fidelity stand-in URL for source.
//
// Foreign sources have no cheap rendition, so the source itself is returned
// and the blur-up gives no latency benefit for them.
func (builder *Builder) BuildPlaceholder(source string) string {
	return builder.placeholderFor(ParseLocator(source))
}

func (builder *Builder) placeholderFor(locator Locator) string {
	if !builder.transformable(locator) {
		return locator.Value()
	}
	return builder.BuildLocatorURL(locator, placeholderDirective)
}
