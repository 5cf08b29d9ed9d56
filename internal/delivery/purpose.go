// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package delivery decides how every photograph on the site is requested from the
image CDN.

Pipeline:

	purpose ──► ResolveDirective ──► Directive ──► Builder.BuildURL
	                                      │
	                                      ├──► Builder.BuildCandidateSet (srcset)
	                                      └──► Builder.BuildPlaceholder  (blur-up)

Everything in this package is pure: no I/O, no shared state, and no failure
modes. Unknown purposes and foreign sources degrade to documented defaults.
*/
package delivery

import "strings"

// Purpose is the semantic usage of an image on a page.
type Purpose string

// Recognised purposes.
const (
	PurposeHero       Purpose = "hero"
	PurposeGallery    Purpose = "gallery"
	PurposeThumbnail  Purpose = "thumbnail"
	PurposeBackground Purpose = "background"
	PurposePortfolio  Purpose = "portfolio"
	PurposePrint      Purpose = "print"
)

// purposeAliases maps the names used by page templates to canonical purposes.
var purposeAliases = map[string]Purpose{
	"banner":   PurposeHero,
	"grid":     PurposeGallery,
	"variable": PurposePortfolio,
}

// Purposes lists every recognised purpose in a stable order.
func Purposes() []Purpose {
	return []Purpose{
		PurposeHero, PurposeGallery, PurposeThumbnail,
		PurposeBackground, PurposePortfolio, PurposePrint,
	}
}

// ParsePurpose normalises a purpose name. It never fails: an unknown name is
// returned as-is and takes the fallback rule in [ResolveDirective].
func ParsePurpose(name string) Purpose {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := purposeAliases[normalized]; ok {
		return alias
	}
	return Purpose(normalized)
}

// Known reports whether p has its own row in the rule table.
func (p Purpose) Known() bool {
	switch p {
	case PurposeHero, PurposeGallery, PurposeThumbnail, PurposeBackground, PurposePortfolio, PurposePrint:
		return true
	}
	return false
}

func (p Purpose) String() string {
	return string(p)
}
