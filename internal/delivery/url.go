// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package delivery

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultHost is the public delivery host of the image CDN.
const DefaultHost = "res.cloudinary.com"

// Config is the CDN account namespace a [Builder] targets.
type Config struct {
	// Host is the delivery host. Empty means [DefaultHost].
	Host string
	// CloudName is the account namespace embedded in every URL.
	CloudName string
	// Secure selects https.
	Secure bool
}

// Builder composes CDN delivery URLs for one account.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	scheme    string
	host      string
	cloudName string
}

// NewBuilder returns a builder for the given account.
func NewBuilder(cfg Config) *Builder {
	host := strings.ToLower(strings.TrimSpace(cfg.Host))
	if host == "" {
		host = DefaultHost
	}

	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}

	return &Builder{
		scheme:    scheme,
		host:      host,
		cloudName: strings.Trim(strings.TrimSpace(cfg.CloudName), "/"),
	}
}

/*
BuildURL returns the fetchable URL for source rendered with directive.

Rules:
  - A URL already on the CDN host is returned unchanged, so feeding the
    output back in never transforms twice.
  - Any other absolute URL is returned unchanged. Foreign images are not
    ingested into the CDN namespace and cannot be transformed.
  - A storage key becomes {scheme}://{host}/{cloud}/image/upload/{params}/{key}.

The output is byte-identical for identical inputs.
*/
func (builder *Builder) BuildURL(source string, directive Directive) string {
	return builder.BuildLocatorURL(ParseLocator(source), directive)
}

// BuildLocatorURL is [Builder.BuildURL] for an already classified source.
func (builder *Builder) BuildLocatorURL(locator Locator, directive Directive) string {
	if locator.IsExternal() || locator.IsZero() {
		return locator.Value()
	}

	var sb strings.Builder
	sb.WriteString(builder.scheme)
	sb.WriteString("://")
	sb.WriteString(builder.host)
	sb.WriteByte('/')
	sb.WriteString(builder.cloudName)
	sb.WriteString("/image/upload/")
	sb.WriteString(TransformParams(directive))
	sb.WriteByte('/')
	sb.WriteString(escapeKey(locator.Value()))
	return sb.String()
}

// IsCDNURL reports whether raw is an absolute URL on this builder's host.
func (builder *Builder) IsCDNURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), builder.host)
}

// Transformable reports whether source can get responsive renditions,
// meaning it is a non-empty storage key.
func (builder *Builder) Transformable(source string) bool {
	return builder.transformable(ParseLocator(source))
}

func (builder *Builder) transformable(locator Locator) bool {
	return !locator.IsExternal() && !locator.IsZero()
}

// TransformParams renders a directive in the CDN's fixed parameter order:
// format, quality, crop, gravity, width, height. Absent parts are omitted.
func TransformParams(directive Directive) string {
	params := []string{
		"f_" + orAuto(directive.Format),
		"q_" + orAuto(directive.Quality),
	}

	if code := cropCode(directive); code != "" {
		params = append(params, "c_"+code)
	}
	if !directive.Proportional() {
		if code := focalCode(directive.Focal); code != "" {
			params = append(params, "g_"+code)
		}
	}
	if directive.Width > 0 {
		params = append(params, "w_"+strconv.Itoa(directive.Width))
	}
	if directive.Height > 0 {
		params = append(params, "h_"+strconv.Itoa(directive.Height))
	}

	return strings.Join(params, ",")
}

func cropCode(directive Directive) string {
	switch directive.Crop {
	case CropExactFill:
		return "fill"
	case CropFixedFocal:
		return "crop"
	case CropProportionalScale:
		if directive.Width > 0 && directive.Height > 0 {
			return "fit"
		}
		return "scale"
	}
	return ""
}

func focalCode(focal FocalStrategy) string {
	switch focal {
	case FocalPrimarySubject:
		return "auto:subject"
	case FocalAllSubjects:
		return "auto"
	}
	return ""
}

func orAuto(value string) string {
	if value == "" {
		return Negotiation
	}
	return value
}

// escapeKey escapes each path segment of a storage key, keeping the slashes.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
