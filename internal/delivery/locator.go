// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package delivery

import (
	"encoding/json"
	"net/url"
	"strings"
)

// LocatorKind tells where an asset's bytes live.
type LocatorKind string

const (
	// LocatorStorageKey is a key in the studio's own bucket, addressable by the CDN.
	LocatorStorageKey LocatorKind = "storage_key"
	// LocatorExternal is an absolute URL outside our storage.
	LocatorExternal LocatorKind = "external"
)

// Locator is an asset source: either a storage key or an external URL.
// The kind is fixed at construction; nothing downstream inspects the value's shape.
type Locator struct {
	kind  LocatorKind
	value string
}

// StorageKey builds a storage-key locator. Leading slashes are dropped.
func StorageKey(key string) Locator {
	return Locator{kind: LocatorStorageKey, value: strings.TrimLeft(strings.TrimSpace(key), "/")}
}

// ExternalURL builds an external locator.
func ExternalURL(rawURL string) Locator {
	return Locator{kind: LocatorExternal, value: strings.TrimSpace(rawURL)}
}

// NewLocator rebuilds a locator from its persisted kind and value.
// An unknown kind is classified by [ParseLocator].
func NewLocator(kind LocatorKind, value string) Locator {
	switch kind {
	case LocatorStorageKey:
		return StorageKey(value)
	case LocatorExternal:
		return ExternalURL(value)
	default:
		return ParseLocator(value)
	}
}

// ParseLocator classifies a raw source string: absolute http(s) URLs are
// external, everything else is a storage key.
func ParseLocator(source string) Locator {
	source = strings.TrimSpace(source)
	if isAbsoluteHTTP(source) {
		return ExternalURL(source)
	}
	return StorageKey(source)
}

// Kind returns the locator kind.
func (l Locator) Kind() LocatorKind { return l.kind }

// Value returns the key or URL.
func (l Locator) Value() string { return l.value }

// IsExternal reports whether the locator is an absolute URL.
func (l Locator) IsExternal() bool { return l.kind == LocatorExternal }

// IsZero reports whether the locator holds no source at all.
func (l Locator) IsZero() bool { return l.value == "" }

func (l Locator) String() string { return l.value }

func isAbsoluteHTTP(source string) bool {
	parsed, err := url.Parse(source)
	if err != nil || parsed.Host == "" {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

type locatorJSON struct {
	Kind  LocatorKind `json:"kind"`
	Value string      `json:"value"`
}

// MarshalJSON renders the locator as {"kind": ..., "value": ...}.
func (l Locator) MarshalJSON() ([]byte, error) {
	return json.Marshal(locatorJSON{Kind: l.kind, Value: l.value})
}

// UnmarshalJSON accepts the object form or a bare string, which is classified
// with [ParseLocator].
func (l *Locator) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*l = ParseLocator(raw)
		return nil
	}

	var decoded locatorJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*l = NewLocator(decoded.Kind, decoded.Value)
	return nil
}
