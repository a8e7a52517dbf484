// Package sources describes the closed set of webhook sources
// each source knows its required fields, where its dedup id lives and which fields carry text
package sources

import (
	"encoding/json"
	"strconv"
	"strings"

	"signalgate/internal/core/textnorm"
	perr "signalgate/internal/platform/errors"
)

// Kind is the wire name of a source
type Kind string

// Known kinds
const (
	MapListing       Kind = "map-listing"
	ReviewSite       Kind = "review-site"
	SocialPost       Kind = "social-post"
	ForumPost        Kind = "forum-post"
	NeighborhoodPost Kind = "neighborhood-post"
	Custom           Kind = "custom"
)

// Payload is a decoded webhook body; numbers are json.Number
type Payload = map[string]any

// Source is implemented once per Kind
type Source interface {
	Kind() Kind
	// Required lists fields that must be present and non-blank
	Required() []string
	// ExternalID returns the source scoped dedup key
	ExternalID(p Payload) (string, bool)
	// Text joins the human readable fields, cleaned
	Text(p Payload) string
}

// All lists every kind in a stable order
func All() []Kind {
	return []Kind{MapListing, ReviewSite, SocialPost, ForumPost, NeighborhoodPost, Custom}
}

// ParseKind resolves a path or config value to a Kind, case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "map_listing" {
		k = MapListing
	}
	if _, err := Lookup(k); err != nil {
		return "", err
	}
	return k, nil
}

// Lookup returns the Source for k
func Lookup(k Kind) (Source, error) {
	switch k {
	case MapListing:
		return mapListing{}, nil
	case ReviewSite:
		return reviewSite{}, nil
	case SocialPost:
		return socialPost{}, nil
	case ForumPost:
		return forumPost{}, nil
	case NeighborhoodPost:
		return neighborhoodPost{}, nil
	case Custom:
		return custom{}, nil
	}
	return nil, perr.WithField(perr.Validationf("unknown source %q", string(k)), "source")
}

// MustLookup panics on an unknown kind; for tables built from All
func MustLookup(k Kind) Source {
	s, err := Lookup(k)
	if err != nil {
		panic(err)
	}
	return s
}

type mapListing struct{}

func (mapListing) Kind() Kind                          { return MapListing }
func (mapListing) Required() []string                  { return []string{"id", "name", "location"} }
func (mapListing) ExternalID(p Payload) (string, bool) { return idField(p, "id") }
func (mapListing) Text(p Payload) string {
	parts := []string{str(p, "name"), str(p, "description")}
	if reviews, ok := p["reviews"].([]any); ok {
		for _, r := range reviews {
			switch v := r.(type) {
			case map[string]any:
				parts = append(parts, str(v, "text"))
			case string:
				parts = append(parts, v)
			}
		}
	}
	return textnorm.Join("\n", parts...)
}

type reviewSite struct{}

func (reviewSite) Kind() Kind { return ReviewSite }
func (reviewSite) Required() []string {
	return []string{"review_id", "business_name", "text"}
}
func (reviewSite) ExternalID(p Payload) (string, bool) { return idField(p, "review_id") }
func (reviewSite) Text(p Payload) string {
	return textnorm.Join("\n", str(p, "business_name"), str(p, "title"), str(p, "text"))
}

type socialPost struct{}

func (socialPost) Kind() Kind                          { return SocialPost }
func (socialPost) Required() []string                  { return []string{"id", "text"} }
func (socialPost) ExternalID(p Payload) (string, bool) { return idField(p, "id") }
func (socialPost) Text(p Payload) string               { return textnorm.Clean(str(p, "text")) }

type forumPost struct{}

func (forumPost) Kind() Kind                          { return ForumPost }
func (forumPost) Required() []string                  { return []string{"id", "body"} }
func (forumPost) ExternalID(p Payload) (string, bool) { return idField(p, "id") }
func (forumPost) Text(p Payload) string {
	return textnorm.Join("\n", str(p, "title"), str(p, "body"))
}

type neighborhoodPost struct{}

func (neighborhoodPost) Kind() Kind                          { return NeighborhoodPost }
func (neighborhoodPost) Required() []string                  { return []string{"post_id", "body"} }
func (neighborhoodPost) ExternalID(p Payload) (string, bool) { return idField(p, "post_id") }
func (neighborhoodPost) Text(p Payload) string {
	return textnorm.Join("\n", str(p, "subject"), str(p, "body"))
}

type custom struct{}

func (custom) Kind() Kind                          { return Custom }
func (custom) Required() []string                  { return []string{"id", "content"} }
func (custom) ExternalID(p Payload) (string, bool) { return idField(p, "id") }
func (custom) Text(p Payload) string {
	return textnorm.Join("\n", str(p, "title"), str(p, "content"))
}

// idField renders strings and integral numbers; anything else has no id
func idField(p Payload, key string) (string, bool) {
	var s string
	switch v := p[key].(type) {
	case string:
		s = v
	case json.Number:
		if _, err := v.Int64(); err == nil {
			s = v.String()
		} else if f, err := v.Float64(); err == nil {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		} else {
			return "", false
		}
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func str(p Payload, key string) string {
	s, _ := p[key].(string)
	return s
}
