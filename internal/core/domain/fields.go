package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field is one of the reviewer-editable group fields. The set is closed.
type Field string

const (
	FieldProduct           Field = "product"
	FieldAngle             Field = "angle"
	FieldHook              Field = "hook"
	FieldCreator           Field = "creator"
	FieldOffer             Field = "offer"
	FieldCampaign          Field = "campaign"
	FieldDate              Field = "date"
	FieldPrimaryText       Field = "primary_text"
	FieldHeadline          Field = "headline"
	FieldDescription       Field = "description"
	FieldCTA               Field = "cta"
	FieldURL               Field = "url"
	FieldCommentMediaBuyer Field = "comment_media_buyer"
	FieldCommentClient     Field = "comment_client"
)

var editableFields = []Field{
	FieldProduct,
	FieldAngle,
	FieldHook,
	FieldCreator,
	FieldOffer,
	FieldCampaign,
	FieldDate,
	FieldPrimaryText,
	FieldHeadline,
	FieldDescription,
	FieldCTA,
	FieldURL,
	FieldCommentMediaBuyer,
	FieldCommentClient,
}

// EditableFields lists the schema in display order.
func EditableFields() []Field {
	out := make([]Field, len(editableFields))
	copy(out, editableFields)
	return out
}

// ParseField validates a field name at the boundary.
func ParseField(name string) (Field, error) {
	normalized := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, f := range editableFields {
		if f == normalized {
			return f, nil
		}
	}
	return "", WrapError(ErrInvalidOperation, "parse field", fmt.Errorf("unknown field %q", name))
}

// ParseOffer accepts yes/true/1 (case-insensitive) as true; everything else is false.
func ParseOffer(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "y":
		return true
	default:
		return false
	}
}

// OfferToken reads find-side offer values. Only recognised true or false
// tokens report ok; anything else matches no group.
func OfferToken(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "y":
		return true, true
	case "no", "false", "0", "n":
		return false, true
	default:
		return false, false
	}
}

// Value renders the current value of a field as a string.
func (g AdGroup) Value(f Field) string {
	switch f {
	case FieldProduct:
		return g.Product
	case FieldAngle:
		return g.Angle
	case FieldHook:
		return g.Hook
	case FieldCreator:
		return g.Creator
	case FieldOffer:
		return strconv.FormatBool(g.Offer)
	case FieldCampaign:
		return g.Campaign
	case FieldDate:
		return g.Date
	case FieldPrimaryText:
		return g.PrimaryText
	case FieldHeadline:
		return g.Headline
	case FieldDescription:
		return g.Description
	case FieldCTA:
		return g.CTA
	case FieldURL:
		return g.URL
	case FieldCommentMediaBuyer:
		return g.CommentMediaBuyer
	case FieldCommentClient:
		return g.CommentClient
	}
	return ""
}

// Set writes a string value into a field. Offer values go through ParseOffer.
func (g *AdGroup) Set(f Field, value string) {
	switch f {
	case FieldProduct:
		g.Product = value
	case FieldAngle:
		g.Angle = value
	case FieldHook:
		g.Hook = value
	case FieldCreator:
		g.Creator = value
	case FieldOffer:
		g.Offer = ParseOffer(value)
	case FieldCampaign:
		g.Campaign = value
	case FieldDate:
		g.Date = value
	case FieldPrimaryText:
		g.PrimaryText = value
	case FieldHeadline:
		g.Headline = value
	case FieldDescription:
		g.Description = value
	case FieldCTA:
		g.CTA = value
	case FieldURL:
		g.URL = value
	case FieldCommentMediaBuyer:
		g.CommentMediaBuyer = value
	case FieldCommentClient:
		g.CommentClient = value
	}
}

// Matches reports whether the field currently equals find exactly.
// Offer compares parsed booleans so "yes" matches a true flag; an
// unrecognised find matches nothing.
func (g AdGroup) Matches(f Field, find string) bool {
	if f == FieldOffer {
		want, ok := OfferToken(find)
		return ok && g.Offer == want
	}
	return g.Value(f) == find
}

// FieldPatch is a partial update over the editable field set. Absent keys are untouched.
type FieldPatch struct {
	Values map[Field]string
}

func NewFieldPatch() FieldPatch {
	return FieldPatch{Values: map[Field]string{}}
}

func (p FieldPatch) With(f Field, value string) FieldPatch {
	if p.Values == nil {
		p.Values = map[Field]string{}
	}
	p.Values[f] = value
	return p
}

func (p FieldPatch) IsEmpty() bool {
	return len(p.Values) == 0
}

// Apply writes the patch in schema order so results never depend on map iteration.
func (p FieldPatch) Apply(g *AdGroup) {
	for _, f := range editableFields {
		if v, ok := p.Values[f]; ok {
			g.Set(f, v)
		}
	}
}

// FieldPatchFromMap validates an open key/value payload against the closed schema.
func FieldPatchFromMap(raw map[string]any) (FieldPatch, error) {
	patch := NewFieldPatch()
	var unknown []string
	for key, value := range raw {
		f, err := ParseField(key)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}
		s, err := stringify(value)
		if err != nil {
			return FieldPatch{}, WrapError(ErrInvalidInput, "field patch", fmt.Errorf("field %s: %w", key, err))
		}
		patch.Values[f] = s
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return FieldPatch{}, WrapError(ErrInvalidInput, "field patch", fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", ")))
	}
	return patch, nil
}

func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

// AssetPatch updates per-asset copy fields. An empty CustomFilename clears the override.
type AssetPatch struct {
	Headline       *string `json:"headline,omitempty"`
	Description    *string `json:"description,omitempty"`
	CustomFilename *string `json:"custom_filename,omitempty"`
}

func (p AssetPatch) IsEmpty() bool {
	return p.Headline == nil && p.Description == nil && p.CustomFilename == nil
}

func (p AssetPatch) Apply(a *ProcessedAsset) {
	if p.Headline != nil {
		a.Headline = *p.Headline
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.CustomFilename != nil {
		a.CustomFilename = strings.TrimSpace(*p.CustomFilename)
	}
}
