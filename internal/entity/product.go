package entity

import (
	"errors"
	"fmt"
	"time"
)

// IdentifiedObject is a single object recognized in an image, together with
// its descriptive attributes (colors, materials, styles, ...).
type IdentifiedObject struct {
	ObjectType string   `json:"object_type"`
	Attributes []string `json:"attributes"`
}

// ImageFeatures is the structured analysis result for one image. It is the
// only shape an extraction result may take; anything else fails Validate.
type ImageFeatures struct {
	MainObjects  []IdentifiedObject `json:"main_objects"`
	OverallStyle []string           `json:"overall_style"`
}

// Validate checks the ImageFeatures shape invariants: both top-level lists
// must be present (possibly empty, never nil), every object must carry a
// non-empty object_type and a non-nil attributes list.
//
// A value freshly decoded with encoding/json keeps the present/absent
// distinction: a JSON `[]` decodes to an empty non-nil slice while a missing
// or null field stays nil, so Validate doubles as schema validation for
// untrusted payloads.
func (f ImageFeatures) Validate() error {
	if f.MainObjects == nil {
		return errors.New("main_objects is missing")
	}
	if f.OverallStyle == nil {
		return errors.New("overall_style is missing")
	}
	for i, obj := range f.MainObjects {
		if obj.ObjectType == "" {
			return fmt.Errorf("main_objects[%d].object_type is empty", i)
		}
		if obj.Attributes == nil {
			return fmt.Errorf("main_objects[%d].attributes is missing", i)
		}
	}
	return nil
}

// Product mirrors the `products` PostgreSQL table schema.
// Features is stored as JSONB and is always a validated ImageFeatures value;
// a Product is only ever created with a complete extraction result attached.
type Product struct {
	ID            int64
	SourceURL     string
	ImageFilename string
	Features      ImageFeatures
	CreatedAt     time.Time
}
