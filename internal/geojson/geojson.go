// Package geojson holds the minimal GeoJSON value types used by the
// extraction pipeline. Geometry and coordinate payloads are kept as raw
// JSON so conversion never reshapes what it does not interpret.
package geojson

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Geometry type literals this tool inspects. Everything else is carried
// opaquely.
const (
	TypeLineString = "LineString"
	TypeMultiPoint = "MultiPoint"
	TypePoint      = "Point"
)

// Geometry is a GeoJSON geometry with coordinates left unparsed.
// Relabeling a LineString as a MultiPoint only swaps Type; the
// Coordinates bytes travel verbatim from input to output.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a GeoJSON feature. Geometry stays raw, and members other
// than "geometry" and "properties" are preserved byte-for-byte in Extra
// ("type", "id", "bbox", anything foreign).
type Feature struct {
	Geometry   json.RawMessage
	Properties map[string]any
	Extra      map[string]json.RawMessage
}

// UnmarshalJSON splits a feature object into the interpreted members and
// the opaque remainder.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "geojson: decode feature")
	}

	f.Geometry = nil
	f.Properties = nil
	f.Extra = make(map[string]json.RawMessage, len(raw))

	for k, v := range raw {
		switch k {
		case "geometry":
			f.Geometry = v
		case "properties":
			if err := json.Unmarshal(v, &f.Properties); err != nil {
				return eris.Wrap(err, "geojson: decode feature properties")
			}
		default:
			f.Extra[k] = v
		}
	}
	return nil
}

// MarshalJSON reassembles the feature. A missing "type" member is filled
// in as "Feature" so emitted documents are always valid GeoJSON.
func (f Feature) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f.Extra)+3)
	for k, v := range f.Extra {
		out[k] = v
	}
	if _, ok := out["type"]; !ok {
		out["type"] = json.RawMessage(`"Feature"`)
	}

	if f.Geometry != nil {
		out["geometry"] = f.Geometry
	} else {
		out["geometry"] = json.RawMessage("null")
	}

	props, err := json.Marshal(f.Properties)
	if err != nil {
		return nil, eris.Wrap(err, "geojson: encode feature properties")
	}
	out["properties"] = props

	return json.Marshal(out)
}

// FeatureCollection is the output shape of every conversion.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns a FeatureCollection with the mandatory
// type tag set.
func NewFeatureCollection(features []Feature) *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: features}
}

// Encode serializes the collection as UTF-8 JSON. indent is the number
// of spaces per level; zero or negative produces compact output.
func (fc *FeatureCollection) Encode(indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if indent > 0 {
		enc.SetIndent("", spaces(indent))
	}
	if err := enc.Encode(fc); err != nil {
		return nil, eris.Wrap(err, "geojson: encode feature collection")
	}
	return buf.Bytes(), nil
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
