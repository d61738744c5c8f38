package extract

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/slopeworks/geotracks/internal/geojson"
)

// GeometryTransform decides, per feature, whether the feature is kept
// and what geometry it carries. It receives the raw geometry bytes and
// returns the (possibly rewritten) geometry, a keep flag, and an error
// for geometry that cannot be interpreted at all.
type GeometryTransform func(raw json.RawMessage) (json.RawMessage, bool, error)

// Identity keeps every feature and passes its geometry through
// untouched, byte for byte.
func Identity(raw json.RawMessage) (json.RawMessage, bool, error) {
	return raw, true, nil
}

// LineStringToMultiPoint keeps only features whose geometry type is
// exactly "LineString" and relabels the geometry as a MultiPoint over
// the same coordinate sequence. This is a pure type swap: LineString
// and MultiPoint share the positions-list coordinate shape, so the
// coordinate bytes are reused verbatim.
func LineStringToMultiPoint(raw json.RawMessage) (json.RawMessage, bool, error) {
	if raw == nil || isNull(raw) {
		return nil, false, nil
	}

	var geom geojson.Geometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil, false, eris.Wrap(err, "extract: decode geometry")
	}
	if geom.Type != geojson.TypeLineString {
		return nil, false, nil
	}

	coords := geom.Coordinates
	if coords == nil {
		coords = json.RawMessage("[]")
	}

	out, err := json.Marshal(geojson.Geometry{
		Type:        geojson.TypeMultiPoint,
		Coordinates: coords,
	})
	if err != nil {
		return nil, false, eris.Wrap(err, "extract: encode multipoint geometry")
	}
	return out, true, nil
}
