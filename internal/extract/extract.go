// Package extract turns location-tracking export documents into GeoJSON
// feature collections. A document nests user records, each holding track
// records, each wrapping an inner feature collection; extraction flattens
// that tree into a single ordered feature list while merging user- and
// track-level metadata into every feature's properties.
package extract

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/slopeworks/geotracks/internal/geojson"
)

// Sentinel errors. Callers branch on these with eris.Is.
var (
	// ErrParse reports input that is not well-formed JSON.
	ErrParse = eris.New("extract: input is not valid JSON")

	// ErrShape reports a required container of the wrong kind. At
	// document scope this means "items" is not a list.
	ErrShape = eris.New("extract: document shape mismatch")

	// ErrEmpty reports a traversal that yielded no features. It is a
	// non-failure outcome: callers skip writing output and move on.
	ErrEmpty = eris.New("extract: no qualifying features")
)

// document is the top-level input shape. Items stays raw so a present-
// but-wrong-kind value can be told apart from an absent one.
type document struct {
	Items json.RawMessage `json:"items"`
}

// userRecord carries per-user metadata and the raw tracks list.
type userRecord struct {
	UserID      any             `json:"userId"`
	AgeGroup    any             `json:"ageGroup"`
	CountryCode any             `json:"countryCode"`
	Gender      any             `json:"gender"`
	Tracks      json.RawMessage `json:"tracks"`
}

// trackRecord carries per-track metadata and the inner feature
// collection. Summary and Resort are opaque values passed through to
// feature properties verbatim.
type trackRecord struct {
	TrackID         any             `json:"trackId"`
	Activity        any             `json:"activity"`
	LocationCountry any             `json:"locationCountry"`
	Summary         json.RawMessage `json:"summary"`
	Resort          json.RawMessage `json:"resort"`
	Track           json.RawMessage `json:"track"`
}

// trackPayload is the object under a track record's "track" key.
type trackPayload struct {
	Features json.RawMessage `json:"features"`
}

// Extract parses one export document and returns the flattened feature
// collection. Feature order follows the input traversal: user-major,
// then track-major, then feature-major. The geometry transform decides
// per feature whether it is kept and what geometry it carries.
//
// Recovery is scoped as narrowly as possible: a bad "tracks" container
// skips one user, a missing or bad inner collection skips one track,
// and only a malformed document or a non-list "items" fails the whole
// call. A traversal that keeps nothing returns ErrEmpty.
func Extract(data []byte, transform GeometryTransform) (*geojson.FeatureCollection, error) {
	log := zap.L().With(zap.String("component", "extract"))

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		if _, ok := err.(*json.SyntaxError); ok {
			return nil, eris.Wrap(ErrParse, err.Error())
		}
		// Well-formed JSON that is not an object at the top level.
		return nil, eris.Wrap(ErrShape, "document is not an object")
	}

	var items []userRecord
	if doc.Items != nil {
		if err := json.Unmarshal(doc.Items, &items); err != nil {
			return nil, eris.Wrap(ErrShape, `"items" is not a list of user records`)
		}
	}

	var out []geojson.Feature
	for _, user := range items {
		if user.Tracks == nil {
			continue
		}

		var tracks []trackRecord
		if err := json.Unmarshal(user.Tracks, &tracks); err != nil {
			log.Warn("skipping user: tracks is not a list of track records",
				zap.Any("userId", user.UserID),
			)
			continue
		}

		for _, track := range tracks {
			features, ok := trackFeatures(track)
			if !ok {
				log.Warn("skipping track: no inner feature collection",
					zap.Any("userId", user.UserID),
					zap.Any("trackId", track.TrackID),
				)
				continue
			}

			for _, feature := range features {
				geom, keep, err := transform(feature.Geometry)
				if err != nil {
					log.Warn("skipping feature: geometry not usable",
						zap.Any("userId", user.UserID),
						zap.Any("trackId", track.TrackID),
						zap.Error(err),
					)
					continue
				}
				if !keep {
					continue
				}

				out = append(out, geojson.Feature{
					Geometry:   geom,
					Properties: mergeProperties(feature.Properties, user, track),
					Extra:      copyRawMap(feature.Extra),
				})
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return geojson.NewFeatureCollection(out), nil
}

// trackFeatures unwraps a track record's inner feature collection.
// Absent "track", absent "features", or either of the wrong kind means
// the track contributes nothing.
func trackFeatures(track trackRecord) ([]geojson.Feature, bool) {
	if track.Track == nil || isNull(track.Track) {
		return nil, false
	}

	var payload trackPayload
	if err := json.Unmarshal(track.Track, &payload); err != nil {
		return nil, false
	}
	if payload.Features == nil {
		return nil, false
	}

	var features []geojson.Feature
	if err := json.Unmarshal(payload.Features, &features); err != nil {
		return nil, false
	}
	return features, true
}

// mergeProperties builds a fresh properties map for an emitted feature:
// the original properties shallow-copied, then user fields, then track
// fields. Injected keys win over pre-existing ones of the same name.
// The input map is never aliased.
func mergeProperties(orig map[string]any, user userRecord, track trackRecord) map[string]any {
	merged := make(map[string]any, len(orig)+9)
	for k, v := range orig {
		merged[k] = v
	}

	merged["userId"] = user.UserID
	merged["ageGroup"] = user.AgeGroup
	merged["countryCode"] = user.CountryCode
	merged["gender"] = user.Gender

	merged["trackId"] = track.TrackID
	merged["activity"] = track.Activity
	merged["locationCountry"] = track.LocationCountry
	merged["summary"] = track.Summary
	merged["resort"] = track.Resort

	return merged
}

func copyRawMap(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 4 && string(raw) == "null"
}
