package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// For header attributes (kind-tagged values and keyword maps) JSON is stable
// and portable. If you need custom encoding, implement Codec and pass it where
// supported.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for newly-created container files.
//
// Existing files are self-describing (they store the codec name in their
// superblock) and are opened by selecting the codec by name.
var Default Codec = GoJSON{}
