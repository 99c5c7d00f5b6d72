package jsonx

import "github.com/goccy/go-json"

// Single switch point for the JSON implementation used by the API client and
// the local stores.
var (
	Marshal       = json.Marshal
	MarshalIndent = json.MarshalIndent
	Unmarshal     = json.Unmarshal
	Valid         = json.Valid
)
