package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrUnrecognizedShape is returned when a list body is neither an array nor an envelope.
var ErrUnrecognizedShape = errors.New("events: unrecognized list shape")

// DecodeList normalizes a list body. A JSON array decodes directly. A JSON object is a
// pagination envelope whose "results" array is decoded; an absent or null "results" yields
// an empty slice. Any other JSON value is ErrUnrecognizedShape.
func DecodeList[T any](body []byte) ([]T, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnrecognizedShape)
	}
	root := gjson.ParseBytes(body)
	switch {
	case root.IsArray():
		return decodeItems[T](root.Raw)
	case root.IsObject():
		results := root.Get("results")
		if !results.Exists() || results.Type == gjson.Null {
			return []T{}, nil
		}
		if !results.IsArray() {
			return nil, fmt.Errorf("%w: results is %s", ErrUnrecognizedShape, results.Type)
		}
		return decodeItems[T](results.Raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedShape, root.Type)
	}
}

func decodeItems[T any](raw string) ([]T, error) {
	out := []T{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("events: decode list: %w", err)
	}
	return out, nil
}
