package util

import (
	"github.com/mitchellh/mapstructure"
)

// MapToStruct decodes a props map into a struct, matching keys
// case-insensitively the way template attribute names arrive.
func MapToStruct(m map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(m)
}

// StructToMap converts a struct to a props map.
func StructToMap(in any) (map[string]any, error) {
	out := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(in); err != nil {
		return nil, err
	}
	return out, nil
}
