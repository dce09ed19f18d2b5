package monitor

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts v to a Struct through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	var fields map[string]any
	if err := roundtrip(v, &fields); err != nil {
		return nil, err
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}

	return s, nil
}

// FromStruct decodes s into out, which must be a pointer.
func FromStruct(s *structpb.Struct, out any) error {
	return roundtrip(s.AsMap(), out)
}

// ToList converts a slice to a ListValue through its JSON form.
func ToList(v any) (*structpb.ListValue, error) {
	var items []any
	if err := roundtrip(v, &items); err != nil {
		return nil, err
	}

	l, err := structpb.NewList(items)
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	return l, nil
}

// FromList decodes l into out, which must be a pointer to a slice.
func FromList(l *structpb.ListValue, out any) error {
	return roundtrip(l.AsSlice(), out)
}

func roundtrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	return nil
}
