package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

var knownFields sync.Map // reflect.Type -> lowercased field names

// splitExtra returns the top-level keys of data that do not map to a field of
// v. Keys match case-insensitively, as encoding/json does when decoding.
func splitExtra(data []byte, v any) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	known := fieldNames(reflect.TypeOf(v))
	for k := range all {
		if _, ok := known[strings.ToLower(k)]; ok {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// mergeExtra adds extra keys to an encoded object without overriding
// modeled fields.
func mergeExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

func fieldNames(t reflect.Type) map[string]struct{} {
	if cached, ok := knownFields.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[strings.ToLower(name)] = struct{}{}
	}
	knownFields.Store(t, names)
	return names
}
