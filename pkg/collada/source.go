package collada

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/daerig/pkg/math"
)

// sourceID strips the leading '#' of a local URI fragment.
func sourceID(uri string) string {
	return strings.TrimPrefix(uri, "#")
}

// input is a resolved <input semantic=... source=... offset=...>.
type input struct {
	semantic string
	source   string
	offset   int
}

// readInputs returns the inputs of a primitive and the number of indices
// each corner consumes.
func readInputs(el Element) (map[string]input, int, error) {
	inputs := make(map[string]input)
	stride := 0
	for _, in := range el.Children("input") {
		semantic := in.Attribute("semantic")
		offset := 0
		if raw := in.Attribute("offset"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				return nil, 0, malformed("<%s> input %s has bad offset %q", el.Name(), semantic, raw)
			}
			offset = v
		}
		if _, dup := inputs[semantic]; !dup {
			inputs[semantic] = input{semantic: semantic, source: sourceID(in.Attribute("source")), offset: offset}
		}
		if offset+1 > stride {
			stride = offset + 1
		}
	}
	if stride == 0 {
		return nil, 0, malformed("<%s> has no inputs", el.Name())
	}
	return inputs, stride, nil
}

// floatSource reads the float_array of the <source> with the given id.
// The declared count must not exceed the values present.
func floatSource(parent Element, id string) ([]float32, error) {
	src := parent.ChildWithAttribute("source", "id", id)
	if src == nil {
		return nil, malformed("source %q not found", id)
	}
	arr := src.Child("float_array")
	if arr == nil {
		return nil, malformed("source %q has no float_array", id)
	}

	values, err := parseFloats(arr.Text())
	if err != nil {
		return nil, malformed("source %q: %v", id, err)
	}
	return truncateToCount(arr, values, id)
}

// nameSource reads the Name_array (or IDREF_array) of the <source> with the given id.
func nameSource(parent Element, id string) ([]string, error) {
	src := parent.ChildWithAttribute("source", "id", id)
	if src == nil {
		return nil, malformed("source %q not found", id)
	}
	arr := src.Child("Name_array")
	if arr == nil {
		arr = src.Child("IDREF_array")
	}
	if arr == nil {
		return nil, malformed("source %q has no Name_array", id)
	}
	return truncateToCount(arr, strings.Fields(arr.Text()), id)
}

func truncateToCount[T any](arr Element, values []T, id string) ([]T, error) {
	raw := arr.Attribute("count")
	if raw == "" {
		return values, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return nil, malformed("source %q has bad count %q", id, raw)
	}
	if count > len(values) {
		return nil, malformed("source %q declares %d values, has %d", id, count, len(values))
	}
	return values[:count], nil
}

func parseFloats(text string) ([]float32, error) {
	fields := strings.Fields(text)
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

func parseInts(text string) ([]int, error) {
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseMatrix reads the 16 row-major floats of a <matrix> element.
func parseMatrix(el Element) (math.Mat4, error) {
	values, err := parseFloats(el.Text())
	if err != nil {
		return math.Mat4{}, err
	}
	if len(values) != 16 {
		return math.Mat4{}, fmt.Errorf("expected 16 values, got %d", len(values))
	}
	var rows [16]float32
	copy(rows[:], values)
	return math.FromRowMajor(rows), nil
}
