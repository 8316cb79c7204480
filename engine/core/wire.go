package core

import "fmt"

// WireOptions controls the platform JSON dialect a Value/Type pair
// (de)serializes to (§4.A, §6). LinkKey generalizes the DNAnexus-specific
// "$dnanexus_link" wrapper; FlatFilesSuffix generalizes "___dxfiles", the
// sibling field a composite parameter's file references are collected
// into (Open Question OQ-1, SPEC_FULL.md §9).
type WireOptions struct {
	LinkKey         string
	FlatFilesSuffix string
}

// link renders a file/directory/archive reference the way the platform
// expects: {"<LinkKey>": uri}.
func (o WireOptions) link(uri string) map[string]any {
	return map[string]any{o.LinkKey: uri}
}

// ToJSON renders v (native JSON types only) per §6: primitives map
// directly, File/Directory/Archive become a link object, Array/Hash
// recurse. ToJSON never performs the composite two-field wrapping — call
// WrapComposite for a Parameter whose Type is composite (§4.A: "a type is
// native iff it maps to a single platform primitive").
func ToJSON(v Value, opts WireOptions) any {
	switch v.Kind {
	case ValueNull:
		return nil
	case ValueBoolean:
		return v.Boolean
	case ValueInt:
		return v.Int
	case ValueFloat:
		return v.Float
	case ValueString:
		return v.String
	case ValueFile:
		return fileJSON(v, opts)
	case ValueFolder, ValueArchive:
		return opts.link(v.URI)
	case ValueListing:
		items := make([]any, len(v.ListingItems))
		for i, it := range v.ListingItems {
			items[i] = ToJSON(it, opts)
		}
		return map[string]any{"basename": v.Basename, "listing": items}
	case ValueArray:
		items := make([]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = ToJSON(it, opts)
		}
		return items
	case ValueHash:
		out := make(map[string]any, len(v.HashFields))
		for _, f := range v.HashFields {
			out[f.Name] = ToJSON(f.Value, opts)
		}
		return out
	default:
		return nil
	}
}

func fileJSON(v Value, opts WireOptions) map[string]any {
	m := opts.link(v.URI)
	if v.Basename != "" {
		m["basename"] = v.Basename
	}
	for _, sf := range v.SecondaryFiles {
		if _, ok := m["secondaryFiles"]; !ok {
			m["secondaryFiles"] = []any{}
		}
		m["secondaryFiles"] = append(m["secondaryFiles"].([]any), ToJSON(sf, opts))
	}
	return m
}

// WrapComposite renders v (of composite Type t) as the two sibling fields
// described in §6: the wrapped hash payload (`{"___": <wrapped JSON>}`)
// and the flat array of every file link reachable inside it. Callers emit
// these under "name" and "name"+opts.FlatFilesSuffix respectively.
func WrapComposite(v Value, opts WireOptions) (wrapped map[string]any, flatFiles []any) {
	return map[string]any{"___": ToJSON(v, opts)}, CollectFileLinks(v, opts)
}

// CollectFileLinks walks v and returns the link object for every File value
// reachable inside it (through Array/Hash/Listing/secondaryFiles nesting),
// in encounter order — the payload the platform uses to stage/close files
// for a composite parameter (§6).
func CollectFileLinks(v Value, opts WireOptions) []any {
	var out []any
	collectFileLinks(v, opts, &out)
	return out
}

func collectFileLinks(v Value, opts WireOptions, out *[]any) {
	switch v.Kind {
	case ValueFile:
		*out = append(*out, fileJSON(v, opts))
		for _, sf := range v.SecondaryFiles {
			collectFileLinks(sf, opts, out)
		}
	case ValueListing:
		for _, it := range v.ListingItems {
			collectFileLinks(it, opts, out)
		}
	case ValueArray:
		for _, it := range v.Items {
			collectFileLinks(it, opts, out)
		}
	case ValueHash:
		for _, f := range v.HashFields {
			collectFileLinks(f.Value, opts, out)
		}
	}
}

// FromJSON is the reverse of ToJSON, type-directed since the wire form
// alone cannot distinguish e.g. a file link from a plain hash.
func FromJSON(raw any, t Type, opts WireOptions) (Value, error) {
	if raw == nil {
		if t.IsOptional() || t.Kind == KindAny {
			return Null(), nil
		}
		return Value{}, NewError(fmt.Errorf("null does not fit type %s", TypeKey(t)), ErrorTypeError, nil)
	}
	switch t.Kind {
	case KindOptional:
		return FromJSON(raw, derefType(t.Elem), opts)
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, wireTypeErr(raw, t)
		}
		return BoolValue(b), nil
	case KindInt:
		n, err := asInt64(raw)
		if err != nil {
			return Value{}, wireTypeErr(raw, t)
		}
		return IntValue(n), nil
	case KindFloat:
		f, err := asFloat64(raw)
		if err != nil {
			return Value{}, wireTypeErr(raw, t)
		}
		return FloatValue(f), nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, wireTypeErr(raw, t)
		}
		return StringValue(s), nil
	case KindFile:
		return fileFromJSON(raw, opts)
	case KindDirectory:
		m, ok := raw.(map[string]any)
		if !ok {
			return Value{}, wireTypeErr(raw, t)
		}
		uri, _ := m[opts.LinkKey].(string)
		basename, _ := m["basename"].(string)
		return FolderValue(uri, basename), nil
	case KindArray:
		items, ok := raw.([]any)
		if !ok {
			return Value{}, wireTypeErr(raw, t)
		}
		out := make([]Value, len(items))
		for i, it := range items {
			ev, err := FromJSON(it, derefType(t.Elem), opts)
			if err != nil {
				return Value{}, err
			}
			out[i] = ev
		}
		if t.NonEmpty && len(out) == 0 {
			return Value{}, NewError(
				fmt.Errorf("empty array does not fit non-empty array type"), ErrorTypeError, nil,
			)
		}
		return ArrayValue(out...), nil
	case KindSchema:
		m, ok := raw.(map[string]any)
		if !ok {
			return Value{}, wireTypeErr(raw, t)
		}
		fields := make([]HashField, 0, len(t.Fields))
		for _, f := range t.Fields {
			raw, present := m[f.Name]
			if !present {
				if f.Type.IsOptional() {
					continue
				}
				return Value{}, NewError(
					fmt.Errorf("missing required field %q for schema %q", f.Name, t.Name),
					ErrorTypeError,
					map[string]any{"field": f.Name, "schema": t.Name},
				)
			}
			fv, err := FromJSON(raw, f.Type, opts)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, HashField{Name: f.Name, Value: fv})
		}
		return HashValue(fields...), nil
	case KindEnum:
		s, ok := raw.(string)
		if !ok || !containsString(t.Symbols, s) {
			return Value{}, wireTypeErr(raw, t)
		}
		return StringValue(s), nil
	case KindMulti:
		for _, m := range t.Members {
			if v, err := FromJSON(raw, m, opts); err == nil {
				return v, nil
			}
		}
		return Value{}, wireTypeErr(raw, t)
	case KindAny:
		return anyFromJSON(raw), nil
	default:
		return Value{}, wireTypeErr(raw, t)
	}
}

func fileFromJSON(raw any, opts WireOptions) (Value, error) {
	switch r := raw.(type) {
	case string:
		return FileValue(r, ""), nil
	case map[string]any:
		uri, _ := r[opts.LinkKey].(string)
		basename, _ := r["basename"].(string)
		return FileValue(uri, basename), nil
	default:
		return Value{}, NewError(fmt.Errorf("unrecognized file wire shape %T", raw), ErrorTypeError, nil)
	}
}

// anyFromJSON interprets raw with no type hint, used only for Kind == Any.
func anyFromJSON(raw any) Value {
	switch r := raw.(type) {
	case bool:
		return BoolValue(r)
	case string:
		return StringValue(r)
	case float64:
		if r == float64(int64(r)) {
			return IntValue(int64(r))
		}
		return FloatValue(r)
	case []any:
		items := make([]Value, len(r))
		for i, it := range r {
			items[i] = anyFromJSON(it)
		}
		return ArrayValue(items...)
	case map[string]any:
		fields := make([]HashField, 0, len(r))
		for k, v := range r {
			fields = append(fields, HashField{Name: k, Value: anyFromJSON(v)})
		}
		return HashValue(fields...)
	default:
		return Null()
	}
}

func asInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("not an integer: %T", raw)
	}
}

func asFloat64(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}

func wireTypeErr(raw any, t Type) error {
	return NewError(
		fmt.Errorf("wire value of Go type %T does not fit %s", raw, TypeKey(t)),
		ErrorTypeError,
		map[string]any{"type": TypeKey(t)},
	)
}
