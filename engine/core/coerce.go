package core

import "fmt"

// Fits implements the value-to-type fitting rules from spec §4.A, used by
// both the translator (default/const-fold lifting) and (conceptually) the
// runtime executor. It reports whether v can be used where a value of type
// t is expected, without performing any conversion.
func Fits(v Value, t Type) bool {
	return fits(v, t)
}

func fits(v Value, t Type) bool {
	if v.Kind == ValueNull {
		return t.IsOptional() || t.Kind == KindAny
	}
	if t.Kind == KindAny {
		return true
	}
	switch t.Kind {
	case KindOptional:
		return fits(v, derefType(t.Elem))
	case KindBoolean:
		return v.Kind == ValueBoolean
	case KindInt:
		return v.Kind == ValueInt
	case KindFloat:
		// Numeric widening: Int -> Float allowed.
		return v.Kind == ValueFloat || v.Kind == ValueInt
	case KindString:
		return v.Kind == ValueString
	case KindFile:
		// String -> File allowed (URI interpretation).
		return v.Kind == ValueFile || v.Kind == ValueString
	case KindDirectory:
		return v.Kind == ValueFolder || v.Kind == ValueListing || v.Kind == ValueString
	case KindArray:
		if v.Kind != ValueArray {
			return false
		}
		if t.NonEmpty && len(v.Items) == 0 {
			return false
		}
		for _, item := range v.Items {
			if !fits(item, derefType(t.Elem)) {
				return false
			}
		}
		return true
	case KindMulti:
		for _, m := range t.Members {
			if fits(v, m) {
				return true
			}
		}
		return false
	case KindEnum:
		return v.Kind == ValueString && containsString(t.Symbols, v.String)
	case KindSchema:
		if v.Kind != ValueHash {
			return false
		}
		return hashFitsSchema(v, t)
	default:
		return false
	}
}

func hashFitsSchema(v Value, t Type) bool {
	allowed := make(map[string]Type, len(t.Fields))
	for _, f := range t.Fields {
		allowed[f.Name] = f.Type
	}
	for _, hf := range v.HashFields {
		ft, ok := allowed[hf.Name]
		if !ok {
			return false
		}
		if !fits(hf.Value, ft) {
			return false
		}
	}
	for _, f := range t.Fields {
		if !f.Type.IsOptional() && !hashHasField(v, f.Name) {
			return false
		}
	}
	return true
}

func hashHasField(v Value, name string) bool {
	for _, f := range v.HashFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// Coerce converts v into a Value that fits t exactly, applying the widening
// rules from spec §4.A (Int -> Float, String -> File/Directory URI
// interpretation). Coerce is idempotent whenever the first application
// succeeds: Coerce(Coerce(v, t), t) == Coerce(v, t) (Testable property 5).
func Coerce(v Value, t Type) (Value, error) {
	if v.Kind == ValueNull {
		if t.IsOptional() || t.Kind == KindAny {
			return Null(), nil
		}
		return Value{}, NewError(fmt.Errorf("null does not fit type %s", TypeKey(t)), ErrorTypeError, nil)
	}
	if t.Kind == KindAny {
		return v, nil
	}
	switch t.Kind {
	case KindOptional:
		return Coerce(v, derefType(t.Elem))
	case KindFloat:
		switch v.Kind {
		case ValueFloat:
			return v, nil
		case ValueInt:
			return FloatValue(float64(v.Int)), nil
		}
	case KindInt:
		if v.Kind == ValueInt {
			return v, nil
		}
		if v.Kind == ValueFloat && v.Float == float64(int64(v.Float)) {
			return IntValue(int64(v.Float)), nil
		}
	case KindFile:
		switch v.Kind {
		case ValueFile:
			return v, nil
		case ValueString:
			return FileValue(v.String, ""), nil
		}
	case KindDirectory:
		switch v.Kind {
		case ValueFolder, ValueListing:
			return v, nil
		case ValueString:
			return FolderValue(v.String, ""), nil
		}
	case KindArray:
		if v.Kind == ValueArray {
			if t.NonEmpty && len(v.Items) == 0 {
				break
			}
			out := make([]Value, len(v.Items))
			for i, item := range v.Items {
				cv, err := Coerce(item, derefType(t.Elem))
				if err != nil {
					return Value{}, err
				}
				out[i] = cv
			}
			return ArrayValue(out...), nil
		}
	case KindMulti:
		for _, m := range t.Members {
			if fits(v, m) {
				return Coerce(v, m)
			}
		}
	case KindSchema:
		if v.Kind == ValueHash && hashFitsSchema(v, t) {
			return v, nil
		}
	default:
		if fits(v, t) {
			return v, nil
		}
	}
	return Value{}, NewError(
		fmt.Errorf("value of kind %s does not fit type %s", v.Kind, TypeKey(t)),
		ErrorTypeError,
		map[string]any{"valueKind": string(v.Kind), "type": TypeKey(t)},
	)
}
