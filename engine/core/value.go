package core

// ValueKind tags a Value's variant. Mirrors Type's Kind plus the
// value-only variants from spec §3 (Null, Folder, Archive, Listing, File
// with payload, Array, Hash).
type ValueKind string

const (
	ValueNull      ValueKind = "null"
	ValueBoolean   ValueKind = "boolean"
	ValueInt       ValueKind = "int"
	ValueFloat     ValueKind = "float"
	ValueString    ValueKind = "string"
	ValueFile      ValueKind = "file"
	ValueFolder    ValueKind = "folder"
	ValueArchive   ValueKind = "archive"
	ValueListing   ValueKind = "listing"
	ValueArray     ValueKind = "array"
	ValueHash      ValueKind = "hash"
)

// Value is the sum described in spec §3. Only the fields relevant to Kind
// are populated; the rest are zero.
type Value struct {
	Kind ValueKind

	Boolean bool
	Int     int64
	Float   float64
	String  string

	// File
	URI            string
	Basename       string
	Contents       string
	Checksum       string
	Size           int64
	SecondaryFiles []Value

	// Listing (unmaterialized directory)
	ListingItems []Value

	// Array
	Items []Value

	// Hash: ordered name -> Value
	HashFields []HashField
}

// HashField is one ordered name/value pair of a Hash value.
type HashField struct {
	Name  string
	Value Value
}

func Null() Value            { return Value{Kind: ValueNull} }
func BoolValue(b bool) Value { return Value{Kind: ValueBoolean, Boolean: b} }
func IntValue(i int64) Value { return Value{Kind: ValueInt, Int: i} }
func FloatValue(f float64) Value {
	return Value{Kind: ValueFloat, Float: f}
}
func StringValue(s string) Value { return Value{Kind: ValueString, String: s} }

func FileValue(uri, basename string) Value {
	return Value{Kind: ValueFile, URI: uri, Basename: basename}
}

func FolderValue(uri, basename string) Value {
	return Value{Kind: ValueFolder, URI: uri, Basename: basename}
}

func ArchiveValue(uri, basename string) Value {
	return Value{Kind: ValueArchive, URI: uri, Basename: basename}
}

func ListingValue(basename string, items []Value) Value {
	return Value{Kind: ValueListing, Basename: basename, ListingItems: items}
}

func ArrayValue(items ...Value) Value {
	return Value{Kind: ValueArray, Items: items}
}

func HashValue(fields ...HashField) Value {
	return Value{Kind: ValueHash, HashFields: fields}
}

// Prop returns the value of the named Hash field, or Null if absent or v is
// not a Hash.
func (v Value) Prop(name string) Value {
	if v.Kind != ValueHash {
		return Null()
	}
	for _, f := range v.HashFields {
		if f.Name == name {
			return f.Value
		}
	}
	return Null()
}

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.Kind == ValueNull }
