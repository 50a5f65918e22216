package breakage

import "fmt"

// Kind represents the type of breaking API change.
type Kind string

const (
	KindParameterMoved           Kind = "parameter_moved"
	KindParameterRemoved         Kind = "parameter_removed"
	KindParameterChangedKind     Kind = "parameter_changed_kind"
	KindParameterChangedDefault  Kind = "parameter_changed_default"
	KindParameterChangedRequired Kind = "parameter_changed_required"
	KindParameterAddedRequired   Kind = "parameter_added_required"
	KindReturnChangedType        Kind = "return_changed_type"
	KindObjectRemoved            Kind = "object_removed"
	KindObjectChangedKind        Kind = "object_changed_kind"
	KindAttributeChangedType     Kind = "attribute_changed_type"
	KindAttributeChangedValue    Kind = "attribute_changed_value"
	KindClassRemovedBase         Kind = "class_removed_base"
)

type kindInfo struct {
	description string
	severity    Severity
}

// kinds is fixed at init; default severities are never reassigned.
var kinds = map[Kind]kindInfo{
	KindParameterMoved:           {"Positional parameter was moved", SeverityVeryHigh},
	KindParameterRemoved:         {"Parameter was removed", SeverityMedium},
	KindParameterChangedKind:     {"Positional parameter was changed to keyword parameter", SeverityMedium},
	KindParameterChangedDefault:  {"Parameter default was changed", SeverityVeryHigh},
	KindParameterChangedRequired: {"Parameter is now required", SeverityMedium},
	KindParameterAddedRequired:   {"Required parameter was added", SeverityHigh},
	KindReturnChangedType:        {"Return types are incompatible", SeverityMedium},
	KindObjectRemoved:            {"Public object was removed", SeverityMedium},
	KindObjectChangedKind:        {"Public object points to a different kind of object", SeverityLow},
	KindAttributeChangedType:     {"Attribute types are incompatible", SeverityVeryHigh},
	KindAttributeChangedValue:    {"Attribute value was changed", SeverityLow},
	KindClassRemovedBase:         {"Base class was removed", SeverityLow},
}

// Kinds returns every breakage kind in taxonomy order.
func Kinds() []Kind {
	return []Kind{
		KindParameterMoved,
		KindParameterRemoved,
		KindParameterChangedKind,
		KindParameterChangedDefault,
		KindParameterChangedRequired,
		KindParameterAddedRequired,
		KindReturnChangedType,
		KindObjectRemoved,
		KindObjectChangedKind,
		KindAttributeChangedType,
		KindAttributeChangedValue,
		KindClassRemovedBase,
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Description returns the human-readable meaning of k.
func (k Kind) Description() string {
	if info, ok := kinds[k]; ok {
		return info.description
	}
	return string(k)
}

// DefaultSeverity returns the severity every breakage of kind k starts from.
func (k Kind) DefaultSeverity() Severity {
	return kinds[k].severity
}

// ParseKind converts a serialized kind back to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown breakage kind %q", s)
	}
	return k, nil
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
