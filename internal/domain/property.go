package domain

// property value type
type PropertyType string

const (
	PropertyText    PropertyType = "text"
	PropertyNumber  PropertyType = "number"
	PropertyDate    PropertyType = "date"
	PropertyBoolean PropertyType = "boolean"
	PropertyEnum    PropertyType = "enum"
	PropertyPerson  PropertyType = "person"
	PropertyStatus  PropertyType = "status"
)

var propertyTypes = []PropertyType{
	PropertyText,
	PropertyNumber,
	PropertyDate,
	PropertyBoolean,
	PropertyEnum,
	PropertyPerson,
	PropertyStatus,
}

// PropertyTypes lists every known property type.
func PropertyTypes() []PropertyType {
	out := make([]PropertyType, len(propertyTypes))
	copy(out, propertyTypes)
	return out
}

func (t PropertyType) IsValid() bool {
	for _, known := range propertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChoice reports whether values are picked from a set (enum, status, person).
func (t PropertyType) IsChoice() bool {
	return t == PropertyEnum || t == PropertyStatus || t == PropertyPerson
}

type PropertyDescriptor struct {
	ID          string       `json:"id" yaml:"id"`
	DisplayName string       `json:"displayName" yaml:"display_name"`
	Type        PropertyType `json:"type" yaml:"type"`
	Sortable    bool         `json:"sortable" yaml:"sortable"`
	Filterable  bool         `json:"filterable" yaml:"filterable"`
	Group       string       `json:"group,omitempty" yaml:"group,omitempty"`
	Options     []string     `json:"options,omitempty" yaml:"options,omitempty"`
}

// Label returns the display name, falling back to the id.
func (p PropertyDescriptor) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.ID
}

// Schema resolves property ids to descriptors.
type Schema interface {
	PropertyByID(id string) (PropertyDescriptor, bool)
}
