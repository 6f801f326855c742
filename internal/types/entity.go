package types

import (
	"fmt"
	"strings"
)

// EntityType identifies what kind of record an Entity is
type EntityType string

// EntityType constants
const (
	EntityCompany EntityType = "company"
	EntityPerson  EntityType = "person"
	EntityOther   EntityType = "other"
)

// NormalizeEntityType maps unknown entity kinds to "other"
func NormalizeEntityType(raw string) EntityType {
	switch EntityType(strings.ToLower(strings.TrimSpace(raw))) {
	case EntityCompany:
		return EntityCompany
	case EntityPerson:
		return EntityPerson
	default:
		return EntityOther
	}
}

// Entity is a company or person record used as generation context.
// Conventional Data keys: name, email, title, linkedin_url, company_name,
// company_domain, industry, location, headquarters, size, employees,
// website, description.
type Entity struct {
	EntityType EntityType     `json:"entity_type"`
	Data       map[string]any `json:"data"`
}

// Field returns the string form of a data attribute, or "" if absent
func (e Entity) Field(key string) string {
	v, ok := e.Data[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// FirstField returns the first non-empty attribute among keys
func (e Entity) FirstField(keys ...string) string {
	for _, k := range keys {
		if v := e.Field(k); v != "" {
			return v
		}
	}
	return ""
}

// Entities is an ordered list of entity records for one signal
type Entities []Entity

// Company returns the first company entity, if any
func (es Entities) Company() (Entity, bool) {
	return es.first(EntityCompany)
}

// Person returns the first person entity, if any
func (es Entities) Person() (Entity, bool) {
	return es.first(EntityPerson)
}

func (es Entities) first(kind EntityType) (Entity, bool) {
	for _, e := range es {
		if e.EntityType == kind {
			return e, true
		}
	}
	return Entity{}, false
}

// ResolveCompanyName picks the display company name for a signal.
// Precedence: company entity name, company entity company_name, person
// entity company_name, then UnknownCompany.
func ResolveCompanyName(entities Entities) string {
	if company, ok := entities.Company(); ok {
		if name := company.FirstField("name", "company_name"); name != "" {
			return name
		}
	}
	if person, ok := entities.Person(); ok {
		if name := person.Field("company_name"); name != "" {
			return name
		}
	}
	return UnknownCompany
}
