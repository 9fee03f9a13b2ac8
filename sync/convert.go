// ABOUTME: Converts a Google contact into typed Notion page properties
// ABOUTME: Applies primary-entry selection, the required-title rule, and the join key
package sync

import (
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/kaonmir/Nocioun-sub000/models"
	"google.golang.org/api/people/v1"
)

// JoinKeyProperty is the reserved Notion property holding the Google
// resource name verbatim. It is the join key for find-by-identity lookups
// and is never subject to the field mapping.
const JoinKeyProperty = "google_resource_name"

// PrimaryPolicy decides which entry of a multi-valued field wins when the
// source marks none of them as primary.
type PrimaryPolicy int

const (
	// PrimaryOrFirst falls back to the first entry carrying a value and
	// flags the fallback in the conversion result.
	PrimaryOrFirst PrimaryPolicy = iota
	// PrimaryOnly treats a field with no primary entry as absent.
	PrimaryOnly
)

// Conversion is the outcome of converting one contact: the property set to
// write, an optional external icon, and the fields that resolved through
// the first-entry fallback rather than an explicit primary marker.
type Conversion struct {
	Properties       notionapi.Properties
	Icon             *notionapi.Icon
	PrimaryFallbacks []string
}

// Converter maps contacts to Notion properties using a field mapping set.
type Converter struct {
	mappings []models.FieldMapping
	policy   PrimaryPolicy
}

// NewConverter creates a converter with the PrimaryOrFirst policy.
func NewConverter(mappings []models.FieldMapping) *Converter {
	return &Converter{mappings: mappings, policy: PrimaryOrFirst}
}

// NewConverterWithPolicy creates a converter with an explicit policy.
func NewConverterWithPolicy(mappings []models.FieldMapping, policy PrimaryPolicy) *Converter {
	return &Converter{mappings: mappings, policy: policy}
}

// Convert produces the Notion properties for one contact. The title field
// must resolve to a non-empty value; conversion fails with a
// ValidationError before emitting any property otherwise. Fields whose
// mapping has no destination name are omitted entirely, never emitted as
// nulls, so unmapped Notion properties are left untouched on update.
func (c *Converter) Convert(person *people.Person) (*Conversion, error) {
	conv := &Conversion{Properties: notionapi.Properties{}}

	displayName, _ := c.pickName(person, conv)
	if displayName == "" {
		return nil, &ValidationError{
			ResourceName: person.ResourceName,
			Field:        models.FieldDisplayName,
			Reason:       "contact has no display name",
		}
	}

	for _, mapping := range c.mappings {
		if mapping.Name == "" {
			continue
		}

		switch mapping.Key {
		case models.FieldDisplayName:
			conv.Properties[mapping.Name] = notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: richText(displayName),
			}
		case models.FieldEmail:
			if value, ok := c.pickEmail(person, conv); ok {
				conv.Properties[mapping.Name] = notionapi.EmailProperty{
					Type:  notionapi.PropertyTypeEmail,
					Email: value,
				}
			}
		case models.FieldPhone:
			if value, ok := c.pickPhone(person, conv); ok {
				conv.Properties[mapping.Name] = notionapi.PhoneNumberProperty{
					Type:        notionapi.PropertyTypePhoneNumber,
					PhoneNumber: value,
				}
			}
		case models.FieldOrganization:
			if org, ok := c.pickOrganization(person, conv); ok && org.Name != "" {
				conv.Properties[mapping.Name] = notionapi.SelectProperty{
					Type:   notionapi.PropertyTypeSelect,
					Select: notionapi.Option{Name: org.Name},
				}
			}
		case models.FieldJobTitle:
			if org, ok := c.pickOrganization(person, conv); ok && org.Title != "" {
				conv.Properties[mapping.Name] = notionapi.RichTextProperty{
					Type:     notionapi.PropertyTypeRichText,
					RichText: richText(org.Title),
				}
			}
		case models.FieldAddress:
			if value, ok := c.pickAddress(person, conv); ok {
				conv.Properties[mapping.Name] = notionapi.RichTextProperty{
					Type:     notionapi.PropertyTypeRichText,
					RichText: richText(value),
				}
			}
		case models.FieldBirthday:
			if date, ok := c.pickBirthday(person, conv); ok {
				conv.Properties[mapping.Name] = notionapi.DateProperty{
					Type: notionapi.PropertyTypeDate,
					Date: &notionapi.DateObject{Start: date},
				}
			}
		case models.FieldBiography:
			if value, ok := c.pickBiography(person, conv); ok {
				conv.Properties[mapping.Name] = notionapi.RichTextProperty{
					Type:     notionapi.PropertyTypeRichText,
					RichText: richText(value),
				}
			}
		}
	}

	conv.Properties[JoinKeyProperty] = notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: richText(person.ResourceName),
	}

	if url, ok := c.pickPhoto(person, conv); ok {
		conv.Icon = &notionapi.Icon{
			Type:     notionapi.FileTypeExternal,
			External: &notionapi.FileObject{URL: url},
		}
	}

	return conv, nil
}

// pickEntry selects one entry from a multi-valued field: the entry marked
// primary wins; without one, PrimaryOrFirst takes the first entry carrying
// a value and records the fallback.
func pickEntry[T any](conv *Conversion, field string, policy PrimaryPolicy, entries []T,
	meta func(T) *people.FieldMetadata, hasValue func(T) bool) (T, bool) {
	var zero T

	for _, entry := range entries {
		if m := meta(entry); m != nil && m.Primary && hasValue(entry) {
			return entry, true
		}
	}

	if policy == PrimaryOnly {
		return zero, false
	}

	for _, entry := range entries {
		if hasValue(entry) {
			conv.PrimaryFallbacks = append(conv.PrimaryFallbacks, field)
			return entry, true
		}
	}

	return zero, false
}

func (c *Converter) pickName(person *people.Person, conv *Conversion) (string, bool) {
	name, ok := pickEntry(conv, models.FieldDisplayName, c.policy, person.Names,
		func(n *people.Name) *people.FieldMetadata { return n.Metadata },
		func(n *people.Name) bool { return n.DisplayName != "" })
	if !ok {
		return "", false
	}
	return name.DisplayName, true
}

func (c *Converter) pickEmail(person *people.Person, conv *Conversion) (string, bool) {
	email, ok := pickEntry(conv, models.FieldEmail, c.policy, person.EmailAddresses,
		func(e *people.EmailAddress) *people.FieldMetadata { return e.Metadata },
		func(e *people.EmailAddress) bool { return e.Value != "" })
	if !ok {
		return "", false
	}
	return email.Value, true
}

func (c *Converter) pickPhone(person *people.Person, conv *Conversion) (string, bool) {
	phone, ok := pickEntry(conv, models.FieldPhone, c.policy, person.PhoneNumbers,
		func(p *people.PhoneNumber) *people.FieldMetadata { return p.Metadata },
		func(p *people.PhoneNumber) bool { return p.Value != "" })
	if !ok {
		return "", false
	}
	return phone.Value, true
}

func (c *Converter) pickOrganization(person *people.Person, conv *Conversion) (*people.Organization, bool) {
	return pickEntry(conv, models.FieldOrganization, c.policy, person.Organizations,
		func(o *people.Organization) *people.FieldMetadata { return o.Metadata },
		func(o *people.Organization) bool { return o.Name != "" || o.Title != "" })
}

func (c *Converter) pickAddress(person *people.Person, conv *Conversion) (string, bool) {
	addr, ok := pickEntry(conv, models.FieldAddress, c.policy, person.Addresses,
		func(a *people.Address) *people.FieldMetadata { return a.Metadata },
		func(a *people.Address) bool { return a.FormattedValue != "" })
	if !ok {
		return "", false
	}
	return addr.FormattedValue, true
}

// pickBirthday resolves a birthday to a Notion date only when the full
// year/month/day triple is present. Partial dates (a birthday without a
// year is common) produce no value rather than a malformed date string.
func (c *Converter) pickBirthday(person *people.Person, conv *Conversion) (*notionapi.Date, bool) {
	birthday, ok := pickEntry(conv, models.FieldBirthday, c.policy, person.Birthdays,
		func(b *people.Birthday) *people.FieldMetadata { return b.Metadata },
		func(b *people.Birthday) bool { return b.Date != nil })
	if !ok {
		return nil, false
	}

	d := birthday.Date
	if d.Year == 0 || d.Month == 0 || d.Day == 0 {
		return nil, false
	}

	date := notionapi.Date(time.Date(int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC))
	return &date, true
}

func (c *Converter) pickBiography(person *people.Person, conv *Conversion) (string, bool) {
	bio, ok := pickEntry(conv, models.FieldBiography, c.policy, person.Biographies,
		func(b *people.Biography) *people.FieldMetadata { return b.Metadata },
		func(b *people.Biography) bool { return b.Value != "" })
	if !ok {
		return "", false
	}
	return bio.Value, true
}

func (c *Converter) pickPhoto(person *people.Person, conv *Conversion) (string, bool) {
	photo, ok := pickEntry(conv, "photo", c.policy, person.Photos,
		func(p *people.Photo) *people.FieldMetadata { return p.Metadata },
		func(p *people.Photo) bool { return p.Url != "" })
	if !ok {
		return "", false
	}
	return photo.Url, true
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}

// ValidateMappings checks a mapping set before a run: known keys, known
// types, and exactly one title mapping on the display name field.
func ValidateMappings(mappings []models.FieldMapping) error {
	validKeys := map[string]bool{
		models.FieldDisplayName:  true,
		models.FieldEmail:        true,
		models.FieldPhone:        true,
		models.FieldOrganization: true,
		models.FieldJobTitle:     true,
		models.FieldAddress:      true,
		models.FieldBirthday:     true,
		models.FieldBiography:    true,
	}
	validTypes := map[string]bool{
		"title": true, "rich_text": true, "email": true,
		"phone_number": true, "date": true, "url": true, "select": true,
	}

	titles := 0
	for _, m := range mappings {
		if !validKeys[m.Key] {
			return fmt.Errorf("unknown mapping key %q", m.Key)
		}
		if m.Name == "" {
			continue
		}
		if !validTypes[m.Type] {
			return fmt.Errorf("unknown mapping type %q for key %q", m.Type, m.Key)
		}
		if m.Name == JoinKeyProperty {
			return fmt.Errorf("property name %q is reserved for the join key", JoinKeyProperty)
		}
		if m.Key == models.FieldDisplayName {
			if m.Type != "title" {
				return fmt.Errorf("display_name must map to a title property, got %q", m.Type)
			}
			titles++
		}
	}
	if titles != 1 {
		return fmt.Errorf("mapping must route display_name to exactly one title property")
	}

	return nil
}

// DefaultMappings is the built-in field mapping used when no mapping file
// is supplied.
func DefaultMappings() []models.FieldMapping {
	return []models.FieldMapping{
		{Key: models.FieldDisplayName, Name: "Name", Type: "title"},
		{Key: models.FieldEmail, Name: "Email", Type: "email"},
		{Key: models.FieldPhone, Name: "Phone", Type: "phone_number"},
		{Key: models.FieldOrganization, Name: "Company", Type: "select"},
		{Key: models.FieldJobTitle, Name: "Job Title", Type: "rich_text"},
		{Key: models.FieldBirthday, Name: "Birthday", Type: "date"},
		{Key: models.FieldBiography, Name: "Notes", Type: "rich_text"},
	}
}
