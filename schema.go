package emvex

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "emvex"

// schemaMeta holds parsed struct tag metadata, cached per TypedIndex.
type schemaMeta struct {
	typ reflect.Type // struct type for reconstruction

	// Field index in the struct for each role.
	idIdx   int
	textIdx int

	// Mapping from struct field index to metadata key.
	metaFields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts emvex struct tag metadata.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("emvex: type parameter must be a struct, not an interface")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("emvex: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1, textIdx: -1}

	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if f.Type.Kind() != reflect.String {
			return nil, fmt.Errorf("emvex: field %s must be a string, is %s", f.Name, f.Type)
		}
		if err := applyTag(meta, i, f.Name, tag); err != nil {
			return nil, err
		}
	}

	return validateSchema(meta, t)
}

// applyTag processes a single struct field's emvex tag.
func applyTag(meta *schemaMeta, idx int, fieldName, tag string) error {
	parts := strings.SplitN(tag, ",", 2)
	name := parts[0]
	modifier := ""
	if len(parts) == 2 {
		modifier = parts[1]
	}

	switch modifier {
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("emvex: duplicate id tag on field %s", fieldName)
		}
		meta.idIdx = idx
	case "text":
		if meta.textIdx != -1 {
			return fmt.Errorf("emvex: duplicate text tag on field %s", fieldName)
		}
		meta.textIdx = idx
	case "meta", "":
		// Имя без модификатора — краткая форма meta.
		meta.metaFields = append(meta.metaFields, fieldMapping{structIdx: idx, name: name})
	default:
		return fmt.Errorf("emvex: unknown modifier %q on field %s", modifier, fieldName)
	}
	return nil
}

func validateSchema(meta *schemaMeta, t reflect.Type) (*schemaMeta, error) {
	if meta.idIdx == -1 {
		return nil, fmt.Errorf("emvex: no field with `emvex:\"...,id\"` tag in %s", t)
	}
	if meta.textIdx == -1 {
		return nil, fmt.Errorf("emvex: no field with `emvex:\"...,text\"` tag in %s", t)
	}
	return meta, nil
}

// toDocument converts a typed struct to Document using schema metadata.
// Field kinds are verified at parse time, so the reads cannot panic.
func (m *schemaMeta) toDocument(item any) Document {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	doc := Document{
		ID:   v.Field(m.idIdx).String(),
		Text: v.Field(m.textIdx).String(),
	}
	if len(m.metaFields) > 0 {
		doc.Metadata = make(map[string]string, len(m.metaFields))
		for _, mf := range m.metaFields {
			doc.Metadata[mf.name] = v.Field(mf.structIdx).String()
		}
	}
	return doc
}

// fromResult converts a search result back to a typed struct using schema
// metadata.
func (m *schemaMeta) fromResult(r SearchResult) any {
	v := reflect.New(m.typ).Elem()

	v.Field(m.idIdx).SetString(r.ID)
	v.Field(m.textIdx).SetString(r.Text)
	for _, mf := range m.metaFields {
		if val, ok := r.Metadata[mf.name]; ok {
			v.Field(mf.structIdx).SetString(val)
		}
	}
	return v.Interface()
}
