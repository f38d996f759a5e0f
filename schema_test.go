package emvex

import (
	"testing"
)

type article struct {
	ID     string `emvex:"id,id"`
	Body   string `emvex:"body,text"`
	Lang   string `emvex:"lang"`
	Author string `emvex:"author,meta"`
}

type minimalDoc struct {
	ID   string `emvex:"id,id"`
	Text string `emvex:"text,text"`
}

func TestParseSchema_Article(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.idIdx != 0 {
		t.Errorf("idIdx = %d, want 0", meta.idIdx)
	}
	if meta.textIdx != 1 {
		t.Errorf("textIdx = %d, want 1", meta.textIdx)
	}
	if len(meta.metaFields) != 2 {
		t.Fatalf("len(metaFields) = %d, want 2", len(meta.metaFields))
	}
	// Имя без модификатора и явный meta дают одно и то же.
	if meta.metaFields[0].name != "lang" || meta.metaFields[1].name != "author" {
		t.Errorf("metaFields = %+v", meta.metaFields)
	}
}

func TestParseSchema_Minimal(t *testing.T) {
	meta, err := parseSchema[minimalDoc]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta.metaFields) != 0 {
		t.Errorf("len(metaFields) = %d, want 0", len(meta.metaFields))
	}
}

type noIDDoc struct {
	Body string `emvex:"body,text"`
}

func TestParseSchema_NoID(t *testing.T) {
	_, err := parseSchema[noIDDoc]()
	if err == nil {
		t.Fatal("expected error for struct without id tag")
	}
}

type noTextDoc struct {
	ID string `emvex:"id,id"`
}

func TestParseSchema_NoText(t *testing.T) {
	_, err := parseSchema[noTextDoc]()
	if err == nil {
		t.Fatal("expected error for struct without text tag")
	}
}

type duplicateIDDoc struct {
	ID1  string `emvex:"id1,id"`
	ID2  string `emvex:"id2,id"`
	Body string `emvex:"body,text"`
}

func TestParseSchema_DuplicateID(t *testing.T) {
	_, err := parseSchema[duplicateIDDoc]()
	if err == nil {
		t.Fatal("expected error for duplicate id tag")
	}
}

type duplicateTextDoc struct {
	ID string `emvex:"id,id"`
	A  string `emvex:"a,text"`
	B  string `emvex:"b,text"`
}

func TestParseSchema_DuplicateText(t *testing.T) {
	_, err := parseSchema[duplicateTextDoc]()
	if err == nil {
		t.Fatal("expected error for duplicate text tag")
	}
}

type unknownModifier struct {
	ID   string `emvex:"id,id"`
	Body string `emvex:"body,text"`
	Name string `emvex:"name,foobar"`
}

func TestParseSchema_UnknownModifier(t *testing.T) {
	_, err := parseSchema[unknownModifier]()
	if err == nil {
		t.Fatal("expected error for unknown modifier")
	}
}

type nonStringField struct {
	ID   string `emvex:"id,id"`
	Body string `emvex:"body,text"`
	Age  int    `emvex:"age"`
}

func TestParseSchema_NonStringField(t *testing.T) {
	_, err := parseSchema[nonStringField]()
	if err == nil {
		t.Fatal("expected error for non-string tagged field")
	}
}

func TestParseSchema_NonStruct(t *testing.T) {
	_, err := parseSchema[string]()
	if err == nil {
		t.Fatal("expected error for non-struct type")
	}
}

func TestParseSchema_Interface(t *testing.T) {
	_, err := parseSchema[any]()
	if err == nil {
		t.Fatal("expected error for interface type")
	}
}

type skipFieldDoc struct {
	ID      string `emvex:"id,id"`
	Body    string `emvex:"body,text"`
	Ignored int    `emvex:"-"`
	NoTag   int
}

func TestParseSchema_SkipFields(t *testing.T) {
	// Пропущенные поля не проверяются даже на тип.
	meta, err := parseSchema[skipFieldDoc]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta.metaFields) != 0 {
		t.Errorf("len(metaFields) = %d, want 0", len(meta.metaFields))
	}
}

func TestToDocument(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	doc := meta.toDocument(article{
		ID: "a-1", Body: "hello world", Lang: "en", Author: "kim",
	})

	if doc.ID != "a-1" {
		t.Errorf("ID = %q, want a-1", doc.ID)
	}
	if doc.Text != "hello world" {
		t.Errorf("Text = %q, want hello world", doc.Text)
	}
	if doc.Metadata["lang"] != "en" || doc.Metadata["author"] != "kim" {
		t.Errorf("Metadata = %v", doc.Metadata)
	}
}

func TestToDocument_Pointer(t *testing.T) {
	meta, err := parseSchema[minimalDoc]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	doc := meta.toDocument(&minimalDoc{ID: "m-1", Text: "hi"})
	if doc.ID != "m-1" || doc.Text != "hi" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Metadata != nil {
		t.Errorf("Metadata = %v, want nil", doc.Metadata)
	}
}

func TestFromResult(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	result := meta.fromResult(SearchResult{
		ID:       "a-1",
		Score:    0.9,
		Text:     "hello world",
		Metadata: map[string]string{"lang": "en", "author": "kim", "extra": "dropped"},
	})

	a, ok := result.(article)
	if !ok {
		t.Fatalf("type assertion failed: got %T", result)
	}
	if a.ID != "a-1" || a.Body != "hello world" {
		t.Errorf("article = %+v", a)
	}
	if a.Lang != "en" || a.Author != "kim" {
		t.Errorf("article meta = %+v", a)
	}
}

func TestToDocument_Roundtrip(t *testing.T) {
	meta, err := parseSchema[article]()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	original := article{ID: "rt-1", Body: "roundtrip", Lang: "de", Author: "li"}
	doc := meta.toDocument(original)

	restored, ok := meta.fromResult(SearchResult{
		ID: doc.ID, Text: doc.Text, Metadata: doc.Metadata,
	}).(article)
	if !ok {
		t.Fatal("type assertion failed")
	}

	if original != restored {
		t.Errorf("roundtrip mismatch:\n  original: %+v\n  restored: %+v", original, restored)
	}
}
