package io

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
)

func sampleDocument() api.GraphDocument {
	return api.GraphDocument{
		Vertices: []api.VertexDescription{
			{ID: "v1", Name: "source", Code: "emit(1)"},
			{ID: "v2", Name: "sink", Code: "print(msg)\n"},
		},
		Edges: []api.EdgeDescription{{ID: "e1", From: "v1", To: "v2"}},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	doc := sampleDocument()

	if err := ExportJSON(doc, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip = %+v, want %+v", got, doc)
	}
}

func TestWriteJSONEmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(api.GraphDocument{}, &buf); err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"vertices\": [],\n  \"edges\": []\n}\n"
	if buf.String() != want {
		t.Errorf("WriteJSON = %q, want %q", buf.String(), want)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"vertices": [`},
		{"missing vertices", `{"edges": []}`},
		{"missing edges", `{"vertices": []}`},
		{"other format", `{"nodes": [{"id": "a"}], "edges": []}`},
		{"empty id", `{"vertices": [{"id": ""}], "edges": []}`},
		{"duplicate id", `{"vertices": [{"id": "a"}, {"id": "a"}], "edges": []}`},
		{"edge without id", `{"vertices": [], "edges": [{"from": "a", "to": "b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("ReadJSON error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}
