package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
)

// ReadJSON decodes and validates a graph document from r.
//
// Both top-level arrays are required:
//
//	{"vertices": [...], "edges": [...]}
//
// Returns an INVALID_INPUT error if the JSON is malformed, a top-level
// array is missing, or a vertex or edge fails validation.
func ReadJSON(r io.Reader) (api.GraphDocument, error) {
	var raw struct {
		Vertices *[]api.VertexDescription `json:"vertices"`
		Edges    *[]api.EdgeDescription   `json:"edges"`
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return api.GraphDocument{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph document")
	}
	if raw.Vertices == nil {
		return api.GraphDocument{}, errors.New(errors.ErrCodeInvalidInput, "graph document has no \"vertices\" array")
	}
	if raw.Edges == nil {
		return api.GraphDocument{}, errors.New(errors.ErrCodeInvalidInput, "graph document has no \"edges\" array")
	}

	doc := api.GraphDocument{Vertices: *raw.Vertices, Edges: *raw.Edges}
	if err := doc.Validate(); err != nil {
		return api.GraphDocument{}, err
	}
	return doc, nil
}

// ImportJSON reads a graph document from the file at path.
func ImportJSON(path string) (api.GraphDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return api.GraphDocument{}, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return api.GraphDocument{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
