package io

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/errors"
)

// WriteJSON encodes doc as indented JSON and writes it to w.
// Nil slices are written as empty arrays.
func WriteJSON(doc api.GraphDocument, w io.Writer) error {
	if doc.Vertices == nil {
		doc.Vertices = []api.VertexDescription{}
	}
	if doc.Edges == nil {
		doc.Edges = []api.EdgeDescription{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph document")
	}
	return nil
}

// ExportJSON writes doc to a JSON file at path. The file is written to a
// temporary sibling first and renamed into place.
func ExportJSON(doc api.GraphDocument, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vertexflow-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(doc, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
