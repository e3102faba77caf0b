// Package io reads and writes graph documents, the editor's save format.
//
// # JSON Format
//
// A saved graph is exactly the payload of the backend's whole-graph fetch:
//
//	{
//	  "vertices": [
//	    {"id": "v1", "name": "source", "code": "emit(1)"},
//	    {"id": "v2", "name": "sink", "code": "print(msg)"}
//	  ],
//	  "edges": [
//	    {"id": "e1", "from": "v1", "to": "v2"}
//	  ]
//	}
//
// Positions and message rates are client-only and are not part of the
// document. Loading a document posts it to the backend as the replacement
// graph; the editor then recomputes the layout.
//
// # Import
//
// Use [ImportJSON] to read a document from a file path, or [ReadJSON] to
// read from any io.Reader. Both validate ids, names and code limits and
// reject duplicate vertex ids. Unknown fields are rejected so that a file
// in some other format is not silently accepted as an empty graph.
//
// # Export
//
// Use [ExportJSON] to write a document to a file, or [WriteJSON] to write
// to any io.Writer. Output is indented and ends with a newline.
package io
