package io_test

import (
	"os"

	"github.com/matzehuels/vertexflow/pkg/api"
	"github.com/matzehuels/vertexflow/pkg/io"
)

func ExampleWriteJSON() {
	doc := api.GraphDocument{
		Vertices: []api.VertexDescription{{ID: "v1", Name: "source", Code: "emit(1)"}},
		Edges:    []api.EdgeDescription{},
	}
	_ = io.WriteJSON(doc, os.Stdout)
	// Output:
	// {
	//   "vertices": [
	//     {
	//       "id": "v1",
	//       "name": "source",
	//       "code": "emit(1)"
	//     }
	//   ],
	//   "edges": []
	// }
}
