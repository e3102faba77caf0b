package api

import (
	"github.com/matzehuels/vertexflow/pkg/errors"
	"github.com/matzehuels/vertexflow/pkg/graph"
)

// =============================================================================
// Graph Document
// =============================================================================

// VertexDescription is the server-owned part of a vertex.
type VertexDescription struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Validate checks a vertex reported by the backend. Name and code belong to
// the backend, so only a missing id or text that is not UTF-8 is rejected.
func (d VertexDescription) Validate() error {
	if err := errors.ValidateVertexID(d.ID); err != nil {
		return err
	}
	if err := errors.ValidateText("vertex name", d.Name); err != nil {
		return err
	}
	return errors.ValidateText("vertex code", d.Code)
}

// Vertex converts the description to a vertex with zero position and rate.
func (d VertexDescription) Vertex() graph.Vertex {
	return graph.Vertex{ID: d.ID, Name: d.Name, Code: d.Code}
}

// DescribeVertex strips the client-owned fields from v.
func DescribeVertex(v graph.Vertex) VertexDescription {
	return VertexDescription{ID: v.ID, Name: v.Name, Code: v.Code}
}

// EdgeDescription is an edge as the backend reports it.
type EdgeDescription struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Validate checks that all three ids are well formed.
func (d EdgeDescription) Validate() error {
	if err := errors.ValidateVertexID(d.ID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge id")
	}
	if err := errors.ValidateVertexID(d.From); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s source", d.ID)
	}
	if err := errors.ValidateVertexID(d.To); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s target", d.ID)
	}
	return nil
}

// Edge converts the description to a graph edge.
func (d EdgeDescription) Edge() graph.Edge {
	return graph.Edge{ID: d.ID, From: d.From, To: d.To}
}

// GraphDocument is the whole-graph payload of GET /graph and POST /graph,
// and the export file format.
type GraphDocument struct {
	Vertices []VertexDescription `json:"vertices"`
	Edges    []EdgeDescription   `json:"edges"`
}

// Validate checks every vertex and edge and rejects duplicate vertex ids.
// Edges naming unknown vertices are not an error here; the store drops them.
func (doc GraphDocument) Validate() error {
	seen := make(map[string]bool, len(doc.Vertices))
	for _, v := range doc.Vertices {
		if err := v.Validate(); err != nil {
			return err
		}
		if seen[v.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate vertex id %q", v.ID)
		}
		seen[v.ID] = true
	}
	for _, e := range doc.Edges {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Graph converts the document to a graph with zero positions and rates.
func (doc GraphDocument) Graph() graph.Graph {
	g := graph.New()
	for _, v := range doc.Vertices {
		g.Vertices[v.ID] = v.Vertex()
	}
	g.Edges = make([]graph.Edge, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		g.Edges = append(g.Edges, e.Edge())
	}
	return g
}

// NewGraphDocument builds the wire document for g. Vertices are ordered by
// id; edges keep their order. Positions and rates are not included.
func NewGraphDocument(g graph.Graph) GraphDocument {
	doc := GraphDocument{
		Vertices: make([]VertexDescription, 0, len(g.Vertices)),
		Edges:    make([]EdgeDescription, 0, len(g.Edges)),
	}
	for _, v := range g.SortedVertices() {
		doc.Vertices = append(doc.Vertices, DescribeVertex(v))
	}
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, EdgeDescription{ID: e.ID, From: e.From, To: e.To})
	}
	return doc
}

// =============================================================================
// Requests and Responses
// =============================================================================

// CreateVertexRequest is the body of POST /vertex. A nil Name is sent as
// JSON null and lets the backend choose a name.
type CreateVertexRequest struct {
	Name *string `json:"name"`
	Code string  `json:"code"`
}

// Validate checks the optional name and the code.
func (r CreateVertexRequest) Validate() error {
	if r.Name != nil {
		if err := errors.ValidateVertexName(*r.Name, true); err != nil {
			return err
		}
	}
	return errors.ValidateCode(r.Code)
}

// CreateVertexResponse is the body returned by POST /vertex.
type CreateVertexResponse struct {
	Description VertexDescription `json:"description"`
}

// Validate checks the embedded description.
func (r CreateVertexResponse) Validate() error { return r.Description.Validate() }

// RenameRequest is the body of PUT /vertex/{id}/name.
type RenameRequest struct {
	Name string `json:"name"`
}

// Validate rejects empty and multi-line names.
func (r RenameRequest) Validate() error { return errors.ValidateVertexName(r.Name, false) }

// SetCodeRequest is the body of PUT /vertex/{id}/code.
type SetCodeRequest struct {
	Code string `json:"code"`
}

// Validate checks the code limits.
func (r SetCodeRequest) Validate() error { return errors.ValidateCode(r.Code) }

// CreateEdgeRequest is the body of POST /edge.
type CreateEdgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Validate checks both endpoint ids.
func (r CreateEdgeRequest) Validate() error {
	if err := errors.ValidateVertexID(r.Source); err != nil {
		return err
	}
	return errors.ValidateVertexID(r.Target)
}

// CreateEdgeResponse is the body returned by POST /edge.
type CreateEdgeResponse struct {
	ID string `json:"id"`
}

// Validate checks the assigned id.
func (r CreateEdgeResponse) Validate() error { return errors.ValidateVertexID(r.ID) }

// ErrorResponse is the JSON body backends return with 4xx and 5xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
