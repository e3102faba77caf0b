// Package api defines the wire contract between the editor and its
// backend, and the HTTP transport that speaks it.
//
// # Wire schemas
//
// Every request and response body has an explicit Go type. Responses are
// checked at the boundary with Validate before anything reaches the store:
//
//	GET    /graph              -> GraphDocument
//	POST   /graph              GraphDocument -> GraphDocument
//	POST   /vertex             CreateVertexRequest -> CreateVertexResponse
//	DELETE /vertex/{id}        -> status only
//	PUT    /vertex/{id}/name   RenameRequest -> VertexDescription
//	PUT    /vertex/{id}/code   SetCodeRequest -> VertexDescription
//	POST   /edge               CreateEdgeRequest -> CreateEdgeResponse
//	GET    /ws                 push channel, see [PushEvent]
//
// # Push events
//
// [PushEvent] is a tagged union over "log" and "metrics" payloads.
// [DecodePushEvent] rejects unknown types and malformed payloads with an
// INVALID_EVENT error; consumers drop such events.
//
// # Client
//
// [Client] issues the requests above. Only [Client.FetchGraph] is retried;
// mutations are sent at most once and their failure is returned to the
// caller with a code from pkg/errors.
package api
