// Package pkg holds the public libraries of vertexflow.
//
// vertexflow edits dataflow graphs: vertices carry code that a backend
// runs, edges carry messages from the out side of one vertex to the in
// side of another. The libraries split into four areas:
//
//  1. Model: [graph] (vertices, edges, merge rules), [geometry] (anchors
//     and hit tests) and [layout] (layered placement)
//  2. Interaction: [interaction] (pointer state machine) and [editor]
//     (a session tying the machine to the store)
//  3. Sync: [store] (local graph reconciled with the backend), [api]
//     (wire schemas and HTTP client), [push] (WebSocket events) and
//     [positions] (client-side coordinates across sessions)
//  4. Support: [errors], [httputil], [io], [observability],
//     [render/nodelink] and [buildinfo]
//
// # Quick Start
//
//	client, _ := api.NewClient("http://localhost:8080")
//	events, _ := push.Dial(ctx, "ws://localhost:8080/ws", push.WithReconnect(true))
//	s := editor.New(client, editor.WithSubscriber(events))
//	if err := s.Load(ctx); err != nil {
//	    return err
//	}
//	go s.Run(ctx, events.Events())
//
//	s.PointerAt(geometry.Point{X: 120, Y: 110}) // select and start a drag
//	s.HandlePointer(interaction.Move(geometry.Point{X: 300, Y: 200}))
//	s.HandlePointer(interaction.Up())
//	s.Format()
//
// [graph]: github.com/matzehuels/vertexflow/pkg/graph
// [geometry]: github.com/matzehuels/vertexflow/pkg/geometry
// [layout]: github.com/matzehuels/vertexflow/pkg/layout
// [interaction]: github.com/matzehuels/vertexflow/pkg/interaction
// [editor]: github.com/matzehuels/vertexflow/pkg/editor
// [store]: github.com/matzehuels/vertexflow/pkg/store
// [api]: github.com/matzehuels/vertexflow/pkg/api
// [push]: github.com/matzehuels/vertexflow/pkg/push
// [positions]: github.com/matzehuels/vertexflow/pkg/positions
// [errors]: github.com/matzehuels/vertexflow/pkg/errors
// [httputil]: github.com/matzehuels/vertexflow/pkg/httputil
// [io]: github.com/matzehuels/vertexflow/pkg/io
// [observability]: github.com/matzehuels/vertexflow/pkg/observability
// [render/nodelink]: github.com/matzehuels/vertexflow/pkg/render/nodelink
// [buildinfo]: github.com/matzehuels/vertexflow/pkg/buildinfo
package pkg
