// Package editor owns one editing session: the graph store, the pointer
// state machine and the plumbing between them and the transports.
//
// A [Session] is what a host UI talks to. It forwards pointer events to the
// state machine, turns completed link gestures into backend requests that
// run in the background, applies push events as they arrive and runs the
// layout engine on demand.
//
//	s := editor.New(client, editor.WithSubscriber(pushClient))
//	if err := s.Load(ctx); err != nil {
//	    return err
//	}
//	go s.Run(ctx, pushClient.Events())
//
//	s.HandlePointer(interaction.Down(p, interaction.Resolve(s.Store().Vertices(), p)))
//
// Failures of background requests are reported on [Session.Errors].
package editor
