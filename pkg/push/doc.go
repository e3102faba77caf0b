// Package push is the client side of the backend's WebSocket push channel.
//
// The channel carries server-initiated [api.PushEvent] frames (log lines of
// the subscribed vertex and message-rate metrics for all vertices). The
// client writes a bare vertex id as a text frame to choose which vertex's
// log lines it receives; the latest subscription is re-sent after every
// reconnect.
//
//	c, err := push.Dial(ctx, "ws://localhost:8080/ws", push.WithReconnect(true))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	_ = c.Subscribe("v1")
//	for ev := range c.Events() {
//	    // apply ev
//	}
//
// Malformed or unknown frames are dropped with a debug log line.
package push
