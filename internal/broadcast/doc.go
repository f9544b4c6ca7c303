// Package broadcast implements the push channel fan-out using the actor
// pattern: a single goroutine owns the live connection set and the pending
// event map, so no mutexes guard them.
//
// Mutations land in the pending map with last-write-wins coalescing per
// event type. A fixed-interval flush drains the map, serializes one frame
// per event type, and hands the frames to every live connection that has
// room in its writer buffer. A separate heartbeat tick runs a two-strike
// ping/pong state machine that reaps unresponsive peers.
package broadcast
