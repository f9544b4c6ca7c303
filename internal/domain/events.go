package domain

// Event type values known to the push channel. Clients receive all types and
// filter on their side.
const (
	EventRaceUpdated        = "race:updated"
	EventLeaderboardUpdated = "leaderboard:updated"
	EventTeamUpdated        = "team:updated"
)

// Event is a domain event emitted by a store mutation. The store returns
// events alongside its result; the boundary layer forwards them to the hub
// and the snapshot writer.
type Event struct {
	Type string
	Data any
}

// Message is the wire envelope of the push channel. Every frame is a JSON
// object of this shape.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
