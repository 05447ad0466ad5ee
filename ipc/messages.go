package ipc

// Message types exchanged with the game host.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeGameState = "game_state"
	TypeActions   = "actions"
)

// HelloMessage identifies the player the host wants controlled on this
// connection.
type HelloMessage struct {
	Player string `json:"player"`
}

// AckMessage answers a hello. Version is the controller configuration in use.
type AckMessage struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
