package handlers

// Custom WebSocket close codes used by the presence stream.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	SlowConsumerError   = 3001 // Client fell too far behind and was dropped.
)

// PresenceSubprotocol is the websocket subprotocol spoken on /courts/ws.
const PresenceSubprotocol = "presence"
