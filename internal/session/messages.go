package session

// Frame types of the device protocol. Text frames carry one JSON object
// with a "type" field; binary frames carry one opus packet (device to
// server) or one synthesized audio file (server to device).
const (
	frameTypeHello  = "hello"
	frameTypeListen = "listen"
	frameTypeSTT    = "stt"
	frameTypeReply  = "reply"
	frameTypeError  = "error"
)

const (
	listenStateStart = "start"
	listenStateStop  = "stop"
)

const transportName = "websocket"

// Device-visible messages.
const (
	messageHelloRequired = "hello handshake is required before listening"
	messageNoTranscript  = "no speech was captured, please try again"
	messageReplyFailed   = "failed to generate a reply"
	messageGoodbye       = "Goodbye!"
)

// inboundFrame is the envelope of a text frame sent by the device.
type inboundFrame struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
}

type helloFrame struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	SessionID string `json:"session_id"`
}

type sttFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type replyFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type errorFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}
