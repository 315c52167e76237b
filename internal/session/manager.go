package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lvturner/xiaozhi-esp32-server/internal/asr"
	"github.com/lvturner/xiaozhi-esp32-server/internal/config"
	"github.com/lvturner/xiaozhi-esp32-server/internal/intent"
	"github.com/lvturner/xiaozhi-esp32-server/internal/llm"
	"github.com/lvturner/xiaozhi-esp32-server/internal/repository"
	"github.com/lvturner/xiaozhi-esp32-server/internal/tts"
)

// historyLimit is how many persisted messages feed the intent and reply
// prompts.
const historyLimit = 10

const exitIntentName = "handle_exit_intent"

// Conn is the transport-level view of one connected device. All calls
// happen on the connection's read goroutine.
type Conn interface {
	WriteJSON(v any) error
	WriteBinary(data []byte) error
	Close() error
}

// Transcriber runs one buffered utterance through the speech-to-text
// pipeline.
type Transcriber interface {
	SpeechToText(ctx context.Context, packets [][]byte, sessionID string, opts asr.Options) asr.Outcome
}

// IntentDetector classifies an utterance into an intent JSON string.
type IntentDetector interface {
	Detect(ctx context.Context, history []intent.Turn, text string) (string, error)
}

// Manager owns the dialogue flow shared by all device connections.
type Manager struct {
	cfg         *config.Config
	transcriber Transcriber
	repo        repository.Repository
	detector    IntentDetector
	completer   llm.Completer
	tts         tts.Provider
	log         *slog.Logger
}

func NewManager(cfg *config.Config, transcriber Transcriber, repo repository.Repository, detector IntentDetector, completer llm.Completer, ttsProvider tts.Provider, log *slog.Logger) *Manager {
	return &Manager{
		cfg:         cfg,
		transcriber: transcriber,
		repo:        repo,
		detector:    detector,
		completer:   completer,
		tts:         ttsProvider,
		log:         log,
	}
}

// Connection holds the protocol state of one connected device.
type Connection struct {
	manager  *Manager
	conn     Conn
	deviceID string

	mu        sync.Mutex
	sessionID string
	listening bool
	packets   [][]byte
}

func (m *Manager) NewConnection(conn Conn, deviceID string) *Connection {
	return &Connection{manager: m, conn: conn, deviceID: deviceID}
}

// HandleText processes one JSON text frame from the device.
func (c *Connection) HandleText(ctx context.Context, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.manager.log.Warn("ignoring malformed frame", "device_id", c.deviceID, "error", err)
		return
	}
	switch frame.Type {
	case frameTypeHello:
		c.handleHello()
	case frameTypeListen:
		c.handleListen(ctx, frame.State)
	default:
		c.manager.log.Warn("ignoring frame of unknown type", "device_id", c.deviceID, "type", frame.Type)
	}
}

// HandleBinary buffers one opus packet while the device is listening.
// Audio received outside a listen window is dropped.
func (c *Connection) HandleBinary(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.listening {
		c.manager.log.Debug("dropping audio outside listen window", "device_id", c.deviceID, "packet_bytes", len(data))
		return
	}
	packet := make([]byte, len(data))
	copy(packet, data)
	c.packets = append(c.packets, packet)
}

func (c *Connection) handleHello() {
	c.mu.Lock()
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	c.manager.log.Info("device session opened", "device_id", c.deviceID, "session_id", sessionID)
	c.send(helloFrame{Type: frameTypeHello, Transport: transportName, SessionID: sessionID})
}

func (c *Connection) handleListen(ctx context.Context, state string) {
	switch state {
	case listenStateStart:
		c.startListening()
	case listenStateStop:
		c.stopListening(ctx)
	default:
		c.manager.log.Warn("ignoring listen frame with unknown state", "device_id", c.deviceID, "state", state)
	}
}

func (c *Connection) startListening() {
	c.mu.Lock()
	if c.sessionID == "" {
		c.mu.Unlock()
		c.manager.log.Warn("listen start before hello", "device_id", c.deviceID)
		c.send(errorFrame{Type: frameTypeError, Message: messageHelloRequired})
		return
	}
	if c.listening {
		c.manager.log.Warn("listen start while already listening; dropping buffered audio", "device_id", c.deviceID, "session_id", c.sessionID, "dropped_packets", len(c.packets))
	}
	c.listening = true
	c.packets = nil
	c.mu.Unlock()
}

// stopListening closes the capture window and runs the utterance through
// speech-to-text. It blocks the read goroutine until the dialogue turn
// is finished, so a device cannot start the next utterance mid-turn.
func (c *Connection) stopListening(ctx context.Context) {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		c.manager.log.Warn("listen stop without listen start", "device_id", c.deviceID, "session_id", c.sessionID)
		return
	}
	c.listening = false
	packets := c.packets
	c.packets = nil
	sessionID := c.sessionID
	c.mu.Unlock()

	c.manager.log.Info("utterance captured", "device_id", c.deviceID, "session_id", sessionID, "packets", len(packets))

	opts := asr.DefaultOptions()
	opts.Language = c.manager.cfg.TranscribeLanguage
	outcome := c.manager.transcriber.SpeechToText(ctx, packets, sessionID, opts)
	switch {
	case outcome.Failed():
		c.send(errorFrame{Type: frameTypeError, SessionID: sessionID, Message: *outcome.Err})
	case !outcome.OK():
		c.send(errorFrame{Type: frameTypeError, SessionID: sessionID, Message: messageNoTranscript})
	default:
		text := *outcome.Text
		if text == "" {
			c.send(errorFrame{Type: frameTypeError, SessionID: sessionID, Message: messageNoTranscript})
			return
		}
		c.respond(ctx, sessionID, text)
	}
}

// respond runs one dialogue turn for a transcribed utterance: persist,
// detect intent, generate the reply, speak it.
func (c *Connection) respond(ctx context.Context, sessionID, text string) {
	m := c.manager
	c.send(sttFrame{Type: frameTypeSTT, SessionID: sessionID, Text: text})

	// History is loaded before the new utterance is saved, so prompts
	// always see the utterance exactly once.
	history, err := m.repo.ListRecentMessages(ctx, sessionID, historyLimit)
	if err != nil {
		m.log.Error("failed to load dialogue history", "session_id", sessionID, "error", err)
		history = nil
	}
	c.saveMessage(ctx, sessionID, repository.RoleUser, text)

	intentJSON, err := m.detector.Detect(ctx, historyTurns(history), text)
	if err != nil {
		m.log.Error("intent detection failed; continuing as chat", "session_id", sessionID, "error", err)
		intentJSON = intent.FallbackIntent
	}
	exiting := intent.FunctionName(intentJSON) == exitIntentName

	reply := messageGoodbye
	if !exiting {
		reply, err = m.completer.Complete(ctx, chatSystemPrompt, chatUserPrompt(history, text))
		if err != nil {
			m.log.Error("failed to generate reply", "session_id", sessionID, "error", err)
			c.send(errorFrame{Type: frameTypeError, SessionID: sessionID, Message: messageReplyFailed})
			return
		}
		reply = strings.TrimSpace(reply)
	}

	c.saveMessage(ctx, sessionID, repository.RoleAssistant, reply)
	c.send(replyFrame{Type: frameTypeReply, SessionID: sessionID, Text: reply})
	c.sendSpeech(ctx, sessionID, reply)

	if exiting {
		m.log.Info("device asked to end the conversation", "device_id", c.deviceID, "session_id", sessionID)
		_ = c.conn.Close()
	}
}

// saveMessage persists one dialogue message. Persistence failures are
// logged and never interrupt the turn.
func (c *Connection) saveMessage(ctx context.Context, sessionID string, role repository.Role, content string) {
	if _, err := c.manager.repo.SaveMessage(ctx, repository.SaveMessageInput{
		SessionID: sessionID,
		DeviceID:  c.deviceID,
		Role:      role,
		Content:   content,
	}); err != nil {
		c.manager.log.Error("failed to save dialogue message", "session_id", sessionID, "role", role, "error", err)
	}
}

// sendSpeech synthesizes the reply and streams the audio file to the
// device as one binary frame. The file is removed after sending.
func (c *Connection) sendSpeech(ctx context.Context, sessionID, reply string) {
	m := c.manager
	audioPath, err := m.tts.Synthesize(ctx, reply)
	if err != nil {
		m.log.Error("speech synthesis failed", "session_id", sessionID, "error", err)
		return
	}
	defer func() {
		if err := os.Remove(audioPath); err != nil {
			m.log.Warn("failed to remove synthesized audio", "path", audioPath, "error", err)
		}
	}()

	body, err := os.ReadFile(audioPath)
	if err != nil {
		m.log.Error("failed to read synthesized audio", "path", audioPath, "error", err)
		return
	}
	if err := c.conn.WriteBinary(body); err != nil {
		m.log.Error("failed to send audio to device", "device_id", c.deviceID, "session_id", sessionID, "error", err)
	}
}

func (c *Connection) send(v any) {
	if err := c.conn.WriteJSON(v); err != nil {
		c.manager.log.Error("failed to write frame to device", "device_id", c.deviceID, "error", err)
	}
}
