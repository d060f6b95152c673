package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

type (
	connectedMsg     struct{ conn *websocket.Conn }
	incomingMsg      Envelope
	errorMsg         error
	connectFailedMsg struct{ err error }
)

// websocket dial. The connection rides back on connectedMsg so Update is the
// only place that ever touches model state; the dial goroutine sees nothing
// but the URL it captured.
func (model *TUIModel) connectCmd() tea.Cmd {
	serverURL := model.serverURL
	return func() tea.Msg {
		wsURL, err := validateWSURL(serverURL)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{})
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

// reads a single envelope; Update re-issues this command after every message
// so the read loop lives inside bubbletea's command cycle. The connection is
// captured here, on the program loop, not read inside the goroutine.
func (model *TUIModel) readOnceCmd() tea.Cmd {
	conn := model.websocketConn
	return func() tea.Msg {
		if conn == nil {
			return errorMsg(fmt.Errorf("websocket not connected"))
		}
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			return errorMsg(err)
		}
		if messageType != websocket.TextMessage {
			return incomingMsg(Envelope{})
		}
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return incomingMsg(Envelope{})
		}
		return incomingMsg(env)
	}
}

func (model *TUIModel) sendEnvelopeCmd(env Envelope) tea.Cmd {
	conn := model.websocketConn
	return func() tea.Msg {
		if conn == nil {
			return errorMsg(fmt.Errorf("websocket not connected"))
		}
		encoded, err := json.Marshal(env)
		if err != nil {
			return errorMsg(err)
		}
		model.writeMutex.Lock()
		err = conn.WriteMessage(websocket.TextMessage, encoded)
		model.writeMutex.Unlock()
		if err != nil {
			return errorMsg(err)
		}
		return nil
	}
}

func (model *TUIModel) createRoomCmd() tea.Cmd {
	return model.sendEnvelopeCmd(NewEnvelope(EventCreateRoom, CreateRoomRequest{
		RoomID:   model.roomID,
		Password: model.password,
		Username: model.username,
	}))
}

func (model *TUIModel) joinRoomCmd() tea.Cmd {
	return model.sendEnvelopeCmd(NewEnvelope(EventJoinRoom, JoinRoomRequest{
		RoomID:   model.roomID,
		Password: model.password,
		Username: model.username,
	}))
}

func (model *TUIModel) sendChatCmd(text string) tea.Cmd {
	return model.sendEnvelopeCmd(NewEnvelope(EventSendMessage, SendMessageRequest{
		RoomID:  model.roomID,
		Message: text,
	}))
}

func (model *TUIModel) leaveRoomCmd() tea.Cmd {
	return model.sendEnvelopeCmd(NewEnvelope(EventLeaveRoom, LeaveRoomRequest{
		RoomID:   model.roomID,
		Username: model.username,
	}))
}

// entry for bubbletea
func RunClient(serverURL, roomID, username string) error {
	program := tea.NewProgram(NewTUIModel(serverURL, roomID, username))
	_, err := program.Run()
	return err
}

func validateWSURL(base string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("invalid scheme for websocket: %s", parsed.Scheme)
	}
	return parsed.String(), nil
}
