package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func (model *TUIModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		return model.updateKey(typedMessage)

	case connectedMsg:
		model.websocketConn = typedMessage.conn
		model.isConnected = true
		model.connectionError = nil
		var action tea.Cmd
		switch model.pendingAction {
		case actionCreate:
			action = model.createRoomCmd()
		default:
			action = model.joinRoomCmd()
		}
		return model, tea.Batch(action, model.readOnceCmd())

	case incomingMsg:
		return model.updateIncoming(Envelope(typedMessage))

	case errorMsg:
		// a dead connection only ends the program when it ends an active
		// chat; anywhere else it is a notice and the menu stays up.
		model.closeConn()
		if model.mode == modeChat {
			model.connectionError = typedMessage
			return model, tea.Quit
		}
		model.addNotice(fmt.Sprintf("Connection closed: %v", typedMessage))
		return model, nil

	case connectFailedMsg:
		model.addNotice(fmt.Sprintf("Could not connect: %v", typedMessage.err))
		model.backToMenu()
		return model, nil
	}
	return model, nil
}

func (model *TUIModel) updateKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		model.closeConn()
		return model, tea.Quit
	}

	switch model.mode {
	case modeMenu:
		switch key.String() {
		case "1", "j", "J":
			model.pendingAction = actionJoin
			model.promptName()
			return model, textinput.Blink
		case "2", "c", "C":
			model.pendingAction = actionCreate
			model.promptName()
			return model, textinput.Blink
		case "q", "Q", "3", "esc":
			return model, tea.Quit
		}
		return model, nil

	case modeNamePrompt:
		switch key.Type {
		case tea.KeyEnter:
			trimmed := strings.TrimSpace(model.textInput.Value())
			if trimmed == "" {
				model.addNotice("Display name cannot be empty.")
				return model, nil
			}
			model.username = trimmed
			model.promptRoom()
			return model, nil
		case tea.KeyEsc:
			model.backToMenu()
			return model, nil
		}

	case modeRoomPrompt:
		switch key.Type {
		case tea.KeyEnter:
			trimmed := strings.TrimSpace(model.textInput.Value())
			if trimmed == "" {
				return model, nil
			}
			model.roomID = trimmed
			model.promptPassword()
			return model, nil
		case tea.KeyEsc:
			model.backToMenu()
			return model, nil
		}

	case modePasswordPrompt:
		switch key.Type {
		case tea.KeyEnter:
			model.password = model.textInput.Value()
			model.textInput.SetValue("")
			if model.isConnected {
				// the connection and its read loop survived an earlier leave;
				// go straight to the create/join request.
				if model.pendingAction == actionCreate {
					return model, model.createRoomCmd()
				}
				return model, model.joinRoomCmd()
			}
			return model, model.connectCmd()
		case tea.KeyEsc:
			model.backToMenu()
			return model, nil
		}

	case modeChat:
		switch key.Type {
		case tea.KeyEnter:
			trimmed := strings.TrimSpace(model.textInput.Value())
			if strings.HasPrefix(trimmed, "/") {
				switch strings.ToLower(trimmed) {
				case "/quit", "/exit":
					model.closeConn()
					return model, tea.Quit
				case "/leave":
					return model.leaveChat()
				}
				model.textInput.SetValue("")
				return model, nil
			}
			if trimmed != "" && model.isConnected {
				model.textInput.SetValue("")
				return model, model.sendChatCmd(trimmed)
			}
			return model, nil
		case tea.KeyEsc:
			return model.leaveChat()
		}
	}

	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(key)
	return model, cmd
}

func (model *TUIModel) updateIncoming(env Envelope) (tea.Model, tea.Cmd) {
	switch env.Event {
	case EventRoomCreated:
		// the server never auto-joins a creator; mirror the web frontend and
		// follow up with a join right away.
		model.addNotice(fmt.Sprintf("Room %s created.", model.roomID))
		return model, tea.Batch(model.joinRoomCmd(), model.readOnceCmd())

	case EventRoomJoined:
		var joined RoomJoinedEvent
		if err := json.Unmarshal(env.Data, &joined); err == nil {
			model.messages = append(model.messages[:0], joined.Messages...)
			model.users = append(model.users[:0], joined.Users...)
		}
		model.inRoom = true
		model.enterChat()

	case EventUserJoined:
		var user UserEvent
		if err := json.Unmarshal(env.Data, &user); err == nil {
			model.addUser(user.Username)
			model.addNotice(fmt.Sprintf("%s joined the room.", user.Username))
		}

	case EventUserLeft:
		var user UserEvent
		if err := json.Unmarshal(env.Data, &user); err == nil {
			model.removeUser(user.Username)
			model.addNotice(fmt.Sprintf("%s left the room.", user.Username))
		}

	case EventNewMessage:
		var msg Message
		if err := json.Unmarshal(env.Data, &msg); err == nil {
			model.messages = append(model.messages, msg)
		}

	case EventError:
		var text string
		if err := json.Unmarshal(env.Data, &text); err != nil {
			text = "Server error."
		}
		model.addNotice(text)
		if !model.inRoom {
			model.backToMenu()
			return model, nil
		}
	}
	return model, model.readOnceCmd()
}

// leaveChat tells the server we are gone and returns to the menu. The
// connection stays open with its read loop subscribed, so the next join can
// reuse it; only /quit and ctrl+c end the program.
func (model *TUIModel) leaveChat() (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if model.isConnected {
		cmd = model.leaveRoomCmd()
	}
	model.leaveToMenu()
	return model, cmd
}

func (model *TUIModel) addUser(username string) {
	for _, existing := range model.users {
		if existing == username {
			return
		}
	}
	model.users = append(model.users, username)
}

func (model *TUIModel) removeUser(username string) {
	for i, existing := range model.users {
		if existing == username {
			model.users = append(model.users[:i], model.users[i+1:]...)
			return
		}
	}
}

func (model *TUIModel) closeConn() {
	if model.websocketConn != nil {
		_ = model.websocketConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = model.websocketConn.Close()
		model.websocketConn = nil
	}
	model.isConnected = false
}
