package internal

import (
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

// tui model struct for all the components and modes
type TUIModel struct {
	textInput       textinput.Model
	messages        []Message
	notices         []string
	users           []string
	serverURL       string
	roomID          string
	username        string
	password        string
	websocketConn   *websocket.Conn
	writeMutex      sync.Mutex
	isConnected     bool
	inRoom          bool
	connectionError error
	mode            appMode
	pendingAction   actionType
}

type appMode int

const (
	modeMenu appMode = iota
	modeNamePrompt
	modeRoomPrompt
	modePasswordPrompt
	modeChat
)

type actionType int

const (
	actionNone actionType = iota
	actionJoin
	actionCreate
)

func NewTUIModel(serverURL, roomID, username string) *TUIModel {
	input := textinput.New()
	input.CharLimit = 0
	input.Blur()

	if username == "" {
		username = defaultUsername()
	}

	model := &TUIModel{
		textInput: input,
		messages:  make([]Message, 0, 64),
		serverURL: serverURL,
		roomID:    roomID,
		username:  username,
	}
	if roomID != "" {
		// a room id on the command line skips the menu and goes straight to
		// the join prompts.
		model.pendingAction = actionJoin
		model.promptName()
	}
	return model
}

// init user
func defaultUsername() string {
	if user := os.Getenv("INSTANTIFY_USER"); user != "" {
		return user
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "anon"
}

func (model *TUIModel) Init() tea.Cmd {
	if model.mode == modeNamePrompt {
		return textinput.Blink
	}
	return nil
}

func (model *TUIModel) promptName() {
	model.mode = modeNamePrompt
	model.textInput.EchoMode = textinput.EchoNormal
	model.textInput.SetValue(model.username)
	model.textInput.Placeholder = "Enter display name…"
	model.textInput.Prompt = "name> "
	model.textInput.Focus()
}

func (model *TUIModel) promptRoom() {
	model.mode = modeRoomPrompt
	model.textInput.EchoMode = textinput.EchoNormal
	model.textInput.SetValue(model.roomID)
	model.textInput.Placeholder = "Enter room id…"
	model.textInput.Prompt = "room> "
	model.textInput.Focus()
}

func (model *TUIModel) promptPassword() {
	model.mode = modePasswordPrompt
	model.textInput.EchoMode = textinput.EchoPassword
	model.textInput.SetValue("")
	model.textInput.Placeholder = "Enter room password…"
	model.textInput.Prompt = "password> "
	model.textInput.Focus()
}

func (model *TUIModel) enterChat() {
	model.mode = modeChat
	model.textInput.EchoMode = textinput.EchoNormal
	model.textInput.SetValue("")
	model.textInput.Placeholder = "Type a message…"
	model.textInput.Prompt = "> "
	model.textInput.Focus()
}

// leaveToMenu resets the room state but keeps the connection, if any.
func (model *TUIModel) leaveToMenu() {
	model.mode = modeMenu
	model.pendingAction = actionNone
	model.inRoom = false
	model.textInput.SetValue("")
	model.textInput.Blur()
	model.textInput.Placeholder = ""
	model.textInput.Prompt = ""
	model.users = nil
	model.messages = model.messages[:0]
}

// backToMenu is the failure variant: room state and the connection both go.
func (model *TUIModel) backToMenu() {
	model.leaveToMenu()
	if model.websocketConn != nil {
		_ = model.websocketConn.Close()
		model.websocketConn = nil
	}
	model.isConnected = false
}

func (model *TUIModel) addNotice(text string) {
	model.notices = append(model.notices, text)
	if len(model.notices) > 5 {
		model.notices = model.notices[len(model.notices)-5:]
	}
}
