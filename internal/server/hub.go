package server

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/logging"
	"github.com/muurk/gogogate/internal/protocol"
)

// Door states as the hub writes them on the wire
const (
	StateOpened    = "opened"
	StateClosed    = "closed"
	StateUndefined = "undefined"
)

// HubDoor is one door slot of an emulated hub. A door with an empty Name
// is not configured; activating it is acknowledged but changes nothing.
type HubDoor struct {
	Name        string
	Status      string
	Mode        string
	Temperature string
	Voltage     string
	// APICode is the per-door activation code on iSmartGate hubs
	APICode string
}

// HubConfig describes the emulated hub.
type HubConfig struct {
	Family   device.Family
	Username string
	Password string
	// APICode is the hub-wide activation code on GogoGate2 and the default
	// per-door code on iSmartGate
	APICode string
	Name    string
	// Doors defaults to DefaultDoors when empty
	Doors []HubDoor
}

// DefaultDoors returns the three slots a factory hub reports: two set up
// doors and one empty slot.
func DefaultDoors() []HubDoor {
	return []HubDoor{
		{Name: "My Door 1", Status: StateClosed, Mode: "garage", Temperature: "16.3", Voltage: "40"},
		{Name: "My Door 2", Status: StateOpened, Mode: "garage", Temperature: strconv.Itoa(protocol.NoneValue), Voltage: strconv.Itoa(protocol.NoneValue)},
		{Name: "", Status: StateUndefined, Mode: "garage"},
	}
}

// errorCodes maps request failures to a family's error numbers
type errorCodes struct {
	corruptedData        int
	tokenNotSet          int
	credentialsNotSet    int
	credentialsIncorrect int
	invalidOption        int
	invalidAPICode       int
	doorNotSet           int
	invalidDoor          int
}

var gogogate2Codes = errorCodes{
	corruptedData:        11,
	credentialsNotSet:    2,
	credentialsIncorrect: 1,
	invalidOption:        9,
	invalidAPICode:       18,
	doorNotSet:           8,
	invalidDoor:          5,
}

// iSmartGate hubs cannot tell corrupted data from a wrong password, since
// the key is derived from it, and have no separate invalid door code.
var ismartgateCodes = errorCodes{
	corruptedData:        11,
	tokenNotSet:          21,
	credentialsNotSet:    22,
	credentialsIncorrect: 11,
	invalidOption:        9,
	invalidAPICode:       10,
	doorNotSet:           8,
	invalidDoor:          8,
}

// Hub is an in-memory hub answering the local API at /api.php. It is safe
// for concurrent use and is meant to sit behind httptest.Server or Server.
type Hub struct {
	mu sync.Mutex

	family   device.Family
	cipher   *protocol.Cipher
	token    string
	codes    errorCodes
	username string
	password string
	apiCode  string
	name     string
	doors    []HubDoor

	requests    int
	activations int
	httpStatus  int
	rawBody     string
}

// NewHub creates a hub emulator.
func NewHub(cfg HubConfig) (*Hub, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("hub username and password must not be empty")
	}

	h := &Hub{
		family:   cfg.Family,
		username: cfg.Username,
		password: cfg.Password,
		apiCode:  cfg.APICode,
		name:     cfg.Name,
		doors:    append([]HubDoor(nil), cfg.Doors...),
	}
	if len(h.doors) == 0 {
		h.doors = DefaultDoors()
	}
	if h.apiCode == "" {
		h.apiCode = "api_code1"
	}

	var key string
	switch cfg.Family {
	case device.FamilyGogoGate2:
		key = protocol.GogoGate2Key
		h.codes = gogogate2Codes
		if h.name == "" {
			h.name = "Home"
		}
	case device.FamilyISmartGate:
		key = protocol.DeriveKey(cfg.Username, cfg.Password)
		h.token = protocol.DeriveToken(cfg.Username)
		h.codes = ismartgateCodes
		if h.name == "" {
			h.name = "Cottage"
		}
		for i := range h.doors {
			if h.doors[i].APICode == "" {
				h.doors[i].APICode = h.apiCode
			}
		}
	default:
		return nil, fmt.Errorf("unsupported device family %v", cfg.Family)
	}

	c, err := protocol.NewCipher(key)
	if err != nil {
		return nil, err
	}
	h.cipher = c
	return h, nil
}

// Family returns the emulated hub family
func (h *Hub) Family() device.Family {
	return h.family
}

// Requests returns how many API requests the hub has received.
func (h *Hub) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

// Activations returns how many activate commands toggled a door.
func (h *Hub) Activations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activations
}

// SetDoorStatus sets the wire status of a door (opened, closed or anything
// else for an unknown position).
func (h *Hub) SetDoorStatus(index int, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index >= 1 && index <= len(h.doors) {
		h.doors[index-1].Status = status
	}
}

// DoorStatus returns the wire status of a door.
func (h *Hub) DoorStatus(index int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 1 || index > len(h.doors) {
		return "", false
	}
	return h.doors[index-1].Status, true
}

// SetHTTPStatus makes every API request fail with the given status.
// Zero restores normal operation.
func (h *Hub) SetHTTPStatus(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.httpStatus = code
}

// SetRawResponse makes every API request answer with body verbatim.
// An empty body restores normal operation.
func (h *Hub) SetRawResponse(body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rawBody = body
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != protocol.APIPath {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++

	if h.httpStatus != 0 {
		w.WriteHeader(h.httpStatus)
		return
	}
	if h.rawBody != "" {
		_, _ = w.Write([]byte(h.rawBody))
		return
	}

	_, _ = w.Write([]byte(h.handle(r)))
}

// handle answers one request. The caller holds mu.
func (h *Hub) handle(r *http.Request) string {
	query := r.URL.Query()

	plain, err := h.cipher.Decrypt(query.Get("data"))
	if err != nil {
		return h.errorDocument(r, h.codes.corruptedData, "Error: corrupted data")
	}
	var payload []string
	if err := json.Unmarshal([]byte(plain), &payload); err != nil || len(payload) != 5 {
		return h.errorDocument(r, h.codes.corruptedData, "Error: corrupted data")
	}
	username, password, option, arg1, arg2 := payload[0], payload[1], payload[2], payload[3], payload[4]

	if h.family == device.FamilyISmartGate {
		token, ok := query["token"]
		if !ok {
			return h.errorDocument(r, h.codes.tokenNotSet, "Error: token not set")
		}
		if len(token) != 1 || token[0] != h.token {
			return h.errorDocument(r, h.codes.credentialsIncorrect, "Error: wrong login or password")
		}
	}

	if username == "" || password == "" {
		return h.errorDocument(r, h.codes.credentialsNotSet, "Error: login or password not set")
	}
	if !strings.EqualFold(username, h.username) || password != h.password {
		return h.errorDocument(r, h.codes.credentialsIncorrect, "Error: wrong login or password")
	}

	logging.LogHubRequest(r.RemoteAddr, option, arg1)

	switch protocol.Option(option) {
	case protocol.OptionInfo:
		return h.encrypt(h.infoDocument())
	case protocol.OptionActivate:
		return h.activate(r, arg1, arg2)
	default:
		return h.errorDocument(r, h.codes.invalidOption, "Error: invalid option")
	}
}

func (h *Hub) activate(r *http.Request, arg1, code string) string {
	index, err := strconv.Atoi(arg1)
	if err != nil || arg1 == "" || strings.ContainsAny(arg1, "+-") {
		return h.errorDocument(r, h.codes.doorNotSet, "Error: door not set")
	}
	if index < 1 || index > len(h.doors) {
		return h.errorDocument(r, h.codes.invalidDoor, "Error: invalid door")
	}
	door := &h.doors[index-1]

	want := h.apiCode
	if h.family == device.FamilyISmartGate {
		want = door.APICode
	}
	if code != want {
		return h.errorDocument(r, h.codes.invalidAPICode, "Error: invalid API code")
	}

	if door.Name != "" {
		if door.Status == StateOpened {
			door.Status = StateClosed
		} else {
			door.Status = StateOpened
		}
		h.activations++
	}
	return h.encrypt(xml.Header + "<response><result>OK</result></response>\n")
}

func (h *Hub) encrypt(doc string) string {
	return h.cipher.Encrypt(doc, protocol.NewIV())
}

// errorDocument builds an error response. Hubs send these unencrypted.
func (h *Hub) errorDocument(r *http.Request, code int, message string) string {
	logging.LogHubError(r.RemoteAddr, code, message)

	doc := errorResponse{
		Error: errorBody{Code: code, Message: fmt.Sprintf("Code: %d - %s", code, message)},
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ""
	}
	return xml.Header + string(out) + "\n"
}
