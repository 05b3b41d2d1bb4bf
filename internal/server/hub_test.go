package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/protocol"
)

// call signs cmd with codec and returns the raw response body
func call(t *testing.T, ts *httptest.Server, codec *protocol.Codec, cmd protocol.Command) string {
	t.Helper()

	q := url.Values{}
	for k, v := range codec.Sign(cmd).Params() {
		q.Set(k, v)
	}
	resp, err := http.Get(ts.URL + protocol.APIPath + "?" + q.Encode())
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func newTestHub(t *testing.T, family device.Family) (*Hub, *httptest.Server) {
	t.Helper()
	hub, err := NewHub(HubConfig{Family: family, Username: "admin", Password: "password"})
	if err != nil {
		t.Fatalf("NewHub() error = %v", err)
	}
	ts := httptest.NewServer(hub)
	t.Cleanup(ts.Close)
	return hub, ts
}

func newCodec(t *testing.T, family device.Family, user, password string) (*protocol.Codec, device.Credentials) {
	t.Helper()
	creds := device.Credentials{Host: "hub", Username: user, Password: password}
	codec, err := protocol.NewCodec(family, creds)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return codec, creds
}

func TestNewHub_Validation(t *testing.T) {
	if _, err := NewHub(HubConfig{Family: device.FamilyGogoGate2, Username: "admin"}); err == nil {
		t.Error("missing password should be rejected")
	}
	if _, err := NewHub(HubConfig{Family: device.FamilyUnknown, Username: "a", Password: "b"}); err == nil {
		t.Error("unknown family should be rejected")
	}
}

func TestHub_Info(t *testing.T) {
	for _, family := range []device.Family{device.FamilyGogoGate2, device.FamilyISmartGate} {
		t.Run(family.String(), func(t *testing.T) {
			hub, ts := newTestHub(t, family)
			codec, creds := newCodec(t, family, "admin", "password")

			info, err := codec.DecodeInfo(call(t, ts, codec, protocol.InfoCommand(creds)))
			if err != nil {
				t.Fatalf("DecodeInfo() error = %v", err)
			}
			if info.Family != family {
				t.Errorf("Family = %v, want %v", info.Family, family)
			}
			if len(info.Doors) != 3 {
				t.Fatalf("len(Doors) = %d, want 3", len(info.Doors))
			}
			if info.Doors[0].Status != device.StatusClosed || info.Doors[1].Status != device.StatusOpen {
				t.Errorf("door statuses = %v, %v", info.Doors[0].Status, info.Doors[1].Status)
			}
			if info.Doors[2].Configured() {
				t.Error("door 3 should not be configured")
			}
			if info.Doors[1].Temperature != nil {
				t.Error("sentinel temperature should be absent")
			}
			if info.ActivationCode(1) != "api_code1" {
				t.Errorf("ActivationCode(1) = %q", info.ActivationCode(1))
			}
			if hub.Requests() != 1 {
				t.Errorf("Requests() = %d, want 1", hub.Requests())
			}
		})
	}
}

func TestHub_ActivateToggles(t *testing.T) {
	hub, ts := newTestHub(t, device.FamilyISmartGate)
	codec, creds := newCodec(t, device.FamilyISmartGate, "admin", "password")

	result, err := codec.DecodeAck(call(t, ts, codec, protocol.ActivateCommand(creds, 1, "api_code1")), 1, device.StatusOpen)
	if err != nil {
		t.Fatalf("DecodeAck() error = %v", err)
	}
	if result.Outcome != device.OutcomeActivated {
		t.Errorf("Outcome = %v", result.Outcome)
	}
	if status, _ := hub.DoorStatus(1); status != StateOpened {
		t.Errorf("door 1 = %q, want opened", status)
	}
	if hub.Activations() != 1 {
		t.Errorf("Activations() = %d, want 1", hub.Activations())
	}
}

func TestHub_ActivateUnconfiguredDoor(t *testing.T) {
	hub, ts := newTestHub(t, device.FamilyGogoGate2)
	codec, creds := newCodec(t, device.FamilyGogoGate2, "admin", "password")

	if _, err := codec.DecodeAck(call(t, ts, codec, protocol.ActivateCommand(creds, 3, "api_code1")), 3, device.StatusUnknown); err != nil {
		t.Fatalf("DecodeAck() error = %v", err)
	}
	if status, _ := hub.DoorStatus(3); status != StateUndefined {
		t.Errorf("door 3 = %q, should be unchanged", status)
	}
	if hub.Activations() != 0 {
		t.Errorf("Activations() = %d, want 0", hub.Activations())
	}
}

func TestHub_ErrorDocuments(t *testing.T) {
	tests := []struct {
		name     string
		family   device.Family
		user     string
		password string
		cmd      func(device.Credentials) protocol.Command
		want     protocol.Reason
	}{
		{"gg2 wrong password", device.FamilyGogoGate2, "admin", "nope", protocol.InfoCommand, protocol.ReasonCredentialsIncorrect},
		{"isg wrong password", device.FamilyISmartGate, "admin", "nope", protocol.InfoCommand, protocol.ReasonCredentialsIncorrect},
		{"isg wrong user", device.FamilyISmartGate, "other", "password", protocol.InfoCommand, protocol.ReasonCredentialsIncorrect},
		{"gg2 bad api code", device.FamilyGogoGate2, "admin", "password",
			func(c device.Credentials) protocol.Command { return protocol.ActivateCommand(c, 1, "wrong") },
			protocol.ReasonInvalidAPICode},
		{"isg bad api code", device.FamilyISmartGate, "admin", "password",
			func(c device.Credentials) protocol.Command { return protocol.ActivateCommand(c, 1, "") },
			protocol.ReasonInvalidAPICode},
		{"gg2 invalid door", device.FamilyGogoGate2, "admin", "password",
			func(c device.Credentials) protocol.Command { return protocol.ActivateCommand(c, 9, "api_code1") },
			protocol.ReasonInvalidDoor},
		{"gg2 invalid option", device.FamilyGogoGate2, "admin", "password",
			func(c device.Credentials) protocol.Command {
				cmd := protocol.InfoCommand(c)
				cmd.Option = "reboot"
				return cmd
			},
			protocol.ReasonInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestHub(t, tt.family)
			codec, creds := newCodec(t, tt.family, tt.user, tt.password)

			body := call(t, ts, codec, tt.cmd(creds))
			if !strings.Contains(body, "<errorcode>") {
				t.Fatalf("body = %q, want a plaintext error document", body)
			}

			_, err := codec.DecodeInfo(body)
			var devErr *protocol.DeviceError
			if !errors.As(err, &devErr) {
				t.Fatalf("DecodeInfo() error = %v, want *DeviceError", err)
			}
			if devErr.Reason() != tt.want {
				t.Errorf("Reason() = %v, want %v", devErr.Reason(), tt.want)
			}
		})
	}
}

func TestHub_MissingToken(t *testing.T) {
	_, ts := newTestHub(t, device.FamilyISmartGate)
	codec, creds := newCodec(t, device.FamilyISmartGate, "admin", "password")

	token := codec.Sign(protocol.InfoCommand(creds))
	resp, err := http.Get(ts.URL + protocol.APIPath + "?data=" + url.QueryEscape(token.Data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	_, err = codec.DecodeInfo(string(body))
	var devErr *protocol.DeviceError
	if !errors.As(err, &devErr) || devErr.Reason() != protocol.ReasonTokenNotSet {
		t.Errorf("DecodeInfo() error = %v, want token not set", err)
	}
}

func TestHub_Overrides(t *testing.T) {
	hub, ts := newTestHub(t, device.FamilyGogoGate2)

	hub.SetHTTPStatus(http.StatusServiceUnavailable)
	resp, err := http.Get(ts.URL + protocol.APIPath)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}

	hub.SetHTTPStatus(0)
	hub.SetRawResponse("not encrypted")
	resp, err = http.Get(ts.URL + protocol.APIPath)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "not encrypted" {
		t.Errorf("body = %q", body)
	}

	if hub.Requests() != 2 {
		t.Errorf("Requests() = %d, want 2", hub.Requests())
	}
}

func TestHub_UnknownPath(t *testing.T) {
	_, ts := newTestHub(t, device.FamilyGogoGate2)

	resp, err := http.Get(ts.URL + "/index.php")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv, err := New(&Config{
		Host:     "127.0.0.1",
		Port:     0,
		Family:   device.FamilyGogoGate2,
		Username: "admin",
		Password: "password",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr().String() + protocol.APIPath)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if srv.Hub().Requests() != 1 {
		t.Errorf("Requests() = %d, want 1", srv.Hub().Requests())
	}
}
