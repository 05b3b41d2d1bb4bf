package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/protocol"
	"github.com/muurk/gogogate/internal/server"
	"github.com/muurk/gogogate/internal/transport"
)

// countingTransport records calls and answers with a fixed result
type countingTransport struct {
	calls int32
	body  string
	err   error
}

func (c *countingTransport) Send(context.Context, string, map[string]string) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.body, c.err
}

func (c *countingTransport) Calls() int {
	return int(atomic.LoadInt32(&c.calls))
}

// blockingTransport waits until the request is cancelled
type blockingTransport struct {
	started chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, _ string, _ map[string]string) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", transport.Classify(ctx.Err(), "")
}

func testCreds(host string) device.Credentials {
	return device.Credentials{Host: host, Username: "admin", Password: "password"}
}

// newHubClient starts an emulated hub and a client talking to it over HTTP
func newHubClient(t *testing.T, family device.Family) (*server.Hub, *Client) {
	t.Helper()

	hub, err := server.NewHub(server.HubConfig{Family: family, Username: "admin", Password: "password"})
	if err != nil {
		t.Fatalf("NewHub() error = %v", err)
	}
	ts := httptest.NewServer(hub)
	t.Cleanup(ts.Close)

	tr, err := transport.NewHTTPTransport(transport.WithTimeout(5 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(testCreds(ts.URL), family, tr)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return hub, c
}

var families = []device.Family{device.FamilyGogoGate2, device.FamilyISmartGate}

func TestNew_Validation(t *testing.T) {
	tr := &countingTransport{}

	tests := []struct {
		name   string
		creds  device.Credentials
		family device.Family
		t      transport.Transport
	}{
		{"missing host", device.Credentials{Username: "a", Password: "b"}, device.FamilyGogoGate2, tr},
		{"missing password", device.Credentials{Host: "h", Username: "a"}, device.FamilyGogoGate2, tr},
		{"unknown family", testCreds("h"), device.FamilyUnknown, tr},
		{"nil transport", testCreds("h"), device.FamilyGogoGate2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.creds, tt.family, tt.t)
			if !IsInvalidArgument(err) {
				t.Errorf("New() error = %v, want invalid argument", err)
			}
		})
	}
}

func TestClient_Info(t *testing.T) {
	for _, family := range families {
		t.Run(family.String(), func(t *testing.T) {
			_, c := newHubClient(t, family)

			info, err := c.Info(context.Background())
			if err != nil {
				t.Fatalf("Info() error = %v", err)
			}
			if info.Family != family {
				t.Errorf("Family = %v, want %v", info.Family, family)
			}
			if len(info.ConfiguredDoors()) != 2 {
				t.Errorf("configured doors = %d, want 2", len(info.ConfiguredDoors()))
			}
		})
	}
}

func TestClient_InfoAsync(t *testing.T) {
	_, c := newHubClient(t, device.FamilyISmartGate)

	info, err := c.InfoAsync(context.Background()).Await(context.Background())
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if d, ok := info.Door(1); !ok || d.Status != device.StatusClosed {
		t.Errorf("door 1 = %+v, %v", d, ok)
	}
}

func TestClient_OpenAndClose(t *testing.T) {
	for _, family := range families {
		t.Run(family.String(), func(t *testing.T) {
			hub, c := newHubClient(t, family)
			ctx := context.Background()

			result, err := c.OpenDoor(ctx, 1)
			if err != nil {
				t.Fatalf("OpenDoor() error = %v", err)
			}
			if result.Outcome != device.OutcomeActivated || result.Status != device.StatusOpen {
				t.Errorf("OpenDoor() = %+v", result)
			}
			if status, _ := hub.DoorStatus(1); status != server.StateOpened {
				t.Errorf("hub door 1 = %q, want opened", status)
			}

			result, err = c.CloseDoor(ctx, 1)
			if err != nil {
				t.Fatalf("CloseDoor() error = %v", err)
			}
			if result.Outcome != device.OutcomeActivated || result.Status != device.StatusClosed {
				t.Errorf("CloseDoor() = %+v", result)
			}
			if hub.Activations() != 2 {
				t.Errorf("Activations() = %d, want 2", hub.Activations())
			}
		})
	}
}

func TestClient_AlreadyInState(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyGogoGate2)
	ctx := context.Background()

	// door 1 starts closed, door 2 open
	result, err := c.CloseDoor(ctx, 1)
	if err != nil {
		t.Fatalf("CloseDoor() error = %v", err)
	}
	if result.Outcome != device.OutcomeAlreadyInState || result.Status != device.StatusClosed {
		t.Errorf("CloseDoor() = %+v, want already closed", result)
	}

	result, err = c.OpenDoorAsync(ctx, 2).Await(ctx)
	if err != nil {
		t.Fatalf("OpenDoorAsync() error = %v", err)
	}
	if result.Outcome != device.OutcomeAlreadyInState || result.Changed() {
		t.Errorf("OpenDoorAsync() = %+v, want already open", result)
	}

	if hub.Activations() != 0 {
		t.Errorf("Activations() = %d, want 0", hub.Activations())
	}
	if hub.Requests() != 2 {
		t.Errorf("Requests() = %d, want 2 (info only)", hub.Requests())
	}
}

func TestClient_InvalidDoorMakesNoCall(t *testing.T) {
	tr := &countingTransport{}
	c, err := New(testCreds("10.0.0.2"), device.FamilyGogoGate2, tr)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, door := range []int{0, -1} {
		if _, err := c.OpenDoor(ctx, door); !IsInvalidArgument(err) {
			t.Errorf("OpenDoor(%d) error = %v, want invalid argument", door, err)
		}
		if _, err := c.CloseDoor(ctx, door); !IsInvalidArgument(err) {
			t.Errorf("CloseDoor(%d) error = %v, want invalid argument", door, err)
		}
		if _, err := c.OpenDoorAsync(ctx, door).Await(ctx); !IsInvalidArgument(err) {
			t.Errorf("OpenDoorAsync(%d) error = %v, want invalid argument", door, err)
		}
		if _, err := c.Activate(ctx, door); !IsInvalidArgument(err) {
			t.Errorf("Activate(%d) error = %v, want invalid argument", door, err)
		}
		if _, err := c.DoorSensor(ctx, door); !IsInvalidArgument(err) {
			t.Errorf("DoorSensor(%d) error = %v, want invalid argument", door, err)
		}
	}

	if tr.Calls() != 0 {
		t.Errorf("transport calls = %d, want 0", tr.Calls())
	}
}

func TestClient_HTTPErrorIsTransport(t *testing.T) {
	stub := &countingTransport{err: transport.NewHTTPError(http.StatusInternalServerError, "10.0.0.2")}
	c, err := New(testCreds("10.0.0.2"), device.FamilyISmartGate, stub)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_, syncErr := c.Info(ctx)
	_, asyncErr := c.InfoAsync(ctx).Await(ctx)

	for name, err := range map[string]error{"blocking": syncErr, "async": asyncErr} {
		if !IsTransport(err) {
			t.Errorf("%s: error = %v, want transport error", name, err)
		}
		if !transport.IsHTTPError(err) {
			t.Errorf("%s: error = %v, want *transport.Error with HTTP status in chain", name, err)
		}
	}
	if syncErr.Error() != asyncErr.Error() {
		t.Errorf("blocking and async errors differ:\n%v\n%v", syncErr, asyncErr)
	}
}

func TestClient_HubHTTPStatus(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyGogoGate2)
	hub.SetHTTPStatus(http.StatusBadGateway)

	_, err := c.OpenDoor(context.Background(), 1)
	if !IsTransport(err) || !transport.IsHTTPError(err) {
		t.Errorf("OpenDoor() error = %v, want HTTP transport error", err)
	}
}

func TestClient_PlainTransportErrorIsClassified(t *testing.T) {
	stub := &countingTransport{err: errors.New("socket closed")}
	c, _ := New(testCreds("10.0.0.2"), device.FamilyGogoGate2, stub)

	_, err := c.Info(context.Background())
	var tErr *transport.Error
	if !IsTransport(err) || !errors.As(err, &tErr) {
		t.Errorf("Info() error = %v, want *transport.Error in chain", err)
	}
}

func TestClient_CancelAsync(t *testing.T) {
	for _, family := range families {
		t.Run(family.String(), func(t *testing.T) {
			blocking := &blockingTransport{started: make(chan struct{})}
			c, err := New(testCreds("10.0.0.2"), family, blocking)
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			future := c.InfoAsync(ctx)
			<-blocking.started
			cancel()

			info, err := future.Await(context.Background())
			if info != nil {
				t.Errorf("Await() returned partial info %+v", info)
			}
			if !IsTransport(err) || !errors.Is(err, context.Canceled) {
				t.Errorf("Await() error = %v, want cancelled transport error", err)
			}
		})
	}
}

func TestClient_AwaitContextCancelsRequest(t *testing.T) {
	blocking := &blockingTransport{started: make(chan struct{})}
	c, _ := New(testCreds("10.0.0.2"), device.FamilyGogoGate2, blocking)

	future := c.InfoAsync(context.Background())
	<-blocking.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	info, err := future.Await(ctx)
	if info != nil {
		t.Error("Await() returned partial info")
	}
	if !transport.IsTimeout(err) {
		t.Errorf("Await() error = %v, want timeout", err)
	}

	select {
	case <-future.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("request was not cancelled")
	}
}

func TestClient_NextCallAfterCancelIsClean(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyISmartGate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.InfoAsync(ctx).Await(context.Background()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Await() error = %v, want cancellation", err)
	}

	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() after cancel error = %v", err)
	}
	if len(info.Doors) != 3 {
		t.Errorf("len(Doors) = %d, want 3", len(info.Doors))
	}
	if hub.Requests() != 1 {
		t.Errorf("Requests() = %d, want 1", hub.Requests())
	}
}

func TestClient_UnknownStatus(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyISmartGate)
	hub.SetDoorStatus(1, "half-open")

	info, err := c.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if d, _ := info.Door(1); d.Status != device.StatusUnknown {
		t.Errorf("door 1 status = %v, want unknown", d.Status)
	}

	_, err = c.OpenDoor(context.Background(), 1)
	if !IsProtocol(err) || !errors.Is(err, ErrDoorStatusUnknown) {
		t.Errorf("OpenDoor() error = %v, want unknown status", err)
	}

	result, err := c.Activate(context.Background(), 1)
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if result.Outcome != device.OutcomeActivated || result.Status != device.StatusUnknown {
		t.Errorf("Activate() = %+v", result)
	}
}

func TestClient_UnconfiguredDoor(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyGogoGate2)

	_, err := c.OpenDoor(context.Background(), 3)
	if !IsProtocol(err) || !errors.Is(err, ErrDoorNotConfigured) {
		t.Errorf("OpenDoor() error = %v, want not configured", err)
	}
	if hub.Requests() != 1 {
		t.Errorf("Requests() = %d, want 1", hub.Requests())
	}
}

func TestClient_UnconfiguredDoorIgnoresWireStatus(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyGogoGate2)
	hub.SetDoorStatus(3, "closed")
	ctx := context.Background()

	for _, call := range []struct {
		name string
		fn   func(context.Context, int) (device.CommandResult, error)
	}{
		{"OpenDoor", c.OpenDoor},
		{"CloseDoor", c.CloseDoor},
	} {
		result, err := call.fn(ctx, 3)
		if !errors.Is(err, ErrDoorNotConfigured) {
			t.Errorf("%s() = %+v, %v, want not configured", call.name, result, err)
		}
	}
	if hub.Activations() != 0 {
		t.Errorf("Activations() = %d, want 0", hub.Activations())
	}
}

func TestClient_DeviceRejectsUnknownDoor(t *testing.T) {
	for _, family := range families {
		t.Run(family.String(), func(t *testing.T) {
			hub, c := newHubClient(t, family)

			_, err := c.OpenDoor(context.Background(), 7)
			if !IsProtocol(err) {
				t.Fatalf("OpenDoor() error = %v, want protocol error", err)
			}
			var devErr *protocol.DeviceError
			if !errors.As(err, &devErr) {
				t.Fatalf("OpenDoor() error = %v, want *protocol.DeviceError in chain", err)
			}
			if hub.Requests() != 2 {
				t.Errorf("Requests() = %d, want 2 (info + activate)", hub.Requests())
			}
		})
	}
}

func TestClient_WrongPassword(t *testing.T) {
	for _, family := range families {
		t.Run(family.String(), func(t *testing.T) {
			hub, err := server.NewHub(server.HubConfig{Family: family, Username: "admin", Password: "password"})
			if err != nil {
				t.Fatal(err)
			}
			ts := httptest.NewServer(hub)
			defer ts.Close()

			tr, _ := transport.NewHTTPTransport()
			c, _ := New(device.Credentials{Host: ts.URL, Username: "admin", Password: "wrong"}, family, tr)

			_, err = c.Info(context.Background())
			if !IsProtocol(err) || !protocol.IsCredentialsError(err) {
				t.Errorf("Info() error = %v, want credentials error", err)
			}
		})
	}
}

func TestClient_UndecryptableBody(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyISmartGate)
	hub.SetRawResponse("497c04879e0d26af%%not-base64%%")

	_, err := c.Info(context.Background())
	if !IsDecryption(err) {
		t.Errorf("Info() error = %v, want decryption error", err)
	}
}

func TestClient_PlaintextHTMLIsDecryption(t *testing.T) {
	stub := &countingTransport{body: "<html><body>router login</body></html>"}
	c, _ := New(testCreds("10.0.0.2"), device.FamilyGogoGate2, stub)

	_, err := c.Info(context.Background())
	if !IsDecryption(err) || !errors.Is(err, protocol.ErrDecrypt) {
		t.Errorf("Info() error = %v, want decryption error", err)
	}
}

func TestClient_PlaintextInfoIsRejected(t *testing.T) {
	hub, c := newHubClient(t, device.FamilyGogoGate2)
	hub.SetRawResponse(`<response><gogogatename>Spoofed</gogogatename><user>admin</user><model>GG2</model>` +
		`<apiversion>1</apiversion><firmwareversion>761</firmwareversion><apicode>stolen</apicode></response>`)

	info, err := c.Info(context.Background())
	if info != nil || !IsDecryption(err) {
		t.Errorf("Info() = %v, %v, want decryption error", info, err)
	}
}

func TestClient_DoorSensor(t *testing.T) {
	_, c := newHubClient(t, device.FamilyGogoGate2)
	ctx := context.Background()

	door, err := c.DoorSensor(ctx, 1)
	if err != nil {
		t.Fatalf("DoorSensor() error = %v", err)
	}
	if door.Temperature == nil || *door.Temperature != 16.3 {
		t.Errorf("Temperature = %v, want 16.3", door.Temperature)
	}
	if door.Voltage == nil || *door.Voltage != 40 {
		t.Errorf("Voltage = %v, want 40", door.Voltage)
	}

	door, err = c.DoorSensorAsync(ctx, 2).Await(ctx)
	if err != nil {
		t.Fatalf("DoorSensorAsync() error = %v", err)
	}
	if door.HasReadings() {
		t.Error("door 2 reports sentinel readings and should have none")
	}

	if _, err := c.DoorSensor(ctx, 9); !errors.Is(err, ErrDoorNotFound) {
		t.Errorf("DoorSensor(9) error = %v, want not found", err)
	}
}

func TestClient_FreshTokenPerRequest(t *testing.T) {
	var seen []string
	record := transportFunc(func(_ context.Context, _ string, params map[string]string) (string, error) {
		seen = append(seen, params["data"]+"|"+params["t"])
		return "", transport.NewHTTPError(http.StatusServiceUnavailable, "")
	})

	c, _ := New(testCreds("10.0.0.2"), device.FamilyISmartGate, record)
	_, _ = c.Info(context.Background())
	_, _ = c.Info(context.Background())

	if len(seen) != 2 || seen[0] == seen[1] {
		t.Errorf("requests reused a token: %v", seen)
	}
}

type transportFunc func(context.Context, string, map[string]string) (string, error)

func (f transportFunc) Send(ctx context.Context, url string, params map[string]string) (string, error) {
	return f(ctx, url, params)
}
