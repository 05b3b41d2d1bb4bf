package gate

import (
	"context"
	"fmt"

	"github.com/muurk/gogogate/internal/device"
	"github.com/muurk/gogogate/internal/protocol"
	"github.com/muurk/gogogate/internal/transport"
	"go.uber.org/zap"
)

// Operation names as they appear in errors and logs
const (
	OpInfo     = "info"
	OpOpen     = "open"
	OpClose    = "close"
	OpActivate = "activate"
	OpSensor   = "sensor"
)

type options struct {
	logger    *zap.Logger
	codecOpts []protocol.CodecOption
}

// Option configures a Client
type Option func(*options)

// WithLogger sets the logger for request stage transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIVSource replaces the random IV generator. Tests only.
func WithIVSource(fn func() string) Option {
	return func(o *options) { o.codecOpts = append(o.codecOpts, protocol.WithIVSource(fn)) }
}

// WithNonceSource replaces the random iSmartGate nonce generator. Tests only.
func WithNonceSource(fn func() int) Option {
	return func(o *options) { o.codecOpts = append(o.codecOpts, protocol.WithNonceSource(fn)) }
}

// Client talks to one hub with one account. It holds no mutable state, so
// it is safe for concurrent use whenever its Transport is.
type Client struct {
	creds     device.Credentials
	codec     *protocol.Codec
	transport transport.Transport
	url       string
	logger    *zap.Logger
}

// New creates a client for a hub of the given family.
func New(creds device.Credentials, family device.Family, t transport.Transport, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "new", Err: err}
	}
	if t == nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "new", Err: fmt.Errorf("transport must not be nil")}
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	codec, err := protocol.NewCodec(family, creds, o.codecOpts...)
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "new", Err: err}
	}

	return &Client{
		creds:     creds,
		codec:     codec,
		transport: t,
		url:       protocol.APIURL(creds.Host),
		logger:    o.logger.With(zap.String("host", creds.Host), zap.Stringer("family", family)),
	}, nil
}

// Family returns the hub family the client speaks.
func (c *Client) Family() device.Family {
	return c.codec.Family()
}

// Info fetches a fresh snapshot of the hub.
func (c *Client) Info(ctx context.Context) (*device.Info, error) {
	return c.fetchInfo(ctx, OpInfo, 0, c.signInfo(OpInfo, 0))
}

// InfoAsync is Info on its own goroutine. The request is signed before
// InfoAsync returns.
func (c *Client) InfoAsync(ctx context.Context) *Future[*device.Info] {
	token := c.signInfo(OpInfo, 0)
	return start(ctx, OpInfo, 0, func(ctx context.Context) (*device.Info, error) {
		return c.fetchInfo(ctx, OpInfo, 0, token)
	})
}

// OpenDoor opens a door. A door that is already open is a success with
// OutcomeAlreadyInState and no command is sent.
func (c *Client) OpenDoor(ctx context.Context, door int) (device.CommandResult, error) {
	return c.move(ctx, OpOpen, door, device.StatusOpen)
}

// CloseDoor closes a door. A door that is already closed is a success with
// OutcomeAlreadyInState and no command is sent.
func (c *Client) CloseDoor(ctx context.Context, door int) (device.CommandResult, error) {
	return c.move(ctx, OpClose, door, device.StatusClosed)
}

// OpenDoorAsync is OpenDoor on its own goroutine.
func (c *Client) OpenDoorAsync(ctx context.Context, door int) *Future[device.CommandResult] {
	return c.moveAsync(ctx, OpOpen, door, device.StatusOpen)
}

// CloseDoorAsync is CloseDoor on its own goroutine.
func (c *Client) CloseDoorAsync(ctx context.Context, door int) *Future[device.CommandResult] {
	return c.moveAsync(ctx, OpClose, door, device.StatusClosed)
}

// Activate toggles a door regardless of its reported position. It is the
// only way to move a door whose status the hub cannot read.
func (c *Client) Activate(ctx context.Context, door int) (device.CommandResult, error) {
	return c.move(ctx, OpActivate, door, device.StatusUnknown)
}

// ActivateAsync is Activate on its own goroutine.
func (c *Client) ActivateAsync(ctx context.Context, door int) *Future[device.CommandResult] {
	return c.moveAsync(ctx, OpActivate, door, device.StatusUnknown)
}

// DoorSensor returns a fresh reading of one door, including its
// temperature and battery level when the hub has a sensor for it.
func (c *Client) DoorSensor(ctx context.Context, door int) (device.Door, error) {
	if door < 1 {
		return device.Door{}, &Error{Kind: KindInvalidArgument, Op: OpSensor, Door: door, Err: ErrInvalidDoor}
	}
	return c.sensor(ctx, door, c.signInfo(OpSensor, door))
}

// DoorSensorAsync is DoorSensor on its own goroutine.
func (c *Client) DoorSensorAsync(ctx context.Context, door int) *Future[device.Door] {
	if door < 1 {
		return failed[device.Door](OpSensor, door, &Error{Kind: KindInvalidArgument, Op: OpSensor, Door: door, Err: ErrInvalidDoor})
	}
	token := c.signInfo(OpSensor, door)
	return start(ctx, OpSensor, door, func(ctx context.Context) (device.Door, error) {
		return c.sensor(ctx, door, token)
	})
}

func (c *Client) sensor(ctx context.Context, door int, token protocol.AuthToken) (device.Door, error) {
	info, err := c.fetchInfo(ctx, OpSensor, door, token)
	if err != nil {
		return device.Door{}, err
	}
	d, ok := info.Door(door)
	if !ok {
		return device.Door{}, &Error{Kind: KindProtocol, Op: OpSensor, Door: door, Err: ErrDoorNotFound}
	}
	return d, nil
}

func (c *Client) move(ctx context.Context, op string, door int, target device.DoorStatus) (device.CommandResult, error) {
	if door < 1 {
		return device.CommandResult{}, &Error{Kind: KindInvalidArgument, Op: op, Door: door, Err: ErrInvalidDoor}
	}
	return c.command(ctx, op, door, target, c.signInfo(op, door))
}

func (c *Client) moveAsync(ctx context.Context, op string, door int, target device.DoorStatus) *Future[device.CommandResult] {
	if door < 1 {
		return failed[device.CommandResult](op, door, &Error{Kind: KindInvalidArgument, Op: op, Door: door, Err: ErrInvalidDoor})
	}
	token := c.signInfo(op, door)
	return start(ctx, op, door, func(ctx context.Context) (device.CommandResult, error) {
		return c.command(ctx, op, door, target, token)
	})
}

// command reads the door's state, then sends activate unless the door is
// already where it should be. A door the hub does not list is still
// activated, so the hub's own rejection reaches the caller.
func (c *Client) command(ctx context.Context, op string, door int, target device.DoorStatus, infoToken protocol.AuthToken) (device.CommandResult, error) {
	info, err := c.fetchInfo(ctx, op, door, infoToken)
	if err != nil {
		return device.CommandResult{}, err
	}

	if d, listed := info.Door(door); listed && target.Actionable() {
		if !d.Configured() {
			return device.CommandResult{}, &Error{Kind: KindProtocol, Op: op, Door: door, Err: ErrDoorNotConfigured}
		}
		if d.InState(target) {
			c.logger.Debug("Door already in requested state", zap.String("op", op), zap.Int("door", door), zap.Stringer("status", d.Status))
			return device.CommandResult{Door: door, Target: target, Status: d.Status, Outcome: device.OutcomeAlreadyInState}, nil
		}
		if d.Status == device.StatusUnknown {
			return device.CommandResult{}, &Error{Kind: KindProtocol, Op: op, Door: door, Err: ErrDoorStatusUnknown}
		}
	}

	c.logger.Debug("Building request", zap.String("op", op), zap.Int("door", door), zap.String("option", string(protocol.OptionActivate)))
	token := c.codec.Sign(protocol.ActivateCommand(c.creds, door, info.ActivationCode(door)))

	body, err := c.send(ctx, op, door, token)
	if err != nil {
		return device.CommandResult{}, err
	}

	c.logger.Debug("Decoding response", zap.String("op", op), zap.Int("door", door))
	result, err := c.codec.DecodeAck(body, door, target)
	if err != nil {
		return device.CommandResult{}, decodeFailure(op, door, err)
	}

	c.logger.Debug("Command acknowledged", zap.String("op", op), zap.Int("door", door))
	return result, nil
}

func (c *Client) signInfo(op string, door int) protocol.AuthToken {
	c.logger.Debug("Building request", zap.String("op", op), zap.Int("door", door), zap.String("option", string(protocol.OptionInfo)))
	return c.codec.Sign(protocol.InfoCommand(c.creds))
}

func (c *Client) fetchInfo(ctx context.Context, op string, door int, token protocol.AuthToken) (*device.Info, error) {
	body, err := c.send(ctx, op, door, token)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Decoding response", zap.String("op", op), zap.Int("door", door))
	info, err := c.codec.DecodeInfo(body)
	if err != nil {
		return nil, decodeFailure(op, door, err)
	}
	return info, nil
}

// send is the only point where an operation waits.
func (c *Client) send(ctx context.Context, op string, door int, token protocol.AuthToken) (string, error) {
	c.logger.Debug("Sending request", zap.String("op", op), zap.Int("door", door))

	body, err := c.transport.Send(ctx, c.url, token.Params())
	if err != nil {
		c.logger.Debug("Request failed", zap.String("op", op), zap.Int("door", door), zap.Error(err))
		return "", transportFailure(op, door, c.creds.Host, err)
	}

	c.logger.Debug("Response received", zap.String("op", op), zap.Int("door", door), zap.Int("bytes", len(body)))
	return body, nil
}
