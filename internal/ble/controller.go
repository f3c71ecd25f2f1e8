package ble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/motohud/internal/ble/protocol"
	"github.com/chaz8081/motohud/internal/eventlog"
)

// Options configures the session controller.
type Options struct {
	ServiceUUID        string        // target service, 16- or 128-bit form
	CharacteristicUUID string        // serial characteristic under ServiceUUID
	ScanTimeout        time.Duration // a scan stops on its own after this long
	ConnectTimeout     time.Duration // bounds the transport connect
	DiscoveryTimeout   time.Duration // connected to subscribed must finish within this
	HandshakeDelay     time.Duration // settle time before the handshake command
	DisconnectGrace    time.Duration // time for the disconnect notice to go out
	WriteQueue         int           // commands accepted ahead of the writer
}

// DefaultOptions returns the settings for an HM-10 based HUD.
func DefaultOptions() Options {
	return Options{
		ServiceUUID:        DefaultServiceUUID,
		CharacteristicUUID: DefaultCharacteristicUUID,
		ScanTimeout:        10 * time.Second,
		ConnectTimeout:     10 * time.Second,
		DiscoveryTimeout:   15 * time.Second,
		HandshakeDelay:     500 * time.Millisecond,
		DisconnectGrace:    500 * time.Millisecond,
		WriteQueue:         16,
	}
}

// Controller owns the single device session. A run goroutine processes
// every request, transport callback and timer in order, so state
// transitions never interleave. Public methods only wait for the loop's
// precondition check; progress is observed through Snapshot, Subscribe and
// the event log.
type Controller struct {
	adapter Adapter
	opts    Options
	log     *eventlog.Log
	logger  *slog.Logger

	events    chan event
	quit      chan struct{}
	stopped   chan struct{}
	started   atomic.Bool
	closeOnce sync.Once

	snap    atomic.Pointer[Snapshot]
	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	// Owned by the run goroutine.
	sess          session
	gen           uint64
	cancelAttempt context.CancelFunc
	scanner       *scanner
	telemetry     telemetryReceiver
}

// NewController creates a controller for adapter. Zero option values fall
// back to DefaultOptions. A nil log gets a fresh one mirroring to logger.
func NewController(adapter Adapter, opts Options, log *eventlog.Log, logger *slog.Logger) (*Controller, error) {
	def := DefaultOptions()
	if opts.ServiceUUID == "" {
		opts.ServiceUUID = def.ServiceUUID
	}
	if opts.CharacteristicUUID == "" {
		opts.CharacteristicUUID = def.CharacteristicUUID
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = def.ScanTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.DiscoveryTimeout <= 0 {
		opts.DiscoveryTimeout = def.DiscoveryTimeout
	}
	if opts.HandshakeDelay <= 0 {
		opts.HandshakeDelay = def.HandshakeDelay
	}
	if opts.DisconnectGrace <= 0 {
		opts.DisconnectGrace = def.DisconnectGrace
	}
	if opts.WriteQueue <= 0 {
		opts.WriteQueue = def.WriteQueue
	}

	var err error
	if opts.ServiceUUID, err = NormalizeUUID(opts.ServiceUUID); err != nil {
		return nil, fmt.Errorf("ble: service: %w", err)
	}
	if opts.CharacteristicUUID, err = NormalizeUUID(opts.CharacteristicUUID); err != nil {
		return nil, fmt.Errorf("ble: characteristic: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	if log == nil {
		log = eventlog.New(eventlog.Options{Logger: logger})
	}

	c := &Controller{
		adapter: adapter,
		opts:    opts,
		log:     log,
		logger:  logger,
		events:  make(chan event, 64),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		subs:    make(map[int]chan Snapshot),
	}
	c.scanner = newScanner(adapter, opts.ServiceUUID, opts.ScanTimeout, c.post, log)
	c.telemetry.now = time.Now
	c.snap.Store(&Snapshot{})
	log.Append("Controller initialized")
	return c, nil
}

// Start enables the adapter and starts the run loop. The loop stops when
// ctx is done or Close is called. An adapter that cannot be enabled is
// recorded as the last error; the controller keeps running.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("ble: controller already started")
	}
	if err := c.adapter.Enable(); err != nil {
		c.sess.lastErr = fmt.Errorf("ble: enable adapter: %w: %w", ErrAdapterUnavailable, err)
		c.log.Appendf("Bluetooth is not available: %v", err)
	} else {
		c.log.Append("Bluetooth adapter enabled")
	}
	c.publish()
	go c.run(ctx)
	return nil
}

// Close tears the session down and stops the run loop.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() { close(c.quit) })
	if c.started.Load() {
		<-c.stopped
	}
	return nil
}

// StartScan clears the device list and scans for the target service until
// the scan timeout. Fails with ErrAdapterUnavailable when the adapter is
// off and ErrSessionBusy while a connection occupies the session.
func (c *Controller) StartScan() error {
	return c.request(func(reply chan error) event { return startScanRequest{reply: reply} })
}

// StopScan ends the current scan. Idempotent.
func (c *Controller) StopScan() error {
	return c.request(func(reply chan error) event { return stopScanRequest{reply: reply} })
}

// Connect starts a connection attempt to d, stopping any scan first. It is
// rejected with ErrSessionBusy unless the session is idle or scanning.
func (c *Controller) Connect(d Device) error {
	return c.request(func(reply chan error) event { return connectRequest{device: d, reply: reply} })
}

// Disconnect ends the session from any state. With an open channel the
// device is sent a disconnect notice first.
func (c *Controller) Disconnect() error {
	return c.request(func(reply chan error) event { return disconnectRequest{reply: reply} })
}

// Send queues text as one command line. It fails with ErrNotReady unless
// the session is ready and with ErrEncodingFailed for text that cannot be
// sent as a single line. Write failures are reported asynchronously
// through the snapshot's LastError.
func (c *Controller) Send(text string) error {
	return c.request(func(reply chan error) event { return sendRequest{text: text, reply: reply} })
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	return *c.snap.Load()
}

// Subscribe returns a channel that receives the latest snapshot after every
// change, starting with the current one. Slow readers only miss
// intermediate snapshots. The returned function cancels the subscription.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.Snapshot()
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Log returns the session event log.
func (c *Controller) Log() *eventlog.Log {
	return c.log
}

func (c *Controller) request(build func(reply chan error) event) error {
	if !c.started.Load() {
		return ErrClosed
	}
	reply := make(chan error, 1)
	select {
	case c.events <- build(reply):
	case <-c.stopped:
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.stopped:
		return ErrClosed
	}
}

// post delivers ev to the run loop. Never call it from the loop itself.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.stopped:
	}
}

// after posts ev once d has elapsed. Handlers check the generation and
// state, so a timer that outlives its attempt is a no-op.
func (c *Controller) after(d time.Duration, ev event) {
	time.AfterFunc(d, func() { c.post(ev) })
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.stopped)
	defer c.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.quit:
			return
		case ev := <-c.events:
			reply, err := c.handle(ev)
			c.publish()
			if reply != nil {
				reply <- err
			}
		}
	}
}

// handle applies one event. Requests return their reply channel and verdict.
func (c *Controller) handle(ev event) (chan error, error) {
	switch ev := ev.(type) {
	case startScanRequest:
		return ev.reply, c.startScan()
	case stopScanRequest:
		c.endScan()
		return ev.reply, nil
	case connectRequest:
		return ev.reply, c.connect(ev.device)
	case disconnectRequest:
		return ev.reply, c.disconnect()
	case sendRequest:
		return ev.reply, c.send(ev.text)

	case advertisementSeen:
		c.scanner.add(ev.scan, ev.device)
	case scanFinished:
		c.onScanFinished(ev)
	case scanTimedOut:
		if c.scanner.current(ev.scan) {
			c.endScan()
		}

	case connectSucceeded:
		c.onConnectSucceeded(ev)
	case connectFailed:
		c.onConnectFailed(ev)
	case servicesDiscovered:
		c.onServicesDiscovered(ev)
	case characteristicsDiscovered:
		c.onCharacteristicsDiscovered(ev)
	case subscribed:
		c.onSubscribed(ev)
	case notificationReceived:
		c.onNotification(ev)
	case writeCompleted:
		c.onWriteCompleted(ev)
	case disconnected:
		c.onDisconnected(ev)

	case discoveryTimedOut:
		c.onDiscoveryTimedOut(ev)
	case handshakeDue:
		c.onHandshakeDue(ev)
	case graceElapsed:
		c.onGraceElapsed(ev)

	default:
		c.logger.Error("[BLE] unknown event", "type", fmt.Sprintf("%T", ev))
	}
	return nil, nil
}

// --- scanning ---

func (c *Controller) startScan() error {
	if !c.adapter.PoweredOn() {
		err := fmt.Errorf("ble: start scan: %w", ErrAdapterUnavailable)
		c.fail(err, "Cannot start scanning: Bluetooth not available")
		return err
	}
	if st := c.sess.state; st != StateIdle && st != StateScanning {
		err := fmt.Errorf("ble: start scan while %s: %w", st, ErrSessionBusy)
		c.fail(err, "Cannot start scanning while %s", st)
		return err
	}
	c.scanner.start()
	c.setState(StateScanning)
	return nil
}

func (c *Controller) endScan() {
	c.scanner.stop()
	if c.sess.state == StateScanning {
		c.setState(StateIdle)
	}
}

func (c *Controller) onScanFinished(ev scanFinished) {
	if !c.scanner.current(ev.scan) {
		return
	}
	if ev.err != nil {
		c.fail(fmt.Errorf("ble: scan: %w: %w", ErrAdapterUnavailable, ev.err), "Scan failed: %v", ev.err)
	}
	c.endScan()
}

// --- connecting ---

func (c *Controller) connect(d Device) error {
	if st := c.sess.state; st != StateIdle && st != StateScanning {
		err := fmt.Errorf("ble: connect to %s while %s: %w", d.DisplayName(), st, ErrSessionBusy)
		c.fail(err, "Rejected connect to %s: session is %s", d.DisplayName(), st)
		return err
	}
	c.scanner.stop()

	c.gen++
	gen := c.gen
	dev := d
	c.sess.gen = gen
	c.sess.device = &dev
	c.sess.attemptID = uuid.NewString()
	c.log.Appendf("Attempting to connect to: %s", d.DisplayName())
	c.logger.Info("[BLE] connecting", "device", d.ID, "attempt", c.sess.attemptID)
	c.setState(StateConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.ConnectTimeout)
	c.cancelAttempt = cancel
	go func() {
		conn, err := c.adapter.Connect(ctx, d.ID)
		cancel()
		if err != nil {
			c.post(connectFailed{gen: gen, err: err})
			return
		}
		conn.OnDisconnect(func(err error) {
			c.post(disconnected{gen: gen, err: err})
		})
		c.post(connectSucceeded{gen: gen, conn: conn})
	}()
	return nil
}

func (c *Controller) onConnectSucceeded(ev connectSucceeded) {
	if !c.current(ev.gen, StateConnecting) {
		// Nobody is waiting for this link any more.
		go func() { _ = ev.conn.Disconnect() }()
		return
	}
	c.sess.conn = ev.conn
	c.sess.lastErr = nil
	c.log.Appendf("Connected to: %s", c.sess.device.DisplayName())
	c.setState(StateConnected)
	c.after(c.opts.DiscoveryTimeout, discoveryTimedOut{gen: ev.gen})

	c.log.Append("Discovering all services...")
	c.setState(StateDiscoveringService)
	conn, gen := ev.conn, ev.gen
	go func() {
		svcs, err := conn.DiscoverServices()
		c.post(servicesDiscovered{gen: gen, services: svcs, err: err})
	}()
}

func (c *Controller) onConnectFailed(ev connectFailed) {
	if !c.current(ev.gen, StateConnecting) {
		return
	}
	err := fmt.Errorf("ble: connect to %s: %w: %w", c.sess.device.DisplayName(), ErrConnectFailed, ev.err)
	c.abort(err, "Failed to connect: %v", ev.err)
}

func (c *Controller) onServicesDiscovered(ev servicesDiscovered) {
	if !c.current(ev.gen, StateDiscoveringService) {
		return
	}
	if ev.err != nil {
		c.abort(fmt.Errorf("ble: discover services: %w: %w", ErrServiceDiscoveryFailed, ev.err),
			"Service discovery failed: %v", ev.err)
		return
	}

	c.log.Appendf("Found %d services:", len(ev.services))
	var target Service
	for _, s := range ev.services {
		c.log.Appendf("Service UUID: %s", shortUUID(s.UUID()))
		if target == nil && sameUUID(s.UUID(), c.opts.ServiceUUID) {
			target = s
		}
	}
	want := shortUUID(c.opts.ServiceUUID)
	if target == nil {
		c.abort(fmt.Errorf("ble: service %s not found: %w", want, ErrServiceDiscoveryFailed),
			"Service %s not found", want)
		return
	}

	c.log.Appendf("Found %s service", want)
	c.setState(StateDiscoveringCharacteristic)
	gen := ev.gen
	go func() {
		chars, err := target.DiscoverCharacteristics()
		c.post(characteristicsDiscovered{gen: gen, chars: chars, err: err})
	}()
}

func (c *Controller) onCharacteristicsDiscovered(ev characteristicsDiscovered) {
	if !c.current(ev.gen, StateDiscoveringCharacteristic) {
		return
	}
	if ev.err != nil {
		c.abort(fmt.Errorf("ble: discover characteristics: %w: %w", ErrCharacteristicDiscoveryFailed, ev.err),
			"Characteristic discovery failed: %v", ev.err)
		return
	}

	var target Characteristic
	for _, ch := range ev.chars {
		if sameUUID(ch.UUID(), c.opts.CharacteristicUUID) {
			target = ch
			break
		}
	}
	want := shortUUID(c.opts.CharacteristicUUID)
	if target == nil {
		c.abort(fmt.Errorf("ble: characteristic %s not found: %w", want, ErrCharacteristicDiscoveryFailed),
			"Characteristic %s not found", want)
		return
	}

	c.sess.char = target
	c.log.Appendf("Found %s characteristic", want)
	c.setState(StateSubscribing)
	gen := ev.gen
	go func() {
		err := target.Subscribe(func(data []byte) {
			c.post(notificationReceived{gen: gen, data: bytes.Clone(data)})
		})
		c.post(subscribed{gen: gen, err: err})
	}()
}

func (c *Controller) onSubscribed(ev subscribed) {
	if !c.current(ev.gen, StateSubscribing) {
		return
	}
	want := shortUUID(c.opts.CharacteristicUUID)
	if ev.err != nil {
		c.abort(fmt.Errorf("ble: subscribe to %s: %w: %w", want, ErrSubscriptionFailed, ev.err),
			"Failed to enable notifications: %v", ev.err)
		return
	}
	c.log.Appendf("Enabled notifications for %s characteristic", want)
	c.sess.channel = newCommandChannel(c.sess.characteristic(), ev.gen, c.opts.WriteQueue, c.post)
	c.setState(StateAwaitingHandshake)
	c.after(c.opts.HandshakeDelay, handshakeDue{gen: ev.gen})
}

func (c *Controller) onDiscoveryTimedOut(ev discoveryTimedOut) {
	if ev.gen != c.sess.gen || c.sess.gen == 0 {
		return
	}
	var cause error
	switch c.sess.state {
	case StateConnected, StateDiscoveringService:
		cause = ErrServiceDiscoveryFailed
	case StateDiscoveringCharacteristic:
		cause = ErrCharacteristicDiscoveryFailed
	case StateSubscribing:
		cause = ErrSubscriptionFailed
	default:
		return
	}
	st := c.sess.state
	c.abort(fmt.Errorf("ble: %s timed out after %s: %w", st, c.opts.DiscoveryTimeout, cause),
		"Gave up %s after %s", st, c.opts.DiscoveryTimeout)
}

// --- handshake and commands ---

func (c *Controller) onHandshakeDue(ev handshakeDue) {
	if !c.current(ev.gen, StateAwaitingHandshake) {
		return
	}
	c.log.Append("Sending connection confirmation...")
	if err := c.dispatch(protocol.Handshake()); err != nil {
		c.abort(err, "Handshake failed: %v", err)
	}
}

func (c *Controller) send(text string) error {
	if c.sess.state != StateReady {
		err := fmt.Errorf("ble: send %q while %s: %w", text, c.sess.state, ErrNotReady)
		c.fail(err, "Failed to send command: %s (not ready)", text)
		return err
	}
	cmd, err := protocol.NewCommand(text)
	if err != nil {
		err = fmt.Errorf("ble: send %q: %w: %w", text, ErrEncodingFailed, err)
		c.fail(err, "Failed to convert command to data: %q", text)
		return err
	}
	if err := c.dispatch(cmd); err != nil {
		c.fail(err, "Failed to send command: %s (%v)", text, err)
		return err
	}
	return nil
}

// dispatch hands cmd to the writer. The channel must be open.
func (c *Controller) dispatch(cmd protocol.Command) error {
	if err := c.sess.channel.enqueue(cmd); err != nil {
		return fmt.Errorf("ble: send %q: %w: %w", cmd.Text(), ErrWriteFailed, err)
	}
	c.log.Appendf("Sending: %s (bytes: %v)", cmd.Text(), cmd.Bytes())
	return nil
}

func (c *Controller) onWriteCompleted(ev writeCompleted) {
	if !c.current(ev.gen, StateAwaitingHandshake, StateReady, StateDisconnecting) {
		return
	}
	handshake := c.sess.state == StateAwaitingHandshake && ev.cmd.Text() == protocol.HandshakeCommand
	if ev.err != nil {
		err := fmt.Errorf("ble: write %q: %w: %w", ev.cmd.Text(), ErrWriteFailed, ev.err)
		if handshake {
			c.abort(err, "Handshake write failed: %v", ev.err)
			return
		}
		c.fail(err, "Write failed: %v", ev.err)
		return
	}
	c.log.Appendf("Write successful - sent bytes: %v", ev.cmd.Bytes())
	if handshake {
		c.log.Appendf("Session ready: %s", c.sess.device.DisplayName())
		c.setState(StateReady)
	}
}

func (c *Controller) onNotification(ev notificationReceived) {
	if !c.current(ev.gen, StateSubscribing, StateAwaitingHandshake, StateReady, StateDisconnecting) {
		return
	}
	t, ok := c.telemetry.receive(ev.data)
	if !ok {
		c.logger.Debug("[BLE] dropped undecodable notification", "bytes", len(ev.data))
		return
	}
	// Readers see the new telemetry before the confirmation entry.
	c.publish()
	if protocol.IsAck(t.Text) {
		c.log.Append("Device confirmed connection (handshake confirmed)")
	}
}

// --- disconnecting ---

func (c *Controller) disconnect() error {
	switch c.sess.state {
	case StateIdle, StateDisconnecting:
		return nil
	case StateScanning:
		c.endScan()
		return nil
	case StateAwaitingHandshake, StateReady:
		c.log.Appendf("Disconnecting from: %s", c.sess.device.DisplayName())
		c.setState(StateDisconnecting)
		if err := c.dispatch(protocol.Disconnect()); err != nil {
			c.log.Appendf("Disconnect notice not sent: %v", err)
		}
		c.after(c.opts.DisconnectGrace, graceElapsed{gen: c.sess.gen})
	default:
		// The attempt has no channel yet; drop it right away.
		c.log.Appendf("Disconnecting from: %s", c.sess.device.DisplayName())
		c.setState(StateDisconnecting)
		c.teardown()
		c.log.Append("Disconnected")
	}
	return nil
}

func (c *Controller) onGraceElapsed(ev graceElapsed) {
	if !c.current(ev.gen, StateDisconnecting) {
		return
	}
	c.sess.channel.close()
	c.sess.channel = nil
	conn, gen := c.sess.conn, ev.gen
	go func() {
		err := conn.Disconnect()
		c.post(disconnected{gen: gen, err: err})
	}()
}

func (c *Controller) onDisconnected(ev disconnected) {
	if ev.gen != c.sess.gen || c.sess.gen == 0 {
		return
	}
	// The link is already down.
	c.sess.conn = nil

	if c.sess.state == StateDisconnecting {
		if ev.err != nil {
			c.log.Appendf("Disconnected with error: %v", ev.err)
		} else {
			c.log.Append("Disconnected successfully")
		}
		c.teardown()
		return
	}

	name := c.sess.device.DisplayName()
	err := fmt.Errorf("ble: %s: %w", name, ErrUnexpectedDisconnect)
	if ev.err != nil {
		err = fmt.Errorf("ble: %s: %w: %w", name, ErrUnexpectedDisconnect, ev.err)
	}
	c.abort(err, "Disconnected unexpectedly from %s", name)
}

// --- helpers ---

// current reports whether gen is the live attempt and the session is in
// one of states.
func (c *Controller) current(gen uint64, states ...State) bool {
	if gen == 0 || gen != c.sess.gen {
		return false
	}
	for _, s := range states {
		if c.sess.state == s {
			return true
		}
	}
	return false
}

func (c *Controller) setState(s State) {
	if c.sess.state == s {
		return
	}
	c.logger.Debug("[BLE] state change", "from", c.sess.state.String(), "to", s.String(), "attempt", c.sess.attemptID)
	c.sess.state = s
	c.publish()
}

// fail records err as the last error and logs the message.
func (c *Controller) fail(err error, format string, args ...any) {
	c.sess.lastErr = err
	c.log.Appendf(format, args...)
	c.logger.Warn("[BLE] "+err.Error(), "state", c.sess.state.String())
}

// abort records a connection-fatal error and returns the session to idle.
func (c *Controller) abort(err error, format string, args ...any) {
	c.fail(err, format, args...)
	c.teardown()
}

// teardown releases the attempt and returns to idle. The transport is
// disconnected in the background.
func (c *Controller) teardown() {
	if c.cancelAttempt != nil {
		c.cancelAttempt()
		c.cancelAttempt = nil
	}
	if c.sess.channel != nil {
		c.sess.channel.close()
	}
	if conn := c.sess.conn; conn != nil {
		go func() { _ = conn.Disconnect() }()
	}
	c.sess.clear()
	c.setState(StateIdle)
}

// shutdown runs when the loop exits.
func (c *Controller) shutdown() {
	c.scanner.halt()
	if c.cancelAttempt != nil {
		c.cancelAttempt()
		c.cancelAttempt = nil
	}
	if c.sess.channel != nil {
		c.sess.channel.close()
	}
	if conn := c.sess.conn; conn != nil {
		if err := conn.Disconnect(); err != nil {
			c.logger.Warn("[BLE] disconnect on close failed", "error", err)
		}
	}
	c.sess.clear()
	c.sess.state = StateIdle
	c.log.Append("Controller stopped")
	c.publish()
}

func (c *Controller) publish() {
	s := Snapshot{
		State:     c.sess.state,
		Scanning:  c.scanner.active,
		Devices:   c.scanner.list(),
		Channel:   c.sess.characteristic() != nil,
		Telemetry: c.telemetry.latest,
		LastError: c.sess.lastErr,
	}
	if c.sess.device != nil {
		d := *c.sess.device
		s.Device = &d
	}
	c.snap.Store(&s)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func sameUUID(got, want string) bool {
	n, err := NormalizeUUID(got)
	return err == nil && n == want
}
