package ble

import (
	"errors"

	"github.com/chaz8081/motohud/internal/ble/protocol"
)

var errQueueFull = errors.New("write queue full")

// commandChannel serializes command writes to the characteristic. A single
// writer goroutine drains a bounded FIFO, so at most one write is in flight
// and commands reach the device in the order they were accepted. Each write
// result is reported to the run loop as a writeCompleted event.
type commandChannel struct {
	char  Characteristic
	gen   uint64
	post  func(event)
	queue chan protocol.Command
	stop  chan struct{}
}

func newCommandChannel(char Characteristic, gen uint64, depth int, post func(event)) *commandChannel {
	if depth <= 0 {
		depth = 1
	}
	ch := &commandChannel{
		char:  char,
		gen:   gen,
		post:  post,
		queue: make(chan protocol.Command, depth),
		stop:  make(chan struct{}),
	}
	go ch.run()
	return ch
}

func (ch *commandChannel) run() {
	for {
		select {
		case <-ch.stop:
			return
		case cmd := <-ch.queue:
			select {
			case <-ch.stop:
				return
			default:
			}
			err := ch.char.Write(cmd.Bytes())
			ch.post(writeCompleted{gen: ch.gen, cmd: cmd, err: err})
		}
	}
}

// enqueue accepts cmd for writing without blocking.
func (ch *commandChannel) enqueue(cmd protocol.Command) error {
	select {
	case ch.queue <- cmd:
		return nil
	default:
		return errQueueFull
	}
}

// close stops the writer. Commands still queued are dropped; a write in
// progress completes and its result is discarded by the loop.
func (ch *commandChannel) close() {
	close(ch.stop)
}
