// Package ui renders a progress protocol stream for a human: plain text modes
// for logs and pipes, and a Bubble Tea view for terminals.
package ui

import (
	"errors"
	"io"

	"testexec/internal/protocol"
)

// Handler receives decoded protocol events.
type Handler interface {
	Handle(evt protocol.Event)
}

// Consume feeds every event from r to h until end of input.
func Consume(r *protocol.Reader, h Handler) error {
	for {
		evt, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		h.Handle(evt)
	}
}

// Forward sends every event from r to ch and closes ch at the end.
func Forward(r *protocol.Reader, ch chan<- protocol.Event) error {
	defer close(ch)
	return Consume(r, HandlerFunc(func(evt protocol.Event) { ch <- evt }))
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(evt protocol.Event)

// Handle calls f(evt).
func (f HandlerFunc) Handle(evt protocol.Event) { f(evt) }
