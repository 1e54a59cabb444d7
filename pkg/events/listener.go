package events

// Listener handles dispatched events. A returned error is logged by the
// dispatcher and does not stop the remaining listeners.
type Listener interface {
	Handle(event Event) error
}

// ListenerFunc adapts a function to Listener.
//
//	dispatcher.Listen(events.EventTicketCancelled, events.ListenerFunc(func(e events.Event) error {
//	    ticket := e.Payload().(models.Ticket)
//	    return store.Delete(passPath(ticket.ID))
//	}))
type ListenerFunc func(Event) error

func (f ListenerFunc) Handle(event Event) error {
	return f(event)
}

// Logger is the subset of *log.Logger the package uses.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}
