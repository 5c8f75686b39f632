package api

import (
	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/core/events"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a short user-facing message.
type Notification struct {
	Level   Level
	Class   domain.StatusClass
	Message string
}

// Notifier receives user-facing messages. Delivery is fire-and-forget.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Navigator moves the user to another entry point.
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(string)

func (f NavigatorFunc) NavigateTo(path string) { f(path) }

// BusNotifier publishes notifications as events.Notification.
type BusNotifier struct {
	bus *events.Bus
}

func NewBusNotifier(bus *events.Bus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) Notify(note Notification) {
	n.bus.Emit(events.Notification, note)
}

// BusNavigator publishes navigation requests as events.Navigate.
type BusNavigator struct {
	bus *events.Bus
}

func NewBusNavigator(bus *events.Bus) *BusNavigator {
	return &BusNavigator{bus: bus}
}

func (n *BusNavigator) NavigateTo(path string) {
	n.bus.Emit(events.Navigate, path)
}
