package console

// Notifier delivers transient toasts and page refresh hints to open tabs.
type Notifier interface {
	Toast(level, text string)
	Refresh(page, action, id string)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Toast(string, string)           {}
func (discard) Refresh(string, string, string) {}
