package studio

// AlertSink receives begin/end/error signals for long-running operations,
// keyed by an opaque operation id. The editor shell renders these as busy
// indicators and error toasts; headless callers pass nil.
type AlertSink interface {
	// ShowAlert displays a busy indicator of the given kind.
	ShowAlert(id, kind string)

	// ShowError displays a user-facing failure.
	ShowError(id string, err error)

	// ClearAlert removes the indicator for the operation.
	ClearAlert(id string)
}

// nopAlerts absorbs every signal so the engine never nil-checks its sink.
type nopAlerts struct{}

func (nopAlerts) ShowAlert(string, string) {}
func (nopAlerts) ShowError(string, error)  {}
func (nopAlerts) ClearAlert(string)        {}
