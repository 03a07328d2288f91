package detector

// Listener receives detector notifications.
//
// OnSearchReceived runs on the goroutine that called AddSearchTerms, so a slow
// implementation stalls ingestion. OnHistogramUpdate runs on a Dispatcher task.
// The histogram slice is a copy owned by the listener.
type Listener interface {
	OnSearchReceived(d *Detector, numSearchesProcessed int64)
	OnHistogramUpdate(d *Detector, feature Feature, histogram []Entry)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	SearchReceived  func(d *Detector, numSearchesProcessed int64)
	HistogramUpdate func(d *Detector, feature Feature, histogram []Entry)
}

func (l ListenerFuncs) OnSearchReceived(d *Detector, numSearchesProcessed int64) {
	if l.SearchReceived != nil {
		l.SearchReceived(d, numSearchesProcessed)
	}
}

func (l ListenerFuncs) OnHistogramUpdate(d *Detector, feature Feature, histogram []Entry) {
	if l.HistogramUpdate != nil {
		l.HistogramUpdate(d, feature, histogram)
	}
}

type multiListener struct {
	listeners []Listener
}

// MultiListener delivers every notification to each listener in order.
// Each listener receives its own copy of the histogram. Nil listeners are
// dropped; with nothing left it returns nil.
func MultiListener(listeners ...Listener) Listener {
	filtered := make([]Listener, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			filtered = append(filtered, l)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return &multiListener{listeners: filtered}
}

func (m *multiListener) OnSearchReceived(d *Detector, numSearchesProcessed int64) {
	for _, l := range m.listeners {
		l.OnSearchReceived(d, numSearchesProcessed)
	}
}

func (m *multiListener) OnHistogramUpdate(d *Detector, feature Feature, histogram []Entry) {
	last := len(m.listeners) - 1
	for i, l := range m.listeners {
		entries := histogram
		if i < last {
			entries = append([]Entry(nil), histogram...)
		}
		l.OnHistogramUpdate(d, feature, entries)
	}
}
