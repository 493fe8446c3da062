package tracker

import "github.com/goliatone/go-formengine/pkg/model"

// Callback receives a change event.
type Callback func(model.ParameterChangeEvent)

// Filter narrows the events a subscription receives.
type Filter func(model.ParameterChangeEvent) bool

type subscription struct {
	id          string
	formID      string
	parameterID string
	callback    Callback
	filter      Filter
}

func (s *subscription) matches(event model.ParameterChangeEvent) bool {
	if s.formID != "" && s.formID != event.FormID {
		return false
	}
	if s.parameterID != "" && s.parameterID != event.ParameterID {
		return false
	}
	return s.filter == nil || s.filter(event)
}

// Subscribe registers callback for changes of one parameter. An empty
// parameterID subscribes to every parameter of formID; an empty formID
// subscribes to every form. The returned id cancels the subscription.
func (t *Tracker) Subscribe(formID, parameterID string, callback Callback, filter Filter) string {
	if callback == nil {
		return ""
	}
	sub := &subscription{
		id:          t.newID(),
		formID:      formID,
		parameterID: parameterID,
		callback:    callback,
		filter:      filter,
	}
	t.subsMu.Lock()
	t.subscriptions = append(t.subscriptions, sub)
	t.subsMu.Unlock()
	return sub.id
}

// Unsubscribe cancels a subscription and reports whether it existed.
func (t *Tracker) Unsubscribe(id string) bool {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for idx, sub := range t.subscriptions {
		if sub.id == id {
			t.subscriptions = append(t.subscriptions[:idx:idx], t.subscriptions[idx+1:]...)
			return true
		}
	}
	return false
}

func (t *Tracker) notify(events []model.ParameterChangeEvent) {
	if len(events) == 0 {
		return
	}
	t.subsMu.RLock()
	subs := append([]*subscription(nil), t.subscriptions...)
	t.subsMu.RUnlock()
	if len(subs) == 0 {
		return
	}
	for _, event := range events {
		for _, sub := range subs {
			if sub.matches(event) {
				sub.callback(event)
			}
		}
	}
}
