package core

// Observer is a registered callback. Keep the pointer returned by Add to
// remove it later.
type Observer[T any] struct {
	callback func(T)
	once     bool
	removed  bool
}

// Observable is an ordered list of callbacks fired in registration order.
// It is not safe for concurrent use.
type Observable[T any] struct {
	observers []*Observer[T]
	notifying int
}

func (o *Observable[T]) Add(callback func(T)) *Observer[T] {
	if callback == nil {
		return nil
	}
	obs := &Observer[T]{callback: callback}
	o.observers = append(o.observers, obs)
	return obs
}

// AddOnce registers a callback removed after its first notification.
func (o *Observable[T]) AddOnce(callback func(T)) *Observer[T] {
	obs := o.Add(callback)
	if obs != nil {
		obs.once = true
	}
	return obs
}

func (o *Observable[T]) Remove(obs *Observer[T]) bool {
	if obs == nil {
		return false
	}
	for i, candidate := range o.observers {
		if candidate == obs {
			obs.removed = true
			if o.notifying > 0 {
				// compacted once the notification pass ends
				return true
			}
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return true
		}
	}
	return false
}

// NotifyObservers calls every live observer with value. Observers added during
// the pass are not called until the next notification.
func (o *Observable[T]) NotifyObservers(value T) {
	if len(o.observers) == 0 {
		return
	}
	o.notifying++
	snapshot := o.observers
	n := len(snapshot)
	for i := 0; i < n; i++ {
		obs := snapshot[i]
		if obs.removed {
			continue
		}
		if obs.once {
			obs.removed = true
		}
		obs.callback(value)
	}
	o.notifying--
	if o.notifying == 0 {
		o.compact()
	}
}

func (o *Observable[T]) compact() {
	live := o.observers[:0]
	for _, obs := range o.observers {
		if !obs.removed {
			live = append(live, obs)
		}
	}
	for i := len(live); i < len(o.observers); i++ {
		o.observers[i] = nil
	}
	o.observers = live
}

func (o *Observable[T]) HasObservers() bool {
	for _, obs := range o.observers {
		if !obs.removed {
			return true
		}
	}
	return false
}

func (o *Observable[T]) Len() int {
	n := 0
	for _, obs := range o.observers {
		if !obs.removed {
			n++
		}
	}
	return n
}

func (o *Observable[T]) Clear() {
	for _, obs := range o.observers {
		obs.removed = true
	}
	if o.notifying == 0 {
		o.observers = nil
	}
}
