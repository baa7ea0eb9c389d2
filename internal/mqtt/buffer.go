package mqtt

// DefaultBufferSize is how many messages are kept while the broker is
// unreachable.
const DefaultBufferSize = 256

// bufferedMsg is a serialized message waiting for the broker.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected, oldest first. A
// retained message replaces any earlier retained message on the same topic,
// since the broker would only keep the last one anyway. When full the oldest
// message is dropped. The caller must synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropping bool // a message was dropped since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

// push queues m. It reports true for the first drop after a drain.
func (o *outbox) push(m bufferedMsg) (firstDrop bool) {
	if m.retained {
		for i := range o.msgs {
			if o.msgs[i].retained && o.msgs[i].topic == m.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}

	if len(o.msgs) == o.capacity {
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		firstDrop = !o.dropping
		o.dropping = true
	}
	o.msgs = append(o.msgs, m)
	return firstDrop
}

// drainAll empties the outbox and returns its messages in publish order.
func (o *outbox) drainAll() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := make([]bufferedMsg, len(o.msgs))
	copy(out, o.msgs)
	o.msgs = o.msgs[:0]
	o.dropping = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
