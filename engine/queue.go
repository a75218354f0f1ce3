package engine

import "net/http"

// outcome is the terminal result delivered to a waiting caller.
type outcome struct {
	resp *http.Response
	err  error
}

// queuedRequest is one pending dispatch. It is owned exclusively by
// the queue and the drain loop, which mutate retries in place.
type queuedRequest struct {
	req     *http.Request
	retries int
	done    chan outcome
}

func newQueuedRequest(req *http.Request) *queuedRequest {
	return &queuedRequest{req: req, done: make(chan outcome, 1)}
}

func (q *queuedRequest) resolve(resp *http.Response, err error) {
	q.done <- outcome{resp: resp, err: err}
}

// deque is a slice-backed double-ended queue. New work enters at the
// back; rate-limited and retried requests re-enter at the front so
// in-flight operations finish before newer ones start.
type deque struct {
	items []*queuedRequest
}

func (d *deque) len() int { return len(d.items) }

func (d *deque) pushBack(item *queuedRequest) {
	d.items = append(d.items, item)
}

func (d *deque) pushFront(item *queuedRequest) {
	d.items = append(d.items, nil)
	copy(d.items[1:], d.items)
	d.items[0] = item
}

func (d *deque) popFront() (*queuedRequest, bool) {
	if len(d.items) == 0 {
		return nil, false
	}
	item := d.items[0]
	d.items[0] = nil
	d.items = d.items[1:]
	return item, true
}
