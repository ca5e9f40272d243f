package mcppool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Reply is the decoded body of a successful exchange. It is a closed union:
// a Reply is either a SingleReply (application/json body) or a StreamReply
// (text/event-stream body), so callers switch on the concrete type instead
// of guessing the shape.
type Reply interface {
	reply()
}

// SingleReply wraps the one JSON-RPC message carried by an application/json
// response body.
type SingleReply struct {
	Message JSONRPCMessage
}

func (SingleReply) reply() {}

// StreamReply carries the events of a text/event-stream response body, one
// per data line, in document order.
type StreamReply struct {
	Events []Event
}

func (StreamReply) reply() {}

// Event is a single data line of an event-stream body. Raw always holds the
// whitespace-trimmed payload exactly as it appeared on the wire. Message is
// set when the payload parsed as a JSON-RPC message and nil when it did not,
// in which case Raw is all there is.
type Event struct {
	Message *JSONRPCMessage
	Raw     string
}

// DecodeResponse turns a buffered response into a Reply based on its declared
// content type:
//   - application/json bodies decode to a SingleReply. A body that does not
//     parse is a MalformedResponseError; a parsed envelope carrying an error
//     object is a RemoteError with the server's payload intact.
//   - text/event-stream bodies decode to a StreamReply: every line starting
//     with "data:" contributes exactly one event, and payloads that do not
//     parse are kept raw rather than dropped. Other lines are ignored.
//   - anything else is an UnsupportedContentTypeError.
//
// Media type parameters such as charset are ignored for dispatch.
func DecodeResponse(res *RawResponse) (Reply, error) {
	switch mt := res.MediaType(); mt {
	case mediaTypeJSON:
		var msg JSONRPCMessage
		if err := json.Unmarshal(res.Body, &msg); err != nil {
			return nil, &MalformedResponseError{ContentType: mt, Body: res.Body, Err: err}
		}
		if msg.Error != nil {
			return nil, &RemoteError{Err: *msg.Error}
		}
		return SingleReply{Message: msg}, nil
	case mediaTypeEventStream:
		return StreamReply{Events: decodeEventStream(res.Body)}, nil
	default:
		return nil, &UnsupportedContentTypeError{ContentType: mt}
	}
}

func decodeEventStream(body []byte) []Event {
	var events []Event
	for _, line := range strings.Split(string(body), "\n") {
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		raw := strings.TrimSpace(line[len("data:"):])

		ev := Event{Raw: raw}
		var msg JSONRPCMessage
		if err := json.Unmarshal([]byte(raw), &msg); err == nil {
			ev.Message = &msg
		}
		events = append(events, ev)
	}
	return events
}

// FirstMessage collapses a reply to its JSON-RPC message. Single replies
// yield their message directly. Stream replies yield the first event's
// message, following the convention that request-reply exchanges on this
// transport carry the reply in the stream's first event; an empty stream or
// a first event that did not parse is a MalformedResponseError.
func FirstMessage(r Reply) (JSONRPCMessage, error) {
	switch rep := r.(type) {
	case SingleReply:
		return rep.Message, nil
	case StreamReply:
		if len(rep.Events) == 0 {
			return JSONRPCMessage{}, &MalformedResponseError{
				ContentType: mediaTypeEventStream,
				Err:         errors.New("empty event stream"),
			}
		}
		first := rep.Events[0]
		if first.Message == nil {
			return JSONRPCMessage{}, &MalformedResponseError{
				ContentType: mediaTypeEventStream,
				Body:        []byte(first.Raw),
				Err:         errors.New("first event is not a JSON-RPC message"),
			}
		}
		return *first.Message, nil
	default:
		return JSONRPCMessage{}, fmt.Errorf("unexpected reply type %T", r)
	}
}
