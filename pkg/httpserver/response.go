package httpserver

import (
	"fmt"
	"net"
	"strconv"
)

// Response is a formatted HTTP/1.0 response, kept as two separate buffers
// (status line + headers, then body) so the connection server can write
// them with a single vectored net.Buffers.WriteTo instead of concatenating
// into one allocation per request.
type Response struct {
	Status int
	Reason string
	Header map[string]string
	Body   []byte
}

// NewResponse returns a 200 OK response with the given content type and
// body.
func NewResponse(contentType string, body []byte) *Response {
	return &Response{
		Status: 200,
		Reason: "OK",
		Header: map[string]string{"Content-Type": contentType},
		Body:   body,
	}
}

// NotFound returns the fixed 404 response the dispatcher returns for any
// RequestError, matching the original's plain "HTTP/1.0 404 NOT FOUND"
// one-line reply with no body.
func NotFound() *Response {
	return &Response{Status: 404, Reason: "NOT FOUND"}
}

// Buffers renders the response as the two net.Buffers segments a
// connection write should send: the status line plus headers, and the
// body.
func (r *Response) Buffers() net.Buffers {
	head := fmt.Sprintf("HTTP/1.0 %d %s\r\n", r.Status, r.Reason)
	if r.Body != nil {
		if r.Header == nil {
			r.Header = make(map[string]string)
		}
		r.Header["Content-Length"] = strconv.Itoa(len(r.Body))
	}
	for k, v := range r.Header {
		head += k + ": " + v + "\r\n"
	}
	head += "\r\n"

	bufs := net.Buffers{[]byte(head)}
	if len(r.Body) > 0 {
		bufs = append(bufs, r.Body)
	}
	return bufs
}
