package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/matjam/wlpaper/internal/middleware"
)

// Handler turns one decoded request into exactly one answer.
type Handler interface {
	HandleRequest(Request) Answer
}

// Server answers control exchanges. It never starts goroutines: Serve
// runs the whole exchange on the caller's goroutine, so handlers may
// touch state owned by the main loop.
type Server struct {
	e       *echo.Echo
	timeout time.Duration
}

func NewServer(h Handler, timeout time.Duration) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = answerErrorHandler

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CharmLog())

	RegisterRoutes(e, h)

	return &Server{e: e, timeout: timeout}
}

// Serve reads one request from conn, writes one answer and closes conn.
func (s *Server) Serve(conn net.Conn) {
	defer conn.Close()

	if s.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
			log.Warnf("failed to set deadline on control connection: %v", err)
		}
	}

	w := newConnResponseWriter()
	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		writeAnswer(w, http.StatusBadRequest, Err("failed to read request: %v", err))
	} else {
		s.e.ServeHTTP(w, req)
		req.Body.Close()
	}

	if err := w.writeTo(conn); err != nil {
		log.Errorf("error sending answer to client: %v", err)
	}
}

// ServeHTTP exposes the router for tests and for callers that already
// have an http.Request in hand.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

func answerErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if err := c.JSON(code, Err("%s", msg)); err != nil {
		log.Errorf("failed to write error answer: %v", err)
	}
}

func writeAnswer(w http.ResponseWriter, code int, a Answer) {
	body, err := json.Marshal(a)
	if err != nil {
		log.Errorf("failed to encode answer: %v", err)
		code = http.StatusInternalServerError
		body = []byte(`{"kind":"err","message":"failed to encode answer"}`)
	}
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(code)
	w.Write(body)
}

// connResponseWriter buffers a response so it can be framed with an
// exact Content-Length once the handler has finished.
type connResponseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newConnResponseWriter() *connResponseWriter {
	return &connResponseWriter{header: make(http.Header)}
}

func (w *connResponseWriter) Header() http.Header {
	return w.header
}

func (w *connResponseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *connResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *connResponseWriter) writeTo(out io.Writer) error {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.header.Set("Connection", "close")
	w.header.Set(echo.HeaderContentLength, strconv.Itoa(w.body.Len()))

	res := &http.Response{
		StatusCode:    w.status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        w.header,
		ContentLength: int64(w.body.Len()),
		Body:          io.NopCloser(&w.body),
		Close:         true,
	}
	return res.Write(out)
}
