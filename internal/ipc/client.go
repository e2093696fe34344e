package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/matjam/wlpaper"
	"resty.dev/v3"
)

// Client talks to a running daemon over its control socket.
type Client struct {
	rc *resty.Client
}

func NewClient(path string) *Client {
	rc := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
			DisableKeepAlives: true,
		},
	})

	rc.SetBaseURL("http://wlpaper")
	rc.SetHeader("Content-Type", "application/json")
	rc.SetHeader("Accept", "application/json")
	rc.SetHeader("User-Agent", "wlpaper/"+strings.TrimSpace(wlpaper.Version))

	return &Client{rc: rc}
}

// Send performs one exchange. Transport failures are returned as errors;
// an err answer from the daemon is returned as an Answer.
func (c *Client) Send(req Request) (Answer, error) {
	method, path := routeFor(req.Kind)

	r := c.rc.R()
	switch req.Kind {
	case RequestClear:
		r.SetBody(req.Clear)
	case RequestImg:
		r.SetBody(req.Img)
	case RequestAnimation:
		r.SetBody(req.Animation)
	}

	res, err := r.Execute(method, path)
	if err != nil {
		return Answer{}, fmt.Errorf("error sending %s request: %w", req.Kind, err)
	}

	var answer Answer
	if err := json.Unmarshal(res.Bytes(), &answer); err != nil {
		return Answer{}, fmt.Errorf("error decoding %s answer (%s): %w", req.Kind, res.Status(), err)
	}
	return answer, nil
}

func (c *Client) Close() error {
	return c.rc.Close()
}

// SendRequest sends req to the daemon listening on SocketPath and turns
// an err answer into an error.
func SendRequest(req Request) (Answer, error) {
	c := NewClient(SocketPath())
	defer c.Close()

	answer, err := c.Send(req)
	if err != nil {
		return Answer{}, err
	}
	if answer.Kind == AnswerErr {
		return answer, fmt.Errorf("daemon error: %s", answer.Message)
	}
	return answer, nil
}

func SendInit() error {
	_, err := SendRequest(Request{Kind: RequestInit})
	return err
}

func SendKill() error {
	_, err := SendRequest(Request{Kind: RequestKill})
	return err
}

func SendQuery() ([]BgInfo, error) {
	answer, err := SendRequest(Request{Kind: RequestQuery})
	if err != nil {
		return nil, err
	}
	if answer.Kind != AnswerInfo {
		return nil, fmt.Errorf("unexpected answer to query: %s", answer.Kind)
	}
	return answer.Info, nil
}
