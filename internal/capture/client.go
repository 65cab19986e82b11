package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var ErrAlreadySubmitted = errors.New("attendance already submitted today")

// APIError is a non-2xx reply from the attendance API
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the attendance HTTP API
type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

// Login exchanges an employee number and password for a session token and
// returns the landing page of the account's role
func (c *Client) Login(ctx context.Context, employeeNumber, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"employee_number": employeeNumber,
		"password":        password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token    string `json:"token"`
		Redirect string `json:"redirect"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Redirect, nil
}

// CheckIn is one submission of the check-in form
type CheckIn struct {
	Shift    string
	Area     string
	Position Position
	Photo    []byte
}

// Receipt is what the server recorded
type Receipt struct {
	Status string `json:"status"`
	Record struct {
		Date     string `json:"date"`
		Time     string `json:"time"`
		PhotoURL string `json:"photo_url"`
	} `json:"record"`
}

// Submit posts the check-in as a multipart form
func (c *Client) Submit(ctx context.Context, in CheckIn) (*Receipt, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"shift":     in.Shift,
		"area":      in.Area,
		"latitude":  strconv.FormatFloat(in.Position.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(in.Position.Longitude, 'f', -1, 64),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("photo", "selfie.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(in.Photo); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/attendance", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var receipt Receipt
	if err := c.do(req, &receipt); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}
	return &receipt, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", req.URL.Path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unexpected response %d from %s", res.StatusCode, req.URL.Path)
	}

	if res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: env.Error}
		var data struct {
			Reason string `json:"reason"`
		}
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &data) == nil {
			apiErr.Reason = data.Reason
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
