package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type session struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

type window struct {
	ID       string `json:"id"`
	IsBooked bool   `json:"is_booked"`
}

type professor struct {
	ID      string   `json:"id"`
	Windows []window `json:"windows"`
}

type request struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type partition struct {
	Pending  []request `json:"pending"`
	Approved []request `json:"approved"`
}

type client struct {
	http *http.Client
	base string
}

func main() {
	var (
		base    string
		timeout time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including the prefix")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	c := &client{http: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/")}
	if err := run(c); err != nil {
		log.Printf("smoke FAILED: %v", err)
		os.Exit(1)
	}
	log.Println("smoke passed")
}

func run(c *client) error {
	suffix := uuid.NewString()[:8]

	var prof, student session
	if err := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "prof-" + suffix + "@smoke.test", "password": "smoke-password", "full_name": "Prof " + suffix, "role": "professor",
	}, http.StatusCreated, &prof); err != nil {
		return fmt.Errorf("register professor: %w", err)
	}
	if err := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "student-" + suffix + "@smoke.test", "password": "smoke-password", "full_name": "Student " + suffix, "role": "student",
	}, http.StatusCreated, &student); err != nil {
		return fmt.Errorf("register student: %w", err)
	}

	var created window
	if err := c.do(http.MethodPost, "/professor/windows", prof.AccessToken, map[string]string{
		"date": "2099-01-01", "start_time": "09:00", "end_time": "10:00",
	}, http.StatusCreated, &created); err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	log.Printf("window %s created", created.ID)

	var professors []professor
	if err := c.do(http.MethodGet, "/student/professors", student.AccessToken, nil, http.StatusOK, &professors); err != nil {
		return fmt.Errorf("browse professors: %w", err)
	}
	if !listsWindow(professors, prof.User.ID, created.ID) {
		return fmt.Errorf("window %s not offered to the student", created.ID)
	}

	var booked request
	if err := c.do(http.MethodPost, "/student/bookings", student.AccessToken, map[string]string{
		"professor_id": prof.User.ID, "window_id": created.ID,
	}, http.StatusCreated, &booked); err != nil {
		return fmt.Errorf("book window: %w", err)
	}
	if err := c.do(http.MethodPost, "/student/bookings", student.AccessToken, map[string]string{
		"professor_id": prof.User.ID, "window_id": created.ID,
	}, http.StatusConflict, nil); err != nil {
		return fmt.Errorf("second booking: %w", err)
	}

	var pending partition
	if err := c.do(http.MethodGet, "/professor/requests", prof.AccessToken, nil, http.StatusOK, &pending); err != nil {
		return fmt.Errorf("list requests: %w", err)
	}
	if len(pending.Pending) != 1 || pending.Pending[0].ID != booked.ID {
		return fmt.Errorf("expected request %s pending, got %+v", booked.ID, pending)
	}

	var approved partition
	if err := c.do(http.MethodPost, "/professor/requests/"+booked.ID+"/approve", prof.AccessToken, nil, http.StatusOK, &approved); err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	if len(approved.Pending) != 0 || len(approved.Approved) != 1 {
		return fmt.Errorf("unexpected partition after approve: %+v", approved)
	}

	var mine []request
	if err := c.do(http.MethodGet, "/student/requests", student.AccessToken, nil, http.StatusOK, &mine); err != nil {
		return fmt.Errorf("student requests: %w", err)
	}
	if len(mine) != 1 || mine[0].Status != "approved" {
		return fmt.Errorf("student sees %+v, want one approved request", mine)
	}

	if err := c.do(http.MethodGet, "/student/professors", student.AccessToken, nil, http.StatusOK, &professors); err != nil {
		return fmt.Errorf("browse professors after booking: %w", err)
	}
	if listsWindow(professors, prof.User.ID, created.ID) {
		return fmt.Errorf("booked window %s still offered", created.ID)
	}
	return nil
}

func listsWindow(professors []professor, professorID, windowID string) bool {
	for _, p := range professors {
		if p.ID != professorID {
			continue
		}
		for _, w := range p.Windows {
			if w.ID == windowID {
				return true
			}
		}
	}
	return false
}

func (c *client) do(method, path, token string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, want, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	return json.Unmarshal(env.Data, out)
}
