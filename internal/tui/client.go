package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the burrow API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// Snapshot fetches stats, tasks, minions, enemies and workplaces.
func (c *Client) Snapshot(state string) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := c.get("/scheduler/stats", &snap.Stats); err != nil {
		return nil, err
	}
	path := "/tasks"
	if state != "" {
		path += "?state=" + url.QueryEscape(state)
	}
	if err := c.get(path, &snap.Tasks); err != nil {
		return nil, err
	}
	if err := c.get("/minions", &snap.Minions); err != nil {
		return nil, err
	}
	if err := c.get("/enemies", &snap.Enemies); err != nil {
		return nil, err
	}
	if err := c.get("/workplaces", &snap.Workplaces); err != nil {
		return nil, err
	}
	return snap, nil
}

// CompleteTask marks a task completed.
func (c *Client) CompleteTask(id string) error {
	_, err := c.post("/tasks/"+id+"/complete", nil)
	return err
}

// CancelTask cancels a task.
func (c *Client) CancelTask(id string) error {
	_, err := c.post("/tasks/"+id+"/cancel", nil)
	return err
}

// CreateTask registers a generic task and returns its id.
func (c *Client) CreateTask(priority string, maxExecutors int) (string, error) {
	body := map[string]interface{}{
		"priority":      priority,
		"max_executors": maxExecutors,
	}
	resp, err := c.post("/tasks", body)
	if err != nil {
		return "", err
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// AddMinion registers a minion and returns its id.
func (c *Client) AddMinion(name string) (string, error) {
	body := map[string]interface{}{
		"name":             name,
		"health":           100,
		"escape_threshold": 20,
		"stamina":          100,
	}
	resp, err := c.post("/minions", body)
	if err != nil {
		return "", err
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// KillMinion reports a minion's death.
func (c *Client) KillMinion(id string) error {
	_, err := c.post("/minions/"+id+"/kill", nil)
	return err
}

// ReportEnemy reports a hostile at a position.
func (c *Client) ReportEnemy(id string, pos Vec3) error {
	_, err := c.post("/enemies", map[string]interface{}{"id": id, "position": pos})
	return err
}

// KillEnemy reports a hostile's death.
func (c *Client) KillEnemy(id string) error {
	_, err := c.post("/enemies/"+id+"/kill", nil)
	return err
}

// CheckHealth checks if the daemon is healthy
func (c *Client) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var health struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, err
	}
	return health.OK, nil
}

func (c *Client) get(path string, v interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	var payload io.Reader = http.NoBody
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(jsonData)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(body))
	}
	return body, nil
}
