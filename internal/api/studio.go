package api

import "context"

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// ChangeSummary reports entity counts. The degraded-mode poller uses it
// as a lightweight probe that the REST side is reachable; views compare
// counts across polls to decide whether a refetch found anything new.
type ChangeSummary struct {
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Lessons  int `json:"lessons"`
}

// Health checks that the studio API is reachable and serving.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.get(ctx, "/api/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary fetches the current entity counts.
func (c *Client) Summary(ctx context.Context) (*ChangeSummary, error) {
	var out ChangeSummary
	if err := c.get(ctx, "/api/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping issues a bare probe request without retries. It reports only
// reachability, which is all the fallback poller needs per tick.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "/api/health")
	return err
}
