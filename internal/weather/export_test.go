package weather

import "time"

// SetClock fixes "today" for tests.
func (c *Client) SetClock(now func() time.Time) { c.now = now }
