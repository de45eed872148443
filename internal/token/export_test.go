package token

import "time"

// SetClock lets tests pin the issuer's notion of now.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }
