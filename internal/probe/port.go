package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

const defaultDialTimeout = 500 * time.Millisecond

// PortProbe reports whether a TCP port on the loopback interface has a
// listener. A refused or timed-out connection means "not listening",
// never an error.
type PortProbe struct {
	Port    int
	Timeout time.Duration
}

func (p PortProbe) Check(ctx context.Context) (bool, error) {
	if p.Port <= 0 {
		return false, nil
	}
	to := p.Timeout
	if to <= 0 {
		to = defaultDialTimeout
	}
	d := net.Dialer{Timeout: to}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(p.Port)))
	if err != nil {
		return false, nil
	}
	_ = conn.Close()
	return true, nil
}

func (p PortProbe) Describe() string { return "port:" + strconv.Itoa(p.Port) }
