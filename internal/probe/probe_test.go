package probe

import "testing"

// Describe strings surface as the detected_by field in status output.
func TestDescribeLabels(t *testing.T) {
	cases := []struct {
		p    Probe
		want string
	}{
		{PatternProbe{Pattern: "queue_worker.py"}, "pattern:queue_worker.py"},
		{PortProbe{Port: 8100}, "port:8100"},
		{HTTPProbe{URL: "http://127.0.0.1:8100/health"}, "http:http://127.0.0.1:8100/health"},
	}
	for _, c := range cases {
		if got := c.p.Describe(); got != c.want {
			t.Fatalf("Describe() = %q, want %q", got, c.want)
		}
	}
}
