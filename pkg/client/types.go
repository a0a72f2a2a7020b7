package client

// ServiceStatus represents the reported state of a single service
type ServiceStatus struct {
	Name        string `json:"name"`
	Running     bool   `json:"running"`
	PID         int    `json:"pid,omitempty"`
	StartedUnix int64  `json:"started_unix,omitempty"`
	Port        int    `json:"port,omitempty"`
	PortBound   bool   `json:"port_bound"`
	Health      string `json:"health,omitempty"`
	DetectedBy  string `json:"detected_by,omitempty"`
}

// ActionResult represents the outcome of a start/stop/restart request
type ActionResult struct {
	Service string `json:"service"`
	Result  string `json:"result"`
	Detail  string `json:"detail,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
