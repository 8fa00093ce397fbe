package types

type TelemetryDTO struct {
	Message    string `json:"message"`
	ReceivedAt string `json:"received_at"`
}

type StatusResponse struct {
	OK             bool          `json:"ok"`
	LinkConnected  bool          `json:"link_connected"`
	KnownFaces     int           `json:"known_faces"`
	MatchTolerance float64       `json:"match_tolerance"`
	Telemetry      *TelemetryDTO `json:"telemetry,omitempty"`
	ServerTime     string        `json:"server_time"`
}

type ReloadResponse struct {
	OK         bool `json:"ok"`
	Identities int  `json:"identities"`
	Images     int  `json:"images"`
	Loaded     int  `json:"loaded"`
	Skipped    int  `json:"skipped"`
}

type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
