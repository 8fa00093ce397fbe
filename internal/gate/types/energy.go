package types

type DeviceUsageDTO struct {
	Device       string  `json:"device"`
	State        string  `json:"state"`
	TodayMinutes float64 `json:"today_minutes"`
	WeekMinutes  float64 `json:"week_minutes"`
}

type EnergyUsageResponse struct {
	OK         bool             `json:"ok"`
	Devices    []DeviceUsageDTO `json:"devices"`
	ServerTime string           `json:"server_time"`
}

// EnergyEventRequest is a manual ledger entry.  At is optional RFC3339.
type EnergyEventRequest struct {
	Device string `json:"device"`
	State  string `json:"state"`
	At     string `json:"at,omitempty"`
}

type UsageEventDTO struct {
	Device string `json:"device"`
	State  string `json:"state"`
	At     string `json:"at"`
}

type ActivityResponse struct {
	OK     bool            `json:"ok"`
	Events []UsageEventDTO `json:"events"`
}

type DeviceCommandResponse struct {
	OK        bool     `json:"ok"`
	Device    string   `json:"device"`
	State     string   `json:"state"`
	Command   string   `json:"command"`
	Delivered bool     `json:"delivered"`
	Warnings  []string `json:"warnings,omitempty"`
}
