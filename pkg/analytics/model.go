package analytics

import "time"

// Summary is the headline counter row shown at the top of the dashboard.
type Summary struct {
	TotalEvents   int64 `json:"total_events"`
	Blocked       int64 `json:"blocked"`
	Allowed       int64 `json:"allowed"`
	UniqueSources int   `json:"unique_sources"`
	ActivePorts   int   `json:"active_ports"`
}

type TimelinePoint struct {
	Bucket  time.Time `json:"bucket"`
	Total   int64     `json:"total"`
	Blocked int64     `json:"blocked"`
	Allowed int64     `json:"allowed"`
}

// Timeline is a bucketed event-count series over the selected window.
type Timeline struct {
	Interval string          `json:"interval"`
	Points   []TimelinePoint `json:"points"`
}

type RuleHits struct {
	Rule string `json:"rule"`
	Hits int64  `json:"hits"`
}

// Blocked breaks blocked traffic down by the firewall rule that dropped it.
type Blocked struct {
	Total  int64      `json:"total"`
	ByRule []RuleHits `json:"by_rule"`
}

type SourceStat struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Events  int64  `json:"events"`
	Blocked int64  `json:"blocked"`
}

type TopSources struct {
	Sources []SourceStat `json:"sources"`
}

type PortStat struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	Hits     int64  `json:"hits"`
}

type TopPorts struct {
	Ports []PortStat `json:"ports"`
}

type ProtocolStat struct {
	Protocol string `json:"protocol"`
	Events   int64  `json:"events"`
}

type Protocols struct {
	Protocols []ProtocolStat `json:"protocols"`
}

type CountryStat struct {
	Country string `json:"country"`
	Code    string `json:"code"`
	Events  int64  `json:"events"`
}

type Geo struct {
	Countries []CountryStat `json:"countries"`
}

// ScanEpisode is one detected port-scan run. Detection happens upstream;
// the dashboard only renders the episodes.
type ScanEpisode struct {
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Ports     int       `json:"ports"`
	Kind      string    `json:"kind"`
}

type PortScans struct {
	Scans []ScanEpisode `json:"scans"`
}

type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	SourceIP   string    `json:"source_ip"`
	SourcePort int       `json:"source_port"`
	DestPort   int       `json:"dest_port"`
	Protocol   string    `json:"protocol"`
	Action     string    `json:"action"`
	Rule       string    `json:"rule"`
	Country    string    `json:"country"`
}

type Events struct {
	Events []Event `json:"events"`
}
