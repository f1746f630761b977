package attendance

import (
	"fmt"
	"sort"
	"time"
)

// ReportRow is the derived daily-report view of a record.
type ReportRow struct {
	Name     string `json:"name"`
	Entity   string `json:"entity"`
	Login    string `json:"loginTime"`
	Logout   string `json:"logoutTime"`
	Duration string `json:"duration"`
	Status   string `json:"status"`
}

// StatusActive and StatusCheckedOut are the two displayed record states.
const (
	StatusActive     = "Active"
	StatusCheckedOut = "Checked Out"
)

// Row derives the report view of a single record.
func (r *Record) Row() ReportRow {
	start := r.FirstSeen
	if r.ManualIn != nil {
		start = *r.ManualIn
	}
	end := r.LastSeen
	if r.ManualOut != nil {
		end = *r.ManualOut
	}

	status := StatusActive
	if r.CheckedOut() {
		status = StatusCheckedOut
	}

	return ReportRow{
		Name:     r.Name,
		Entity:   r.Entity,
		Login:    start.Format("15:04:05"),
		Logout:   end.Format("15:04:05"),
		Duration: formatDuration(r.Duration()),
		Status:   status,
	}
}

// Report derives the daily report for the whole book, sorted by name.
// An empty entity filter includes every record.
func (b Book) Report(entity string) []ReportRow {
	rows := make([]ReportRow, 0, len(b))
	for _, rec := range b {
		if entity != "" && rec.Entity != entity {
			continue
		}
		rows = append(rows, rec.Row())
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}

func formatDuration(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dh %dm", h, m)
}
