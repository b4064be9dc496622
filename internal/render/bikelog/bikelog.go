// Package bikelog renders the XML payload consumed by the bikelog PDF form
// import: one row per ride with date, distance, duration, ascent and bike.
package bikelog

import (
	"fmt"
	"io"
	"sort"
	"text/template"
	"time"

	"git.home.luguber.info/inful/ridelog/internal/strava"
)

// Entry is a single ride row in the payload.
type Entry struct {
	Date     string // dd.mm.yyyy, local date of the ride
	Km       string // distance with one decimal
	Duration string // h:mm moving time
	Ascent   int    // meters climbed, rounded
	Bike     string
}

// Payload is the rendering model for one import file.
type Payload struct {
	Generated string
	Entries   []Entry
}

var tmpl = template.Must(template.New("bikelog").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<bikelog generated="{{.Generated}}">
{{- range .Entries}}
  <ride date="{{.Date}}" km="{{.Km}}" duration="{{.Duration}}" ascent="{{.Ascent}}" bike="{{.Bike}}"/>
{{- end}}
</bikelog>
`))

// FromActivities builds a payload from ride activities, oldest first. Gear
// IDs are mapped to bike names via gears; activities without a mapping fall
// back to defaultGear. Non-ride activity types are skipped.
func FromActivities(activities []strava.Activity, gears map[string]string, defaultGear string) Payload {
	rides := make([]strava.Activity, 0, len(activities))
	for _, a := range activities {
		if isRide(a) {
			rides = append(rides, a)
		}
	}
	sort.SliceStable(rides, func(i, j int) bool {
		return rides[i].StartLocal().Before(rides[j].StartLocal())
	})

	p := Payload{Generated: time.Now().Format("2006-01-02")}
	for _, a := range rides {
		bike := gears[a.GearID]
		if bike == "" {
			bike = defaultGear
		}
		p.Entries = append(p.Entries, Entry{
			Date:     a.StartLocal().Format("02.01.2006"),
			Km:       fmt.Sprintf("%.1f", a.Distance/1000),
			Duration: formatDuration(a.MovingTime),
			Ascent:   int(a.TotalElevationGain + 0.5),
			Bike:     bike,
		})
	}
	return p
}

// Render writes the payload as XML.
func Render(w io.Writer, p Payload) error {
	return tmpl.Execute(w, p)
}

func isRide(a strava.Activity) bool {
	switch a.Type {
	case "Ride", "VirtualRide", "EBikeRide", "Velomobile", "Handcycle":
		return true
	}
	return false
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%d:%02d", h, m)
}
