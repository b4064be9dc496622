package bikelog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ridelog/internal/strava"
)

func ride(name string, start time.Time, meters float64, moving int, gain float64, gearID string) strava.Activity {
	return strava.Activity{
		Name:               name,
		Type:               "Ride",
		Distance:           meters,
		MovingTime:         moving,
		TotalElevationGain: gain,
		StartDateLocal:     strava.LocalTime{Time: start},
		GearID:             gearID,
	}
}

func TestFromActivities_MapsGearAndFormatsFields(t *testing.T) {
	acts := []strava.Activity{
		ride("Commute", time.Date(2024, 1, 7, 8, 0, 0, 0, time.Local), 15432, 3720, 219.6, "b123"),
	}
	gears := map[string]string{"b123": "Gravel bike"}

	p := FromActivities(acts, gears, "Road bike")
	require.Len(t, p.Entries, 1)

	e := p.Entries[0]
	require.Equal(t, "07.01.2024", e.Date)
	require.Equal(t, "15.4", e.Km)
	require.Equal(t, "1:02", e.Duration)
	require.Equal(t, 220, e.Ascent)
	require.Equal(t, "Gravel bike", e.Bike)
}

func TestFromActivities_FallsBackToDefaultGear(t *testing.T) {
	acts := []strava.Activity{
		ride("No gear", time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local), 10000, 1800, 50, ""),
	}

	p := FromActivities(acts, nil, "Road bike")
	require.Equal(t, "Road bike", p.Entries[0].Bike)
}

func TestFromActivities_SkipsNonRides_SortsOldestFirst(t *testing.T) {
	acts := []strava.Activity{
		ride("Second", time.Date(2024, 3, 2, 9, 0, 0, 0, time.Local), 20000, 3600, 100, ""),
		{Name: "Run", Type: "Run", StartDateLocal: strava.LocalTime{Time: time.Date(2024, 3, 1, 7, 0, 0, 0, time.Local)}},
		ride("First", time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local), 10000, 1800, 50, ""),
	}

	p := FromActivities(acts, nil, "Bike")
	require.Len(t, p.Entries, 2)
	require.Equal(t, "01.03.2024", p.Entries[0].Date)
	require.Equal(t, "02.03.2024", p.Entries[1].Date)
}

func TestRender_ProducesImportPayload(t *testing.T) {
	acts := []strava.Activity{
		ride("Commute", time.Date(2024, 1, 7, 8, 0, 0, 0, time.Local), 15000, 3600, 100, "b1"),
	}

	var sb strings.Builder
	require.NoError(t, Render(&sb, FromActivities(acts, map[string]string{"b1": "City bike"}, "")))
	out := sb.String()

	require.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	require.Contains(t, out, `<bikelog generated="`)
	require.Contains(t, out, `<ride date="07.01.2024" km="15.0" duration="1:00" ascent="100" bike="City bike"/>`)
}
