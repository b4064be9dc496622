// Package kml renders activity tracks as a KML document for Google Earth.
// Tracks come from the activity's summary polyline, so a KML export needs no
// per-activity stream fetches.
package kml

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/twpayne/go-polyline"

	"git.home.luguber.info/inful/ridelog/internal/strava"
)

// Placemark is a single activity track in the document.
type Placemark struct {
	Name        string
	Description string
	When        string
	Coordinates string
}

// Document is the rendering model for one KML file.
type Document struct {
	Name       string
	Placemarks []Placemark
}

var tmpl = template.Must(template.New("kml").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>{{.Name}}</name>
    <Style id="track">
      <LineStyle>
        <color>ff0000ff</color>
        <width>3</width>
      </LineStyle>
    </Style>
{{- range .Placemarks}}
    <Placemark>
      <name>{{.Name}}</name>
      <description>{{.Description}}</description>
      <TimeStamp><when>{{.When}}</when></TimeStamp>
      <styleUrl>#track</styleUrl>
      <LineString>
        <tessellate>1</tessellate>
        <coordinates>{{.Coordinates}}</coordinates>
      </LineString>
    </Placemark>
{{- end}}
  </Document>
</kml>
`))

// FromActivities builds a document from activity summaries. Activities
// without an encoded track (manual entries, trainer rides) are skipped.
func FromActivities(name string, activities []strava.Activity) (Document, error) {
	doc := Document{Name: name}
	for _, a := range activities {
		encoded := a.Map.SummaryPolyline
		if encoded == "" {
			continue
		}
		coords, _, err := polyline.DecodeCoords([]byte(encoded))
		if err != nil {
			return Document{}, fmt.Errorf("decode polyline for activity %d: %w", a.ID, err)
		}
		doc.Placemarks = append(doc.Placemarks, Placemark{
			Name:        escapeText(a.Name),
			Description: describeActivity(a),
			When:        a.StartLocal().Format("2006-01-02T15:04:05"),
			Coordinates: coordinateString(coords),
		})
	}
	return doc, nil
}

// Render writes the document as KML.
func Render(w io.Writer, doc Document) error {
	return tmpl.Execute(w, doc)
}

// coordinateString renders decoded lat/lng pairs in KML lon,lat order.
func coordinateString(coords [][]float64) string {
	var b strings.Builder
	for i, c := range coords {
		if len(c) < 2 {
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.5f,%.5f,0", c[1], c[0])
	}
	return b.String()
}

func describeActivity(a strava.Activity) string {
	return escapeText(fmt.Sprintf("%s, %.1f km, %s moving",
		a.Type, a.Distance/1000, formatDuration(a.MovingTime)))
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%d:%02d", h, m)
}

// escapeText escapes XML-significant characters in user-supplied names.
func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
