package services

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"tripweaver/planner"
)

// Document is everything the renderers need for one export.
type Document struct {
	Destination string
	Itinerary   planner.Itinerary
	Weather     []planner.DailyWeatherSummary
	GeneratedAt time.Time
}

// DocumentFromSnapshot builds a Document from a session view. ok is false
// when the session has no itinerary yet.
func DocumentFromSnapshot(snap planner.Snapshot) (doc Document, ok bool) {
	if snap.Itinerary == nil {
		return Document{}, false
	}
	return Document{
		Destination: snap.Destination,
		Itinerary:   *snap.Itinerary,
		Weather:     snap.Weather,
		GeneratedAt: time.Now().UTC(),
	}, true
}

// ExportFilename names the PDF attachment after the destination.
func ExportFilename(destination string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return -1
		case ' ':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(destination))
	if name == "" {
		name = "Itinerary"
	}
	return name + "_Travel_Plan.pdf"
}

// ─── HTML ────────────────────────────────────────────────────────────────────

var markdown = goldmark.New()

// inlineMarkup renders emphasis markup in s. Raw HTML in s is dropped.
func inlineMarkup(s string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	out := strings.TrimSpace(buf.String())
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return template.HTML(out)
}

var markerRe = regexp.MustCompile(`\*\*|__|\*|` + "`")

// plainText strips emphasis markers for outputs without rich text.
func plainText(s string) string {
	return strings.TrimSpace(markerRe.ReplaceAllString(s, ""))
}

var pageTmpl = template.Must(template.New("itinerary").Funcs(template.FuncMap{
	"markup": inlineMarkup,
	"date":   func(t time.Time) string { return t.Format("Mon 02 Jan") },
	"temp":   func(c float64) string { return fmt.Sprintf("%.0f°C", c) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{if .Destination}}{{.Destination}} {{end}}Travel Plan</title>
</head>
<body>
<article class="itinerary">
<h1>{{if .Destination}}{{.Destination}}{{else}}Your Trip{{end}}</h1>
{{- if .Weather}}
<section class="weather">
{{- range .Weather}}
<div class="weather-card"><strong>Day {{.DayIndex}}</strong> <span>{{date .Date}}</span> <span>{{.Description}}</span> <span>{{temp .TemperatureC}}</span></div>
{{- end}}
</section>
{{- end}}
<section class="summary"><p>{{markup .Itinerary.Summary}}</p></section>
{{- range .Itinerary.Days}}
<section class="day" id="day-{{.Day}}">
<h2>Day {{.Day}}</h2>
<table>
{{- range .Activities}}
<tr><th>{{.Time}}</th><td>{{markup .Activity}}</td></tr>
{{- end}}
</table>
</section>
{{- end}}
<section class="logistics"><h2>Logistics</h2><p>{{markup .Itinerary.Logistics}}</p></section>
<section class="packing"><h2>Packing</h2><p>{{markup .Itinerary.Packing}}</p></section>
</article>
</body>
</html>
`))

// RenderHTML renders doc as a standalone HTML page.
func RenderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render itinerary: %w", err)
	}
	return buf.Bytes(), nil
}
