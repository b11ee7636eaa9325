package export

// export.go — markdown summary export: converts a decoded report into a
// small page bundle for human review.
//
// Bundle layout:
//   index.md      — header data, duty times, carry minutes, decode warnings
//   personnel.md  — person archives and the duty roster
//   boat.md       — boat log scalars and the drive table
//   rescues.md    — rescue counters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"watchlog/internal/codec"
	"watchlog/internal/ident"
	"watchlog/internal/report"
)

// Summary holds pre-generated page content (path → markdown). Paths are
// relative to the output directory, using forward slashes.
type Summary struct {
	pages map[string]string
}

// GenerateSummary builds all summary pages from r. No files are written;
// generation stays a pure function for testability.
func GenerateSummary(r *report.Report, warnings []codec.Warning) *Summary {
	pages := make(map[string]string)
	pages["index.md"] = buildIndexPage(r, warnings)
	pages["personnel.md"] = buildPersonnelPage(r)
	pages["boat.md"] = buildBoatPage(r)
	pages["rescues.md"] = buildRescuesPage(r)
	return &Summary{pages: pages}
}

// WriteSummary writes all pages in s to outputDir. Pages are written in
// sorted path order so repeated runs touch files identically.
func WriteSummary(s *Summary, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outputDir, err)
	}

	paths := make([]string, 0, len(s.pages))
	for p := range s.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		abs := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := os.WriteFile(abs, []byte(s.pages[p]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}

// Page returns the generated content for one bundle path.
func (s *Summary) Page(path string) (string, bool) {
	content, ok := s.pages[path]
	return content, ok
}

// ---------------------------------------------------------------------------
// Page builders
// ---------------------------------------------------------------------------

func buildIndexPage(r *report.Report, warnings []codec.Warning) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Duty Report %d\n\n", r.Serial))
	b.WriteString(fmt.Sprintf("- **Date**: %s\n", orDash(r.Date)))
	b.WriteString(fmt.Sprintf("- **Station**: %s\n", orDash(r.Station)))
	if r.RadioCallName != "" {
		b.WriteString(fmt.Sprintf("- **Radio call name**: %s\n", r.RadioCallName))
	}
	b.WriteString(fmt.Sprintf("- **Purpose**: %s\n", r.Purpose))
	if r.PurposeComment != "" {
		b.WriteString(fmt.Sprintf("- **Purpose comment**: %s\n", r.PurposeComment))
	}
	b.WriteString(fmt.Sprintf("- **Duty**: %s – %s\n", r.Begin, r.End))
	b.WriteString(fmt.Sprintf("- **Personnel carry**: %s\n", minutesText(r.CarryMinutes)))
	if r.AssignmentNo != "" {
		b.WriteString(fmt.Sprintf("- **Assignment number**: %s\n", r.AssignmentNo))
	}

	b.WriteString("\n## Weather\n\n")
	w := r.Weather
	b.WriteString(fmt.Sprintf("%s, %s, wind %s %s, air %d °C, water %d °C\n",
		w.Precipitation, w.Cloudiness, w.WindStrength, w.WindDirection, w.AirTempC, w.WaterTempC))
	if w.Comments != "" {
		b.WriteString("\n" + w.Comments + "\n")
	}

	e := r.Enclosures
	if e.Visitors > 0 || e.Swimmers > 0 || e.Watercraft > 0 {
		b.WriteString("\n## Enclosures\n\n")
		b.WriteString(fmt.Sprintf("- Visitors: %d\n- Swimmers: %d\n- Watercraft: %d\n",
			e.Visitors, e.Swimmers, e.Watercraft))
	}

	if len(r.Resources) > 0 {
		b.WriteString("\n## Resources\n\n")
		b.WriteString("| Resource | From | Until |\n")
		b.WriteString("|----------|------|-------|\n")
		for _, ru := range r.Resources {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", ru.Name, ru.Begin, ru.End))
		}
	}

	if len(warnings) > 0 {
		b.WriteString("\n## Decode Warnings\n\n")
		for _, w := range warnings {
			b.WriteString("- " + w.Detail + "\n")
		}
	}

	if r.Comments != "" {
		b.WriteString("\n## Comments\n\n")
		b.WriteString(r.Comments + "\n")
	}
	return b.String()
}

func buildPersonnelPage(r *report.Report) string {
	var b strings.Builder
	b.WriteString("# Personnel\n\n")

	writeArchive := func(title string, cat ident.Category) {
		persons := r.Personnel(cat)
		if len(persons) == 0 {
			return
		}
		sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
		b.WriteString("## " + title + "\n\n")
		b.WriteString("| Name | Ident | Qualifications | Active |\n")
		b.WriteString("|------|-------|----------------|--------|\n")
		for _, p := range persons {
			b.WriteString(fmt.Sprintf("| %s, %s | `%s` | %s | %s |\n",
				p.Last, p.First, p.ID, orDash(p.Quals.String()), yesNo(p.Active)))
		}
		b.WriteString("\n")
	}
	writeArchive("Members", ident.Internal)
	writeArchive("External", ident.External)

	ids := r.RosterIdents()
	if len(ids) > 0 {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		b.WriteString("## Duty Roster\n\n")
		b.WriteString("| Ident | Function | From | Until |\n")
		b.WriteString("|-------|----------|------|-------|\n")
		for _, id := range ids {
			entry, _ := r.RosterEntryOf(id)
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n",
				id, entry.Function, entry.Begin, entry.End))
		}
	}
	return b.String()
}

func buildBoatPage(r *report.Report) string {
	var b strings.Builder
	bl := r.Boat
	b.WriteString("# Boat Log\n\n")
	b.WriteString(fmt.Sprintf("- **Boat**: %s\n", orDash(bl.BoatName)))
	if bl.RadioCallName != "" {
		b.WriteString(fmt.Sprintf("- **Radio call name**: %s\n", bl.RadioCallName))
	}
	b.WriteString(fmt.Sprintf("- **Ready**: %s – %s\n", bl.ReadyFrom, bl.ReadyUntil))
	b.WriteString(fmt.Sprintf("- **Engine hours**: %d → %d\n", bl.EngineHoursInit, bl.EngineHoursFin))
	b.WriteString(fmt.Sprintf("- **Fuel added**: %d + %d\n", bl.FuelAddedInit, bl.FuelAddedFin))
	b.WriteString(fmt.Sprintf("- **Boat carry**: %s\n", minutesText(bl.CarryMinutes)))
	b.WriteString(fmt.Sprintf("- **Lowered/raised**: %s/%s\n", yesNo(bl.Lowered), yesNo(bl.Raised)))
	if bl.Comments != "" {
		b.WriteString("\n" + bl.Comments + "\n")
	}

	if len(bl.Drives) > 0 {
		b.WriteString("\n## Drives\n\n")
		b.WriteString("| # | Purpose | From | Until | Boatman | Crew |\n")
		b.WriteString("|---|---------|------|-------|---------|------|\n")
		for i, d := range bl.Drives {
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
				i+1, orDash(d.Purpose), d.Begin, d.End, orDash(string(d.Boatman)), crewText(d)))
		}
	}
	return b.String()
}

func buildRescuesPage(r *report.Report) string {
	var b strings.Builder
	b.WriteString("# Rescue Operations\n\n")

	types := make([]string, 0, len(r.Rescues))
	for t := range r.Rescues {
		types = append(types, string(t))
	}
	sort.Strings(types)

	b.WriteString("| Type | Count |\n")
	b.WriteString("|------|-------|\n")
	total := 0
	for _, t := range types {
		n := r.Rescues[report.RescueType(t)]
		total += n
		b.WriteString(fmt.Sprintf("| %s | %d |\n", t, n))
	}
	b.WriteString(fmt.Sprintf("| **total** | **%d** |\n", total))
	return b.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// crewText renders a drive's crew as "ident (role)" entries in sorted ident
// order; guests carry their stored name instead of the raw ident.
func crewText(d report.BoatDrive) string {
	ids := make([]string, 0, len(d.Crew))
	for id := range d.Crew {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := ident.Ident(raw)
		label := raw
		if name, ok := d.Guests[id]; ok {
			label = fmt.Sprintf("%s, %s (guest)", name.Last, name.First)
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", label, d.Crew[id]))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, "; ")
}

func minutesText(m int) string {
	return fmt.Sprintf("%d:%02d h", m/60, m%60)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
