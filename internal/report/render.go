package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Digital-Shane/vod2strm/internal/library"
	"github.com/Digital-Shane/vod2strm/internal/log"
)

// Inspection renders one output root report under title.
func Inspection(th Theme, title, icon string, rep library.Report) string {
	var b strings.Builder
	b.WriteString(th.HeaderStyle().Render(strings.TrimSpace(th.Icon(icon) + " " + title)))
	b.WriteString("\n")
	b.WriteString(field(th, "Root", rep.Root))

	if !rep.Exists {
		b.WriteString(th.BadgeStyle(BadgeMuted).Render("not created yet"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(field(th, "Files", fmt.Sprintf("%s %d .strm  %s %d .nfo  %s %d artwork  %d other",
		th.Icon("strm"), rep.Strm, th.Icon("nfo"), rep.NFO, th.Icon("artwork"), rep.Artwork, rep.Other)))

	for _, s := range rep.Samples {
		b.WriteString("\n")
		b.WriteString(th.LabelStyle().Render(th.Icon("folder") + " " + filepath.Base(s.Dir)))
		b.WriteString("\n")
		for _, f := range s.Files {
			b.WriteString("  " + f.Path)
			if f.URL != "" {
				b.WriteString("  " + th.MutedStyle().Render(f.URL))
			}
			b.WriteString("\n")
		}
		if s.More > 0 {
			b.WriteString(th.MutedStyle().Render(fmt.Sprintf("  ... %d more", s.More)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// History renders journal sessions, newest first as given.
func History(th Theme, sessions []*log.Session, now time.Time) string {
	var b strings.Builder
	b.WriteString(th.HeaderStyle().Render(th.Icon("stats") + " Recent runs"))
	b.WriteString("\n")
	if len(sessions) == 0 {
		b.WriteString(th.MutedStyle().Render("No journaled runs found."))
		b.WriteString("\n")
		return b.String()
	}

	for _, s := range sessions {
		m := s.Metadata
		status := th.BadgeStyle(BadgeSuccess).Render("ok")
		if m.FailedOps > 0 {
			status = th.BadgeStyle(BadgeError).Render(fmt.Sprintf("%d failed", m.FailedOps))
		}
		line := fmt.Sprintf("%s %s  %s  %d ops", status, commandName(m.CommandArgs),
			RelativeTime(m.Timestamp, now), m.TotalOps)
		if m.DryRun {
			line += " " + th.BadgeStyle(BadgeWarning).Render("dry run")
		}
		b.WriteString(line)
		b.WriteString("\n")

		details := "  " + shortID(m.SessionID)
		if len(m.Accounts) > 0 {
			details += "  accounts: " + strings.Join(m.Accounts, ", ")
		}
		if !m.EndTime.IsZero() && !m.Timestamp.IsZero() {
			details += "  took " + m.EndTime.Sub(m.Timestamp).Round(time.Second).String()
		}
		b.WriteString(th.MutedStyle().Render(details))
		b.WriteString("\n")
	}
	return b.String()
}

// RelativeTime formats t relative to now, switching to a date after a week.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%d minute%s ago", mins, plural(mins))
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func field(th Theme, label, value string) string {
	return th.LabelStyle().Render(label+":") + " " + value + "\n"
}

func commandName(args []string) string {
	if len(args) == 0 {
		return "unknown"
	}
	return args[0]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
