package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2beens/trackfit/internal/workouts/stats"
)

const barWidth = 20

func renderBundle(b *stats.Bundle) string {
	sections := []string{
		titleStyle.Render(fmt.Sprintf("Workout stats, %s up to %s", b.Period, b.Today)),
		renderOverview(b),
		renderWeight(b.WeightTrend),
		renderShares("Muscle group focus", b.MuscleGroupFocus),
		renderShares("Workout types", b.WorkoutTypes),
		renderWeekdays(b),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func renderOverview(b *stats.Bundle) string {
	rows := []string{
		row("Entries", fmt.Sprintf("%d", b.EntryCount)),
		row("Total volume", formatVolume(b.TotalVolume)),
		row("Current streak", fmt.Sprintf("%d days", b.CurrentStreak)),
		row("Longest streak", fmt.Sprintf("%d days", b.LongestStreak)),
		row("This month", fmt.Sprintf("%d days, %d workouts", b.ThisMonth.DaysLogged, b.ThisMonth.Workouts)),
		row("Cardio days", fmt.Sprintf("%d", b.CardioDays)),
		row("Personal records", fmt.Sprintf("%d", b.PersonalRecords)),
	}
	if b.SkippedEntries > 0 {
		rows = append(rows, silentStyle.Render(fmt.Sprintf("%d entries skipped (unreadable date)", b.SkippedEntries)))
	}
	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderWeight(trend stats.WeightTrend) string {
	if trend.Latest == nil {
		return sectionStyle.Render(row("Body weight", silentStyle.Render("no data")))
	}

	direction := gainingStyle.Render(string(trend.Trend))
	if trend.Trend == stats.TrendLosing {
		direction = losingStyle.Render(string(trend.Trend))
	}
	if !trend.HasTrend {
		direction = silentStyle.Render("not enough data")
	}

	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		row("Body weight", fmt.Sprintf("%.1f %s", *trend.Latest, trend.Unit)),
		row("Range", fmt.Sprintf("%.0f - %.0f %s", trend.Min, trend.Max, trend.Unit)),
		row("Trend", direction),
	))
}

func renderShares(title string, shares []stats.Share) string {
	rows := []string{titleStyle.Render(title)}
	if len(shares) == 0 {
		rows = append(rows, silentStyle.Render("no data"))
	}
	for _, s := range shares {
		rows = append(rows, row(s.Label, fmt.Sprintf("%s %3d%% (%d)", bar(s.Percent, 100), s.Percent, s.Count)))
	}
	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderWeekdays(b *stats.Bundle) string {
	maxCount := 0
	for _, d := range b.WeekdayHistogram {
		maxCount = max(maxCount, d.Count)
	}

	rows := []string{titleStyle.Render(fmt.Sprintf("Workouts per weekday (%s)", b.WeekdayRange))}
	for _, d := range b.WeekdayHistogram {
		rows = append(rows, row(d.Day, fmt.Sprintf("%s %d", bar(d.Count, maxCount), d.Count)))
	}
	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func bar(value, total int) string {
	if total <= 0 || value <= 0 {
		return strings.Repeat(" ", barWidth)
	}
	filled := min(value*barWidth/total, barWidth)
	return strings.Repeat("█", filled) + strings.Repeat(" ", barWidth-filled)
}

func formatVolume(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.1fk", v/1000)
	}
	return fmt.Sprintf("%.0f", v)
}
