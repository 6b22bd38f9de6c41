package model

import "time"

type Level struct {
	XP    int
	Title string
}

// Levels is ordered by ascending XP threshold.
var Levels = []Level{
	{XP: 0, Title: "Recém-nascido"},
	{XP: 100, Title: "Curioso"},
	{XP: 300, Title: "Mini Gênio"},
	{XP: 600, Title: "Sabichão"},
	{XP: 1000, Title: "Mestre do Saber"},
}

func LevelTitle(xp int) string {
	for i := len(Levels) - 1; i >= 0; i-- {
		if xp >= Levels[i].XP {
			return Levels[i].Title
		}
	}
	return Levels[0].Title
}

// AgeInDays counts whole days since birth, starting at day 1.
func AgeInDays(birthDate, now time.Time) int {
	days := int(now.Sub(birthDate) / (24 * time.Hour))
	if days <= 0 {
		return 1
	}
	return days
}
