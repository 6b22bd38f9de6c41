package model

import (
	"time"

	"github.com/google/uuid"
)

type Mood string

const (
	MoodHappy   = Mood("happy")
	MoodSad     = Mood("sad")
	MoodHungry  = Mood("hungry")
	MoodSleepy  = Mood("sleepy")
	MoodCurious = Mood("curious")
)

const (
	StatMin = 0
	StatMax = 100

	InitialHunger = 30
	InitialEnergy = 80
)

type Baby struct {
	ID          uuid.UUID
	Name        string
	Gender      Gender
	BirthDate   time.Time
	XP          int
	Level       string
	Mood        Mood
	Hunger      int
	Energy      int
	UserOwner   string
	Memory      []string
	AvatarImage string
}

func NewBaby(name string, gender Gender, userOwner string, avatarImage string, now time.Time) Baby {
	return Baby{
		ID:          uuid.New(),
		Name:        name,
		Gender:      gender,
		BirthDate:   now,
		XP:          0,
		Level:       LevelTitle(0),
		Mood:        MoodCurious,
		Hunger:      InitialHunger,
		Energy:      InitialEnergy,
		UserOwner:   userOwner,
		Memory:      make([]string, 0),
		AvatarImage: avatarImage,
	}
}

// GainXP adds experience and keeps Level in sync. Negative gains are ignored.
func (b *Baby) GainXP(xp int) {
	if xp > 0 {
		b.XP += xp
	}
	b.Level = LevelTitle(b.XP)
}

func (b *Baby) Learn(fact string) {
	if fact == "" {
		return
	}
	b.Memory = append(b.Memory, fact)
}

func (b Baby) AgeInDays(now time.Time) int {
	return AgeInDays(b.BirthDate, now)
}

func Clamp(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

// ParseMood accepts both the stored codes and the labels used by older saves.
func ParseMood(s string) (Mood, bool) {
	switch s {
	case "happy", "Feliz":
		return MoodHappy, true
	case "sad", "Triste":
		return MoodSad, true
	case "hungry", "Com fome":
		return MoodHungry, true
	case "sleepy", "Sonolento":
		return MoodSleepy, true
	case "curious", "Curioso":
		return MoodCurious, true
	default:
		return "", false
	}
}
