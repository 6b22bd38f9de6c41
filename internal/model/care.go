package model

type CareAction string

const (
	CareFeed  = CareAction("feed")
	CareBathe = CareAction("bathe")
	CareSleep = CareAction("sleep")
	CarePlay  = CareAction("play")
)

const (
	HungryThreshold = 70
	SleepyThreshold = 20
)

type CareEffect struct {
	Hunger int
	Energy int
	XP     int
	Mood   Mood
}

var careEffects = map[CareAction]CareEffect{
	CareFeed:  {Hunger: -40, Energy: 5, XP: 1, Mood: MoodHappy},
	CareBathe: {Hunger: 5, Energy: -5, XP: 1, Mood: MoodHappy},
	CareSleep: {Hunger: 10, Energy: 50, XP: 0, Mood: MoodHappy},
	CarePlay:  {Hunger: 15, Energy: -20, XP: 5, Mood: MoodHappy},
}

func CareActions() []CareAction {
	return []CareAction{CareFeed, CareBathe, CareSleep, CarePlay}
}

func ParseCareAction(s string) (CareAction, bool) {
	action := CareAction(s)
	_, ok := careEffects[action]
	return action, ok
}

func (a CareAction) Effect() CareEffect {
	return careEffects[a]
}

// ApplyCare mutates the baby according to the action effect table and clamps the stats.
func (b *Baby) ApplyCare(action CareAction) {
	effect := action.Effect()
	b.Hunger = Clamp(b.Hunger + effect.Hunger)
	b.Energy = Clamp(b.Energy + effect.Energy)
	b.GainXP(effect.XP)

	switch {
	case b.Hunger >= HungryThreshold:
		b.Mood = MoodHungry
	case b.Energy <= SleepyThreshold:
		b.Mood = MoodSleepy
	default:
		b.Mood = effect.Mood
	}
}
