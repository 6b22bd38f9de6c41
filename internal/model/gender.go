package model

type Gender string

const (
	GenderBoy     = Gender("boy")
	GenderGirl    = Gender("girl")
	GenderNeutral = Gender("neutral")
)

func ParseGender(s string) (Gender, bool) {
	switch s {
	case "boy", "menino", "Menino":
		return GenderBoy, true
	case "girl", "menina", "Menina":
		return GenderGirl, true
	case "neutral", "neutro", "Neutro":
		return GenderNeutral, true
	default:
		return "", false
	}
}

func Genders() []Gender {
	return []Gender{GenderBoy, GenderGirl, GenderNeutral}
}
