package model

import "errors"

var ErrViewTransitionNotAllowed = errors.New("view transition not allowed")

type View string

const (
	ViewLogin     = View("LOGIN")
	ViewSignup    = View("SIGNUP")
	ViewDashboard = View("DASHBOARD")
	ViewTeach     = View("TEACH")
	ViewChat      = View("CHAT")
	ViewRebirth   = View("REBIRTH")
)

var viewTransitions = map[View][]View{
	ViewLogin:     {ViewSignup, ViewDashboard, ViewRebirth},
	ViewSignup:    {ViewLogin, ViewDashboard},
	ViewDashboard: {ViewChat, ViewTeach, ViewRebirth, ViewLogin},
	ViewChat:      {ViewDashboard},
	ViewTeach:     {ViewDashboard},
	ViewRebirth:   {ViewDashboard},
}

func (v View) CanGoTo(next View) bool {
	if v == next {
		return true
	}
	for _, allowed := range viewTransitions[v] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RequiresBaby reports whether the view only makes sense with a loaded pet record.
func (v View) RequiresBaby() bool {
	switch v {
	case ViewDashboard, ViewChat, ViewTeach:
		return true
	default:
		return false
	}
}
