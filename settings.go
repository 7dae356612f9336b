package planar

import (
	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/constraint"
)

// Settings holds the world wide simulation parameters.
type Settings struct {
	constraint.Settings

	// SleepThreshold is given to bodies that have none of their own.
	SleepThreshold float64
	// LinearDamping and AngularDamping replace the default damping of 1 on
	// bodies added to the world.
	LinearDamping  float64
	AngularDamping float64
}

func DefaultSettings() Settings {
	return Settings{
		Settings:       constraint.DefaultSettings(),
		SleepThreshold: actor.DefaultSleepThreshold,
		LinearDamping:  1.0,
		AngularDamping: 1.0,
	}
}

// withDefaults fills the zero fields, so a partially filled Settings works.
// A negative Slop turns the slop off.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Iterations <= 0 {
		s.Iterations = d.Iterations
	}
	if s.Baumgarte <= 0 {
		s.Baumgarte = d.Baumgarte
	}
	switch {
	case s.Slop == 0:
		s.Slop = d.Slop
	case s.Slop < 0:
		s.Slop = 0
	}
	if s.RestitutionThreshold <= 0 {
		s.RestitutionThreshold = d.RestitutionThreshold
	}
	if s.MatchTolerance <= 0 {
		s.MatchTolerance = d.MatchTolerance
	}
	if s.SleepThreshold <= 0 {
		s.SleepThreshold = d.SleepThreshold
	}
	if s.LinearDamping <= 0 {
		s.LinearDamping = d.LinearDamping
	}
	if s.AngularDamping <= 0 {
		s.AngularDamping = d.AngularDamping
	}
	return s
}
