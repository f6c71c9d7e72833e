// Package metrics defines the sink components report to.
package metrics

import "time"

// Sink receives observations from the intake components.
type Sink interface {
	Delivered(family string)
	Outcome(family, outcome string)
	TransientFailure(family string)
	WorkItemEmitted(itemType string)
	WorkItemsVoided(count int)
	Verdict(verdict string)
	ProcessingDuration(family string, d time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Delivered(string)                         {}
func (Nop) Outcome(string, string)                   {}
func (Nop) TransientFailure(string)                  {}
func (Nop) WorkItemEmitted(string)                   {}
func (Nop) WorkItemsVoided(int)                      {}
func (Nop) Verdict(string)                           {}
func (Nop) ProcessingDuration(string, time.Duration) {}

// RelaySink receives observations from the work item relay.
type RelaySink interface {
	WorkItemPublished(itemType string)
	WorkItemPublishFailed(itemType string)
}

func (Nop) WorkItemPublished(string)     {}
func (Nop) WorkItemPublishFailed(string) {}
