package cachecmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	sweepMessageType   = "writeups.cache.sweep"
	purgeMessageType   = "writeups.cache.purge"
	prewarmMessageType = "writeups.cache.prewarm"
)

// Reasons recorded with every maintenance run.
const (
	ReasonSchedule = "schedule"
	ReasonWatch    = "watch"
	ReasonManual   = "manual"
	ReasonStartup  = "startup"
)

var reasons = []any{ReasonSchedule, ReasonWatch, ReasonManual, ReasonStartup}

// SweepCachesCommand drops stale entries from every cache layer. It never
// changes hit or miss outcomes.
type SweepCachesCommand struct {
	Reason string `json:"reason"`
}

func (SweepCachesCommand) Type() string { return sweepMessageType }

func (cmd SweepCachesCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Reason, validation.Required, validation.In(reasons...)),
	)
}

// PurgeCachesCommand clears every cache layer. Paths lists the content
// files that triggered the purge, when known.
type PurgeCachesCommand struct {
	Reason string   `json:"reason"`
	Paths  []string `json:"paths,omitempty"`
}

func (PurgeCachesCommand) Type() string { return purgeMessageType }

func (cmd PurgeCachesCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Reason, validation.Required, validation.In(reasons...)),
		validation.Field(&cmd.Paths, validation.Each(validation.Required)),
	)
}

// PrewarmListingCommand rebuilds the listing cache ahead of requests.
type PrewarmListingCommand struct {
	Reason string `json:"reason"`
}

func (PrewarmListingCommand) Type() string { return prewarmMessageType }

func (cmd PrewarmListingCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Reason, validation.Required, validation.In(reasons...)),
	)
}
