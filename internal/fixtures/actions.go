package fixtures

import (
	"strconv"
	"time"

	"pkg.jsn.cam/forge/pkg/forge"
)

// Action is a user action log entry: "{user} did {action}".
type Action struct {
	User   string    `json:"user" yaml:"user"`
	Action string    `json:"action" yaml:"action"`
	At     time.Time `json:"at" yaml:"at"`
}

func (a Action) String() string {
	return a.User + " did " + a.Action
}

var actions = []string{
	"login",
	"logout",
	"viewed product",
	"added to cart",
	"removed from cart",
	"purchased",
	"reviewed product",
	"updated profile",
	"changed password",
	"subscribed to newsletter",
}

const actionUsers = 100

func actionFactory(o Options) (*forge.Factory[Action], error) {
	// Consecutive entries never repeat an action.
	next, err := forge.SampleFrom(o.provider(), actions)
	if err != nil {
		return nil, err
	}
	return forge.New(func(c *forge.Capabilities[Action], _ int) (Action, error) {
		return Action{
			User:   "user_" + strconv.Itoa(c.IntN(actionUsers)),
			Action: next.Next(),
			At:     c.Date().Recent(),
		}, nil
	}, o.factoryOptions("actions")...), nil
}

func newActions(o Options) Fixture {
	return &fixture[Action]{
		name:         "actions",
		description:  "User action logs: {user_id} did {action}",
		defaultCount: 1000,
		opts:         o,
		factory:      actionFactory,
	}
}
