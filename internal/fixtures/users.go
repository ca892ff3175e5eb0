package fixtures

import (
	"maps"
	"slices"
	"strings"

	"pkg.jsn.cam/forge/pkg/forge"
)

// User is a member with a bounded friend graph.
type User struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	Role    string `json:"role" yaml:"role"`
	Friends []User `json:"friends,omitempty" yaml:"friends,omitempty"`
}

// Admin is a privileged account.
type Admin struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Email       string   `json:"email" yaml:"email"`
	Permissions []string `json:"permissions" yaml:"permissions"`
}

const (
	defaultMaxDepth = 3
	friendsPerUser  = 2
)

var permissions = []string{"read", "write", "invite", "billing", "audit"}

// bounded returns o with a depth limit for self-referential fixtures.
func bounded(o Options) Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	return o
}

// emailFromName is a before hook deriving the email from an overridden name.
func emailFromName(o forge.Overrides) (forge.Overrides, error) {
	name, ok := o["name"].(string)
	if !ok {
		return o, nil
	}
	if _, set := o["email"]; set {
		return o, nil
	}
	out := maps.Clone(o)
	out["email"] = strings.ToLower(strings.Join(strings.Fields(name), ".")) + "@example.com"
	return out, nil
}

func userFactory(o Options) (*forge.Factory[User], error) {
	o = bounded(o)
	users := forge.New(func(c *forge.Capabilities[User], _ int) (User, error) {
		friends, err := c.Batch(friendsPerUser)
		if err != nil {
			return User{}, err
		}
		return User{
			ID:      c.Datatype().UUID(),
			Name:    c.Person().FullName(),
			Email:   c.Internet().Email(),
			Role:    "member",
			Friends: friends,
		}, nil
	}, o.factoryOptions("users")...)
	return users.BeforeBuild(emailFromName), nil
}

func adminFactory(o Options) (*forge.Factory[Admin], error) {
	users, err := userFactory(o)
	if err != nil {
		return nil, err
	}
	admins := forge.Extend(users, func(c *forge.Capabilities[Admin], _ int) (Admin, error) {
		n := c.Number().Int(1, len(permissions))
		return Admin{
			ID:          c.Datatype().UUID(),
			Name:        c.Person().FullName(),
			Email:       c.Internet().Email(),
			Permissions: slices.Clone(permissions[:n]),
		}, nil
	})
	return admins.Named("admins").BeforeBuild(emailFromName), nil
}

func newUsers(o Options) Fixture {
	return &fixture[User]{
		name:         "users",
		description:  "Users with a friends list nested up to max depth",
		defaultCount: 50,
		opts:         o,
		factory:      userFactory,
		key:          func(u User) string { return u.ID },
	}
}

func newAdmins(o Options) Fixture {
	return &fixture[Admin]{
		name:         "admins",
		description:  "Admin accounts with a permission set",
		defaultCount: 5,
		opts:         o,
		factory:      adminFactory,
		key:          func(a Admin) string { return a.ID },
	}
}
