package fixtures

import (
	"time"

	"pkg.jsn.cam/forge/pkg/forge"
)

// Visitor identifies who made a page visit.
type Visitor struct {
	ID    string `json:"id" yaml:"id"`
	Agent string `json:"agent" yaml:"agent"`
}

// Visit is a page view with a possibly repeated URL.
type Visit struct {
	ID        string    `json:"id" yaml:"id"`
	URL       string    `json:"url" yaml:"url"`
	Referrer  *string   `json:"referrer" yaml:"referrer"`
	VisitedAt time.Time `json:"visited_at" yaml:"visited_at"`
	Visitor   Visitor   `json:"visitor" yaml:"visitor"`
}

var agents = []string{
	"Mozilla/5.0 (X11; Linux x86_64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"curl/8.7.1",
}

func visitFactory(o Options) (*forge.Factory[Visit], error) {
	visitors := forge.New(func(c *forge.Capabilities[Visitor], _ int) (Visitor, error) {
		return Visitor{ID: c.Datatype().UUID(), Agent: c.Lorem().Word()}, nil
	}, o.factoryOptions("visitors")...)

	agent, err := forge.SampleFrom(o.provider(), agents)
	if err != nil {
		return nil, err
	}
	visitors = visitors.AfterBuild(func(v Visitor) (Visitor, error) {
		v.Agent = agent.Next()
		return v, nil
	})

	pages := forge.New(func(c *forge.Capabilities[Visit], _ int) (Visit, error) {
		v := Visit{
			ID:        c.Datatype().UUID(),
			URL:       c.Internet().URL(),
			VisitedAt: c.Date().Past(30 * 24 * time.Hour),
		}
		if c.Datatype().Boolean() {
			ref := c.Internet().URL()
			v.Referrer = &ref
		}
		return v, nil
	}, o.factoryOptions("visits")...)

	return pages.Compose(forge.Shape{"visitor": visitors}), nil
}

func newVisits(o Options) Fixture {
	return &fixture[Visit]{
		name:         "visits",
		description:  "Page visits: https://domain/path?params with visitor and optional referrer",
		defaultCount: 500,
		opts:         o,
		factory:      visitFactory,
	}
}
