package fixtures

import "pkg.jsn.cam/forge/pkg/forge"

// Metric is a key:value sample.
type Metric struct {
	Key   string  `json:"key" yaml:"key"`
	Value float64 `json:"value" yaml:"value"`
	Seq   int     `json:"seq" yaml:"seq"`
}

var metricKeys = []string{
	"temperature",
	"humidity",
	"pressure",
	"cpu_usage",
	"memory_usage",
	"disk_io",
	"network_latency",
	"response_time",
	"error_rate",
	"request_count",
}

func metricFactory(o Options) (*forge.Factory[Metric], error) {
	keys, err := forge.Iterate(metricKeys)
	if err != nil {
		return nil, err
	}
	return forge.New(func(c *forge.Capabilities[Metric], i int) (Metric, error) {
		return Metric{
			Key:   keys.Next(),
			Value: c.Number().Float(0, 100, 2),
			Seq:   i,
		}, nil
	}, o.factoryOptions("metrics")...), nil
}

func newMetrics(o Options) Fixture {
	return &fixture[Metric]{
		name:         "metrics",
		description:  "Metric samples: key:value, keys cycle in a fixed order",
		defaultCount: 1000,
		opts:         o,
		factory:      metricFactory,
	}
}
