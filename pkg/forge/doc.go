// Package forge builds test fixtures from blueprints.
//
// A blueprint is a function that returns one randomized instance of a type.
// A Factory wraps it and adds overrides, hook pipelines, batches, bounded
// self-reference and persistence:
//
//	users := forge.New(func(c *forge.Capabilities[User], i int) (User, error) {
//	    return User{ID: i, Name: c.Person().FullName(), Email: c.Internet().Email()}, nil
//	})
//
//	u, err := users.Build(forge.Overrides{"name": "Ada"})
//	all, err := users.Batch(3, forge.Each{{"role": "admin"}})
//
// # Pipeline
//
// Every instance goes through the same stages: before hooks transform the
// caller's overrides, the blueprint runs with the next iteration index, the
// overrides are shallow-merged over its output, and after hooks transform the
// result. Build refuses factories with asynchronous stages; BuildAsync runs
// any mix of sync and async stages strictly in registration order.
//
// # Self-reference
//
// Blueprints reach their own factory through the Capabilities handle. With
// WithMaxDepth(n), nested Build returns nil and nested Batch returns a nil
// slice once the nesting level reaches n:
//
//	tree := forge.New(func(c *forge.Capabilities[Node], i int) (Node, error) {
//	    children, err := c.Batch(2)
//	    return Node{Children: children}, err
//	}, forge.WithMaxDepth(3))
//
// # Persistence
//
// Persist binds a factory to a document, relational or repository model, or to
// a custom Adapter. Create and CreateMany build first and then hand the
// instances to the model unchanged.
package forge
