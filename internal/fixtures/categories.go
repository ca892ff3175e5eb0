package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pkg.jsn.cam/forge/pkg/forge"
	"pkg.jsn.cam/forge/pkg/storage"
)

// Category is a node in a category tree.
type Category struct {
	Slug     string     `json:"slug" yaml:"slug"`
	Title    string     `json:"title" yaml:"title"`
	Children []Category `json:"children,omitempty" yaml:"children,omitempty"`
}

const maxChildren = 3

func categoryFactory(o Options) (*forge.Factory[Category], error) {
	o = bounded(o)
	return forge.New(func(c *forge.Capabilities[Category], i int) (Category, error) {
		title := cases.Title(language.English).String(strings.Join(c.Lorem().Words(2), " "))
		cat := Category{
			Slug:  strings.ReplaceAll(strings.ToLower(title), " ", "-") + "-" + strconv.Itoa(i),
			Title: title,
		}
		for range c.Number().Int(1, maxChildren) {
			child, err := c.Build()
			if err != nil {
				return Category{}, err
			}
			if child == nil {
				break
			}
			cat.Children = append(cat.Children, *child)
		}
		return cat, nil
	}, o.factoryOptions("categories")...), nil
}

// treeAdapter stores every node of a category tree under its slash-joined
// slug path. Counts report stored nodes, not roots.
type treeAdapter struct {
	backend    storage.Backend
	collection string
}

func newTreeAdapter(b storage.Backend, name string) (forge.Adapter[Category], error) {
	if err := b.CreateCollection(name); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return &treeAdapter{backend: b, collection: name}, nil
}

func (a *treeAdapter) Create(ctx context.Context, v Category) (Category, error) {
	_, err := a.CreateMany(ctx, []Category{v})
	return v, err
}

func (a *treeAdapter) CreateMany(ctx context.Context, vs []Category) (forge.Created[Category], error) {
	if err := ctx.Err(); err != nil {
		return forge.Created[Category]{}, err
	}
	n := 0
	err := a.backend.Update(func(tx storage.Tx) error {
		coll := tx.Collection(a.collection)
		if coll == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionNotFound, a.collection)
		}
		var put func(prefix string, c Category) error
		put = func(prefix string, c Category) error {
			path := prefix + c.Slug
			node := Category{Slug: c.Slug, Title: c.Title}
			data, err := json.Marshal(node)
			if err != nil {
				return err
			}
			if err := coll.Put(path, data); err != nil {
				return err
			}
			n++
			for _, child := range c.Children {
				if err := put(path+"/", child); err != nil {
					return err
				}
			}
			return nil
		}
		for _, v := range vs {
			if err := put("", v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return forge.Created[Category]{}, err
	}
	return forge.Created[Category]{Items: vs, Count: n}, nil
}

func newCategories(o Options) Fixture {
	return &fixture[Category]{
		name:         "categories",
		description:  "Category trees built by recursive nesting up to max depth",
		defaultCount: 10,
		opts:         o,
		factory:      categoryFactory,
		adapter:      newTreeAdapter,
	}
}
