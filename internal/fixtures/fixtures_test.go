package fixtures

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkg.jsn.cam/forge/pkg/forge"
	"pkg.jsn.cam/forge/pkg/storage"
	"pkg.jsn.cam/forge/pkg/values"
)

func seeded(seed uint64) Options {
	return Options{Values: values.New(values.WithSeed(seed))}
}

func TestRegistry(t *testing.T) {
	names := List()
	assert.Equal(t, []string{"actions", "admins", "categories", "metrics", "users", "visits"}, names)

	for _, name := range names {
		f, err := Get(name, Options{})
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.Description())
		assert.Positive(t, f.DefaultCount())
	}

	_, err := Get("nope", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fixture: nope")
}

func TestGenerateEveryFixture(t *testing.T) {
	ctx := context.Background()
	for _, name := range List() {
		t.Run(name, func(t *testing.T) {
			f, err := Get(name, seeded(1))
			require.NoError(t, err)

			out, err := f.Generate(ctx, 5)
			require.NoError(t, err)
			assert.Len(t, out, 5)

			empty, err := f.Generate(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestGenerateNegativeCount(t *testing.T) {
	f, err := Get("actions", Options{})
	require.NoError(t, err)

	_, err = f.Generate(context.Background(), -1)
	assert.True(t, errors.Is(err, forge.ErrValidation))
}

func TestActionsNeverRepeatConsecutively(t *testing.T) {
	f, err := Get("actions", seeded(3))
	require.NoError(t, err)

	out, err := f.Generate(context.Background(), 200)
	require.NoError(t, err)
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1].(Action), out[i].(Action)
		assert.NotEqual(t, prev.Action, cur.Action, "index %d", i)
		assert.True(t, strings.HasPrefix(cur.User, "user_"))
	}
}

func TestMetricsCycleKeys(t *testing.T) {
	f, err := Get("metrics", seeded(3))
	require.NoError(t, err)

	out, err := f.Generate(context.Background(), len(metricKeys)*2)
	require.NoError(t, err)
	for i, v := range out {
		m := v.(Metric)
		assert.Equal(t, metricKeys[i%len(metricKeys)], m.Key)
		assert.Equal(t, i, m.Seq)
		assert.GreaterOrEqual(t, m.Value, 0.0)
		assert.LessOrEqual(t, m.Value, 100.0)
	}
}

func TestVisitsComposeVisitor(t *testing.T) {
	f, err := Get("visits", seeded(9))
	require.NoError(t, err)

	out, err := f.Generate(context.Background(), 20)
	require.NoError(t, err)
	for i, v := range out {
		visit := v.(Visit)
		assert.True(t, strings.HasPrefix(visit.URL, "https://"))
		assert.NotEmpty(t, visit.Visitor.ID)
		assert.Contains(t, agents, visit.Visitor.Agent)
		if i > 0 {
			assert.NotEqual(t, out[i-1].(Visit).Visitor.Agent, visit.Visitor.Agent)
		}
	}
}

func friendDepth(u User) int {
	deepest := 0
	for _, f := range u.Friends {
		deepest = max(deepest, friendDepth(f))
	}
	if len(u.Friends) == 0 {
		return 0
	}
	return deepest + 1
}

func TestUsersBoundedByMaxDepth(t *testing.T) {
	tests := []struct {
		maxDepth int
		want     int
	}{
		{1, 0},
		{2, 1},
		{3, 2},
		{0, defaultMaxDepth - 1},
	}
	for _, tt := range tests {
		opts := seeded(5)
		opts.MaxDepth = tt.maxDepth
		f, err := Get("users", opts)
		require.NoError(t, err)

		out, err := f.Generate(context.Background(), 2)
		require.NoError(t, err)
		for _, v := range out {
			u := v.(User)
			assert.Equal(t, tt.want, friendDepth(u), "max depth %d", tt.maxDepth)
			assert.Equal(t, "member", u.Role)
		}
	}
}

func TestEmailFromName(t *testing.T) {
	users, err := userFactory(seeded(2))
	require.NoError(t, err)

	u, err := users.Build(forge.Overrides{"name": "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.Equal(t, "ada.lovelace@example.com", u.Email)

	u, err = users.Build(forge.Overrides{"name": "Ada Lovelace", "email": "ada@math.org"})
	require.NoError(t, err)
	assert.Equal(t, "ada@math.org", u.Email)
}

func TestAdminsExtendUsers(t *testing.T) {
	admins, err := adminFactory(seeded(4))
	require.NoError(t, err)
	assert.Equal(t, "admins", admins.Name())
	assert.Equal(t, defaultMaxDepth, admins.Options().MaxDepth)

	a, err := admins.Build(forge.Overrides{"name": "Grace Hopper"})
	require.NoError(t, err)
	assert.Equal(t, "grace.hopper@example.com", a.Email)
	assert.NotEmpty(t, a.Permissions)
	assert.Equal(t, permissions[:len(a.Permissions)], a.Permissions)
}

func treeDepth(c Category) int {
	deepest := 0
	for _, child := range c.Children {
		deepest = max(deepest, treeDepth(child)+1)
	}
	return deepest
}

func TestCategoriesTree(t *testing.T) {
	opts := seeded(6)
	opts.MaxDepth = 3
	f, err := Get("categories", opts)
	require.NoError(t, err)

	out, err := f.Generate(context.Background(), 3)
	require.NoError(t, err)
	for _, v := range out {
		c := v.(Category)
		assert.NotEmpty(t, c.Title)
		assert.NotEmpty(t, c.Children)
		assert.Equal(t, 2, treeDepth(c))
	}
}

func TestSeedTargets(t *testing.T) {
	ctx := context.Background()

	bolt, err := storage.NewBboltBackend(filepath.Join(t.TempDir(), "fixtures.db"))
	require.NoError(t, err)
	defer bolt.Close()

	sql, err := storage.NewSQLStore(":memory:")
	require.NoError(t, err)
	defer sql.Close()

	targets := map[string]Target{
		"memory": {Backend: storage.NewMemoryBackend()},
		"bbolt":  {Backend: bolt},
		"sqlite": {SQL: sql},
	}
	for kind, target := range targets {
		for _, name := range []string{"actions", "metrics", "visits", "users", "admins"} {
			t.Run(kind+"/"+name, func(t *testing.T) {
				f, err := Get(name, seeded(8))
				require.NoError(t, err)

				n, err := f.Seed(ctx, target, 7)
				require.NoError(t, err)
				assert.Equal(t, 7, n)
			})
		}
	}
}

func TestSeedCategoriesFlattensTree(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	opts := seeded(6)
	opts.MaxDepth = 2
	f, err := Get("categories", opts)
	require.NoError(t, err)

	n, err := f.Seed(ctx, Target{Backend: backend}, 4)
	require.NoError(t, err)
	assert.Greater(t, n, 4)

	stored, err := backend.Count("categories")
	require.NoError(t, err)
	assert.Equal(t, n, stored)

	roots := 0
	err = backend.ForEach("categories", func(key string, _ []byte) error {
		if !strings.Contains(key, "/") {
			roots++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, roots)
}

func TestSeedWithoutTarget(t *testing.T) {
	f, err := Get("actions", Options{})
	require.NoError(t, err)

	_, err = f.Seed(context.Background(), Target{}, 1)
	assert.True(t, errors.Is(err, ErrNoTarget))
}
