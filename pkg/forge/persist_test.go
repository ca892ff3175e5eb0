package forge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocuments struct {
	one  []person
	many [][]person
}

func (m *fakeDocuments) InsertOne(ctx context.Context, p person) (person, error) {
	m.one = append(m.one, p)
	p.Name = "stored:" + p.Name
	return p, nil
}

func (m *fakeDocuments) InsertMany(ctx context.Context, ps []person) ([]person, error) {
	m.many = append(m.many, ps)
	return ps, nil
}

type fakeTable struct{ rows []person }

func (m *fakeTable) Create(ctx context.Context, p person) (person, error) {
	m.rows = append(m.rows, p)
	return p, nil
}

func (m *fakeTable) CreateMany(ctx context.Context, ps []person) (int, error) {
	m.rows = append(m.rows, ps...)
	return len(ps), nil
}

type fakeRepository struct{ saved []person }

func (m *fakeRepository) Save(ctx context.Context, p person) (person, error) {
	m.saved = append(m.saved, p)
	return p, nil
}

func (m *fakeRepository) SaveAll(ctx context.Context, ps []person) ([]person, error) {
	m.saved = append(m.saved, ps...)
	return ps, nil
}

type customAdapter struct{ calls int }

func (a *customAdapter) Create(ctx context.Context, p person) (person, error) {
	a.calls++
	return p, nil
}

func (a *customAdapter) CreateMany(ctx context.Context, ps []person) (Created[person], error) {
	a.calls++
	return Created[person]{Items: ps, Count: 42}, nil
}

func TestCreateWithoutPersist(t *testing.T) {
	f := personFactory()

	_, err := f.Create(context.Background())
	require.ErrorIs(t, err, ErrConfiguration)
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "No persistence adapter configured. Call persist() first.", fe.Message)

	_, err = f.CreateMany(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPersistDocument(t *testing.T) {
	model := &fakeDocuments{}
	f, err := personFactory().Persist(Binding[person]{Kind: AdapterDocument, Model: model})
	require.NoError(t, err)

	got, err := f.Create(context.Background(), Overrides{"name": "Ada"})
	require.NoError(t, err)
	require.Len(t, model.one, 1)
	assert.Equal(t, "Ada", model.one[0].Name, "model receives the built instance")
	assert.Equal(t, "stored:Ada", got.Name, "result is returned as the model produced it")

	created, err := f.CreateMany(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, model.many, 1)
	assert.Len(t, model.many[0], 3)
	assert.Equal(t, 3, created.Count)
	assert.Len(t, created.Items, 3)
}

func TestPersistRelationalReturnsCount(t *testing.T) {
	model := &fakeTable{}
	f, err := personFactory().Persist(Binding[person]{Kind: AdapterRelational, Model: model})
	require.NoError(t, err)

	created, err := f.CreateMany(context.Background(), 4, Each{{"name": "first"}})
	require.NoError(t, err)
	assert.Equal(t, 4, created.Count)
	assert.Nil(t, created.Items)
	assert.Equal(t, "first", model.rows[0].Name)
}

func TestPersistRepository(t *testing.T) {
	model := &fakeRepository{}
	f, err := personFactory().Persist(Binding[person]{Kind: AdapterRepository, Model: model})
	require.NoError(t, err)

	_, err = f.Create(context.Background())
	require.NoError(t, err)
	_, err = f.CreateMany(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, model.saved, 3)
}

func TestPersistCustomAdapterBypassesKind(t *testing.T) {
	adapter := &customAdapter{}
	f, err := personFactory().Persist(Binding[person]{Kind: "ignored", Adapter: adapter})
	require.NoError(t, err)

	created, err := f.CreateMany(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 42, created.Count)
	assert.Equal(t, 1, adapter.calls)
}

func TestPersistRejectsMismatchedModel(t *testing.T) {
	_, err := personFactory().Persist(Binding[person]{Kind: AdapterDocument, Model: &fakeTable{}})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = personFactory().Persist(Binding[person]{Kind: "graph", Model: &fakeTable{}})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPersistLeavesReceiverUnbound(t *testing.T) {
	base := personFactory()
	_, err := base.Persist(Binding[person]{Kind: AdapterRepository, Model: &fakeRepository{}})
	require.NoError(t, err)

	_, err = base.Create(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestPersistRunsHooksBeforeForwarding(t *testing.T) {
	model := &fakeRepository{}
	f, err := personFactory().
		AfterBuildAsync(func(ctx context.Context, p person) (person, error) {
			p.Age = 77
			return p, nil
		}).
		Persist(Binding[person]{Kind: AdapterRepository, Model: model})
	require.NoError(t, err)

	_, err = f.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 77, model.saved[0].Age)
}

func TestPersistAdapterErrorPropagates(t *testing.T) {
	boom := errors.New("duplicate key")
	f, err := personFactory().Persist(Binding[person]{Adapter: failingAdapter{boom}})
	require.NoError(t, err)

	_, err = f.Create(context.Background())
	assert.Same(t, boom, err)
}

type failingAdapter struct{ err error }

func (a failingAdapter) Create(context.Context, person) (person, error) { return person{}, a.err }

func (a failingAdapter) CreateMany(context.Context, []person) (Created[person], error) {
	return Created[person]{}, a.err
}
