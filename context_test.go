package tabula_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/tabula"
	"github.com/vk/tabula/codec"
	"github.com/vk/tabula/store"
)

// item and its row codec mirror what tabula-gen emits for a CSV table
// model.
type item struct {
	ID    int32
	Name  string
	Price int32
}

func (i item) Key() int32 { return i.ID }

type itemRowCodec struct{}

func (itemRowCodec) Columns() []string { return []string{"ID", "Name", "Price"} }

func (itemRowCodec) Encode(r item) []string {
	return []string{
		strconv.FormatInt(int64(r.ID), 10),
		r.Name,
		strconv.FormatInt(int64(r.Price), 10),
	}
}

func (itemRowCodec) Decode(fields []string) (item, error) {
	var r item
	v0, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return r, fmt.Errorf("column ID: %w", err)
	}
	r.ID = int32(v0)
	r.Name = fields[1]
	v2, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return r, fmt.Errorf("column Price: %w", err)
	}
	r.Price = int32(v2)
	return r, nil
}

type gameSettings struct {
	Title    string `yaml:"title"`
	MaxLevel int    `yaml:"max_level"`
}

// gameData plays the role of a generated aggregator.
type gameData struct {
	*tabula.Context
	Items    *tabula.TableRepo[int32, item]
	Settings *tabula.SingleRepo[gameSettings]
}

func newGameData(opts ...tabula.Option) *gameData {
	d := &gameData{Context: tabula.NewContext(opts...)}
	d.Items = tabula.RegisterTable[int32, item](d.Context, "Items", "data/items.csv", codec.FormatAuto, itemRowCodec{})
	d.Settings = tabula.RegisterSingle[gameSettings](d.Context, "Settings", "data/settings.yaml", codec.FormatAuto, nil)
	return d
}

func seed(t *testing.T, st store.Storage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SaveText(ctx, "data/items.csv", []byte("ID,Name,Price\n1,sword,100\n2,shield,80\n")))
	require.NoError(t, st.SaveText(ctx, "data/settings.yaml", []byte("title: Adventure\nmax_level: 10\n")))
}

func TestLoadAll(t *testing.T) {
	st := store.NewMem()
	seed(t, st)
	d := newGameData(tabula.WithStorage(st))

	assert.False(t, d.Initialized())
	require.NoError(t, d.LoadAll(context.Background()))
	assert.True(t, d.Initialized())

	sword, ok := d.Items.Get(1)
	require.True(t, ok)
	assert.Equal(t, item{ID: 1, Name: "sword", Price: 100}, sword)

	var names []string
	for it := range d.Items.All() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"sword", "shield"}, names)

	settings, ok := d.Settings.Get()
	require.True(t, ok)
	assert.Equal(t, gameSettings{Title: "Adventure", MaxLevel: 10}, settings)
}

func TestLoadAllPartialFailure(t *testing.T) {
	st := store.NewMem()
	seed(t, st)
	require.NoError(t, st.SaveText(context.Background(), "data/notes.txt", []byte("free-form")))

	d := newGameData(tabula.WithStorage(st))
	type note struct {
		Text string
	}
	tabula.RegisterSingle[note](d.Context, "Notes", "data/notes.txt", codec.FormatAuto, nil)

	err := d.LoadAll(context.Background())
	require.Error(t, err)

	// Exactly one FormatError in the aggregate; the other datasets loaded.
	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "aggregate must be a joined error")
	formatErrs := 0
	for _, e := range joined.Unwrap() {
		var fe *codec.FormatError
		if errors.As(e, &fe) {
			formatErrs++
		}
	}
	assert.Equal(t, 1, formatErrs)

	assert.True(t, d.Initialized(), "partial failure still counts as initialized")
	assert.Equal(t, 2, d.Items.Len())
	_, ok = d.Settings.Get()
	assert.True(t, ok)
}

func TestLoadAllMissingFile(t *testing.T) {
	st := store.NewMem()
	d := newGameData(tabula.WithStorage(st))

	err := d.LoadAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var se *tabula.SlotError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)
}

func TestReload(t *testing.T) {
	st := store.NewMem()
	seed(t, st)
	d := newGameData(tabula.WithStorage(st))
	require.NoError(t, d.LoadAll(context.Background()))

	before, ok := d.Settings.Get()
	require.True(t, ok)

	// An unrelated repository read concurrently with the reload must see
	// the same record on every call, not just before and after.
	stop := make(chan struct{})
	readerDone := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				readerDone <- nil
				return
			default:
			}
			got, ok := d.Settings.Get()
			if !ok || got != before {
				readerDone <- fmt.Errorf("settings changed during reload: %+v (ok=%v)", got, ok)
				return
			}
		}
	}()

	newCSV := []byte("ID,Name,Price\n1,sword,120\n3,bow,60\n")
	require.NoError(t, st.SaveText(context.Background(), "data/items.csv", newCSV))
	require.NoError(t, d.Reload(context.Background(), "Items"))

	close(stop)
	require.NoError(t, <-readerDone)

	sword, ok := d.Items.Get(1)
	require.True(t, ok)
	assert.Equal(t, int32(120), sword.Price)
	_, ok = d.Items.Get(2)
	assert.False(t, ok, "reload replaces the repository wholesale")

	after, ok := d.Settings.Get()
	require.True(t, ok)
	assert.Equal(t, before, after, "unrelated slot must be untouched")
}

func TestReloadUnknownSlot(t *testing.T) {
	d := newGameData(tabula.WithStorage(store.NewMem()))
	err := d.Reload(context.Background(), "Nope")
	assert.ErrorIs(t, err, tabula.ErrUnknownSlot)
}

func TestSaveAll(t *testing.T) {
	st := store.NewMem()
	seed(t, st)
	d := newGameData(tabula.WithStorage(st))
	ctx := context.Background()
	require.NoError(t, d.LoadAll(ctx))

	// Wipe the files, then save everything back out.
	require.NoError(t, st.SaveText(ctx, "data/items.csv", nil))
	require.NoError(t, d.SaveAll(ctx))

	csv, err := st.LoadText(ctx, "data/items.csv")
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Price\n1,sword,100\n2,shield,80\n", string(csv))

	yml, err := st.LoadText(ctx, "data/settings.yaml")
	require.NoError(t, err)
	assert.Equal(t, "title: Adventure\nmax_level: 10\n", string(yml))
}

func TestSaveAllSkipsNeverLoaded(t *testing.T) {
	st := store.NewMem()
	d := newGameData(tabula.WithStorage(st))
	ctx := context.Background()

	// Nothing was ever loaded, so nothing must be written.
	require.NoError(t, d.SaveAll(ctx))
	ok, err := st.Exists(ctx, "data/items.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	st := store.NewMem()
	seed(t, st)
	d := newGameData(tabula.WithStorage(st))
	ctx := context.Background()
	require.NoError(t, d.LoadAll(ctx))
	require.NoError(t, d.SaveAll(ctx))

	// A second context over the saved files sees identical records.
	d2 := newGameData(tabula.WithStorage(st))
	require.NoError(t, d2.LoadAll(ctx))

	for it := range d.Items.All() {
		got, ok := d2.Items.Get(it.ID)
		require.True(t, ok)
		assert.Equal(t, it, got)
	}
	s1, _ := d.Settings.Get()
	s2, _ := d2.Settings.Get()
	assert.Equal(t, s1, s2)
}

func TestSlots(t *testing.T) {
	d := newGameData(tabula.WithStorage(store.NewMem()))
	assert.Equal(t, []string{"Items", "Settings"}, d.Slots())
}

func TestMetrics(t *testing.T) {
	st := store.NewMem()
	seed(t, st)
	reg := prometheus.NewRegistry()
	m := tabula.NewMetrics(reg)
	d := newGameData(tabula.WithStorage(st), tabula.WithMetrics(m))

	require.NoError(t, d.LoadAll(context.Background()))
	require.NoError(t, d.Reload(context.Background(), "Items"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("load", "Items", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("load", "Settings", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("reload", "Items", "ok")),
		"reloads are counted apart from bulk loads")
}
