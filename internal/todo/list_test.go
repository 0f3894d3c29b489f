package todo

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/todonow/internal/store"
	"github.com/amirbrooks/todonow/internal/tag"
)

var fixedNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func newTestList(lines []string, seed uint64) (*List, *store.Memory) {
	mem := store.NewMemory(lines)
	l := New(lines, mem,
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
	)
	return l, mem
}

func texts(todos []*Todo) []string {
	out := make([]string, len(todos))
	for i, td := range todos {
		out[i] = td.Text()
	}
	return out
}

type failingStore struct{ err error }

func (f failingStore) Load() ([]string, error) { return nil, f.err }
func (f failingStore) Sync([]string) error     { return f.err }

func TestParse(t *testing.T) {
	l, _ := newTestList([]string{",INBOX", "\tmust do X", "\tmust do Y", ",CONTEXTS", "\t#FRED", "\t\tdo another thing @FOO"}, 1)
	todos, err := l.Todos()
	require.NoError(t, err)
	assert.Equal(t, []string{"\tmust do X", "\tmust do Y", "\t\tdo another thing @FOO"}, texts(todos))
	assert.Equal(t, []string{"#FRED", "@FOO"}, tagStrings(todos[len(todos)-1].Tags()))

	names, err := l.TagNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"#FRED", "@FOO"}, names)
}

func TestParseSections(t *testing.T) {
	doc := []string{
		"intro line",
		"\tnot a todo",
		",PROJECTS",
		"\t#HOUSE",
		"\t\tfix roof",
		"\t\t\tsubtask detail",
		"\tstray depth one",
		",INBOX",
		"\tinbox item",
		"\t\tnote under inbox item",
		"DONE",
		"\tlogged 2024-01-01",
	}
	l, _ := newTestList(doc, 1)
	todos, err := l.Todos()
	require.NoError(t, err)
	assert.Equal(t, []string{"\t\tfix roof", "\tinbox item"}, texts(todos))
	assert.Equal(t, 4, todos[0].Index())

	tagged, err := l.Tagged("#HOUSE")
	require.NoError(t, err)
	assert.Equal(t, []string{"\t\tfix roof"}, texts(tagged))
}

func TestParseIsRepeatable(t *testing.T) {
	l, _ := newTestList([]string{",INBOX", "\ta @X", "\tb @X"}, 1)
	require.NoError(t, l.Parse())
	require.NoError(t, l.Parse())
	tagged, err := l.Tagged("@X")
	require.NoError(t, err)
	assert.Len(t, tagged, 2)
}

func TestCurrent(t *testing.T) {
	l, _ := newTestList([]string{",INBOX", "\tmust do X @CURRENT", "\tmust do Y", ",CONTEXTS", "\t#FRED", "\t\tdo another thing @FOO"}, 1)
	cur, err := l.Current()
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Contains(t, cur.Text(), "must do X")

	none, _ := newTestList([]string{",INBOX", "\tmust do X"}, 1)
	cur, err = none.Current()
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestMultipleCurrent(t *testing.T) {
	l, _ := newTestList([]string{",INBOX", "\ta @CURRENT", "\tb @CURRENT"}, 1)
	_, err := l.Current()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleCurrentTodos)
	var mc *MultipleCurrentError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, []int{2, 3}, mc.Lines)

	_, err = l.TopTodo([]string{"@X"})
	assert.ErrorIs(t, err, ErrMultipleCurrentTodos)
}

func TestTopTodoResumesCurrent(t *testing.T) {
	doc := []string{",INBOX", "\ta @HOME", "\tb @CURRENT"}
	l, mem := newTestList(doc, 1)
	top, err := l.TopTodo([]string{"@HOME"})
	require.NoError(t, err)
	assert.Equal(t, "\tb @CURRENT", top.Text())
	assert.Equal(t, doc, l.Lines())
	assert.Equal(t, 0, mem.Syncs())
}

func TestTopTodoPrefersBestScore(t *testing.T) {
	doc := []string{
		",INBOX",
		"\tmow lawn @HOME",
		"\tcall mum @HOME @EVENING",
		"\treview PR @WORK",
	}
	for seed := uint64(0); seed < 20; seed++ {
		l, mem := newTestList(doc, seed)
		top, err := l.TopTodo([]string{"@HOME", "@EVENING"})
		require.NoError(t, err)
		assert.Equal(t, "\tcall mum @HOME @EVENING @CURRENT", top.Text())
		assert.Equal(t, 2, top.Index())
		assert.Equal(t, l.Lines(), mem.Lines())
		assert.Equal(t, 1, mem.Syncs())
	}
}

func TestTopTodoSkipsIgnored(t *testing.T) {
	doc := []string{
		",INBOX",
		"\tlater @HOME @IGNOREUNTIL(2024-06-03T10:01)",
		"\tnow @HOME @IGNOREUNTIL(2024-06-03T10:00)",
	}
	for seed := uint64(0); seed < 20; seed++ {
		l, _ := newTestList(doc, seed)
		top, err := l.TopTodo([]string{"@HOME"})
		require.NoError(t, err)
		assert.Equal(t, 2, top.Index())
	}
}

func TestTopTodoIgnoredUntilPasses(t *testing.T) {
	doc := []string{",INBOX", "\tonly one @HOME @IGNOREUNTIL(2024-06-03T12:00)", "\tother @WORK"}
	l, _ := newTestList(doc, 3)
	l.now = func() time.Time { return time.Date(2024, 6, 3, 12, 30, 0, 0, time.UTC) }
	top, err := l.TopTodo([]string{"@HOME"})
	require.NoError(t, err)
	assert.Equal(t, 1, top.Index())
}

func TestTopTodoFallsBackToAnyTodo(t *testing.T) {
	doc := []string{",INBOX", "\ta @HOME @IGNOREUNTIL(2030-01-01T00:00)", "\tb", "\tc"}
	seen := map[int]bool{}
	for seed := uint64(0); seed < 60; seed++ {
		l, _ := newTestList(doc, seed)
		top, err := l.TopTodo([]string{"@HOME"})
		require.NoError(t, err)
		seen[top.Index()] = true
	}
	assert.Len(t, seen, 3, "fallback ignores scores and ignore windows")

	l, _ := newTestList(doc, 1)
	top, err := l.TopTodo(nil)
	require.NoError(t, err)
	assert.True(t, top.HasTag(tag.NameCurrent))
}

func TestTopTodoEmptyOutline(t *testing.T) {
	l, _ := newTestList([]string{",INBOX"}, 1)
	_, err := l.TopTodo([]string{"@HOME"})
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestTopTodoAmbiguousIgnore(t *testing.T) {
	doc := []string{",CONTEXTS", "\t@HOME @IGNOREUNTIL(2020-01-01T00:00)", "\t\tx @IGNOREUNTIL(2020-01-01T00:00)"}
	l, _ := newTestList(doc, 1)
	_, err := l.TopTodo([]string{"@HOME"})
	assert.ErrorIs(t, err, ErrAmbiguousIgnoreTag)
}

func TestTopTodoFairAmongTies(t *testing.T) {
	doc := []string{
		",INBOX",
		"\tone @HOME",
		"\ttwo @HOME",
		"\tthree @HOME @WORK",
		"\tfour @HOME",
		"\tlow @WORK",
	}
	const trials = 4000
	counts := map[int]int{}
	for i := 0; i < trials; i++ {
		l, _ := newTestList(doc, uint64(i))
		top, err := l.TopTodo([]string{"@HOME"})
		require.NoError(t, err)
		counts[top.Index()]++
	}
	require.Len(t, counts, 4)
	assert.Zero(t, counts[5])
	for idx := 1; idx <= 4; idx++ {
		share := float64(counts[idx]) / trials
		assert.InDelta(t, 0.25, share, 0.04, "line %d picked %d times", idx, counts[idx])
	}
}

func TestSplitTodo(t *testing.T) {
	l, mem := newTestList([]string{",INBOX", "\tmust do X", "\tmust do Y @CURRENT", ",CONTEXTS", "\t#FRED", "\t\tdo another thing @FOO"}, 1)
	cur, err := l.Current()
	require.NoError(t, err)
	require.NoError(t, l.SplitTodo(cur, "\tthen do Z"))
	lines := l.Lines()
	assert.Equal(t, "\tmust do X", lines[1])
	assert.Equal(t, "\tmust do Y @CURRENT", lines[2])
	assert.Equal(t, "\tthen do Z", lines[3])
	assert.Equal(t, ",CONTEXTS", lines[4])
	assert.Equal(t, lines, mem.Lines())

	assert.ErrorIs(t, l.SplitTodo(cur, "\tagain"), ErrStaleTodo)
}

func TestAddNewTodo(t *testing.T) {
	l, mem := newTestList([]string{",INBOX", "\tmust do X", "\tmust do Y @CURRENT", ",CONTEXTS"}, 1)
	ok, err := l.AddNewTodo("Hello")
	require.NoError(t, err)
	assert.True(t, ok)
	lines := l.Lines()
	assert.Equal(t, ",INBOX", lines[0])
	assert.Equal(t, "\tHello", lines[1])
	assert.Equal(t, "\tmust do X", lines[2])
	assert.Equal(t, 1, mem.Syncs())

	noInbox, mem2 := newTestList([]string{",CONTEXTS", "\t@HOME"}, 1)
	ok, err = noInbox.AddNewTodo("Hello")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, mem2.Syncs())
}

func TestMarkCurrentDone(t *testing.T) {
	l, mem := newTestList([]string{",INBOX", "\tmust do X @CURRENT", "\tmust do Y", ",CONTEXTS", "\t#FRED", "\t\tdo another thing @FOO"}, 1)
	require.NoError(t, l.MarkCurrentDone())
	lines := l.Lines()
	assert.Equal(t, []string{",INBOX", "\tmust do Y", ",CONTEXTS"}, lines[0:3])
	last := lines[len(lines)-1]
	assert.Equal(t, "\t2024-06-03T10:00+0000 must do X", last)
	assert.NotContains(t, last, tag.NameCurrent)
	assert.Len(t, lines, 6)
	assert.Equal(t, lines, mem.Lines())

	_, err := l.Current()
	require.NoError(t, err)
	assert.ErrorIs(t, l.MarkCurrentDone(), ErrNoCurrentTodo)
}

func TestMarkCurrentDoneRepeats(t *testing.T) {
	doc := []string{
		",INBOX",
		"\twater plants @REPEAT(DAILY,interval=2) @CURRENT @IGNOREUNTIL(2024-05-01T00:00)",
		"\tother",
	}
	l, mem := newTestList(doc, 1)
	require.NoError(t, l.MarkCurrentDone())
	lines := l.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "\twater plants @REPEAT(DAILY,interval=2) @IGNOREUNTIL(2024-06-05T10:00)", lines[1])
	assert.Equal(t, lines, mem.Lines())

	cur, err := l.Current()
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestMarkCurrentDoneInheritedRepeat(t *testing.T) {
	doc := []string{",CONTEXTS", "\t@CHORES @REPEAT(WEEKLY)", "\t\tvacuum @CURRENT"}
	l, _ := newTestList(doc, 1)
	require.NoError(t, l.MarkCurrentDone())
	assert.Equal(t, "\t\tvacuum @IGNOREUNTIL(2024-06-10T10:00)", l.Lines()[2])
}

func TestMarkCurrentDoneBadRepeat(t *testing.T) {
	l, _ := newTestList([]string{",INBOX", "\tx @REPEAT(SOMETIMES) @CURRENT"}, 1)
	assert.ErrorIs(t, l.MarkCurrentDone(), tag.ErrInvalidRecurrence)
}

func TestSplitCurrent(t *testing.T) {
	doc := []string{",INBOX", "\twrite report @WORK @CURRENT @IGNOREUNTIL(2024-01-01T00:00)", "\tother @WORK"}
	l, mem := newTestList(doc, 1)
	cur, err := l.SplitCurrent([]string{"@WORK"}, "draft outline", 48*time.Hour, 2*time.Hour)
	require.NoError(t, err)
	lines := l.Lines()
	assert.Equal(t, "\twrite report @WORK @IGNOREUNTIL(2024-06-05T10:00)", lines[1])
	assert.Equal(t, "\tdraft outline @WORK @CURRENT", lines[2])
	assert.Equal(t, 2, cur.Index())
	assert.Equal(t, lines, mem.Lines())
}

func TestSplitCurrentUrgent(t *testing.T) {
	doc := []string{",INBOX", "\tfix outage @URGENT @OPS"}
	l, _ := newTestList(doc, 1)
	cur, err := l.SplitCurrent([]string{"@OPS"}, "page oncall", 48*time.Hour, 2*time.Hour)
	require.NoError(t, err)
	lines := l.Lines()
	assert.Equal(t, "\tfix outage @URGENT @OPS @IGNOREUNTIL(2024-06-03T12:00)", lines[1])
	assert.True(t, strings.HasSuffix(cur.Text(), "@CURRENT"))
	assert.Equal(t, "\tpage oncall @URGENT @OPS @CURRENT", cur.Text())
}

func TestSyncErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	l := New([]string{",INBOX", "\ta"}, failingStore{err: boom}, WithClock(func() time.Time { return fixedNow }))
	_, err := l.AddNewTodo("b")
	assert.ErrorIs(t, err, boom)

	_, err = Open(failingStore{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestOpenLoadsStore(t *testing.T) {
	mem := store.NewMemory([]string{",INBOX", "\ta @HOME"})
	l, err := Open(mem)
	require.NoError(t, err)
	todos, err := l.Todos()
	require.NoError(t, err)
	assert.Len(t, todos, 1)
}
