package tag

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}

func TestParseTag(t *testing.T) {
	tg, err := Parse("@POOT(yip)")
	require.NoError(t, err)
	assert.True(t, tg.IsContext())
	assert.False(t, tg.IsProject())
	assert.Equal(t, []string{"yip"}, tg.Args())
	assert.Equal(t, "@POOT(yip)", tg.String())
	assert.Equal(t, "@POOT", tg.Name())

	_, err = Parse("POOT")
	assert.ErrorIs(t, err, ErrInvalidTag)
	_, err = Parse("@POOT and more")
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestExtract(t *testing.T) {
	got := Extract("por bun wolly @FOO #BAR @BING @BLAH(54 54) @BOO(12 13)")
	assert.Equal(t, []string{"@FOO", "#BAR", "@BING", "@BLAH(54 54)", "@BOO(12 13)"}, names(got))
	assert.Equal(t, []string{"12 13"}, got[len(got)-1].Args())
}

func TestExtractKeepsDuplicatesAndSkipsEmbedded(t *testing.T) {
	got := Extract("mail bob@EXAMPLE about @HOME then @HOME again")
	assert.Equal(t, []string{"@HOME", "@HOME"}, names(got))
	assert.Empty(t, Extract("nothing to see here"))
}

func TestExtractIsIdempotent(t *testing.T) {
	lines := []string{
		"\tbuy milk @SHOP #HOUSE",
		"@REPEAT(WEEKLY,interval=2) water plants @IGNOREUNTIL(2024-05-02T09:30)",
		"#GARDEN",
	}
	for _, line := range lines {
		first := Extract(line)
		var rebuilt string
		for i, tg := range first {
			if i > 0 {
				rebuilt += " "
			}
			rebuilt += tg.String()
		}
		assert.Equal(t, names(first), names(Extract(rebuilt)), line)
	}
}

func TestSameName(t *testing.T) {
	m := MustNew("@FRED", "3")
	n := MustNew("@FRED", "45")
	o := MustNew("@FRED")
	assert.True(t, m.SameName(n))
	assert.True(t, m.SameName(o))
	assert.True(t, m.SameName(m))
	assert.True(t, o.SameName(m))
	assert.False(t, o.SameName(MustNew("#FRED")))
	assert.False(t, o.SameName(MustNew("@FREDDY")))
}

func TestReservedTags(t *testing.T) {
	ig, err := Parse("@IGNOREUNTIL(2004-05-02)")
	require.NoError(t, err)
	assert.True(t, ig.IsIgnore())

	rp, err := Parse("@REPEAT(day=7)")
	require.NoError(t, err)
	assert.True(t, rp.IsRepeat())

	notRepeat, err := Parse("@REPEATME(day=7)")
	require.NoError(t, err)
	assert.False(t, notRepeat.IsRepeat())

	assert.True(t, Current().IsCurrent())
	assert.True(t, Urgent().IsUrgent())
	assert.Equal(t, "@IGNOREUNTIL(1990-01-08T10:15)",
		IgnoreUntil(time.Date(1990, 1, 8, 10, 15, 42, 0, time.UTC)).String())
}

func TestFindIn(t *testing.T) {
	line := "por bun wolly @FOO #BAR @BING @BLAH(54 54)"
	for _, name := range []string{"@BLAH(54 54)", "@BLAH"} {
		tg, err := Parse(name)
		require.NoError(t, err)
		span, ok, err := tg.FindIn(line)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Span{Start: 30, End: 42}, span)
	}

	_, ok, err := MustNew("@FRE").FindIn("test @FRED @FREE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindInAmbiguous(t *testing.T) {
	_, _, err := MustNew("@HOME").FindIn("a @HOME b @HOME(2)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousTag))

	var amb *AmbiguousTagError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, 2, amb.Count)
}

func TestTagTime(t *testing.T) {
	tg, err := Parse("@IGNOREUNTIL(2005-05-05T12:10)")
	require.NoError(t, err)
	ts, err := tg.Time(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2005, 5, 5, 12, 10, 0, 0, time.UTC), ts)

	_, err = Ignore().Time(time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestFilterBySigil(t *testing.T) {
	all := []string{"@WORK", "#ZOO", "@HOME", "#APPLE"}
	assert.Equal(t, []string{"@HOME", "@WORK"}, FilterBySigil(all, SigilContext))
	assert.Equal(t, []string{"#APPLE", "#ZOO"}, FilterBySigil(all, SigilProject))
}
