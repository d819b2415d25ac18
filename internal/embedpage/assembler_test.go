package embedpage

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(t *testing.T, mutate func(*Options)) *Assembler {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	a, err := NewAssembler(opts)
	require.NoError(t, err)
	return a
}

// fixedPairs is the literal tail every page carries.
var fixedPairs = []Pair{
	{Key: "width", Value: "973"},
	{Key: "height", Value: "520"},
	{Key: "auto_start", Value: "0"},
	{Key: "onpythonload", Value: "OnPythonLoad()"},
	{Key: "gameInfo", Value: "gameInfo"},
	{Key: "noplugin_href", Value: "http://www.panda3d.org/download.php?runtime"},
	{Key: "noplugin_img", Value: "noplugin.jpg"},
}

func TestInvocation_NoParams(t *testing.T) {
	a := newTestAssembler(t, nil)

	got := a.Invocation(NewParams())

	want := append([]Pair{
		{Key: "data", Value: "myapp.p3d"},
		{Key: "id", Value: "Terrain"},
	}, fixedPairs...)
	assert.Equal(t, want, got)
}

func TestInvocation_ForwardsInOrder(t *testing.T) {
	a := newTestAssembler(t, nil)
	p := ParseQuery("seed=42&map=islands&debug=1")

	got := a.Invocation(p)

	require.Len(t, got, 2+p.Len()+len(fixedPairs))
	assert.Equal(t, "data", got[0].Key)
	assert.Equal(t, "id", got[1].Key)
	assert.Equal(t, p.Pairs(), got[2:2+p.Len()])
	assert.Equal(t, fixedPairs, got[2+p.Len():])
}

func TestInvocation_ForwardingDisabled(t *testing.T) {
	a := newTestAssembler(t, func(o *Options) { o.ForwardParams = false })

	got := a.Invocation(ParseQuery("foo=bar&x=y"))

	assert.Len(t, got, 2+len(fixedPairs))
	assert.Empty(t, a.Forwarded(ParseQuery("foo=bar")))
}

func TestInvocation_FixedPairsNotOverridden(t *testing.T) {
	a := newTestAssembler(t, nil)

	got := a.Invocation(ParseQuery("width=10"))

	// The forwarded pair is added; the fixed one still follows it.
	assert.Equal(t, Pair{Key: "width", Value: "10"}, got[2])
	assert.Equal(t, fixedPairs, got[3:])
}

func TestRender_NoParams(t *testing.T) {
	a := newTestAssembler(t, nil)

	out := string(a.Render(NewParams()))

	assert.Contains(t, out, `<script src="RunPanda3D.js" language="javascript"></script>`)
	assert.Contains(t, out, `<div id="myoutercontainer">`)
	assert.Contains(t, out, "width:973; height:520;")
	assert.Contains(t, out, "P3D_RunContent(\n\t\t\t\t'data', 'myapp.p3d',\n\t\t\t\t'id', 'Terrain',\n\t\t\t\t'width', '973', 'height', '520',")
	assert.Contains(t, out, "'auto_start', '0',")
	assert.Contains(t, out, "'onpythonload', 'OnPythonLoad()',")
	assert.Contains(t, out, "'gameInfo', 'gameInfo',")
	assert.Contains(t, out, "'noplugin_href', 'http://www.panda3d.org/download.php?runtime',")
	assert.Contains(t, out, "'noplugin_img', 'noplugin.jpg'\n\t\t\t\t)")
	assert.True(t, strings.HasPrefix(out, "<head>"))
	assert.True(t, strings.HasSuffix(out, "</body>\n"))
}

func TestRender_ForwardedPairPosition(t *testing.T) {
	a := newTestAssembler(t, nil)

	out := string(a.Render(ParseQuery("foo=bar")))

	idxData := strings.Index(out, "'data', 'myapp.p3d'")
	idxID := strings.Index(out, "'id', 'Terrain'")
	idxFoo := strings.Index(out, "'foo', 'bar'")
	idxWidth := strings.Index(out, "'width', '973'")
	idxHeight := strings.Index(out, "'height', '520'")

	require.NotEqual(t, -1, idxFoo)
	assert.Less(t, idxData, idxID)
	assert.Less(t, idxID, idxFoo)
	assert.Less(t, idxFoo, idxWidth)
	assert.Less(t, idxWidth, idxHeight)
}

func TestRender_ParityWritesMarkupVerbatim(t *testing.T) {
	a := newTestAssembler(t, func(o *Options) { o.EscapeMode = EscapeParity })

	out := string(a.Render(ParseQuery("x=%3Cscript%3E&it%27s=o%27clock")))

	assert.Contains(t, out, "'x', '<script>'")
	assert.Contains(t, out, "'it's', 'o'clock'")
}

func TestRender_HardenedNeutralisesMarkup(t *testing.T) {
	a := newTestAssembler(t, nil)

	payload := "');alert(1);</script><script>alert(2)//"
	p := NewParams()
	p.Set("x", payload)
	p.Set("<k>", "v")

	out := string(a.Render(p))

	assert.NotContains(t, out, payload)
	assert.NotContains(t, out, "</script><script>")
	assert.Contains(t, out, `'x', '\');alert(1);\u003C/script\u003E\u003Cscript\u003Ealert(2)//'`)
	assert.Contains(t, out, `'\u003Ck\u003E', 'v'`)

	// Exactly the two script elements this package writes.
	assert.Equal(t, 2, strings.Count(out, "<script"))
	assert.Equal(t, 2, strings.Count(out, "</script>"))
}

func TestRender_ForwardedCountMatches(t *testing.T) {
	a := newTestAssembler(t, nil)
	p := ParseQuery("a=1&b=2&c=3&d=4")

	out := string(a.Render(p))

	for _, pair := range p.Pairs() {
		assert.Equal(t, 1, strings.Count(out, "'"+pair.Key+"', '"+pair.Value+"'"), pair.Key)
	}
}

func TestRender_Deterministic(t *testing.T) {
	a := newTestAssembler(t, nil)
	p := ParseQuery("z=1&y=%3C&x=3")

	first := a.Render(p)
	second := a.Render(p)

	assert.True(t, bytes.Equal(first, second))
}

func TestRender_ConfiguredNames(t *testing.T) {
	a := newTestAssembler(t, func(o *Options) {
		o.DataFile = "terrain.p3d"
		o.InstanceID = "World"
		o.ScriptPath = "js/RunPanda3D.js"
	})

	out := string(a.Render(nil))

	assert.Contains(t, out, `<script src="js/RunPanda3D.js"`)
	assert.Contains(t, out, "'data', 'terrain.p3d',")
	assert.Contains(t, out, "'id', 'World',")
}

func TestRenderTo_MatchesRender(t *testing.T) {
	a := newTestAssembler(t, nil)
	p := ParseQuery("foo=bar")

	var buf bytes.Buffer
	n, err := a.RenderTo(&buf, p)
	require.NoError(t, err)

	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, a.Render(p), buf.Bytes())
}

func TestSegments_ValuesAreSeparate(t *testing.T) {
	a := newTestAssembler(t, nil)

	var values []string
	for _, seg := range a.Segments(ParseQuery("foo=bar")) {
		if seg.Kind == SegmentValue {
			values = append(values, seg.Text)
		}
	}

	assert.Equal(t, []string{
		"data", "myapp.p3d",
		"id", "Terrain",
		"foo", "bar",
		"width", "973",
		"height", "520",
		"auto_start", "0",
		"onpythonload", "OnPythonLoad()",
		"gameInfo", "gameInfo",
		"noplugin_href", "http://www.panda3d.org/download.php?runtime",
		"noplugin_img", "noplugin.jpg",
	}, values)
}

func TestNewAssembler_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "empty data file", mutate: func(o *Options) { o.DataFile = "" }},
		{name: "empty instance id", mutate: func(o *Options) { o.InstanceID = "" }},
		{name: "empty script path", mutate: func(o *Options) { o.ScriptPath = "" }},
		{name: "script path with quote", mutate: func(o *Options) { o.ScriptPath = `x.js" onload="evil()` }},
		{name: "unknown escape mode", mutate: func(o *Options) { o.EscapeMode = "none" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)

			_, err := NewAssembler(opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOptions))
		})
	}
}

func TestParseEscapeMode(t *testing.T) {
	tests := []struct {
		input string
		want  EscapeMode
	}{
		{input: "", want: EscapeHardened},
		{input: "hardened", want: EscapeHardened},
		{input: "PARITY", want: EscapeParity},
		{input: " parity ", want: EscapeParity},
	}

	for _, tt := range tests {
		got, err := ParseEscapeMode(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}
