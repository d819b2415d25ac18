package embedpage

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
)

// EscapeMode selects how value segments are written.
type EscapeMode string

const (
	// EscapeHardened JavaScript-string escapes every value.
	EscapeHardened EscapeMode = "hardened"

	// EscapeParity writes values verbatim, like the legacy PHP page.
	// Untrusted input can inject markup and script in this mode.
	EscapeParity EscapeMode = "parity"
)

// ParseEscapeMode converts a configuration string to an EscapeMode.
// An empty string selects EscapeHardened.
func ParseEscapeMode(s string) (EscapeMode, error) {
	switch EscapeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", EscapeHardened:
		return EscapeHardened, nil
	case EscapeParity:
		return EscapeParity, nil
	default:
		return "", fmt.Errorf("%w: unknown escape mode %q", ErrInvalidOptions, s)
	}
}

// escape applies the mode to a value destined for a single-quoted
// JavaScript string inside a <script> element.
func (m EscapeMode) escape(s string) string {
	if m == EscapeParity {
		return s
	}
	return template.JSEscapeString(s)
}

// SegmentKind distinguishes trusted markup from parameter text.
type SegmentKind int

const (
	// SegmentRaw is markup written by this package. Never escaped.
	SegmentRaw SegmentKind = iota

	// SegmentValue is a parameter key or value. Escaped per EscapeMode.
	SegmentValue
)

// Segment is one piece of the rendered document.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Options configures an Assembler.
type Options struct {
	// DataFile is the Panda3D package passed as 'data'.
	DataFile string

	// InstanceID is the plugin instance passed as 'id'.
	InstanceID string

	// ScriptPath is the relative URL of the plugin bootstrap script.
	ScriptPath string

	// ForwardParams forwards every request parameter to the plugin
	// unvalidated.
	ForwardParams bool

	// EscapeMode is the escaping policy for parameter text.
	EscapeMode EscapeMode
}

// DefaultOptions returns the options of the legacy Terrain page.
func DefaultOptions() Options {
	return Options{
		DataFile:      "myapp.p3d",
		InstanceID:    "Terrain",
		ScriptPath:    "RunPanda3D.js",
		ForwardParams: true,
		EscapeMode:    EscapeHardened,
	}
}

// Assembler renders the embed page. It holds no mutable state.
type Assembler struct {
	opts Options
}

// scriptPathForbidden are characters that could break out of the src
// attribute the script path is written into.
const scriptPathForbidden = "\"'<>&` \t\r\n"

// NewAssembler validates opts and returns an Assembler.
func NewAssembler(opts Options) (*Assembler, error) {
	if opts.DataFile == "" {
		return nil, fmt.Errorf("%w: data file is required", ErrInvalidOptions)
	}
	if opts.InstanceID == "" {
		return nil, fmt.Errorf("%w: instance id is required", ErrInvalidOptions)
	}
	if opts.ScriptPath == "" {
		return nil, fmt.Errorf("%w: script path is required", ErrInvalidOptions)
	}
	if strings.ContainsAny(opts.ScriptPath, scriptPathForbidden) {
		return nil, fmt.Errorf("%w: script path %q contains markup characters", ErrInvalidOptions, opts.ScriptPath)
	}

	mode, err := ParseEscapeMode(string(opts.EscapeMode))
	if err != nil {
		return nil, err
	}
	opts.EscapeMode = mode

	return &Assembler{opts: opts}, nil
}

// Options returns the assembler's effective options.
func (a *Assembler) Options() Options {
	return a.opts
}

// Document fragments. The container width and height are unitless, as the
// page has always shipped them.
const (
	docHead = "<head>\n\n<script src=\""

	docScriptClose = "\" language=\"javascript\"></script>\n\n</head>\n<body>\n"

	docStyleOpen = "<style type=\"text/css\">\n" +
		"\t#myoutercontainer { position:relative center; width:"

	docStyleClose = ";\n" +
		"\t\t\t\t\t\tmargin-left: auto; margin-right: auto}\n" +
		"\n" +
		"\tembed\n" +
		"\t{\n" +
		"\t\tborder-style:solid;\n" +
		"\t\tborder-color:#98bf21;\n" +
		"\t}\n" +
		"\n" +
		"</style>\n"

	docCallOpen = "<div id=\"myoutercontainer\">\n" +
		"\t\t\t<script language=\"javascript\">\n" +
		"\t\t\t\t" + BootstrapFunction + "(\n"

	docCallClose = "\n\t\t\t\t)\n" +
		"\t\t\t</script>\n" +
		"</div>\n" +
		"\n" +
		"</body>\n"

	argIndent = "\t\t\t\t"
)

// Segments returns the full document for p as an ordered segment list.
func (a *Assembler) Segments(p *Params) []Segment {
	inv := a.Invocation(p)
	segs := make([]Segment, 0, len(inv)*4+8) //nolint:mnd // four segments per pair plus framing

	raw := func(s string) { segs = append(segs, Segment{Kind: SegmentRaw, Text: s}) }
	value := func(s string) { segs = append(segs, Segment{Kind: SegmentValue, Text: s}) }

	raw(docHead)
	raw(a.opts.ScriptPath)
	raw(docScriptClose)
	raw(docStyleOpen + strconv.Itoa(Width) + "; height:" + strconv.Itoa(Height) + docStyleClose)
	raw(docCallOpen)

	for i, pair := range inv {
		switch {
		case i == 0:
			raw(argIndent + "'")
		case pair.Key == "height" && inv[i-1].Key == "width":
			raw(", '")
		default:
			raw(",\n" + argIndent + "'")
		}
		value(pair.Key)
		raw("', '")
		value(pair.Value)
		raw("'")
	}

	raw(docCallClose)
	return segs
}

// RenderTo writes the document for p to w.
func (a *Assembler) RenderTo(w io.Writer, p *Params) (int64, error) {
	var total int64
	for _, seg := range a.Segments(p) {
		text := seg.Text
		if seg.Kind == SegmentValue {
			text = a.opts.EscapeMode.escape(text)
		}
		n, err := io.WriteString(w, text)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("writing page: %w", err)
		}
	}
	return total, nil
}

// Render returns the document for p.
func (a *Assembler) Render(p *Params) []byte {
	var buf bytes.Buffer
	_, _ = a.RenderTo(&buf, p) //nolint:errcheck // bytes.Buffer writes do not fail
	return buf.Bytes()
}
