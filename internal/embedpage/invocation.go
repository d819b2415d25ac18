package embedpage

import "strconv"

// BootstrapFunction is the entry point defined by the plugin bootstrap script.
const BootstrapFunction = "P3D_RunContent"

// Fixed embed dimensions in pixels. 973x520 leaves room for browser chrome
// and a border on a 1024x768 / 1280x720 display.
const (
	Width  = 973
	Height = 520
)

// Fixed plugin parameters. These are reproduced verbatim on every page.
const (
	AutoStart    = "0"
	OnPythonLoad = "OnPythonLoad()"
	GameInfo     = "gameInfo"
	NoPluginHref = "http://www.panda3d.org/download.php?runtime"
	NoPluginImg  = "noplugin.jpg"
)

// Invocation returns the Invocation Parameter List for p:
//
//	data, id, [request parameters in order], width, height,
//	auto_start, onpythonload, gameInfo, noplugin_href, noplugin_img
//
// Request parameters are omitted when forwarding is disabled.
func (a *Assembler) Invocation(p *Params) []Pair {
	forwarded := a.Forwarded(p)

	list := make([]Pair, 0, len(forwarded)+9) //nolint:mnd // nine fixed pairs
	list = append(list,
		Pair{Key: "data", Value: a.opts.DataFile},
		Pair{Key: "id", Value: a.opts.InstanceID},
	)
	list = append(list, forwarded...)
	list = append(list,
		Pair{Key: "width", Value: strconv.Itoa(Width)},
		Pair{Key: "height", Value: strconv.Itoa(Height)},
		Pair{Key: "auto_start", Value: AutoStart},
		Pair{Key: "onpythonload", Value: OnPythonLoad},
		Pair{Key: "gameInfo", Value: GameInfo},
		Pair{Key: "noplugin_href", Value: NoPluginHref},
		Pair{Key: "noplugin_img", Value: NoPluginImg},
	)
	return list
}

// Forwarded returns the request parameters that will be passed to the
// plugin, honouring the forwarding flag.
func (a *Assembler) Forwarded(p *Params) []Pair {
	if !a.opts.ForwardParams {
		return nil
	}
	return p.Pairs()
}
