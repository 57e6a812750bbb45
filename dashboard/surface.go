package dashboard

// Region names a display area of the dashboard.
type Region string

const (
	RegionPassing Region = "passing"
	RegionFailing Region = "failing"
	RegionErrors  Region = "errors"
	RegionTime    Region = "time"
	RegionStatus  Region = "status"
	RegionPassed  Region = "passed"
	RegionFailed  Region = "failed"
	RegionLog     Region = "log"
)

// Regions lists every region in layout order.
var Regions = []Region{
	RegionPassing,
	RegionFailing,
	RegionTime,
	RegionStatus,
	RegionPassed,
	RegionFailed,
	RegionLog,
	RegionErrors,
}

// Label returns the title shown on the region's border.
func (r Region) Label() string {
	switch r {
	case RegionPassing:
		return "Passing"
	case RegionFailing:
		return "Failing"
	case RegionErrors:
		return "Errors"
	case RegionTime:
		return "Total Test Time"
	case RegionStatus:
		return "Status"
	case RegionPassed:
		return "Passed"
	case RegionFailed:
		return "Failed"
	case RegionLog:
		return "Log"
	default:
		return string(r)
	}
}

// Surface is the rendering target the dashboard writes into.
//
// SetContent replaces a region's text. AppendLine streams one entry into
// the log region, which keeps its own scroll position. Repaint asks the
// surface to show everything written so far; surfaces may coalesce
// repaints but must not drop writes made before one.
type Surface interface {
	SetContent(region Region, text string)
	AppendLine(text string)
	Repaint()
}

// InputListener is implemented by surfaces that can forward watch-mode
// keys to the runner once a run completes.
type InputListener interface {
	ResumeInput()
}
