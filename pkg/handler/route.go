package handler

// Route type
type Route string

const (
	// RouteRender render a posted document
	RouteRender Route = "render"
	// RouteUpdate republish the source directory
	RouteUpdate Route = "update"
	// RouteStatus status of the last publish
	RouteStatus Route = "status"
)

func (r Route) Valid() bool {
	switch r {
	case RouteRender, RouteUpdate, RouteStatus:
		return true
	default:
		return false
	}
}
