package telemetry

// API is what every component reports through instead of logging directly, so tests
// can assert on what was reported (see RecorderAPI) and the CLI can export it.
type API interface {
	// ReportBroken reports a component that failed and needs attention.
	//
	// The id names the component and the operation (ex. `course.get-users`), details such
	// as the request or the ids involved go into params or the wrapped error. Ids are
	// lowercase with dots between a type and its operation and dashes inside words.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected that was tolerated (ex. an unknown
	// conversation scope that was skipped). Ids follow the rules of ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports progress that is only shown in verbose mode.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the value of a count at the current time, successive reports
	// of the same id are samples, not increments.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id it reports with a namespace, packages scope the API they
// are given so their ids only need to be unique within the package.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI scopes inner to namespace, reports come out as "namespace: id".
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) qualify(id string) string {
	return s.namespace + ": " + id
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.qualify(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.qualify(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.qualify(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.qualify(id), count)
}
