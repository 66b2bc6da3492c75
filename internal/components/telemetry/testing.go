package telemetry

import (
	"fmt"
	"os"
	"sync"
	"testing"
)

var setupTestEnvironments = map[string]bool{}
var setupTestLock sync.Mutex

// SetupForTesting sets up logging in a testing environment, ensuring that it isn't
// set up more than once per service name.
func SetupForTesting(t testing.TB, serviceName string) func() {
	setupTestLock.Lock()
	defer setupTestLock.Unlock()

	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(os.Stderr, testing.Verbose())
	t.Logf("telemetry initialized for %s", serviceName)
	return func() {}
}

// Report is a single call recorded by RecorderAPI.
type Report struct {
	Kind   string
	Id     string
	Params []any
}

// RecorderAPI is an API implementation that keeps every report in memory, it is
// meant for asserting on telemetry in tests.
type RecorderAPI struct {
	mutex   sync.Mutex
	Reports []Report
}

func (r *RecorderAPI) record(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Reports = append(r.Reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *RecorderAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecorderAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecorderAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r *RecorderAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

// Count returns the number of reports of a given kind ("broken", "warning", "debug", "count").
func (r *RecorderAPI) Count(kind string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := 0
	for _, rep := range r.Reports {
		if rep.Kind == kind {
			n++
		}
	}
	return n
}

func (r *RecorderAPI) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return fmt.Sprint(r.Reports)
}
