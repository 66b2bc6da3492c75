package canvas

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"canvas-access/internal/components/telemetry"

	_ "time/tzdata"
)

const testApiKey = "test-key-1234"

// fakeCanvas is a minimal Canvas API that serves canned responses per route and keeps
// track of every request it receives.
type fakeCanvas struct {
	server *httptest.Server
	tel    *telemetry.RecorderAPI

	mutex    sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []string
	forms    map[string][]string
}

func newFakeCanvas(t testing.TB) *fakeCanvas {
	telemetry.SetupForTesting(t, "test:canvas")

	f := &fakeCanvas{
		tel:    &telemetry.RecorderAPI{},
		routes: map[string]http.HandlerFunc{},
		forms:  map[string][]string{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCanvas) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+testApiKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	key := r.Method + " " + r.URL.Path
	f.mutex.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
	if r.Method == http.MethodPost {
		r.ParseForm()
		for name, values := range r.PostForm {
			f.forms[name] = values
		}
	}
	handler, ok := f.routes[key]
	f.mutex.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"errors":[{"message":"%s not found"}]}`, key)
		return
	}
	handler(w, r)
}

func (f *fakeCanvas) handle(method, path string, handler http.HandlerFunc) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.routes[method+" /api/v1"+path] = handler
}

// respond serves a fixed JSON body on a route.
func (f *fakeCanvas) respond(method, path string, status int, body string) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

// paginate serves items in pages of pageSize linked through the Link header.
func (f *fakeCanvas) paginate(path string, items []string, pageSize int) {
	lastPage := (len(items) + pageSize - 1) / pageSize
	if lastPage == 0 {
		lastPage = 1
	}
	f.handle(http.MethodGet, path, func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		link := func(n int, rel string) string {
			return fmt.Sprintf(`<%s/api/v1%s?page=%d&per_page=%d>; rel="%s"`, f.server.URL, path, n, pageSize, rel)
		}
		links := []string{link(page, "current")}
		if page < lastPage {
			links = append(links, link(page+1, "next"))
		}
		links = append(links, link(1, "first"), link(lastPage, "last"))
		w.Header().Set("Link", strings.Join(links, ","))
		w.Header().Set("Content-Type", "application/json")

		start := min((page-1)*pageSize, len(items))
		end := min(start+pageSize, len(items))
		fmt.Fprintf(w, "[%s]", strings.Join(items[start:end], ","))
	})
}

func (f *fakeCanvas) requestLog() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeCanvas) form(name string) []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.forms[name]
}

func (f *fakeCanvas) session(t testing.TB, timezone string) *Session {
	s, err := NewSession(Options{
		BaseUrl:  f.server.URL + "/",
		ApiKey:   testApiKey,
		Timezone: timezone,
		Tel:      f.tel,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

const testCourse = `{"id": 42, "name": "Physics", "course_code": "PHYS-1", "start_at": "2024-01-15T20:00:00Z"}`

func (f *fakeCanvas) course(t testing.TB, s *Session) *Course {
	course, err := s.CourseFromJSON([]byte(testCourse))
	if err != nil {
		t.Fatal(err)
	}
	return course
}
