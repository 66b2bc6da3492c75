package canvas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseLinkHeader(t *testing.T) {
	header := `<https://x/api/v1/courses?page=2&per_page=10>; rel="current",` +
		`<https://x/api/v1/courses?page=3&per_page=10>; rel="next",` +
		`<https://x/api/v1/courses?page=1&per_page=10>; rel="prev",` +
		`<https://x/api/v1/courses?page=1&per_page=10>; rel="first",` +
		`<https://x/api/v1/courses?page=4&per_page=10>; rel="last"`

	links := parseLinkHeader(header)
	expected := navigationLinks{
		First:   "https://x/api/v1/courses?page=1&per_page=10",
		Current: "https://x/api/v1/courses?page=2&per_page=10",
		Next:    "https://x/api/v1/courses?page=3&per_page=10",
		Last:    "https://x/api/v1/courses?page=4&per_page=10",
	}
	if diff := cmp.Diff(expected, links); diff != "" {
		t.Fatal(diff)
	}
}

func TestMissingParams(t *testing.T) {
	params := url.Values{
		"per_page":          {"100"},
		"enrollment_type[]": {"student"},
	}
	missing := missingParams("https://x/api/v1/courses/1/users?page=2&per_page=100", params)
	require.Equal(t, url.Values{"enrollment_type[]": {"student"}}, missing)
	require.Nil(t, missingParams("https://x", nil))
}

func TestGetListPagination(t *testing.T) {
	table := []struct {
		items    int
		pageSize int
		requests int
	}{
		{items: 0, pageSize: 10, requests: 1},
		{items: 1, pageSize: 10, requests: 1},
		{items: 10, pageSize: 10, requests: 1},
		{items: 11, pageSize: 10, requests: 2},
		{items: 25, pageSize: 4, requests: 7},
	}

	for _, row := range table {
		t.Run(fmt.Sprintf("%d/%d", row.items, row.pageSize), func(t *testing.T) {
			f := newFakeCanvas(t)

			var items []string
			for i := 1; i <= row.items; i++ {
				items = append(items, fmt.Sprintf(`{"id": %d, "name": "course %d"}`, i, i))
			}
			f.paginate("/courses", items, row.pageSize)

			courses, err := f.session(t, "").Courses(context.Background())
			require.NoError(t, err)
			require.Len(t, courses, row.items)
			require.Len(t, f.requestLog(), row.requests)

			for id, course := range courses {
				require.Equal(t, id, course.Id())
				require.Equal(t, fmt.Sprintf("course %d", id), course.Name)
			}
		})
	}
}

func TestGetListCarriesParams(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "")
	course := f.course(t, s)

	f.paginate("/courses/42/users", []string{
		`{"id": 1, "name": "Ada"}`,
		`{"id": 2, "name": "Ben"}`,
		`{"id": 3, "name": "Cy"}`,
	}, 2)

	users, err := course.Users(context.Background(), "teacher")
	require.NoError(t, err)
	require.Len(t, users, 3)

	log := f.requestLog()
	require.Len(t, log, 2)
	for _, request := range log {
		parsed, err := url.Parse(strings.TrimPrefix(request, "GET "))
		require.NoError(t, err)
		require.Equal(t, []string{"teacher"}, parsed.Query()["enrollment_type[]"])
		require.Len(t, parsed.Query()["per_page"], 1)
	}
	for _, u := range users {
		require.Equal(t, "teacher", u.EnrollmentType)
	}
}

func TestGetListWithoutLinkHeader(t *testing.T) {
	f := newFakeCanvas(t)
	f.respond(http.MethodGet, "/courses", http.StatusOK, `[{"id": 1}, {"id": 2}, {"id": 2, "name": "dup"}]`)

	courses, err := f.session(t, "").Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "dup", courses[2].Name)
	require.Len(t, f.requestLog(), 1)
}

func TestGetListErrors(t *testing.T) {
	{
		f := newFakeCanvas(t)
		f.respond(http.MethodGet, "/courses", http.StatusForbidden, `{"errors": []}`)

		_, err := f.session(t, "").Courses(context.Background())
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		require.Equal(t, http.StatusForbidden, statusErr.Status)
		require.NotZero(t, f.tel.Count("broken"))
	}
	{
		f := newFakeCanvas(t)
		f.respond(http.MethodGet, "/courses", http.StatusOK, `{"not": "a list"}`)

		_, err := f.session(t, "").Courses(context.Background())
		require.Error(t, err)
	}
	{
		f := newFakeCanvas(t)
		s, err := NewSession(Options{BaseUrl: f.server.URL, ApiKey: "wrong-key"})
		require.NoError(t, err)

		_, err = s.Courses(context.Background())
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		require.Equal(t, http.StatusUnauthorized, statusErr.Status)
	}
}

func TestSessionInfo(t *testing.T) {
	f := newFakeCanvas(t)
	s := f.session(t, "America/Los_Angeles")

	require.Equal(t, "1234", s.KeyLast4)
	require.Equal(t, f.server.URL, s.Url)
	require.Equal(t, f.server.URL+"/api/v1", s.Context().BaseApiUrl())
	require.Equal(t, "Canvas: "+f.server.URL+"/api/v1", s.String())

	info := s.Info()
	require.Contains(t, info, "Canvas info:")
	require.Contains(t, info, "key_last_4:\t1234")
	require.Contains(t, info, "tz:\tAmerica/Los_Angeles")
	require.NotContains(t, info, testApiKey)
}
