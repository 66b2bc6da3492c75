package canvas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"canvas-access/internal/components/assert"
	"canvas-access/internal/components/chrono"
	"canvas-access/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_session_get_courses = "session.get-courses"
	report_session_get_course  = "session.get-course"
)

// Options configures a Session.
type Options struct {
	// BaseUrl is the root of the Canvas instance, ex. https://canvas.example.edu
	BaseUrl string
	ApiKey  string
	// Timezone is an IANA timezone name, timestamps are localized into it when set.
	Timezone string
	// RequestsPerSecond limits the request rate, 0 means unlimited.
	RequestsPerSecond float64
	// Timeout applies to every request, 0 means no timeout.
	Timeout time.Duration
	Tel     telemetry.API
}

// Session is the root entity, every other entity descends from it.
type Session struct {
	Entity

	Url      string
	KeyLast4 string
}

// NewSession creates a session for the Canvas instance at opts.BaseUrl authenticating with
// a bearer token.
func NewSession(opts Options) (*Session, error) {
	assert.NotEmptyStr(opts.BaseUrl)
	assert.NotEmptyStr(opts.ApiKey)

	tel := opts.Tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI("canvas", tel)

	tz, err := chrono.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	baseUrl := strings.TrimRight(opts.BaseUrl, "/")

	httpClient := resty.New()
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}
	telemetry.InstrumentResty(httpClient, "canvas/http", tel)

	keyLast4 := opts.ApiKey
	if len(keyLast4) > 4 {
		keyLast4 = keyLast4[len(keyLast4)-4:]
	}

	s := &Session{
		Url:      baseUrl,
		KeyLast4: keyLast4,
	}
	s.Kind = KindSession
	s.Lineage = Lineage{}
	s.InfoKeys = []string{"url", "key_last_4", "tz"}
	s.ctx = Context{
		http:       httpClient,
		auth:       fmt.Sprintf("Bearer %s", opts.ApiKey),
		tz:         tz,
		baseApiUrl: baseUrl + "/api/v1",
		tel:        tel,
	}
	s.set("url", baseUrl)
	s.set("key_last_4", keyLast4)
	s.setTimezoneField()

	return s, nil
}

func (s *Session) String() string {
	return fmt.Sprintf("%s: %s", s.Kind, s.ctx.baseApiUrl)
}

func (s *Session) setTimezoneField() {
	if s.ctx.tz == nil {
		s.set("tz", nil)
		return
	}
	s.set("tz", s.ctx.tz.String())
}

// SetTimezone changes the timezone used to localize timestamps of entities created
// from this point on.
func (s *Session) SetTimezone(name string) error {
	tz, err := chrono.LoadLocation(name)
	if err != nil {
		return err
	}
	s.ctx.tz = tz
	s.setTimezoneField()
	return nil
}

// Courses gets every course of the active user.
//
// Endpoint: /courses
func (s *Session) Courses(ctx context.Context) (map[int64]*Course, error) {
	raws, err := s.ctx.getList(ctx, s.ctx.endpoint("/courses"), perPage(100))
	if err != nil {
		s.ctx.tel.ReportBroken(report_session_get_courses, err)
		return nil, err
	}
	return collect(raws, func(raw []byte) (*Course, error) {
		return newCourse(s, raw)
	})
}

// Course gets a single course by id.
//
// Endpoint: /courses/{course_id}
func (s *Session) Course(ctx context.Context, courseId int64) (*Course, error) {
	raw, err := s.ctx.getDetail(ctx, s.ctx.endpoint("/courses/%d", courseId), nil)
	if err != nil {
		s.ctx.tel.ReportBroken(report_session_get_course, err, courseId)
		return nil, err
	}
	return newCourse(s, raw)
}

// CourseFromJSON creates a course from an already fetched payload.
func (s *Session) CourseFromJSON(raw []byte) (*Course, error) {
	return newCourse(s, raw)
}
