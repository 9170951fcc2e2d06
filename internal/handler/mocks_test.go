package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aula-go-api/internal/dto"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) (*http.Response, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func withRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		c.Locals("user_role", role)
		return c.Next()
	}
}

type mockStudentService struct {
	listReq   dto.StudentListRequest
	records   []dto.StudentRecord
	record    dto.StudentRecord
	photo     dto.PhotoUploadResponse
	photoName string
	err       error
}

func (m *mockStudentService) List(_ context.Context, req dto.StudentListRequest) ([]dto.StudentRecord, error) {
	m.listReq = req
	return m.records, m.err
}

func (m *mockStudentService) Get(_ context.Context, _ string) (dto.StudentRecord, error) {
	return m.record, m.err
}

func (m *mockStudentService) Create(_ context.Context, _ dto.StudentCreateRequest) (dto.StudentRecord, error) {
	return m.record, m.err
}

func (m *mockStudentService) Update(_ context.Context, _ string, _ dto.StudentUpdateRequest) (dto.StudentRecord, error) {
	return m.record, m.err
}

func (m *mockStudentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockStudentService) UploadPhoto(_ context.Context, _ string, file *multipart.FileHeader) (dto.PhotoUploadResponse, error) {
	if file != nil {
		m.photoName = file.Filename
	}
	return m.photo, m.err
}

type mockGradeService struct {
	period   string
	index    int
	entry    dto.GradeEntryRequest
	response dto.StudentGradesResponse
	err      error
}

func (m *mockGradeService) Get(_ context.Context, _ string) (dto.StudentGradesResponse, error) {
	return m.response, m.err
}

func (m *mockGradeService) AddEntry(_ context.Context, _ string, period string, req dto.GradeEntryRequest) (dto.StudentGradesResponse, error) {
	m.period = period
	m.entry = req
	return m.response, m.err
}

func (m *mockGradeService) ReplacePeriod(_ context.Context, _ string, period string, _ dto.GradePeriodReplaceRequest) (dto.StudentGradesResponse, error) {
	m.period = period
	return m.response, m.err
}

func (m *mockGradeService) RemoveEntry(_ context.Context, _ string, period string, index int) (dto.StudentGradesResponse, error) {
	m.period = period
	m.index = index
	return m.response, m.err
}

type mockCourseService struct {
	recounted bool
	course    dto.CourseRecord
	book      dto.GradebookResponse
	period    string
	err       error
}

func (m *mockCourseService) List(_ context.Context) ([]dto.CourseRecord, error) {
	return []dto.CourseRecord{m.course}, m.err
}

func (m *mockCourseService) Get(_ context.Context, _ string) (dto.CourseRecord, error) {
	return m.course, m.err
}

func (m *mockCourseService) Create(_ context.Context, _ dto.CourseCreateRequest) (dto.CourseRecord, error) {
	return m.course, m.err
}

func (m *mockCourseService) Update(_ context.Context, _ string, _ dto.CourseUpdateRequest) (dto.CourseRecord, error) {
	return m.course, m.err
}

func (m *mockCourseService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCourseService) Recount(_ context.Context, _ string) (dto.CourseRecord, error) {
	m.recounted = true
	return m.course, m.err
}

func (m *mockCourseService) Gradebook(_ context.Context, _ string, period string) (dto.GradebookResponse, error) {
	m.period = period
	return m.book, m.err
}

type mockAgendaService struct {
	listReq dto.AgendaListRequest
	err     error
}

func (m *mockAgendaService) List(_ context.Context, req dto.AgendaListRequest) ([]dto.AgendaEventResponse, error) {
	m.listReq = req
	return []dto.AgendaEventResponse{}, m.err
}

func (m *mockAgendaService) Create(_ context.Context, _ dto.AgendaEventRequest) (dto.AgendaEventResponse, error) {
	return dto.AgendaEventResponse{}, m.err
}

func (m *mockAgendaService) Update(_ context.Context, _ string, _ dto.AgendaEventRequest) (dto.AgendaEventResponse, error) {
	return dto.AgendaEventResponse{}, m.err
}

func (m *mockAgendaService) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockReportService struct {
	courseID string
	summary  dto.ReportSummaryResponse
	err      error
}

func (m *mockReportService) Summary(_ context.Context, courseID string) (dto.ReportSummaryResponse, error) {
	m.courseID = courseID
	return m.summary, m.err
}
