package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kwakusharp7/fleet-managment/internal/projects"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	pkgerrors "github.com/Kwakusharp7/fleet-managment/pkg/errors"
)

type testProjectsService struct {
	projects.Service
	listFn   func(ctx context.Context, includeInactive bool) ([]models.Project, error)
	createFn func(ctx context.Context, input projects.CreateInput) (*models.Project, error)
	deleteFn func(ctx context.Context, code string) error
	getFn    func(ctx context.Context, code string) (*models.Project, error)
}

func (s *testProjectsService) List(ctx context.Context, includeInactive bool) ([]models.Project, error) {
	return s.listFn(ctx, includeInactive)
}

func (s *testProjectsService) Create(ctx context.Context, input projects.CreateInput) (*models.Project, error) {
	return s.createFn(ctx, input)
}

func (s *testProjectsService) Delete(ctx context.Context, code string) error {
	return s.deleteFn(ctx, code)
}

func (s *testProjectsService) Get(ctx context.Context, code string) (*models.Project, error) {
	return s.getFn(ctx, code)
}

type testCounter struct {
	counts map[string]int64
	asked  []string
}

func (c *testCounter) ProjectLoadCounts(_ context.Context, codes ...string) (map[string]int64, error) {
	c.asked = append(c.asked, codes...)
	return c.counts, nil
}

func TestListProjectsIncludesLoadCounts(t *testing.T) {
	var gotInactive bool
	svc := &testProjectsService{listFn: func(_ context.Context, includeInactive bool) ([]models.Project, error) {
		gotInactive = includeInactive
		return []models.Project{
			{Code: "T7", Name: "Tower", Status: enums.ProjectStatusActive},
			{Code: "B2", Name: "Bridge", Status: enums.ProjectStatusInactive},
		}, nil
	}}
	counter := &testCounter{counts: map[string]int64{"T7": 3}}

	resp := httptest.NewRecorder()
	ListProjects(svc, counter, testLogger())(resp, newActorRequest(http.MethodGet, "/api/v1/projects?includeInactive=true", "", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !gotInactive {
		t.Fatal("expected includeInactive forwarded")
	}
	var data struct {
		Items []projectResponse `json:"items"`
	}
	decodeData(t, resp, &data)
	if len(data.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(data.Items))
	}
	if data.Items[0].LoadCount == nil || *data.Items[0].LoadCount != 3 {
		t.Fatalf("unexpected T7 count %v", data.Items[0].LoadCount)
	}
	if data.Items[1].LoadCount == nil || *data.Items[1].LoadCount != 0 {
		t.Fatalf("expected zero count for B2, got %v", data.Items[1].LoadCount)
	}
	if len(counter.asked) != 2 {
		t.Fatalf("expected both codes counted, got %v", counter.asked)
	}
}

func TestCreateProjectValidatesBody(t *testing.T) {
	svc := &testProjectsService{createFn: func(context.Context, projects.CreateInput) (*models.Project, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	resp := httptest.NewRecorder()
	CreateProject(svc, testLogger())(resp, newActorRequest(http.MethodPost, "/api/v1/projects", `{"code":"","name":"Tower"}`, nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	env := decodeError(t, resp)
	if env.Error.Details["code"] != "is required" {
		t.Fatalf("unexpected details %v", env.Error.Details)
	}
}

func TestCreateProjectCreated(t *testing.T) {
	svc := &testProjectsService{createFn: func(_ context.Context, in projects.CreateInput) (*models.Project, error) {
		return &models.Project{Code: in.Code, Name: in.Name, Status: enums.ProjectStatusActive}, nil
	}}
	resp := httptest.NewRecorder()
	CreateProject(svc, testLogger())(resp, newActorRequest(http.MethodPost, "/api/v1/projects", `{"code":"T7","name":"Tower"}`, nil))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var out projectResponse
	decodeData(t, resp, &out)
	if out.Code != "T7" || out.LoadCount == nil || *out.LoadCount != 0 {
		t.Fatalf("unexpected project %+v", out)
	}
}

func TestDeleteProjectWithLoadsIsInvalidState(t *testing.T) {
	svc := &testProjectsService{deleteFn: func(_ context.Context, code string) error {
		return pkgerrors.New(pkgerrors.CodeInvalidState, "project "+code+" still has loads")
	}}
	resp := httptest.NewRecorder()
	DeleteProject(svc, testLogger())(resp, newActorRequest(http.MethodDelete, "/api/v1/projects/T7", "", map[string]string{"projectCode": "T7"}))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if env := decodeError(t, resp); env.Error.Code != string(pkgerrors.CodeInvalidState) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	svc := &testProjectsService{getFn: func(_ context.Context, code string) (*models.Project, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project "+code+" not found")
	}}
	resp := httptest.NewRecorder()
	GetProject(svc, nil, testLogger())(resp, newActorRequest(http.MethodGet, "/api/v1/projects/ZZ", "", map[string]string{"projectCode": "ZZ"}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
