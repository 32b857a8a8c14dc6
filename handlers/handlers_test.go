package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trello-project/microservices/tasktracker-service/middleware"
	"trello-project/microservices/tasktracker-service/repositories/repotest"
	"trello-project/microservices/tasktracker-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testAPI struct {
	router http.Handler
	tasks  *repotest.TaskStore
	users  *repotest.UserStore
}

func newTestAPI() *testAPI {
	tasks := repotest.NewTaskStore()
	users := repotest.NewUserStore()
	router := NewRouter(
		NewUserHandler(services.NewUserService(users)),
		NewTaskHandler(services.NewTaskService(tasks, users)),
	)
	return &testAPI{router: router, tasks: tasks, users: users}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type jsonObject = map[string]any

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d want %d, body %s", rec.Code, want, rec.Body.String())
	}
}

func (a *testAPI) createUser(t *testing.T, name, role string) jsonObject {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"name": name, "role": role})
	rec := a.do(t, http.MethodPost, "/api/users", string(body))
	expectStatus(t, rec, http.StatusCreated)
	return decode[jsonObject](t, rec)
}

func (a *testAPI) createTask(t *testing.T, body string) jsonObject {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/tasks", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[jsonObject](t, rec)
}

func TestHealth(t *testing.T) {
	api := newTestAPI()
	rec := api.do(t, http.MethodGet, "/", "")
	expectStatus(t, rec, http.StatusOK)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "Task Tracker API is healthy." {
		t.Fatalf("message: %v", msg)
	}
}

func TestUsersEndpoints(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/api/users", `{"role":"Lead"}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "Name is required." {
		t.Fatalf("message: %v", msg)
	}

	first := api.createUser(t, " Ana ", "")
	if first["name"] != "Ana" || first["role"] != "Contributor" {
		t.Fatalf("created user: %v", first)
	}
	if _, ok := first["id"].(string); !ok {
		t.Fatalf("id should be a string: %v", first["id"])
	}
	if _, ok := first["__v"]; ok {
		t.Fatal("version counter leaked")
	}
	api.createUser(t, "Bob", "Reviewer")

	rec = api.do(t, http.MethodGet, "/api/users", "")
	expectStatus(t, rec, http.StatusOK)
	users := decode[[]jsonObject](t, rec)
	if len(users) != 2 || users[0]["name"] != "Bob" {
		t.Fatalf("users newest first: %v", users)
	}
}

func TestCreateTaskWithoutTitle(t *testing.T) {
	api := newTestAPI()

	for _, body := range []string{`{}`, `{"title":"   ","priority":"high"}`, ""} {
		rec := api.do(t, http.MethodPost, "/api/tasks", body)
		expectStatus(t, rec, http.StatusBadRequest)
		if msg := decode[jsonObject](t, rec)["message"]; msg != "Title is required." {
			t.Fatalf("body %q: message %v", body, msg)
		}
	}
	if api.tasks.Len() != 0 {
		t.Fatalf("no task should be persisted, have %d", api.tasks.Len())
	}
}

func TestCreateTaskRejectsMalformedPayload(t *testing.T) {
	api := newTestAPI()

	for _, body := range []string{`{"title":`, `{"title":7}`, `[]`} {
		rec := api.do(t, http.MethodPost, "/api/tasks", body)
		expectStatus(t, rec, http.StatusBadRequest)
		if msg := decode[jsonObject](t, rec)["message"]; msg != "Invalid request payload." {
			t.Fatalf("body %q: message %v", body, msg)
		}
	}
}

func TestTaskAssigneeIsPopulated(t *testing.T) {
	api := newTestAPI()
	user := api.createUser(t, "Ana", "Lead")
	userID := user["id"].(string)

	created := api.createTask(t, `{"title":"Review PR","assigneeId":"`+userID+`","dueDate":"2024-07-01"}`)
	if created["priority"] != "medium" || created["status"] != "todo" || created["description"] != "" {
		t.Fatalf("defaults: %v", created)
	}
	if created["dueDate"] != "2024-07-01T00:00:00Z" {
		t.Fatalf("dueDate: %v", created["dueDate"])
	}

	rec := api.do(t, http.MethodGet, "/api/tasks/"+created["id"].(string), "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[jsonObject](t, rec)

	if got["assigneeId"] != userID {
		t.Fatalf("assigneeId: %v", got["assigneeId"])
	}
	assignee, ok := got["assignee"].(jsonObject)
	if !ok {
		t.Fatalf("assignee should be an object, got %v", got["assignee"])
	}
	if assignee["id"] != userID || assignee["name"] != "Ana" || assignee["role"] != "Lead" {
		t.Fatalf("assignee: %v", assignee)
	}
	if _, ok := got["__v"]; ok {
		t.Fatal("version counter leaked")
	}
}

func TestTaskWithInvalidAssigneeIsNulled(t *testing.T) {
	api := newTestAPI()

	created := api.createTask(t, `{"title":"x","assigneeId":"12345"}`)
	if v, ok := created["assigneeId"]; !ok || v != nil {
		t.Fatalf("assigneeId should be null, got %v", v)
	}
	if v, ok := created["assignee"]; !ok || v != nil {
		t.Fatalf("assignee should be null, got %v", v)
	}
}

func TestTaskWithDanglingAssignee(t *testing.T) {
	api := newTestAPI()
	ghost := primitive.NewObjectID().Hex()

	created := api.createTask(t, `{"title":"x","assigneeId":"`+ghost+`"}`)
	if created["assigneeId"] != ghost || created["assignee"] != nil {
		t.Fatalf("dangling reference: assigneeId=%v assignee=%v", created["assigneeId"], created["assignee"])
	}
}

func TestPatchTask(t *testing.T) {
	api := newTestAPI()
	created := api.createTask(t, `{"title":"Draft","description":"v1","priority":"low","dueDate":"2024-07-01T09:00:00Z"}`)
	path := "/api/tasks/" + created["id"].(string)

	rec := api.do(t, http.MethodPatch, path, `{"status":"done"}`)
	expectStatus(t, rec, http.StatusOK)
	got := decode[jsonObject](t, rec)
	if got["status"] != "done" || got["title"] != "Draft" || got["description"] != "v1" || got["priority"] != "low" {
		t.Fatalf("omitted fields must stay: %v", got)
	}
	if got["dueDate"] != "2024-07-01T09:00:00Z" {
		t.Fatalf("dueDate should be untouched, got %v", got["dueDate"])
	}

	rec = api.do(t, http.MethodPatch, path, `{"dueDate":null}`)
	expectStatus(t, rec, http.StatusOK)
	got = decode[jsonObject](t, rec)
	if v, ok := got["dueDate"]; !ok || v != nil {
		t.Fatalf("dueDate should be cleared, got %v", v)
	}
	if got["status"] != "done" {
		t.Fatalf("status changed: %v", got["status"])
	}

	rec = api.do(t, http.MethodPatch, path, `{"priority":"critical"}`)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = api.do(t, http.MethodPatch, "/api/tasks/"+primitive.NewObjectID().Hex(), `{"title":"y"}`)
	expectStatus(t, rec, http.StatusNotFound)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "Task not found." {
		t.Fatalf("message: %v", msg)
	}
}

func TestTaskDueDateAsNumber(t *testing.T) {
	api := newTestAPI()
	created := api.createTask(t, `{"title":"Release","dueDate":1709626500000}`)
	if created["dueDate"] != "2024-03-05T08:15:00Z" {
		t.Fatalf("create dueDate: %v", created["dueDate"])
	}
	path := "/api/tasks/" + created["id"].(string)

	rec := api.do(t, http.MethodPatch, path, `{"dueDate":1709712900000}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[jsonObject](t, rec)["dueDate"]; got != "2024-03-06T08:15:00Z" {
		t.Fatalf("patch dueDate: %v", got)
	}

	rec = api.do(t, http.MethodPatch, path, `{"dueDate":1e300}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "Invalid due date." {
		t.Fatalf("message: %v", msg)
	}

	rec = api.do(t, http.MethodPatch, path, `{"dueDate":true}`)
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "Invalid request payload." {
		t.Fatalf("message: %v", msg)
	}
}

func TestDeleteTask(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodDelete, "/api/tasks/"+primitive.NewObjectID().Hex(), "")
	expectStatus(t, rec, http.StatusNotFound)

	created := api.createTask(t, `{"title":"temp"}`)
	path := "/api/tasks/" + created["id"].(string)

	rec = api.do(t, http.MethodDelete, path, "")
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Fatalf("204 must have an empty body, got %q", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, path, "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestGetTaskMalformedID(t *testing.T) {
	api := newTestAPI()
	rec := api.do(t, http.MethodGet, "/api/tasks/not-an-object-id", "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestListTasksFilteringAndOrder(t *testing.T) {
	api := newTestAPI()
	user := api.createUser(t, "Ana", "")
	userID := user["id"].(string)

	api.createTask(t, `{"title":"one","status":"done"}`)
	api.createTask(t, `{"title":"two","assigneeId":"`+userID+`"}`)
	api.createTask(t, `{"title":"three","status":"done","assigneeId":"`+userID+`"}`)

	titles := func(query string) []string {
		rec := api.do(t, http.MethodGet, "/api/tasks"+query, "")
		expectStatus(t, rec, http.StatusOK)
		var out []string
		for _, task := range decode[[]jsonObject](t, rec) {
			out = append(out, task["title"].(string))
		}
		return out
	}

	cases := []struct {
		query string
		want  string
	}{
		{"", "three,two,one"},
		{"?status=done", "three,one"},
		{"?assigneeId=" + userID, "three,two"},
		{"?assigneeId=" + userID + "&status=todo", "two"},
		{"?assigneeId=garbage", "three,two,one"},
		{"?status=archived", ""},
	}
	for _, c := range cases {
		if got := strings.Join(titles(c.query), ","); got != c.want {
			t.Errorf("GET /api/tasks%s: got %q want %q", c.query, got, c.want)
		}
	}

	rec := api.do(t, http.MethodGet, "/api/tasks?status=archived", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("unknown status should return an empty array, got %s", body)
	}
}

func TestTasksByAssigneeEndpoint(t *testing.T) {
	api := newTestAPI()
	user := api.createUser(t, "Ana", "Lead")
	userID := user["id"].(string)
	api.createTask(t, `{"title":"mine","assigneeId":"`+userID+`"}`)
	api.createTask(t, `{"title":"other"}`)

	rec := api.do(t, http.MethodGet, "/api/tasks/by-assignee/"+userID, "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[jsonObject](t, rec)
	if got["assignee"].(jsonObject)["name"] != "Ana" {
		t.Fatalf("assignee: %v", got["assignee"])
	}
	tasks := got["tasks"].([]any)
	if len(tasks) != 1 || tasks[0].(jsonObject)["title"] != "mine" {
		t.Fatalf("tasks: %v", tasks)
	}

	rec = api.do(t, http.MethodGet, "/api/tasks/by-assignee/"+primitive.NewObjectID().Hex(), "")
	expectStatus(t, rec, http.StatusNotFound)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "User not found." {
		t.Fatalf("message: %v", msg)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	api := newTestAPI()
	user := api.createUser(t, "Ana", "")
	api.createTask(t, `{"title":"a","assigneeId":"`+user["id"].(string)+`"}`)
	api.createTask(t, `{"title":"b","status":"done"}`)

	rec := api.do(t, http.MethodGet, "/api/dashboard", "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[jsonObject](t, rec)

	totals := got["totals"].(jsonObject)
	if totals["tasks"] != float64(2) || totals["users"] != float64(1) {
		t.Fatalf("totals: %v", totals)
	}
	if got["byStatus"].(jsonObject)["done"] != float64(1) {
		t.Fatalf("byStatus: %v", got["byStatus"])
	}
	if got["byAssignee"].(jsonObject)["Unassigned"] != float64(1) {
		t.Fatalf("byAssignee: %v", got["byAssignee"])
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	api := newTestAPI()
	api.tasks.Err = errors.New("server selection error: context deadline exceeded")

	rec := api.do(t, http.MethodGet, "/api/tasks", "")
	expectStatus(t, rec, http.StatusInternalServerError)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "server selection error: context deadline exceeded" {
		t.Fatalf("message should pass through, got %v", msg)
	}
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI()
	rec := api.do(t, http.MethodGet, "/api/projects", "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestAPIBehindMiddleware(t *testing.T) {
	api := newTestAPI()
	h := middleware.Chain(api.router, "*")
	send := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := send(httptest.NewRequest(http.MethodOptions, "/api/tasks/abc", nil))
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("preflight headers: %v", rec.Header())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"plain"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec = send(req)
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode[jsonObject](t, rec)["message"]; msg != "Title is required." {
		t.Fatalf("message: %v", msg)
	}
	if api.tasks.Len() != 0 {
		t.Fatal("a non-JSON body must not create a task")
	}

	big := `{"title":"` + strings.Repeat("x", middleware.MaxBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec = send(req)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)

	req = httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Ship"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = send(req)
	expectStatus(t, rec, http.StatusCreated)
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("response headers: %v", rec.Header())
	}
}
