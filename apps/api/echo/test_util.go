package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/files"
)

type testDeps struct {
	conf   *core.Config
	sess   *sessionManager
	usrSvc user.ServiceInterface
	crsSvc course.ServiceInterface
	asgSvc assignment.ServiceInterface
}

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Darasa",
		SecretKey:        "0sEcReT-tEsT-kEy5",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@test.cd",
		SessionMaxAge:    7 * 24 * time.Hour,
		Uploads: core.UploadsConfig{
			Dir:         filepath.Join(t.TempDir(), "uploads"),
			MaxFileSize: 10 << 20,
		},
	}
}

func setupServer(t *testing.T) (Server, testDeps) {
	t.Helper()

	conf := testConfig(t)
	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(conf, inmemdb.NewUserRepository(db), mailSvc)
	crsSvc := course.NewService(inmemdb.NewCourseRepository(db))
	asgSvc := assignment.NewService(inmemdb.NewAssignmentRepository(db))

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	app := NewServer(&Options{
		Conf:           conf,
		DisableReqLogs: true,
		Logger:         logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		AssignmentSvc:  asgSvc,
		FileStorage:    files.NewLocalStorage(conf),
		SignalShutdown: func() {},
	})

	return app, testDeps{
		conf:   conf,
		sess:   newSessionManager(conf),
		usrSvc: usrSvc,
		crsSvc: crsSvc,
		asgSvc: asgSvc,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	cookie   *http.Cookie
	wantCode int
	wantData []byte
}

func newRequest(method, path string, cookie *http.Cookie, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

// sessionCookie mints a sealed session cookie for usr, as login would.
func sessionCookie(t *testing.T, sm *sessionManager, usr user.User) *http.Cookie {
	t.Helper()
	data := SessionData{UserID: usr.ID, Email: usr.Email, Role: usr.Role, IsLoggedIn: true}
	sealed, err := sm.sc.Encode(sessionCookieName, data)
	if err != nil {
		t.Fatalf("sessionCookie(): %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: sealed}
}

func createUser(t *testing.T, svc user.ServiceInterface, name, email, pwd, role string) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

func createCourse(t *testing.T, svc course.ServiceInterface, code, name string) course.Course {
	t.Helper()
	crs, err := svc.Create(context.Background(), course.NewCourse{Code: code, Name: name})
	if err != nil {
		t.Fatalf("createCourse(): %v", err)
	}
	return crs
}

func enroll(t *testing.T, svc course.ServiceInterface, usr user.User, crs course.Course) course.Enrollment {
	t.Helper()
	enr, err := svc.Enroll(context.Background(), course.NewEnrollment{UserID: usr.ID, CourseID: crs.ID})
	if err != nil {
		t.Fatalf("enroll(): %v", err)
	}
	return enr
}

func createAssignment(t *testing.T, svc assignment.ServiceInterface, crs course.Course, title string, due *time.Time) assignment.Assignment {
	t.Helper()
	asg, err := svc.Create(context.Background(), assignment.NewAssignment{
		CourseID: crs.ID,
		Title:    title,
		DueDate:  due,
	})
	if err != nil {
		t.Fatalf("createAssignment(): %v", err)
	}
	return asg
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
