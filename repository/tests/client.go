package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"thesis_repo/repository/services"

	"github.com/go-chi/chi/v5"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
		headers:  nil,
		json:     nil,
		body:     nil,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

// Multipart builds a submission style body with a json "meta" part and a
// "file" part.
func (r *httpTestRequest) Multipart(meta interface{}, filename string, content []byte) *httpTestRequest {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	metaJson, err := json.Marshal(meta)
	if err != nil {
		panic(fmt.Sprintf("error encoding meta part: %v", err))
	}
	if err := writer.WriteField("meta", string(metaJson)); err != nil {
		panic(fmt.Sprintf("error writing meta part: %v", err))
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		panic(fmt.Sprintf("error creating file part: %v", err))
	}
	if _, err := part.Write(content); err != nil {
		panic(fmt.Sprintf("error writing file part: %v", err))
	}

	if err := writer.Close(); err != nil {
		panic(fmt.Sprintf("error finalizing multipart body: %v", err))
	}

	r.body = body
	return r.Header("Content-Type", writer.FormDataContentType())
}

func statusToError(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidInput
	}
	return nil
}

func (r *httpTestRequest) do() (*httptest.ResponseRecorder, error) {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return nil, fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		if sentinel := statusToError(w.Code); sentinel != nil {
			return nil, fmt.Errorf("%w: %v request to endpoint %v returned status %d, content '%v'", sentinel, r.method, r.endpoint, w.Code, w.Body.String())
		}
		return nil, fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, w.Code, w.Body.String())
	}

	return w, nil
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	w, err := r.do()
	if err != nil {
		return err
	}

	if result != nil {
		res := w.Result()
		defer res.Body.Close()

		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

// DoBytes returns the raw response body, for endpoints that stream files
// rather than json.
func (r *httpTestRequest) DoBytes() ([]byte, error) {
	w, err := r.do()
	if err != nil {
		return nil, err
	}

	res := w.Result()
	defer res.Body.Close()

	return io.ReadAll(res.Body)
}

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(email, password, role string) (loginInfo, error) {
	body := map[string]string{
		"email": email, "password": password, "role": role,
	}

	err := c.Post("/user/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) createUser(email, password, role string) error {
	body := map[string]string{
		"email": email, "password": password, "role": role,
	}
	return c.Post("/user/create").Json(body).Do(nil)
}

func (c *client) userInfo() (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Get("/user/info").Do(&res)
	return res, err
}

func (c *client) listUsers(params map[string]string) ([]services.UserInfo, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	endpoint := "/user/list"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var res []services.UserInfo
	err := c.Get(endpoint).Do(&res)
	return res, err
}

type submission struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Keywords string `json:"keywords"`
	Faculty  string `json:"faculty"`
	Major    string `json:"major"`
}

func (c *client) submitThesis(meta submission, file []byte) (services.ThesisInfo, error) {
	var res services.ThesisInfo
	err := c.Post("/thesis/submit").Multipart(meta, "thesis.pdf", file).Do(&res)
	return res, err
}

func (c *client) myTheses() ([]services.ThesisInfo, error) {
	var res []services.ThesisInfo
	err := c.Get("/thesis/mine").Do(&res)
	return res, err
}

func (c *client) myFeedback(thesisId string) (services.ThesisFeedback, error) {
	var res services.ThesisFeedback
	err := c.Get(fmt.Sprintf("/thesis/%v/feedback", thesisId)).Do(&res)
	return res, err
}

func (c *client) downloadThesis(thesisId string) ([]byte, error) {
	return c.Get(fmt.Sprintf("/thesis/%v/document", thesisId)).DoBytes()
}

func (c *client) reviewDownload(thesisId string) ([]byte, error) {
	return c.Get(fmt.Sprintf("/review/theses/%v/document", thesisId)).DoBytes()
}

func (c *client) listLecturers() ([]services.LecturerInfo, error) {
	var res []services.LecturerInfo
	err := c.Get("/thesis/lecturers").Do(&res)
	return res, err
}

func (c *client) decide(thesisId, decision, notes string) (services.DecisionResponse, error) {
	body := map[string]string{"decision": decision, "notes": notes}

	var res services.DecisionResponse
	err := c.Post(fmt.Sprintf("/review/theses/%v/decision", thesisId)).Json(body).Do(&res)
	return res, err
}

func (c *client) publish(thesisId string) (services.PublishResponse, error) {
	var res services.PublishResponse
	err := c.Post(fmt.Sprintf("/review/theses/%v/publish", thesisId)).Do(&res)
	return res, err
}

func (c *client) reviewThesis(thesisId string) (services.ThesisFeedback, error) {
	var res services.ThesisFeedback
	err := c.Get(fmt.Sprintf("/review/theses/%v/", thesisId)).Do(&res)
	return res, err
}

func (c *client) listByStatus(status string) ([]services.ThesisInfo, error) {
	endpoint := "/review/theses"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}

	var res []services.ThesisInfo
	err := c.Get(endpoint).Do(&res)
	return res, err
}

func (c *client) listSubmissions() ([]services.SubmissionInfo, error) {
	var res []services.SubmissionInfo
	err := c.Get("/review/submissions").Do(&res)
	return res, err
}

type selection struct {
	Key      string `json:"key"`
	Label    string `json:"label,omitempty"`
	Category string `json:"category,omitempty"`
}

func (c *client) applyChecklist(thesisId string, selections []selection, replace bool) error {
	body := map[string]interface{}{"selections": selections, "replace": replace}
	return c.Post(fmt.Sprintf("/review/theses/%v/checklist", thesisId)).Json(body).Do(nil)
}

func (c *client) getChecked(thesisId string) ([]string, error) {
	var res services.CheckedKeysResponse
	err := c.Get(fmt.Sprintf("/review/theses/%v/checklist", thesisId)).Do(&res)
	return res.Keys, err
}

func (c *client) listCatalog() ([]services.CatalogItemInfo, error) {
	var res []services.CatalogItemInfo
	err := c.Get("/review/catalog").Do(&res)
	return res, err
}

func (c *client) addSupervisor(lecturerEmail string) error {
	body := map[string]string{"lecturer_email": lecturerEmail}
	return c.Post("/supervisor/add").Json(body).Do(nil)
}

func (c *client) mySupervisors() ([]services.SupervisorInfo, error) {
	var res []services.SupervisorInfo
	err := c.Get("/supervisor/mine").Do(&res)
	return res, err
}

func (c *client) mySupervisees() ([]services.SuperviseeInfo, error) {
	var res []services.SuperviseeInfo
	err := c.Get("/supervisor/supervisees").Do(&res)
	return res, err
}

func (c *client) superviseeTheses(studentId string) ([]services.ThesisInfo, error) {
	var res []services.ThesisInfo
	err := c.Get(fmt.Sprintf("/supervisor/supervisees/%v/theses", studentId)).Do(&res)
	return res, err
}

func (c *client) superviseeFeedback(thesisId string) (services.ThesisFeedback, error) {
	var res services.ThesisFeedback
	err := c.Get(fmt.Sprintf("/supervisor/theses/%v", thesisId)).Do(&res)
	return res, err
}

func (c *client) searchPublished(params map[string]string) ([]services.ThesisInfo, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	endpoint := "/public/theses"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var res []services.ThesisInfo
	err := c.Get(endpoint).Do(&res)
	return res, err
}
