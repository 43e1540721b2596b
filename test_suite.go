package folio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// DBSeeder loads the rows of a feature table into storage.
type DBSeeder interface {
	Seed(document string, data *godog.Table) error
}

type SeederFunc func(document string, data *godog.Table) error

func (f SeederFunc) Seed(document string, data *godog.Table) error {
	return f(document, data)
}

// TestSuite drives an HTTP handler from godog feature files. Values captured
// with "is stored as" can be referenced as {{name}} in paths and bodies.
type TestSuite struct {
	T           *testing.T
	Router      *gin.Engine
	Server      *Server
	Resp        *http.Response
	RespBody    []byte
	Storage     map[string]string
	RequestBody []byte
	BaseURL     string
	DbSeeders   map[string]DBSeeder
	Reset       func() error
}

func NewTestSuite(server *Server) *TestSuite {
	return &TestSuite{
		Router:    server.Engine(),
		Server:    server,
		Storage:   make(map[string]string),
		DbSeeders: make(map[string]DBSeeder),
	}
}

type TestLogger struct {
	T *testing.T
}

func (ts *TestSuite) RegisterDBSeeder(document string, seeder DBSeeder) {
	ts.DbSeeders[document] = seeder
}

func (ts *TestSuite) SetBaseURL(baseURL string) {
	ts.BaseURL = baseURL
}

func (ts *TestSuite) InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		if ts.Storage == nil {
			ts.Storage = make(map[string]string)
		}
	})
}

func (ts *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.BeforeScenario(func(sc *godog.Scenario) {
		ts.Resp = nil
		ts.RespBody = nil
		ts.RequestBody = nil
		ts.Storage = make(map[string]string)
		if ts.Reset != nil {
			if err := ts.Reset(); err != nil {
				ts.T.Fatalf("failed to reset state before %q: %v", sc.Name, err)
			}
		}
	})

	ctx.Step(`^document "([^"]*)" has the following items$`, ts.documentHasTheFollowingItems)
	ctx.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, ts.iSendARequestTo)
	ctx.Step(`^I send a (POST|PUT) request to "([^"]*)" with body$`, ts.iSendARequestToWithBody)
	ctx.Step(`^I send a (POST|PUT) request to "([^"]*)" with JSON$`, ts.iSendARequestToWithJSON)
	ctx.Step(`^I send an authenticated (GET|DELETE) request to "([^"]*)"$`, ts.iSendAnAuthenticatedRequestTo)
	ctx.Step(`^I send an authenticated (POST|PUT) request to "([^"]*)" with JSON$`, ts.iSendAnAuthenticatedRequestToWithJSON)
	ctx.Step(`^the response status should be (\d+)$`, ts.theResponseStatusShouldBe)
	ctx.Step(`^the response "([^"]*)" field is stored as "([^"]*)"$`, ts.theResponseFieldIsStoredAs)
	ctx.Step(`^the response should contain an item with$`, ts.theResponseShouldContainAnItemWith)
	ctx.Step(`^the response should be a list of (\d+) items?$`, ts.theResponseShouldBeAListOf)
	ctx.Step(`^the response list should contain an item with$`, ts.theResponseListShouldContainAnItemWith)
	ctx.Step(`^the response list should not contain an item with "([^"]*)" "([^"]*)"$`, ts.theResponseListShouldNotContain)
}

func (ts *TestSuite) documentHasTheFollowingItems(document string, data *godog.Table) error {
	seeder, ok := ts.DbSeeders[document]
	if !ok {
		return fmt.Errorf("no seeder registered for document %s", document)
	}
	return seeder.Seed(document, data)
}

var placeholder = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

func (ts *TestSuite) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		if val, ok := ts.Storage[key]; ok {
			return val
		}
		return match
	})
}

func (ts *TestSuite) send(method, path string, body []byte, authenticated bool) error {
	path = ts.expand(path)
	ts.RequestBody = body

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, ts.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+ts.Storage["authToken"])
	}

	if ts.BaseURL != "" {
		client := &http.Client{}
		ts.Resp, err = client.Do(req)
		if err != nil {
			return err
		}
	} else {
		w := httptest.NewRecorder()
		ts.Router.ServeHTTP(w, req)
		ts.Resp = w.Result()
	}

	defer ts.Resp.Body.Close()
	ts.RespBody, err = io.ReadAll(ts.Resp.Body)
	return err
}

func (ts *TestSuite) iSendARequestTo(method, path string) error {
	return ts.send(method, path, nil, false)
}

func (ts *TestSuite) iSendAnAuthenticatedRequestTo(method, path string) error {
	return ts.send(method, path, nil, true)
}

func (ts *TestSuite) iSendARequestToWithBody(method, path string, body *godog.Table) error {
	payload, err := ts.parseDataTableToJSON(body)
	if err != nil {
		return err
	}
	return ts.send(method, path, payload, false)
}

func (ts *TestSuite) iSendARequestToWithJSON(method, path string, body *godog.DocString) error {
	return ts.send(method, path, []byte(ts.expand(body.Content)), false)
}

func (ts *TestSuite) iSendAnAuthenticatedRequestToWithJSON(method, path string, body *godog.DocString) error {
	return ts.send(method, path, []byte(ts.expand(body.Content)), true)
}

func (ts *TestSuite) theResponseStatusShouldBe(status int) error {
	if ts.Resp.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, ts.Resp.StatusCode, ts.RespBody)
	}
	return nil
}

func (ts *TestSuite) theResponseFieldIsStoredAs(field, key string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &data); err != nil {
		return err
	}
	if val, ok := data[field]; ok {
		ts.Storage[key] = formatValue(val)
		return nil
	}
	return fmt.Errorf("field %s not found in response", field)
}

func (ts *TestSuite) theResponseShouldContainAnItemWith(body *godog.Table) error {
	expected, err := ts.parseDataTable(body)
	if err != nil {
		return err
	}

	var actual map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &actual); err != nil {
		return err
	}
	return ts.matches(expected, actual)
}

func (ts *TestSuite) theResponseShouldBeAListOf(count int) error {
	var items []map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &items); err != nil {
		return err
	}
	if len(items) != count {
		return fmt.Errorf("expected %d items, got %d", count, len(items))
	}
	return nil
}

func (ts *TestSuite) theResponseListShouldContainAnItemWith(body *godog.Table) error {
	expected, err := ts.parseDataTable(body)
	if err != nil {
		return err
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &items); err != nil {
		return err
	}
	for _, item := range items {
		if ts.matches(expected, item) == nil {
			return nil
		}
	}
	return fmt.Errorf("no item in %s matches %v", ts.RespBody, expected)
}

func (ts *TestSuite) theResponseListShouldNotContain(field, value string) error {
	var items []map[string]interface{}
	if err := json.Unmarshal(ts.RespBody, &items); err != nil {
		return err
	}
	value = ts.expand(value)
	for _, item := range items {
		if formatValue(item[field]) == value {
			return fmt.Errorf("unexpected item with %s=%s in %s", field, value, ts.RespBody)
		}
	}
	return nil
}

func (ts *TestSuite) matches(expected map[string]string, actual map[string]interface{}) error {
	for key, expectedValue := range expected {
		actualValue, ok := actual[key]
		if !ok {
			return fmt.Errorf("field %s not found in response", key)
		}
		if formatValue(actualValue) != ts.expand(expectedValue) {
			return fmt.Errorf("field %s: expected %q, got %q", key, expectedValue, formatValue(actualValue))
		}
	}
	return nil
}

// formatValue renders JSON values the way feature tables spell them.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (ts *TestSuite) parseDataTable(body *godog.Table) (map[string]string, error) {
	if len(body.Rows) < 2 {
		return nil, fmt.Errorf("table must have at least two rows")
	}
	headers := body.Rows[0].Cells
	data := make(map[string]string)
	for j, cell := range body.Rows[1].Cells {
		data[headers[j].Value] = cell.Value
	}
	return data, nil
}

func (ts *TestSuite) parseDataTableToJSON(body *godog.Table) ([]byte, error) {
	data, err := ts.parseDataTable(body)
	if err != nil {
		return nil, err
	}
	payload := make(map[string]interface{}, len(data))
	for key, value := range data {
		payload[key] = ts.expand(value)
	}
	return json.Marshal(payload)
}

func (tl *TestLogger) Write(p []byte) (n int, err error) {
	if tl.T != nil {
		tl.T.Logf("%s", strings.TrimRight(string(p), "\n"))
	}
	return len(p), nil
}

func TestFeatures(t *testing.T, suite *TestSuite, paths ...string) {
	suite.T = t
	if len(paths) == 0 {
		paths = []string{"features"}
	}
	opts := godog.Options{
		Format:    "pretty",
		Output:    colors.Colored(&TestLogger{T: t}),
		Paths:     paths,
		Strict:    true,
		Randomize: 0,
	}

	status := godog.TestSuite{
		Name:                 "folio",
		TestSuiteInitializer: suite.InitializeTestSuite,
		ScenarioInitializer:  suite.InitializeScenario,
		Options:              &opts,
	}.Run()
	assert.Equal(t, 0, status, "feature scenarios failed")
}
