package restapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VaibhavChidrawar/thumbnail-api/config"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/controller/restapi"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/controller/restapi/validate"
	"github.com/VaibhavChidrawar/thumbnail-api/internal/entity"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/logger"
	"github.com/VaibhavChidrawar/thumbnail-api/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// fakeJobs drives the handlers without storage, queue or worker.
type fakeJobs struct {
	jobs      map[uuid.UUID]*entity.Job
	thumbs    map[uuid.UUID][]byte
	submitErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		jobs:   make(map[uuid.UUID]*entity.Job),
		thumbs: make(map[uuid.UUID][]byte),
	}
}

func (f *fakeJobs) Submit(ctx context.Context, data io.Reader, contentType string, size int64) (*entity.Job, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}

	job := &entity.Job{ID: uuid.New(), Status: entity.Queued, CreatedAt: time.Now()}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobs) MarkProcessing(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	return nil
}

func (f *fakeJobs) MarkSucceeded(ctx context.Context, id uuid.UUID, finishedAt time.Time) error {
	return nil
}

func (f *fakeJobs) MarkFailed(ctx context.Context, id uuid.UUID, finishedAt time.Time, errText string) error {
	return nil
}

func (f *fakeJobs) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errs.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobs) List(ctx context.Context) ([]*entity.Job, error) {
	out := make([]*entity.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (f *fakeJobs) Debug(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errs.ErrJobNotFound
	}
	return map[string]string{"status": string(job.Status), "error": job.Error}, nil
}

func (f *fakeJobs) Thumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errs.ErrJobNotFound
	}
	if job.Status != entity.Succeeded {
		return nil, errs.ErrThumbnailNotReady
	}
	b, ok := f.thumbs[id]
	if !ok {
		return nil, errs.ErrArtifactMissing
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeJobs) OriginalBytes(ctx context.Context, key string) ([]byte, error) {
	return nil, errs.ErrArtifactMissing
}

func (f *fakeJobs) SaveThumbnail(ctx context.Context, id uuid.UUID, data []byte) error {
	f.thumbs[id] = data
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *fakeJobs) {
	t.Helper()

	fake := newFakeJobs()

	app := fiber.New(fiber.Config{BodyLimit: int(validate.MaxFileSize) + 1024*1024})
	restapi.NewRouter(app, &config.Config{}, fake, logger.New("error"))

	return app, fake
}

func multipartUpload(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="picture.png"`}
	hdr["Content-Type"] = []string{contentType}

	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("mw.Close: %v", err)
	}

	return &body, mw.FormDataContentType()
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}

func TestSubmitJobAccepted(t *testing.T) {
	app, fake := newTestApp(t)

	body, contentType := multipartUpload(t, "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)

	resp := doRequest(t, app, req)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var got struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &got)

	id, err := uuid.Parse(got.JobID)
	if err != nil {
		t.Fatalf("job_id %q is not a uuid: %v", got.JobID, err)
	}
	if got.Status != "queued" {
		t.Fatalf("status = %q, want %q", got.Status, "queued")
	}
	if _, ok := fake.jobs[id]; !ok {
		t.Fatalf("job %s not created", id)
	}
}

func TestSubmitJobRejectsNonImage(t *testing.T) {
	app, fake := newTestApp(t)

	body, contentType := multipartUpload(t, "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)

	resp := doRequest(t, app, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var got struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp, &got)
	if got.Error != "only image files are supported" {
		t.Fatalf("error = %q", got.Error)
	}

	if len(fake.jobs) != 0 {
		t.Fatalf("rejected upload created %d jobs", len(fake.jobs))
	}
}

func TestSubmitJobRejectsEmptyAndOversized(t *testing.T) {
	app, _ := newTestApp(t)

	// empty file
	body, contentType := multipartUpload(t, "image/png", nil)
	req := httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)

	resp := doRequest(t, app, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty file status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// over the 10MB cap
	body, contentType = multipartUpload(t, "image/png", bytes.Repeat([]byte("x"), 10*1024*1024+1))
	req = httptest.NewRequest(http.MethodPost, "/jobs", body)
	req.Header.Set("Content-Type", contentType)

	resp = doRequest(t, app, req)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized file status = %d, want 413", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSubmitJobMissingFile(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	resp := doRequest(t, app, req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestJobStatus(t *testing.T) {
	app, fake := newTestApp(t)

	job := &entity.Job{ID: uuid.New(), Status: entity.Processing, CreatedAt: time.Now()}
	fake.jobs[job.ID] = job

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &got)
	if got.JobID != job.ID.String() || got.Status != "processing" {
		t.Fatalf("body = %+v", got)
	}
}

func TestJobStatusErrors(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid id status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListJobs(t *testing.T) {
	app, fake := newTestApp(t)

	for i := 0; i < 2; i++ {
		job := &entity.Job{ID: uuid.New(), Status: entity.Queued, CreatedAt: time.Now()}
		fake.jobs[job.ID] = job
	}

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got []struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &got)
	if len(got) != 2 {
		t.Fatalf("listed %d jobs, want 2", len(got))
	}
}

func TestGetThumbnail(t *testing.T) {
	app, fake := newTestApp(t)
	id := uuid.New()

	// not ready: response carries the current status
	fake.jobs[id] = &entity.Job{ID: id, Status: entity.Processing, CreatedAt: time.Now()}

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/thumbnail", id), nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("processing job status = %d, want 400", resp.StatusCode)
	}

	var errBody struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp, &errBody)
	if !strings.Contains(errBody.Error, "processing") {
		t.Fatalf("error %q does not name the job status", errBody.Error)
	}

	// succeeded but artifact gone
	fake.jobs[id].Status = entity.Succeeded

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/thumbnail", id), nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("missing artifact status = %d, want 500", resp.StatusCode)
	}
	resp.Body.Close()

	// succeeded with artifact
	fake.thumbs[id] = []byte("thumb-bytes")

	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/thumbnail", id), nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type = %q, want image/png", ct)
	}

	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(b) != "thumb-bytes" {
		t.Fatalf("body = %q, want %q", b, "thumb-bytes")
	}

	// unknown job
	resp = doRequest(t, app, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/thumbnail", uuid.New()), nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDebugJob(t *testing.T) {
	app, fake := newTestApp(t)
	id := uuid.New()
	fake.jobs[id] = &entity.Job{ID: id, Status: entity.Failed, CreatedAt: time.Now(), Error: "corrupt image"}

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%s/debug", id), nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got map[string]string
	decodeJSON(t, resp, &got)
	if got["status"] != "failed" || got["error"] != "corrupt image" {
		t.Fatalf("body = %v", got)
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got map[string]string
	decodeJSON(t, resp, &got)
	if got["status"] != "ok" {
		t.Fatalf("body = %v", got)
	}
}
