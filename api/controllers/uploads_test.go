package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/pkg/db/models"
	"github.com/kbgenie/upload-genie/pkg/enums"
)

func TestCreateUploadSuccess(t *testing.T) {
	var captured artifacts.CreateInput
	svc := &testArtifactsService{
		createFn: func(ctx context.Context, input artifacts.CreateInput) (*models.TrackedArtifact, error) {
			captured = input
			artifact := sampleArtifact("TRK-cafebabe-1234")
			artifact.ProcessingStatus = enums.ProcessingStatusPending
			artifact.Title = input.Title
			return artifact, nil
		},
	}

	body := strings.NewReader(`{"title":"quarterly report","upload_method":"web_upload","file_type":"pdf","file_size":2048}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	resp := httptest.NewRecorder()
	CreateUpload(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.UploadMethod != enums.UploadMethodWebUpload {
		t.Fatalf("unexpected method %s", captured.UploadMethod)
	}
	if captured.FileSize == nil || *captured.FileSize != 2048 {
		t.Fatalf("file size not forwarded: %v", captured.FileSize)
	}

	var envelope struct {
		Data struct {
			TrackerID string `json:"tracker_id"`
			Status    string `json:"processing_status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TrackerID == "" {
		t.Fatal("expected tracker id in response")
	}
	if envelope.Data.Status != "pending" {
		t.Fatalf("expected pending, got %s", envelope.Data.Status)
	}
}

func TestCreateUploadRequiresMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader(`{"title":"no method"}`))
	resp := httptest.NewRecorder()
	CreateUpload(&testArtifactsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateUploadRejectsUnknownMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader(`{"upload_method":"fax"}`))
	resp := httptest.NewRecorder()
	CreateUpload(&testArtifactsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateUploadRejectsNegativeFileSize(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader(`{"upload_method":"web_upload","file_size":-1}`))
	resp := httptest.NewRecorder()
	CreateUpload(&testArtifactsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
