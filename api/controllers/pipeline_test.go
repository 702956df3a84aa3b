package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbgenie/upload-genie/internal/artifacts"
	"github.com/kbgenie/upload-genie/pkg/enums"
	pkgerrors "github.com/kbgenie/upload-genie/pkg/errors"
)

func TestAdvanceArtifactStatusSuccess(t *testing.T) {
	var captured artifacts.AdvanceInput
	svc := &testArtifactsService{
		advanceFn: func(ctx context.Context, input artifacts.AdvanceInput) (*artifacts.AdvanceResult, error) {
			captured = input
			artifact := sampleArtifact(input.TrackerID)
			artifact.ProcessingStatus = input.NextStatus
			return &artifacts.AdvanceResult{Artifact: artifact}, nil
		},
	}

	body := strings.NewReader(`{"status":"processing","metadata":{"worker":"pipeline-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/artifacts/TRK-deadbeef-0000/status", body)
	req = addRouteParam(req, "trackerId", "TRK-deadbeef-0000")
	resp := httptest.NewRecorder()
	AdvanceArtifactStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.TrackerID != "TRK-deadbeef-0000" {
		t.Fatalf("unexpected tracker id %q", captured.TrackerID)
	}
	if captured.NextStatus != enums.ProcessingStatusProcessing {
		t.Fatalf("unexpected status %s", captured.NextStatus)
	}
	if captured.MetadataPatch["worker"] != "pipeline-1" {
		t.Fatalf("metadata patch not forwarded: %v", captured.MetadataPatch)
	}

	var envelope struct {
		Data struct {
			Applied bool `json:"applied"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data.Applied {
		t.Fatal("expected applied flag")
	}
}

func TestAdvanceArtifactStatusNoOp(t *testing.T) {
	svc := &testArtifactsService{
		advanceFn: func(ctx context.Context, input artifacts.AdvanceInput) (*artifacts.AdvanceResult, error) {
			return &artifacts.AdvanceResult{Artifact: sampleArtifact(input.TrackerID), NoOp: true}, nil
		},
	}

	body := strings.NewReader(`{"status":"processing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/artifacts/TRK-deadbeef-0000/status", body)
	req = addRouteParam(req, "trackerId", "TRK-deadbeef-0000")
	resp := httptest.NewRecorder()
	AdvanceArtifactStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Applied bool `json:"applied"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Applied {
		t.Fatal("expected applied=false for a retried transition")
	}
}

func TestAdvanceArtifactStatusRejectsUnknownStatus(t *testing.T) {
	body := strings.NewReader(`{"status":"archived"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/artifacts/TRK-deadbeef-0000/status", body)
	req = addRouteParam(req, "trackerId", "TRK-deadbeef-0000")
	resp := httptest.NewRecorder()
	AdvanceArtifactStatus(&testArtifactsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAdvanceArtifactStatusConflictSurfacesCode(t *testing.T) {
	svc := &testArtifactsService{
		advanceFn: func(ctx context.Context, input artifacts.AdvanceInput) (*artifacts.AdvanceResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transition completed -> processing is not allowed")
		},
	}

	body := strings.NewReader(`{"status":"processing"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/artifacts/TRK-deadbeef-0000/status", body)
	req = addRouteParam(req, "trackerId", "TRK-deadbeef-0000")
	resp := httptest.NewRecorder()
	AdvanceArtifactStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	var bodyOut struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &bodyOut); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if bodyOut.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict code, got %s", bodyOut.Error.Code)
	}
}
