package rpc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

func TestDecodeFeedId_AcceptsWellFormedId(t *testing.T) {
	feedID := ids.NewFeedId()
	got, err := decodeFeedId(feedID.String())
	if err != nil {
		t.Fatalf("decodeFeedId: %v", err)
	}
	if got != feedID {
		t.Errorf("expected %s, got %s", feedID, got)
	}
}

func TestDecodeFeedId_RejectsMalformedString(t *testing.T) {
	if _, err := decodeFeedId("not-a-uuid"); err == nil {
		t.Fatal("expected an error for a malformed feed id")
	}
}

func TestDecodeMessageId_RejectsMalformedString(t *testing.T) {
	if _, err := decodeMessageId("also-not-a-uuid"); err == nil {
		t.Fatal("expected an error for a malformed message id")
	}
}

func TestValidateNullifier_EnforcesExactLength(t *testing.T) {
	if err := validateNullifier(make([]byte, 32)); err != nil {
		t.Errorf("expected 32 bytes to be valid, got %v", err)
	}
	if err := validateNullifier(make([]byte, 31)); err == nil {
		t.Error("expected 31 bytes to be rejected")
	}
	if err := validateNullifier(nil); err == nil {
		t.Error("expected a nil nullifier to be rejected")
	}
}

func TestValidateCommitment_EnforcesExactLength(t *testing.T) {
	if err := validateCommitment(make([]byte, 32)); err != nil {
		t.Errorf("expected 32 bytes to be valid, got %v", err)
	}
	if err := validateCommitment(make([]byte, 16)); err == nil {
		t.Error("expected 16 bytes to be rejected")
	}
}

func TestServer_ServeHTTP_RejectsNonPost(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/rpc/HushBlockchain/GetBlockchainHeight", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestServer_ServeHTTP_UnknownRouteIs404(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodPost, "/rpc/NotAService/NotAMethod", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
