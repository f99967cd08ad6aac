package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIEmailSenderSuccess(t *testing.T) {
	t.Parallel()

	var gotBody mailSendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("path = %s, want /v3/mail/send", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender, err := NewAPIEmailSender(server.URL, "sg_key", "leads@example.com")
	if err != nil {
		t.Fatalf("NewAPIEmailSender() error = %v", err)
	}

	msg := EmailMessage{
		To:       "provider@example.com",
		Subject:  "New STANDARD lead in 90210",
		TextBody: "details",
		HTMLBody: "<p>details</p>",
	}
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send() unexpected error = %v", err)
	}

	if len(gotBody.Personalizations) != 1 || len(gotBody.Personalizations[0].To) != 1 {
		t.Fatalf("personalizations = %+v, want one recipient", gotBody.Personalizations)
	}
	if gotBody.Personalizations[0].To[0].Email != "provider@example.com" {
		t.Fatalf("to = %q, want provider@example.com", gotBody.Personalizations[0].To[0].Email)
	}
	if gotBody.From.Email != "leads@example.com" {
		t.Fatalf("from = %q, want default from", gotBody.From.Email)
	}
	if len(gotBody.Content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(gotBody.Content))
	}
}

func TestAPIEmailSenderFailureStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad address"}]}`))
	}))
	defer server.Close()

	sender, err := NewAPIEmailSender(server.URL, "sg_key", "leads@example.com")
	if err != nil {
		t.Fatalf("NewAPIEmailSender() error = %v", err)
	}

	err = sender.Send(context.Background(), EmailMessage{
		To:       "provider@example.com",
		Subject:  "subject",
		TextBody: "body",
	})
	if err == nil {
		t.Fatal("Send() expected error for 400 response")
	}
}

func TestAPIEmailSenderRejectsEmptyMessages(t *testing.T) {
	t.Parallel()

	sender, err := NewAPIEmailSender("https://mail.example.com", "sg_key", "leads@example.com")
	if err != nil {
		t.Fatalf("NewAPIEmailSender() error = %v", err)
	}

	if err := sender.Send(context.Background(), EmailMessage{Subject: "s", TextBody: "b"}); err == nil {
		t.Fatal("Send() without recipient should fail")
	}
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.c", TextBody: "b"}); err == nil {
		t.Fatal("Send() without subject should fail")
	}
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.c", Subject: "s"}); err == nil {
		t.Fatal("Send() without body should fail")
	}
}
