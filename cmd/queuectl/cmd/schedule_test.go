package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"jobqueue/pkg/api"
)

func TestScheduleCommand_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody["interval"] != "daily" {
			t.Errorf("expected interval=daily, got %v", reqBody["interval"])
		}

		json.NewEncoder(w).Encode(api.ScheduleRecurringResponse{Registered: true})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"schedule", "--name", "nightly_report", "--interval", "daily"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "registered") {
		t.Errorf("expected success message, got: %s", stdout.String())
	}
}

func TestScheduleCommand_MissingInterval(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called when validation fails")
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	scheduleCmd.Flags().Set("interval", "")
	rootCmd.SetArgs([]string{"schedule", "--name", "nightly_report"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "--interval is required") {
		t.Errorf("expected validation error, got: %s", stdout.String())
	}
}
