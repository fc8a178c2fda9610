package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-transitions/internal/config"
	"github.com/jonathan/career-transitions/internal/server"
	"github.com/jonathan/career-transitions/internal/types"
)

// execute runs the root command in-process with fresh flag values and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// isolateEnv clears the settings a developer's environment could leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"DATABASE_URL", "DIRECTORY_URL", "DIRECTORY_API_KEY", "NATS_URL", "RULES_PATH", "JWT_SECRET", "JWT_EXPIRATION_HOURS"} {
		t.Setenv(name, "")
	}
	t.Setenv("DIRECTORY_RPS", "1000")
}

// fakeDirectory serves Bain & Company with two former consultants, one who joined Google and one KKR.
func fakeDirectory(t *testing.T) string {
	t.Helper()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	person := func(id, next string) map[string]any {
		return map[string]any{
			"id":        id,
			"full_name": id,
			"experience": []map[string]string{
				{"company_id": "c-bain", "company_name": "Bain & Company", "title": "Consultant", "start_date": "2018-01", "end_date": "2020-06-01"},
				{"company_name": next, "title": "Associate", "start_date": "2020-07-01"},
			},
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/companies/search", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"companies": []map[string]any{{"id": "c-bain", "name": "Bain & Company"}}})
	})
	mux.HandleFunc("/companies/c-bain/employees", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("current") == "true" {
			writeJSON(w, map[string]any{"people": []any{}, "page": 1, "total_pages": 1})
			return
		}
		writeJSON(w, map[string]any{
			"people":      []map[string]string{{"id": "p-1", "full_name": "p-1"}, {"id": "p-2", "full_name": "p-2"}},
			"page":        1,
			"total_pages": 1,
		})
	})
	mux.HandleFunc("/people/p-1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, person("p-1", "Google"))
	})
	mux.HandleFunc("/people/p-2", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, person("p-2", "KKR"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestClassifyCommand(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "classify", "McKinsey & Company", "Zzzqqx Corp")
	require.NoError(t, err)
	assert.Contains(t, out, "McKinsey & Company\tConsulting\n")
	assert.Contains(t, out, "Zzzqqx Corp\tOther\n")
	assert.NotContains(t, out, "industry rules")
}

func TestClassifyCommand_Version(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "classify", "--version")
	require.NoError(t, err)
	assert.Equal(t, "industry rules 2024.3\n", out)
}

func TestClassifyCommand_RequiresNames(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "classify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one company name")
}

func TestTokenCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")

	out, err := execute(t, "token", "--subject", "analyst")
	require.NoError(t, err)

	svc := server.NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	claims, err := svc.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "analyst", claims.Subject)
}

func TestTokenCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		args    []string
		wantErr string
	}{
		{
			name:    "missing secret",
			args:    []string{"token", "--subject", "analyst"},
			wantErr: "JWT secret is required",
		},
		{
			name:    "missing subject",
			secret:  "test-secret",
			args:    []string{"token"},
			wantErr: `required flag(s) "subject" not set`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv("JWT_SECRET", tt.secret)

			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMigrateCommand_RequiresDatabase(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestAskCommand_WithoutDirectory(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "ask", "--json", "hello")
	require.NoError(t, err)
	var result types.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, types.QueryClarification, result.Type)

	out, err = execute(t, "ask", "--json", "Where do Bain consultants exit to?")
	require.NoError(t, err)
	result = types.Result{}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "directory URL is required")
}

func TestIngestCommand_RequiresDirectory(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "ingest", "--company", "Bain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory URL is required")
}

func TestAskCommand_JSON(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIRECTORY_URL", fakeDirectory(t))

	out, err := execute(t, "ask", "--json", "Where", "do", "consultants", "from", "Bain", "exit", "to?")
	require.NoError(t, err)

	var result types.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.True(t, result.Success, result.Summary)
	assert.Equal(t, types.QueryExitsFrom, result.Type)
	require.NotNil(t, result.Data)
	assert.Equal(t, 2, result.Data.TotalAnalyzed)
	assert.Equal(t, 2, result.Data.CohortSize)
	assert.Len(t, result.Data.Exits, 2)
}

func TestAskCommand_Box(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIRECTORY_URL", fakeDirectory(t))

	out, err := execute(t, "ask", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "CLARIFICATION")
	assert.Contains(t, out, "Where do consultants from Bain exit to?")
}

func TestIngestCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIRECTORY_URL", fakeDirectory(t))

	out, err := execute(t, "ingest", "--company", "Bain")
	require.NoError(t, err)
	assert.Equal(t, "Bain & Company: scanned 2 former employees, stored 2 transitions, skipped 0\n", out)
}

func TestIngestCommand_Errors(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIRECTORY_URL", fakeDirectory(t))

	_, err := execute(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "company" not set`)

	_, err = execute(t, "ingest", "--company", "Bain", "--tolerance-days", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}
