package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiffCommand(t *testing.T) {
	tests := []struct {
		name            string
		expected        string
		actual          string
		args            []string
		wantStatus      string
		wantScore       *float64
		checkDiffOutput func(t *testing.T, diffOutput string)
	}{
		{
			name:       "identical scripts",
			expected:   "connect 8001\nwrite \"Hello, world!\"\n",
			actual:     "connect 8001\nwrite \"Hello, world!\"\n",
			args:       []string{"--score", "100"},
			wantStatus: "success",
			wantScore:  floatPtr(100),
		},
		{
			name:       "different scripts",
			expected:   "Line 1\nLine 2\nLine 3\n",
			actual:     "Line 1\nLine 2 modified\nLine 3\n",
			args:       []string{"--score", "100"},
			wantStatus: "mismatch",
			wantScore:  floatPtr(0),
			checkDiffOutput: func(t *testing.T, diffOutput string) {
				if !strings.Contains(diffOutput, "-Line 2\n") || !strings.Contains(diffOutput, "+Line 2 modified\n") {
					t.Errorf("Unexpected diff output:\n%s", diffOutput)
				}
			},
		},
		{
			name:       "multi-line transcripts",
			expected:   "accepted\nread \"Hello, world!\"\nclosed\n",
			actual:     "accepted\nread \"Hello, there\"\nclosed\n",
			wantStatus: "mismatch",
			checkDiffOutput: func(t *testing.T, diffOutput string) {
				hunk := "@@ -1,3 +1,3 @@\n accepted\n-read \"Hello, world!\"\n+read \"Hello, there\"\n closed\n"
				if !strings.HasSuffix(diffOutput, hunk) {
					t.Errorf("diff output =\n%s\nwant it to end with\n%s", diffOutput, hunk)
				}
			},
		},
		{
			name:       "without score flag",
			expected:   "Same content",
			actual:     "Same content",
			wantStatus: "success",
		},
		{
			name:       "empty scripts",
			args:       []string{"--score", "50"},
			wantStatus: "success",
			wantScore:  floatPtr(50),
		},
		{
			name:       "one empty one non-empty",
			actual:     "Content\n",
			args:       []string{"--score", "75"},
			wantStatus: "mismatch",
			wantScore:  floatPtr(0),
			checkDiffOutput: func(t *testing.T, diffOutput string) {
				if !strings.Contains(diffOutput, "+Content") {
					t.Errorf("Expected diff output to contain '+Content', got:\n%s", diffOutput)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			expectedFile := filepath.Join(tmpDir, "expected.txt")
			actualFile := filepath.Join(tmpDir, "actual.txt")
			diffFile := filepath.Join(tmpDir, "nested", "diff.txt")
			writeFile(t, expectedFile, tt.expected)
			writeFile(t, actualFile, tt.actual)

			args := append([]string{"diff", "-e", expectedFile, "-a", actualFile, "-o", diffFile}, tt.args...)
			stdout, _, err := executeCommand(t, args...)
			if err != nil {
				t.Fatalf("diff returned error: %v", err)
			}

			result := decodeOne(t, stdout)
			if result["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", result["status"], tt.wantStatus)
			}
			if result["expected"] != expectedFile || result["actual"] != actualFile {
				t.Errorf("paths = %v, %v", result["expected"], result["actual"])
			}

			if tt.wantScore == nil {
				if score, ok := result["score"]; ok {
					t.Errorf("Score should be absent, got %v", score)
				}
			} else if result["score"] != *tt.wantScore {
				t.Errorf("score = %v, want %v", result["score"], *tt.wantScore)
			}

			if tt.checkDiffOutput == nil {
				if _, err := os.Stat(diffFile); !os.IsNotExist(err) {
					t.Errorf("Diff file should only be written on mismatch, stat err = %v", err)
				}
				if _, ok := result["diff"]; ok {
					t.Error("Diff path should only be reported on mismatch")
				}
				return
			}

			if result["diff"] != diffFile {
				t.Errorf("diff = %v, want %s", result["diff"], diffFile)
			}
			diffContent, err := os.ReadFile(diffFile)
			if err != nil {
				t.Fatalf("Failed to read diff output file: %v", err)
			}
			tt.checkDiffOutput(t, string(diffContent))
		})
	}
}

func TestDiffCommandValidation(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "expected.txt")
	writeFile(t, existing, "x")

	tests := []struct {
		name      string
		args      []string
		wantError string
	}{
		{
			name:      "missing expected flag",
			args:      []string{"diff", "-a", existing},
			wantError: `required flag(s) "expected" not set`,
		},
		{
			name:      "missing actual flag",
			args:      []string{"diff", "-e", existing},
			wantError: `required flag(s) "actual" not set`,
		},
		{
			name:      "unreadable actual file",
			args:      []string{"diff", "-e", existing, "-a", filepath.Join(tmpDir, "nope.txt")},
			wantError: "failed to read actual file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Error = %v, want error containing %q", err, tt.wantError)
			}
		})
	}
}

func TestDiffCommandVerbose(t *testing.T) {
	tmpDir := t.TempDir()
	expectedFile := filepath.Join(tmpDir, "expected.txt")
	actualFile := filepath.Join(tmpDir, "actual.txt")
	writeFile(t, expectedFile, "a\n")
	writeFile(t, actualFile, "b\n")

	_, stderr, err := executeCommand(t, "diff", "-v", "-e", expectedFile, "-a", actualFile)
	if err != nil {
		t.Fatalf("diff returned error: %v", err)
	}
	if !strings.Contains(stderr, "-a\n") || !strings.Contains(stderr, "+b\n") {
		t.Errorf("Expected the diff on stderr, got:\n%s", stderr)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
