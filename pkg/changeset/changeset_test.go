package changeset

import (
	"errors"
	"strings"
	"testing"
)

const messageFixture = `

# First comment
This is the title.
# Another comment

This is the first line of the description.
# This is a comment in the middle of the description
This is the second line of the description.

Branch name: hello

Pull request: https://github.com/Coneko/stack/pull/4
Depends on: https://github.com/Coneko/stack/pull/1, https://github.com/Coneko/stack/pull/2
Depends on: https://github.com/Coneko/stack/pull/3
`

func TestParse_Fixture(t *testing.T) {
	cs, err := Parse(messageFixture, "Coneko", "stack")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cs.Title != "This is the title." {
		t.Errorf("Title = %q, want %q", cs.Title, "This is the title.")
	}
	wantMessage := "This is the first line of the description.\nThis is the second line of the description."
	if cs.Message != wantMessage {
		t.Errorf("Message = %q, want %q", cs.Message, wantMessage)
	}
	if cs.Branch != "hello" {
		t.Errorf("Branch = %q, want %q", cs.Branch, "hello")
	}
	if cs.PullRequest == nil || *cs.PullRequest != 4 {
		t.Errorf("PullRequest = %v, want 4", cs.PullRequest)
	}
	want := []PullRequestID{1, 2, 3}
	if len(cs.Dependencies) != len(want) {
		t.Fatalf("Dependencies = %v, want %v", cs.Dependencies, want)
	}
	for i := range want {
		if cs.Dependencies[i] != want[i] {
			t.Errorf("Dependencies[%d] = %d, want %d", i, cs.Dependencies[i], want[i])
		}
	}
}

func TestParse_MissingTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty string", text: ""},
		{name: "only blank lines", text: "\n\n   \n\t\n"},
		{name: "only comments", text: "# one\n#two\n"},
		{name: "comments and blanks", text: "\n# comment\n\n# another\n"},
		{name: "fields but no title", text: "\n# comment\nBranch name: hello\nPull request: https://github.com/Coneko/stack/pull/1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, "Coneko", "stack")
			if !errors.Is(err, ErrMissingTitle) {
				t.Fatalf("Parse() error = %v, want ErrMissingTitle", err)
			}
			if !strings.Contains(err.Error(), tt.text) {
				t.Errorf("error %q should echo the description", err.Error())
			}
		})
	}
}

func TestParse_TitleOnly(t *testing.T) {
	for _, text := range []string{"This is the title.", "\nThis is the title.\n", "This is the title.\r\n"} {
		cs, err := Parse(text, "Coneko", "stack")
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", text, err)
		}
		if cs.Title != "This is the title." {
			t.Errorf("Title = %q, want %q", cs.Title, "This is the title.")
		}
		if cs.HasMessage() {
			t.Errorf("Message = %q, want none", cs.Message)
		}
		if cs.PullRequest != nil || cs.Branch != "" || len(cs.Dependencies) != 0 {
			t.Errorf("unexpected fields in %+v", cs)
		}
	}
}

func TestParse_BodyOrder(t *testing.T) {
	cs, err := Parse("Title\nfirst\n\n# skipped\nsecond\n", "Coneko", "stack")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cs.Message != "first\nsecond" {
		t.Errorf("Message = %q, want %q", cs.Message, "first\nsecond")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind error
		contains string
	}{
		{
			name:     "duplicate pull request",
			text:     "This is the title.\n\nPull request: https://github.com/Coneko/stack/pull/1\nThis is the longer description of the commit.\nPull request: https://github.com/Coneko/stack/pull/1\n",
			wantKind: ErrDuplicateField,
			contains: "multiple 'Pull request' fields",
		},
		{
			name:     "duplicate pull request names the second line",
			text:     "Title\nPull request: #1\nPull request: #2\n",
			wantKind: ErrDuplicateField,
			contains: "multiple 'Pull request' fields found in changeset description: 'Pull request: #2'",
		},
		{
			name:     "duplicate branch name",
			text:     "Title\nBranch name: a\nBranch name: b\n",
			wantKind: ErrDuplicateField,
			contains: "multiple 'Branch name' fields found in changeset description: 'Branch name: b'",
		},
		{
			name:     "invalid pull request",
			text:     "This is the title.\n\nPull request: hello\n",
			wantKind: ErrInvalidField,
			contains: "could not parse 'Pull request' field: 'Pull request: hello'",
		},
		{
			name:     "empty pull request",
			text:     "Title\nPull request:\n",
			wantKind: ErrInvalidField,
			contains: "Pull request",
		},
		{
			name:     "several pull requests",
			text:     "Title\nPull request: #1, #2\n",
			wantKind: ErrMultipleValues,
			contains: "exactly one",
		},
		{
			name:     "invalid dependency",
			text:     "Title\nDepends on: #1, https://github.com/other/stack/pull/2\n",
			wantKind: ErrInvalidField,
			contains: "Depends on",
		},
		{
			name:     "overflowing dependency",
			text:     "Title\nDepends on: 99999999999999999999\n",
			wantKind: ErrNumberOverflow,
			contains: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, "Coneko", "stack")
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("Parse() error = %v, want kind %v", err, tt.wantKind)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should contain %q", err.Error(), tt.contains)
			}
			if !strings.Contains(err.Error(), tt.text) {
				t.Errorf("error should echo the full description")
			}
		})
	}
}

func TestParse_InvalidPullRequestWrapsReferenceError(t *testing.T) {
	_, err := Parse("Title\nPull request: nope\n", "Coneko", "stack")
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("error %v should wrap *ReferenceError", err)
	}
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("error %v should match ErrNoMatch", err)
	}
}

func TestParse_LabelsAreCaseSensitive(t *testing.T) {
	cs, err := Parse("pull request: #1\n", "Coneko", "stack")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cs.Title != "pull request: #1" || cs.PullRequest != nil {
		t.Errorf("lowercase label should be free text, got %+v", cs)
	}
}

func TestTemplateParsesToCommitMessage(t *testing.T) {
	text := Template("Add widgets\n\nThey spin.\n")
	cs, err := Parse(text, "Coneko", "stack")
	if err != nil {
		t.Fatalf("Parse(Template()) error = %v", err)
	}
	if cs.Title != "Add widgets" {
		t.Errorf("Title = %q, want %q", cs.Title, "Add widgets")
	}
	if cs.Message != "They spin." {
		t.Errorf("Message = %q, want %q", cs.Message, "They spin.")
	}
}
