package lang

import (
	"context"
	"testing"
)

func TestIsSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"A.java", true},
		{"src/main/java/com/acme/A.java", true},
		{"A.kt", false},
		{"A.java.orig", false},
		{"java", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsSource(tt.path); got != tt.want {
			t.Errorf("IsSource(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHeaderQuery(t *testing.T) {
	t.Parallel()

	q, err := Java().HeaderQuery()
	if err != nil {
		t.Fatalf("HeaderQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
}

func TestImportModifiers(t *testing.T) {
	t.Parallel()

	src := []byte("import static java.util.Locale.US;\nimport java.util.*;\nimport java.util.Locale;\n")
	tree, err := Java().NewParser().ParseCtx(context.Background(), nil, src)
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()
	root := tree.RootNode()

	tests := []struct {
		static, wildcard bool
	}{
		{true, false},
		{false, true},
		{false, false},
	}
	if int(root.NamedChildCount()) != len(tests) {
		t.Fatalf("got %d declarations, want %d", root.NamedChildCount(), len(tests))
	}
	for i, tt := range tests {
		decl := root.NamedChild(i)
		if got := HasKeyword(decl, "static"); got != tt.static {
			t.Errorf("import %d: static = %v, want %v", i, got, tt.static)
		}
		if got := IsWildcard(decl); got != tt.wildcard {
			t.Errorf("import %d: wildcard = %v, want %v", i, got, tt.wildcard)
		}
	}
}
