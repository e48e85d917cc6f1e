package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

// Backend-touching commands must open connections through withBackend so the
// connection is always released.
func TestBackendCommandsUseScopedConnection(t *testing.T) {
	constructors := map[string]bool{
		"newUploadCmd": false,
		"newSizeCmd":   false,
		"newShowCmd":   false,
		"newVerifyCmd": false,
	}

	fset := token.NewFileSet()
	for _, path := range commandSourceFiles(t) {
		file, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Body == nil {
				continue
			}
			if _, tracked := constructors[fn.Name.Name]; !tracked {
				continue
			}
			constructors[fn.Name.Name] = callsFunc(fn.Body, "withBackend")
		}
	}

	for name, scoped := range constructors {
		if !scoped {
			t.Fatalf("%s does not open its backend through withBackend", name)
		}
	}
}

// Only backend.go may construct backends.
func TestBackendConstructionIsCentralized(t *testing.T) {
	fset := token.NewFileSet()
	for _, path := range commandSourceFiles(t) {
		if filepath.Base(path) == "backend.go" {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		for _, imp := range file.Imports {
			importPath, _ := strconv.Unquote(imp.Path.Value)
			if importPath == "gffstore/internal/store" || strings.HasPrefix(importPath, "go.mongodb.org/") {
				t.Fatalf("%s imports %s; dial backends in backend.go", filepath.Base(path), importPath)
			}
		}
	}
}

func callsFunc(body *ast.BlockStmt, name string) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if ident, ok := call.Fun.(*ast.Ident); ok && ident.Name == name {
			found = true
			return false
		}
		return true
	})
	return found
}

func commandSourceFiles(t *testing.T) []string {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	dir := filepath.Dir(self)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		t.Fatal("no command source files found")
	}
	return files
}
