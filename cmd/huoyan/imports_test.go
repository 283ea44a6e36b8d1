package main

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/huichen/huoyan"

// 可执行文件依赖的本模块的包都不应引入测试工具
func TestBinaryDoesNotImportTestTooling(t *testing.T) {
	visited := map[string]bool{}
	pending := []string{"."}
	for len(pending) > 0 {
		dir := pending[0]
		pending = pending[1:]
		if visited[dir] {
			continue
		}
		visited[dir] = true

		for _, path := range packageImports(t, dir) {
			assert.NotEqual(t, "testing", path, dir)
			assert.False(t, strings.HasPrefix(path, "github.com/stretchr/testify"), "%s imports %s", dir, path)
			if strings.HasPrefix(path, modulePath+"/") {
				pending = append(pending, filepath.Join("..", "..", strings.TrimPrefix(path, modulePath+"/")))
			}
		}
	}
	assert.True(t, visited[filepath.Join("..", "..", "engine")])
}

// 目录下非测试文件引入的包
func packageImports(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	imports := []string{}
	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, spec := range file.Imports {
			path, err := strconv.Unquote(spec.Path.Value)
			require.NoError(t, err)
			imports = append(imports, path)
		}
	}
	return imports
}
