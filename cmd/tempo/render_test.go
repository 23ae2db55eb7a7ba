package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunRenderHTML(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "page.html",
		`<!DOCTYPE html><html><body><ul id="people"><li data-template>{{name | upper}}</li></ul></body></html>`)
	data := writeFile(t, dir, "people.json", `{"people": [{"name": "ada"}, {"name": "alan"}]}`)

	var out bytes.Buffer
	err := runRender(&renderOptions{
		input:     input,
		container: "people",
		data:      []string{data},
		key:       "people",
		mode:      "render",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `<ul id="people"><li data-template="">ADA</li><li data-template="">ALAN</li></ul>`)
}

func TestRunRenderXMLAppend(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "feed.xml", `<feed><entry id="x">old</entry><entry data-template="">{{title}}</entry></feed>`)
	writeFile(t, dir, "a.yaml", "title: first\n")
	writeFile(t, dir, "b.yaml", "title: second\n")

	var out bytes.Buffer
	err := runRender(&renderOptions{
		input: input,
		data:  []string{filepath.Join(dir, "*.yaml")},
		mode:  "append",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(),
		`<feed><entry id="x">old</entry><entry data-template="">first</entry><entry data-template="">second</entry></feed>`)
}

func TestRunRenderErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "page.html", `<div id="c"><p data-template>{{.}}</p></div>`)
	data := writeFile(t, dir, "d.json", `["x"]`)

	tests := []struct {
		name string
		opts renderOptions
		want string
	}{
		{name: "bad mode", opts: renderOptions{input: input, data: []string{data}, mode: "sideways"}, want: "unknown mode"},
		{name: "no data", opts: renderOptions{input: input, mode: "render"}, want: "no data files"},
		{name: "missing container", opts: renderOptions{input: input, container: "nope", data: []string{data}}, want: "#nope"},
		{name: "missing key", opts: renderOptions{input: input, data: []string{data}, key: "a.b"}, want: `no value at "a.b"`},
		{name: "bad document format", opts: renderOptions{input: input, format: "pdf", data: []string{data}}, want: "unknown document format"},
		{name: "missing input", opts: renderOptions{input: filepath.Join(dir, "none.html"), data: []string{data}}, want: "failed to open document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts := tt.opts
			err := runRender(&opts, &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, out.Len())
		})
	}
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	one := writeFile(t, dir, "one.json", `{"user": {"tags": ["a", "b"]}}`)
	writeFile(t, dir, "two.json", `{"n": 2}`)

	got, err := loadData([]string{one}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"user": map[string]interface{}{"tags": []interface{}{"a", "b"}}}, got)

	got, err = loadData([]string{one}, "user.tags")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, got)

	got, err = loadData([]string{filepath.Join(dir, "*.json")}, "")
	require.NoError(t, err)
	assert.Len(t, got, 2, "several files render as one list")
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "tempo version dev")
}

func TestRenderCommandRequiresInput(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"render"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}
