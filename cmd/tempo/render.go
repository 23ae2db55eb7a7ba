package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benjaminschreck/go-tempo/pkg/dataload"
	"github.com/benjaminschreck/go-tempo/pkg/dom"
	"github.com/benjaminschreck/go-tempo/pkg/dom/htmldom"
	"github.com/benjaminschreck/go-tempo/pkg/dom/xmldom"
	"github.com/benjaminschreck/go-tempo/pkg/tempo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// renderOptions holds the flags of the render command.
type renderOptions struct {
	input     string
	format    string
	container string
	data      []string
	key       string
	mode      string
	output    string
	config    string
	events    bool
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render data files into a document's templates",
		Example: `  tempo render -i page.html -c people -d 'data/**/*.yaml'
  tempo render -i feed.xml -d feed.json -k entries --mode append -o out.xml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				f, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				out = f
			}
			return runRender(opts, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "document containing the templates")
	flags.StringVar(&opts.format, "format", "", "document format: html or xml (default from extension)")
	flags.StringVarP(&opts.container, "container", "c", "", "id of the container element (default: body or root)")
	flags.StringArrayVarP(&opts.data, "data", "d", nil, "data file or glob; repeatable")
	flags.StringVarP(&opts.key, "key", "k", "", "path into the loaded data to render")
	flags.StringVar(&opts.mode, "mode", "render", "render, append or prepend")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.StringVar(&opts.config, "config", "", "TOML or YAML configuration file")
	flags.BoolVar(&opts.events, "events", false, "log lifecycle events")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// runRender loads the document and data, renders, and writes the document to w.
func runRender(opts *renderOptions, w io.Writer) error {
	logger := log.With().Str("component", "render").Logger()

	cfg, err := tempo.LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	engine := tempo.NewWithOptions(tempo.WithConfig(cfg), tempo.WithLogger(logger))

	doc, err := loadDocument(opts.input, opts.format)
	if err != nil {
		return err
	}

	renderer, err := prepare(engine, doc, opts.container)
	if err != nil {
		return err
	}

	data, err := loadData(opts.data, opts.key)
	if err != nil {
		return err
	}

	if opts.events {
		renderer.Notify(func(ev tempo.Event) {
			logger.Info().Str("event", ev.Type.String()).Msg("lifecycle")
		})
	}

	switch opts.mode {
	case "", "render":
		renderer.Render(data)
	case "append":
		renderer.Append(data)
	case "prepend":
		renderer.Prepend(data)
	default:
		return fmt.Errorf("unknown mode %q (want render, append or prepend)", opts.mode)
	}

	if err := renderer.Err(); err != nil {
		logger.Warn().Err(err).Msg("rendered with errors")
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// loadDocument parses path as HTML or XML.
func loadDocument(path, format string) (dom.Document, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xml", ".xhtml", ".svg":
			format = "xml"
		default:
			format = "html"
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	switch format {
	case "html":
		return htmldom.Parse(f)
	case "xml":
		return xmldom.Parse(f)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

func prepare(engine *tempo.Engine, doc dom.Document, id string) (*tempo.Renderer, error) {
	if id != "" {
		return engine.PrepareID(doc, id)
	}

	var root dom.Element
	var ok bool
	switch d := doc.(type) {
	case *htmldom.Document:
		root, ok = d.Body()
	case *xmldom.Document:
		root, ok = d.Root()
	}
	if !ok {
		return nil, tempo.ErrContainerNotFound
	}
	return engine.Prepare(root)
}

// loadData loads the data files. A single file is rendered as loaded; several files are
// rendered as one list. key then selects a path inside the result.
func loadData(patterns []string, key string) (interface{}, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no data files given")
	}
	items, err := dataload.LoadGlob(patterns...)
	if err != nil {
		return nil, err
	}

	var data interface{} = items
	if len(items) == 1 {
		data = items[0]
	}
	if key == "" {
		return data, nil
	}

	value, ok := tempo.ResolvePath(data, key)
	if !ok {
		return nil, fmt.Errorf("data has no value at %q", key)
	}
	return value, nil
}
