// Package cynthiaplugin wires the plugin runtime behind the cynthia-plugin
// command: configuration, stdout logging, the stdio transport and the router.
package cynthiaplugin

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/cynthia-web/plugin-sdk-go/application/config"
	"github.com/cynthia-web/plugin-sdk-go/application/correlator"
	"github.com/cynthia-web/plugin-sdk-go/application/plugin"
	"github.com/cynthia-web/plugin-sdk-go/application/schema"
	"github.com/cynthia-web/plugin-sdk-go/application/template"
	"github.com/cynthia-web/plugin-sdk-go/application/validation"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
	"github.com/cynthia-web/plugin-sdk-go/infrastructure/parser"
	"github.com/cynthia-web/plugin-sdk-go/infrastructure/stdio"
	"github.com/cynthia-web/plugin-sdk-go/log"
)

// Commands understood after the flags.
const (
	CommandServe    = "serve"
	CommandSchema   = "schema"
	CommandManifest = "manifest"
)

// Options holds the parsed command line.
type Options struct {
	ConfigPath string
	Command    string
	Args       []string
}

// ParseArgs parses flags and the command from args. No command means serve.
func ParseArgs(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "path to a TOML config file")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	rest := fs.Args()
	opts.Command = CommandServe
	if len(rest) > 0 {
		opts.Command, opts.Args = rest[0], rest[1:]
	}

	switch opts.Command {
	case CommandServe, CommandSchema, CommandManifest:
		return opts, nil
	default:
		return Options{}, fmt.Errorf("unknown command %q", opts.Command)
	}
}

// Run executes the command in opts. Requests are read from stdin; responses
// and log lines share stdout.
func Run(ctx context.Context, opts Options, stdin io.Reader, stdout io.Writer) error {
	switch opts.Command {
	case CommandSchema:
		return printSchemas(stdout, opts.Args)
	case CommandManifest:
		return printManifest(stdout, opts.Args)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	return Serve(ctx, cfg, stdin, stdout)
}

// Serve answers requests from stdin until it is exhausted or ctx is done.
func Serve(ctx context.Context, cfg config.Config, stdin io.Reader, stdout io.Writer) error {
	out := stdio.NewSyncWriter(stdout)
	logger := log.Setup(out, log.WithLevel(cfg.Level()))
	console := log.NewConsole(logger)

	sink, err := responseSink(cfg, out, logger)
	if err != nil {
		return err
	}

	renderer := template.NewHTMLRenderer(
		template.WithRoot(cfg.TemplateRoot),
		template.WithAllowedPatterns(cfg.TemplateGlobs...),
	)
	router, err := plugin.NewRouter(
		plugin.WithMiddleware(
			plugin.LoggingMiddleware(logger),
			plugin.RecoverMiddleware(),
			plugin.ValidationMiddleware(),
		),
		plugin.WithContentRenderHandler(plugin.RenderContent(renderer)),
	)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	reader := stdio.NewReader(stdin, stdio.WithMaxLineBytes(cfg.MaxLineBytes))
	defer reader.Close()

	c := correlator.New(sink, correlator.WithLogger(logger))
	p := plugin.New(router, c, plugin.WithLogger(logger))

	console.Info(fmt.Sprintf("plugin ready, handling %v", router.Kinds()))
	if err := p.Serve(ctx, reader); err != nil {
		return err
	}
	console.Debug("request stream closed")
	return nil
}

func responseSink(cfg config.Config, w io.Writer, logger *slog.Logger) (ports.DispatchSink, error) {
	var sink ports.DispatchSink = stdio.NewLineSink(w, stdio.WithPrefix(cfg.ResponsePrefix))
	if !cfg.ValidateResponses {
		return sink, nil
	}

	v, err := validation.NewResponseValidator()
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	logger.Debug("validating outgoing responses")
	return validation.NewValidatingSink(sink, v), nil
}

func printSchemas(w io.Writer, args []string) error {
	generators := map[string]func() ([]byte, error){
		"request":  schema.RequestSchema,
		"response": schema.ResponseSchema,
		"config":   func() ([]byte, error) { return schema.GenerateSchema(config.Config{}) },
		"manifest": func() ([]byte, error) { return schema.GenerateSchema(entities.PluginManifest{}) },
	}
	names := []string{"request", "response"}
	if len(args) > 0 {
		if _, ok := generators[args[0]]; !ok {
			return fmt.Errorf("unknown schema %q: want request, response, config or manifest", args[0])
		}
		names = args[:1]
	}

	for _, name := range names {
		doc, err := generators[name]()
		if err != nil {
			return fmt.Errorf("generate %s schema: %w", name, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", doc); err != nil {
			return err
		}
	}
	return nil
}

func printManifest(w io.Writer, args []string) error {
	path := parser.ManifestFile
	if len(args) > 0 {
		path = args[0]
	}

	manifest, err := parser.LoadManifest(filepath.Clean(path))
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
